package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minhlq/uni-registry-api/internal/middleware"
	"github.com/minhlq/uni-registry-api/internal/models"
	"github.com/minhlq/uni-registry-api/internal/service"
	appErrors "github.com/minhlq/uni-registry-api/pkg/errors"
	"github.com/minhlq/uni-registry-api/pkg/response"
)

// ScheduleHandler exposes timetable endpoints.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// StudentTimetable godoc
// @Summary Get the calling student's weekly timetable
// @Tags Schedules
// @Produce json
// @Param semester query string false "Scope to semester"
// @Param academicYear query string false "Scope to academic year"
// @Success 200 {object} response.Envelope
// @Router /students/me/schedule [get]
func (h *ScheduleHandler) StudentTimetable(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.schedules.StudentTimetable(c.Request.Context(), claims.UserID, periodFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// TeacherTimetable godoc
// @Summary Get the calling teacher's weekly timetable
// @Tags Schedules
// @Produce json
// @Param semester query string false "Scope to semester"
// @Param academicYear query string false "Scope to academic year"
// @Success 200 {object} response.Envelope
// @Router /teachers/me/schedule [get]
func (h *ScheduleHandler) TeacherTimetable(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.schedules.TeacherTimetable(c.Request.Context(), claims.UserID, periodFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

func periodFromQuery(c *gin.Context) *models.AcademicPeriod {
	semester := c.Query("semester")
	year := c.Query("academicYear")
	if semester == "" || year == "" {
		return nil
	}
	return &models.AcademicPeriod{Semester: models.Semester(semester), AcademicYear: year}
}
