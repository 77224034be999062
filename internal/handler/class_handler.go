package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/minhlq/uni-registry-api/internal/middleware"
	"github.com/minhlq/uni-registry-api/internal/models"
	"github.com/minhlq/uni-registry-api/internal/service"
	appErrors "github.com/minhlq/uni-registry-api/pkg/errors"
	"github.com/minhlq/uni-registry-api/pkg/response"
)

// UpdateClassStatusRequest holds payload for class status changes.
type UpdateClassStatusRequest struct {
	Status models.ClassStatus `json:"status" binding:"required"`
}

// AssignTeacherRequest holds payload for teacher assignment.
type AssignTeacherRequest struct {
	TeacherID string `json:"teacher_id" binding:"required"`
}

// ClassHandler exposes class endpoints.
type ClassHandler struct {
	classes     *service.ClassService
	assignments *service.TeacherAssignmentService
}

// NewClassHandler constructs ClassHandler.
func NewClassHandler(classes *service.ClassService, assignments *service.TeacherAssignmentService) *ClassHandler {
	return &ClassHandler{classes: classes, assignments: assignments}
}

// Create godoc
// @Summary Create a class offering
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Get godoc
// @Summary Get class detail
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Param departmentId query string false "Filter by department"
// @Param courseId query string false "Filter by course"
// @Param teacherId query string false "Filter by teacher"
// @Param semester query string false "Filter by semester"
// @Param academicYear query string false "Filter by academic year"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	var filter models.ClassFilter
	filter.DepartmentID = c.Query("departmentId")
	filter.CourseID = c.Query("courseId")
	filter.TeacherID = c.Query("teacherId")
	filter.Semester = models.Semester(c.Query("semester"))
	filter.AcademicYear = c.Query("academicYear")
	filter.Status = models.ClassStatus(c.Query("status"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	classes, pagination, err := h.classes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Available godoc
// @Summary List classes the calling student can register in
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/me/available-classes [get]
func (h *ClassHandler) Available(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classes, err := h.classes.AvailableForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// UpdateStatus godoc
// @Summary Change class lifecycle status
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body UpdateClassStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/status [put]
func (h *ClassHandler) UpdateStatus(c *gin.Context) {
	var req UpdateClassStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// AssignTeacher godoc
// @Summary Assign a teacher to a class
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body AssignTeacherRequest true "Teacher to assign"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/teacher [put]
func (h *ClassHandler) AssignTeacher(c *gin.Context) {
	var req AssignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.assignments.Assign(c.Request.Context(), c.Param("id"), req.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Phân công giáo viên thành công!", class)
}
