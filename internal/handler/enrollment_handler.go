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

// EnrollmentRequest identifies the class a student enrolls in or withdraws
// from.
type EnrollmentRequest struct {
	ClassID string `json:"class_id" binding:"required"`
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	metrics     *service.MetricsService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, metrics *service.MetricsService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, metrics: metrics}
}

// Enroll godoc
// @Summary Register the calling student in a class
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body EnrollmentRequest true "Class to register in"
// @Success 201 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), claims.UserID, req.ClassID)
	h.observe(err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Đăng ký lớp học thành công!", enrollment)
}

// Cancel godoc
// @Summary Withdraw the calling student from a class
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body EnrollmentRequest true "Class to withdraw from"
// @Success 200 {object} response.Envelope
// @Router /enrollments/cancel [post]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Cancel(c.Request.Context(), claims.UserID, req.ClassID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Hủy đăng ký lớp học thành công!", enrollment)
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param classId query string false "Filter by class"
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := enrollmentFilterFromQuery(c)
	filter.StudentID = c.Query("studentId")
	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// ListMine godoc
// @Summary List the calling student's enrollments
// @Tags Enrollments
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students/me/enrollments [get]
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := enrollmentFilterFromQuery(c)
	enrollments, pagination, err := h.enrollments.ListForUser(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// DepartmentConflicts godoc
// @Summary Audit cross-department enrollments and assignments
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/enrollment-conflicts [get]
func (h *EnrollmentHandler) DepartmentConflicts(c *gin.Context) {
	report, err := h.enrollments.DepartmentConflicts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

func (h *EnrollmentHandler) observe(err error) {
	if h.metrics == nil {
		return
	}
	if err == nil {
		h.metrics.ObserveEnrollment("success")
		return
	}
	appErr := appErrors.FromError(err)
	h.metrics.ObserveEnrollment(appErr.Code)
	if appErr.Code == appErrors.ErrClassFull.Code {
		h.metrics.ObserveSeatConflict()
	}
}

func enrollmentFilterFromQuery(c *gin.Context) models.EnrollmentFilter {
	var filter models.EnrollmentFilter
	filter.ClassID = c.Query("classId")
	filter.Status = models.EnrollmentStatus(c.Query("status"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}
