package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minhlq/uni-registry-api/internal/service"
	appErrors "github.com/minhlq/uni-registry-api/pkg/errors"
	"github.com/minhlq/uni-registry-api/pkg/response"
)

// GradeHandler exposes grade finalization endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Finalize godoc
// @Summary Record a final score and close the enrollment
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.FinalizeGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Finalize(c *gin.Context) {
	var req service.FinalizeGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.grades.Finalize(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Ghi nhận điểm thành công!", result)
}
