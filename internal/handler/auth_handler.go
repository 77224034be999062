package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minhlq/uni-registry-api/internal/middleware"
	"github.com/minhlq/uni-registry-api/internal/service"
	appErrors "github.com/minhlq/uni-registry-api/pkg/errors"
	"github.com/minhlq/uni-registry-api/pkg/response"
)

// AuthHandler exposes session endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Logout godoc
// @Summary Revoke the presented access token
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Đăng xuất thành công!", nil)
}
