package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-portal/internal/models"
	"github.com/noah-isme/lms-portal/internal/service"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
	"github.com/noah-isme/lms-portal/pkg/response"
)

type registrationService interface {
	Register(ctx context.Context, req models.RegistrationRequest) (*service.RegistrationResult, error)
}

// AuthHandler serves self-service sign-up.
type AuthHandler struct {
	registration registrationService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(registration registrationService) *AuthHandler {
	return &AuthHandler{registration: registration}
}

// Register godoc
// @Summary Register an account
// @Description Lecturer accounts stay inactive until an admin approves them.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.RegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	result, err := h.registration.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
