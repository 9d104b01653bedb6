package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/westservices/ticketd/internal/api/dto"
	"github.com/westservices/ticketd/internal/service"
	apperrors "github.com/westservices/ticketd/pkg/util"
)

// AuthHandler exposes ops-API authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	token, expiresAt, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
	})
}

// IssueStaffToken handles POST /auth/tokens/staff (admin only).
func (h *AuthHandler) IssueStaffToken(c *fiber.Ctx) error {
	var req dto.StaffTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	token, expiresAt, err := h.auth.IssueStaffToken(req.SubjectID)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
	})
}
