package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/westservices/ticketd/internal/api/dto"
	"github.com/westservices/ticketd/internal/auth"
	"github.com/westservices/ticketd/internal/service"
	apperrors "github.com/westservices/ticketd/pkg/util"
)

// BlacklistHandler administers the ticket-creation blacklist.
type BlacklistHandler struct {
	access *service.AccessService
}

// NewBlacklistHandler constructs handler.
func NewBlacklistHandler(access *service.AccessService) *BlacklistHandler {
	return &BlacklistHandler{access: access}
}

// List handles GET /blacklist.
func (h *BlacklistHandler) List(c *fiber.Ctx) error {
	entries := h.access.BlacklistEntries()
	out := make([]dto.BlacklistEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, dto.NewBlacklistEntry(entry))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Add handles POST /blacklist.
func (h *BlacklistHandler) Add(c *fiber.Ctx) error {
	var req dto.BlacklistAddRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" || req.Reason == "" {
		return apperrors.NewValidationError("user_id and reason required", nil)
	}

	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.access.BlacklistAdd(c.UserContext(), req.UserID, req.Reason, principal.SubjectID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusCreated)
}

// Remove handles DELETE /blacklist/:userID.
func (h *BlacklistHandler) Remove(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	userID := c.Params("userID")
	removed, err := h.access.BlacklistRemove(c.UserContext(), userID, principal.SubjectID)
	if err != nil {
		return err
	}
	if !removed {
		return apperrors.NewNotFound("blacklist entry", map[string]any{"user_id": userID})
	}
	return c.SendStatus(http.StatusNoContent)
}
