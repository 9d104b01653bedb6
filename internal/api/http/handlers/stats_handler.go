package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/westservices/ticketd/internal/api/dto"
	"github.com/westservices/ticketd/internal/service"
)

// StatsHandler exposes aggregate ticket statistics.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Get handles GET /stats.
func (h *StatsHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewStatsResponse(h.stats.Aggregate())})
}
