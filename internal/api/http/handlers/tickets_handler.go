package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/westservices/ticketd/internal/api/dto"
	"github.com/westservices/ticketd/internal/archive"
	"github.com/westservices/ticketd/internal/domain"
	"github.com/westservices/ticketd/internal/repository"
	apperrors "github.com/westservices/ticketd/pkg/util"
)

// TicketsHandler exposes read-only ticket and transcript queries.
type TicketsHandler struct {
	tickets repository.TicketRepository
	archive *archive.Store
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets repository.TicketRepository, archiveStore *archive.Store) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, archive: archiveStore}
}

// List handles GET /tickets with optional requester and status filters.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	var tickets []domain.Ticket
	if requester := c.Query("requester"); requester != "" {
		tickets = h.tickets.ListByRequester(requester)
	} else {
		tickets = h.tickets.List()
	}

	if status := c.Query("status"); status != "" {
		filtered := tickets[:0]
		for _, ticket := range tickets {
			if string(ticket.Status) == status {
				filtered = append(filtered, ticket)
			}
		}
		tickets = filtered
	}

	summaries := make([]dto.TicketSummary, 0, len(tickets))
	for _, ticket := range tickets {
		summaries = append(summaries, dto.NewTicketSummary(ticket))
	}
	return c.JSON(fiber.Map{"data": summaries})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Transcript handles GET /tickets/:id/transcript, serving the archived
// document as plain text.
func (h *TicketsHandler) Transcript(c *fiber.Ctx) error {
	id := c.Params("id")
	text, ok, err := h.archive.Read(id)
	if err != nil {
		return apperrors.NewStoreIO(err)
	}
	if !ok {
		return apperrors.NewNotFound("transcript", map[string]any{"ticket_id": id})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(text)
}
