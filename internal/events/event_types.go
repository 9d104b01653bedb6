package events

import (
	"time"

	"github.com/westservices/ticketd/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated    EventType = "ticket_created"
	EventTicketClaimed    EventType = "ticket_claimed"
	EventTicketClosed     EventType = "ticket_closed"
	EventTicketRated      EventType = "ticket_rated"
	EventBlacklistUpdated EventType = "blacklist_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category  domain.TicketCategory `json:"category"`
	ChannelID string                `json:"channel_id"`
}

// TicketClaimedPayload payload.
type TicketClaimedPayload struct {
	ClaimantID string `json:"claimant_id"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	Category     domain.TicketCategory `json:"category"`
	CloserID     string                `json:"closer_id"`
	MessageCount int                   `json:"message_count"`
}

// TicketRatedPayload payload.
type TicketRatedPayload struct {
	Stars int `json:"stars"`
}

// BlacklistUpdatedPayload payload.
type BlacklistUpdatedPayload struct {
	UserID  string `json:"user_id"`
	Removed bool   `json:"removed"`
	Reason  string `json:"reason,omitempty"`
}
