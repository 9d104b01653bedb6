package dto

import (
	"time"

	"github.com/westservices/ticketd/internal/domain"
)

// TicketSummary response.
type TicketSummary struct {
	ID          string                `json:"id"`
	RequesterID string                `json:"requester_id"`
	Category    domain.TicketCategory `json:"category"`
	Status      domain.TicketStatus   `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	ClosedAt    *time.Time            `json:"closed_at,omitempty"`
	Stars       *int                  `json:"stars,omitempty"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID          string                    `json:"id"`
	RequesterID string                    `json:"requester_id"`
	ChannelID   string                    `json:"channel_id"`
	Category    domain.TicketCategory     `json:"category"`
	Status      domain.TicketStatus       `json:"status"`
	CreatedAt   time.Time                 `json:"created_at"`
	ClaimedBy   *string                   `json:"claimed_by,omitempty"`
	ClaimedAt   *time.Time                `json:"claimed_at,omitempty"`
	ClosedBy    *string                   `json:"closed_by,omitempty"`
	ClosedAt    *time.Time                `json:"closed_at,omitempty"`
	Rating      *domain.Rating            `json:"rating,omitempty"`
	Transcript  []TranscriptEntryResponse `json:"transcript"`
}

// TranscriptEntryResponse represents one archived message.
type TranscriptEntryResponse struct {
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Attachments []string  `json:"attachments,omitempty"`
}

// NewTicketSummary maps a domain ticket.
func NewTicketSummary(t domain.Ticket) TicketSummary {
	summary := TicketSummary{
		ID:          t.ID,
		RequesterID: t.RequesterID,
		Category:    t.Category,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		ClosedAt:    t.ClosedAt,
	}
	if t.Rating != nil {
		stars := t.Rating.Stars
		summary.Stars = &stars
	}
	return summary
}

// NewTicketDetail maps a domain ticket with its transcript.
func NewTicketDetail(t *domain.Ticket) TicketDetailResponse {
	detail := TicketDetailResponse{
		ID:          t.ID,
		RequesterID: t.RequesterID,
		ChannelID:   t.ChannelID,
		Category:    t.Category,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		ClaimedBy:   t.ClaimedBy,
		ClaimedAt:   t.ClaimedAt,
		ClosedBy:    t.ClosedBy,
		ClosedAt:    t.ClosedAt,
		Rating:      t.Rating,
		Transcript:  make([]TranscriptEntryResponse, 0, len(t.Transcript)),
	}
	for _, entry := range t.Transcript {
		detail.Transcript = append(detail.Transcript, TranscriptEntryResponse{
			Author:      entry.Author,
			Content:     entry.Content,
			Timestamp:   entry.Timestamp,
			Attachments: entry.Attachments,
		})
	}
	return detail
}
