package dto

import (
	"time"

	"github.com/westservices/ticketd/internal/domain"
)

// BlacklistAddRequest payload.
type BlacklistAddRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// BlacklistEntryResponse represents one blacklist record.
type BlacklistEntryResponse struct {
	UserID  string    `json:"user_id"`
	Reason  string    `json:"reason"`
	AddedBy string    `json:"added_by"`
	AddedAt time.Time `json:"added_at"`
}

// NewBlacklistEntry maps a domain entry.
func NewBlacklistEntry(e domain.BlacklistEntry) BlacklistEntryResponse {
	return BlacklistEntryResponse{
		UserID:  e.UserID,
		Reason:  e.Reason,
		AddedBy: e.AddedBy,
		AddedAt: e.AddedAt,
	}
}
