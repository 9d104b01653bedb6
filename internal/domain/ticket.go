package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// TicketCategory enumerates the fixed set of request types.
type TicketCategory string

const (
	CategorySupport TicketCategory = "support"
	CategoryOrder   TicketCategory = "order"
	CategoryStaff   TicketCategory = "staff"
	CategoryRefund  TicketCategory = "refund"
)

// Categories lists all valid ticket categories in display order.
func Categories() []TicketCategory {
	return []TicketCategory{CategorySupport, CategoryOrder, CategoryStaff, CategoryRefund}
}

// ValidCategory reports whether c names a known ticket category.
func ValidCategory(c TicketCategory) bool {
	switch c {
	case CategorySupport, CategoryOrder, CategoryStaff, CategoryRefund:
		return true
	}
	return false
}

// Label returns the human-readable name for a category. Unknown categories
// fall back to their raw value so historical records always render.
func (c TicketCategory) Label() string {
	switch c {
	case CategorySupport:
		return "Support"
	case CategoryOrder:
		return "Order"
	case CategoryStaff:
		return "Staff Application"
	case CategoryRefund:
		return "Refund"
	}
	return string(c)
}

// Ticket is the aggregate for support requests. The ID is unique and immutable
// once assigned; status only ever moves open to closed; claimant and rating,
// once set, do not change. Closed tickets stay in the store as history.
type Ticket struct {
	ID          string            `json:"id"`
	RequesterID string            `json:"user_id"`
	ChannelID   string            `json:"channel_id"`
	Category    TicketCategory    `json:"type"`
	Status      TicketStatus      `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	ClaimedBy   *string           `json:"claimed_by"`
	ClaimedAt   *time.Time        `json:"claimed_at"`
	ClosedBy    *string           `json:"closed_by"`
	ClosedAt    *time.Time        `json:"closed_at"`
	Rating      *Rating           `json:"rating"`
	Transcript  []TranscriptEntry `json:"transcript"`
}

// TranscriptEntry is one archived message, append-only and owned by its ticket.
type TranscriptEntry struct {
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Attachments []string  `json:"attachments"`
}

// Claimed reports whether a claimant has been recorded.
func (t *Ticket) Claimed() bool {
	return t.ClaimedBy != nil && *t.ClaimedBy != ""
}

const ticketIDPrefix = "ticket-"

// TicketID renders a numeric allocation as the canonical zero-padded ID.
func TicketID(n int) string {
	return fmt.Sprintf("%s%04d", ticketIDPrefix, n)
}

// ParseTicketNumber extracts the numeric suffix from a ticket ID. Malformed
// keys report ok=false and are skipped by callers rather than failing.
func ParseTicketNumber(id string) (int, bool) {
	rest, found := strings.CutPrefix(id, ticketIDPrefix)
	if !found || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
