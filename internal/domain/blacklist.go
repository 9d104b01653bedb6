package domain

import "time"

// BlacklistEntry records a user barred from opening tickets. The collection is
// an append-only list; removal drops every entry for the user.
type BlacklistEntry struct {
	UserID  string    `json:"user_id"`
	Reason  string    `json:"reason"`
	AddedBy string    `json:"added_by"`
	AddedAt time.Time `json:"added_at"`
}
