package domain

import "time"

// Rating star bounds.
const (
	MinStars = 1
	MaxStars = 5
)

// Rating is a satisfaction score attached at most once per ticket. It is
// duplicated into the ratings collection keyed by ticket ID for aggregation.
type Rating struct {
	Stars    int       `json:"stars"`
	Feedback string    `json:"feedback,omitempty"`
	RatedAt  time.Time `json:"rated_at"`
}

// ValidStars reports whether stars is inside the accepted range.
func ValidStars(stars int) bool {
	return stars >= MinStars && stars <= MaxStars
}
