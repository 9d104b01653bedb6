package domain

// Stats metric names. Each metric maps a category (ticket category, or the
// star value rendered as a string for ratings) to a running count.
const (
	MetricTicketsCreated = "tickets_created"
	MetricTicketsClosed  = "tickets_closed"
	MetricRatings        = "ratings"
)

// StatsCounters is the persisted metric -> category -> count mapping.
// Counters are incremented write-through alongside the event that causes them,
// never recomputed from scratch.
type StatsCounters map[string]map[string]int

// Increment bumps a counter, creating missing levels as needed.
func (s StatsCounters) Increment(metric, category string) {
	if s[metric] == nil {
		s[metric] = make(map[string]int)
	}
	s[metric][category]++
}

// Clone returns a deep copy, used to stage updates before a durable write.
func (s StatsCounters) Clone() StatsCounters {
	out := make(StatsCounters, len(s))
	for metric, byCategory := range s {
		inner := make(map[string]int, len(byCategory))
		for category, count := range byCategory {
			inner[category] = count
		}
		out[metric] = inner
	}
	return out
}

// Metric returns a copy of one metric's category counts.
func (s StatsCounters) Metric(name string) map[string]int {
	out := make(map[string]int, len(s[name]))
	for category, count := range s[name] {
		out[category] = count
	}
	return out
}
