// Package transcript renders a closed ticket's message history into an
// archival text document. Rendering is a pure function of the ticket contents.
package transcript

import (
	"strings"
	"time"

	"github.com/westservices/ticketd/internal/domain"
)

const (
	headerTitle = "SUPPORT TICKET TRANSCRIPT"
	rule        = "============================================================"
	divider     = "------------------------------------------------------------"

	timestampLayout = "2006-01-02T15:04:05"
)

// Render produces the transcript document for a ticket. The same ticket data
// always yields byte-identical output; a ticket with no messages yields the
// header only.
func Render(ticket *domain.Ticket) string {
	lines := []string{
		rule,
		headerTitle,
		rule,
		"Ticket ID: " + ticket.ID,
		"Type: " + ticket.Category.Label(),
		"Created: " + formatTimestamp(&ticket.CreatedAt),
		"Closed: " + formatTimestamp(ticket.ClosedAt),
		rule,
		"",
		"MESSAGES:",
		divider,
	}

	for _, entry := range ticket.Transcript {
		lines = append(lines,
			"["+entry.Timestamp.Format(timestampLayout)+"] "+entry.Author+":",
			"  "+entry.Content,
		)
		if len(entry.Attachments) > 0 {
			lines = append(lines, "  [Attachments: "+strings.Join(entry.Attachments, ", ")+"]")
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func formatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format(timestampLayout)
}
