package service

import "github.com/westservices/ticketd/internal/domain"

// AutoResponder holds the canned reply sequences sent when a requester posts
// their first message in a ticket channel. Selection is a plain lookup keyed
// by ticket category.
type AutoResponder struct {
	responses map[domain.TicketCategory][]string
}

// NewAutoResponder returns the default reply set.
func NewAutoResponder() *AutoResponder {
	return &AutoResponder{
		responses: map[domain.TicketCategory][]string{
			domain.CategoryOrder: {
				"Thanks for your order! Please provide:\n• What service you need\n• Your budget\n• Any specific requirements",
				"A staff member will assist you shortly with your order!",
			},
			domain.CategorySupport: {
				"Thanks for contacting support! Please describe your issue in detail.",
				"While you wait, you can check our FAQ page.",
			},
			domain.CategoryRefund: {
				"Refund request received. Please provide:\n• Order ID/Transaction ID\n• Reason for refund\n• Date of purchase",
				"Refunds are processed within 24-48 hours.",
			},
			domain.CategoryStaff: {
				"Thanks for your interest in joining the team!",
				"Please tell us:\n• Your age\n• Your timezone\n• Previous experience\n• Why you want to join",
			},
		},
	}
}

// RepliesFor returns the canned replies for a category, empty for unknown ones.
func (a *AutoResponder) RepliesFor(category domain.TicketCategory) []string {
	return a.responses[category]
}

// FirstMessageFrom reports whether the transcript holds no prior entry by the
// given author. The scan stops at the first match, so repeat messages cost one
// comparison per earlier entry at most.
func FirstMessageFrom(ticket *domain.Ticket, author string) bool {
	for _, entry := range ticket.Transcript {
		if entry.Author == author {
			return false
		}
	}
	return true
}
