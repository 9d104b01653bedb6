package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/westservices/ticketd/internal/domain"
	"github.com/westservices/ticketd/internal/events"
	"github.com/westservices/ticketd/internal/repository"
	apperrors "github.com/westservices/ticketd/pkg/util"
)

// AccessDecision is the outcome of a create-ticket policy check.
type AccessDecision struct {
	Allowed bool
	Reason  string
}

// AccessService gates ticket creation with the blacklist and the open-ticket
// limit, and administers the blacklist itself.
type AccessService struct {
	blacklist  repository.BlacklistRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	limit      int
}

// AccessDependencies bundles collaborators for the access service.
type AccessDependencies struct {
	BlacklistRepo   repository.BlacklistRepository
	TicketRepo      repository.TicketRepository
	Dispatcher      events.Dispatcher
	OpenTicketLimit int
}

// NewAccessService constructs the service.
func NewAccessService(deps AccessDependencies) *AccessService {
	limit := deps.OpenTicketLimit
	if limit < 1 {
		limit = 1
	}
	return &AccessService{
		blacklist:  deps.BlacklistRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		limit:      limit,
	}
}

// IsBlacklisted reports blacklist membership.
func (s *AccessService) IsBlacklisted(userID string) bool {
	return s.blacklist.Contains(userID)
}

// CanCreateTicket checks the blacklist and the open-ticket limit. The caller
// must treat this check and the subsequent create as one critical section.
func (s *AccessService) CanCreateTicket(userID string) AccessDecision {
	if s.blacklist.Contains(userID) {
		return AccessDecision{Reason: "you are blacklisted from creating tickets"}
	}
	if open := s.tickets.OpenTicketsOf(userID); len(open) >= s.limit {
		return AccessDecision{Reason: fmt.Sprintf("you already have %d open ticket(s), close them first", len(open))}
	}
	return AccessDecision{Allowed: true}
}

// BlacklistAdd records a new blacklist entry. An already-blacklisted user is
// rejected here; the underlying collection itself does not deduplicate.
func (s *AccessService) BlacklistAdd(ctx context.Context, userID, reason, byStaffID string) error {
	if s.blacklist.Contains(userID) {
		return apperrors.NewConflict("user already blacklisted", map[string]any{"user_id": userID})
	}
	entry := domain.BlacklistEntry{
		UserID:  userID,
		Reason:  reason,
		AddedBy: byStaffID,
		AddedAt: time.Now().UTC(),
	}
	if err := s.blacklist.Add(entry); err != nil {
		return apperrors.NewStoreIO(err)
	}
	s.publish(ctx, byStaffID, events.BlacklistUpdatedPayload{UserID: userID, Reason: reason})
	return nil
}

// BlacklistRemove drops every entry for the user and reports whether any existed.
func (s *AccessService) BlacklistRemove(ctx context.Context, userID, byStaffID string) (bool, error) {
	removed, err := s.blacklist.Remove(userID)
	if err != nil {
		return false, apperrors.NewStoreIO(err)
	}
	if removed {
		s.publish(ctx, byStaffID, events.BlacklistUpdatedPayload{UserID: userID, Removed: true})
	}
	return removed, nil
}

// BlacklistEntries lists the current blacklist.
func (s *AccessService) BlacklistEntries() []domain.BlacklistEntry {
	return s.blacklist.Entries()
}

func (s *AccessService) publish(ctx context.Context, actorID string, payload events.BlacklistUpdatedPayload) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventBlacklistUpdated,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
