package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/westservices/ticketd/internal/archive"
	"github.com/westservices/ticketd/internal/config"
	"github.com/westservices/ticketd/internal/domain"
	"github.com/westservices/ticketd/internal/events"
	"github.com/westservices/ticketd/internal/observability"
	"github.com/westservices/ticketd/internal/platform"
	"github.com/westservices/ticketd/internal/repository"
	"github.com/westservices/ticketd/internal/transcript"
	apperrors "github.com/westservices/ticketd/pkg/util"
)

// LifecycleService orchestrates the ticket state machine: create, claim,
// close-request, close-confirm, rate. Guard violations surface to the acting
// user and never mutate state; store failures fail the single operation only.
type LifecycleService struct {
	tickets    repository.TicketRepository
	access     *AccessService
	archive    *archive.Store
	commander  platform.Commander
	dispatcher events.Dispatcher
	prompts    *PromptRegistry
	scheduler  *Scheduler
	responder  *AutoResponder
	metrics    *observability.Metrics
	logger     *zap.Logger

	guild     config.GuildConfig
	lifecycle config.LifecycleConfig

	// createMu makes the access check and the registry insert one critical
	// section per process, so two concurrent requests cannot both pass the
	// open-ticket limit. claimMu does the same for the unclaimed guard.
	createMu sync.Mutex
	claimMu  sync.Mutex
}

// LifecycleDependencies bundles collaborators for the controller.
type LifecycleDependencies struct {
	TicketRepo repository.TicketRepository
	Access     *AccessService
	Archive    *archive.Store
	Commander  platform.Commander
	Dispatcher events.Dispatcher
	Prompts    *PromptRegistry
	Scheduler  *Scheduler
	Responder  *AutoResponder
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewLifecycleService constructs the controller.
func NewLifecycleService(guild config.GuildConfig, lifecycle config.LifecycleConfig, deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		tickets:    deps.TicketRepo,
		access:     deps.Access,
		archive:    deps.Archive,
		commander:  deps.Commander,
		dispatcher: deps.Dispatcher,
		prompts:    deps.Prompts,
		scheduler:  deps.Scheduler,
		responder:  deps.Responder,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		guild:      guild,
		lifecycle:  lifecycle,
	}
}

// HandleTypeSelected creates a ticket for the selecting user. The channel is
// created first; the ticket record is registered only once the channel exists,
// so a rejected platform command leaves no orphaned record.
func (s *LifecycleService) HandleTypeSelected(ctx context.Context, ev platform.TypeSelectedEvent) (*domain.Ticket, error) {
	s.metrics.RecordEvent("type_selected")

	category := domain.TicketCategory(ev.Category)
	if !domain.ValidCategory(category) {
		return nil, apperrors.NewValidationError("unknown ticket type", map[string]any{"type": ev.Category})
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	if decision := s.access.CanCreateTicket(ev.Actor.ID); !decision.Allowed {
		return nil, apperrors.NewCreationDenied(decision.Reason)
	}

	name := domain.TicketID(s.tickets.NextID())
	channel, err := s.commander.CreateTicketChannel(ctx, platform.ChannelRequest{
		Name:        name,
		Topic:       fmt.Sprintf("Ticket | %s | %s", ev.Actor.DisplayName, category.Label()),
		CategoryID:  s.guild.CategoryID,
		RequesterID: ev.Actor.ID,
		StaffRoleID: s.guild.StaffRoleID,
	})
	if err != nil {
		return nil, apperrors.NewPlatformCommandFailed("create_channel", err)
	}

	ticket, err := s.tickets.Create(ev.Actor.ID, channel.ID, category)
	if err != nil {
		// The channel exists but the record does not; remove the channel so a
		// retry starts clean.
		if delErr := s.commander.DeleteChannel(ctx, channel.ID); delErr != nil {
			s.logger.Warn("orphaned channel cleanup failed", zap.String("channel_id", channel.ID), zap.Error(delErr))
		}
		return nil, err
	}

	s.sendToChannel(ctx, channel.ID, fmt.Sprintf("Welcome! Your %s ticket %s has been created.", category.Label(), ticket.ID))
	s.sendToChannel(ctx, channel.ID, "A staff member will be with you shortly!")

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  ev.Actor.ID,
		Payload:  events.TicketCreatedPayload{Category: category, ChannelID: channel.ID},
	})

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("requester_id", ev.Actor.ID),
		zap.String("category", string(category)))
	return ticket, nil
}

// HandleClaim records the claimant and elevates their channel permissions.
func (s *LifecycleService) HandleClaim(ctx context.Context, ev platform.ClaimEvent) error {
	s.metrics.RecordEvent("claim")

	if !ev.Actor.HasRole(s.guild.StaffRoleID) {
		return apperrors.NewPermissionDenied("only staff can claim tickets")
	}

	s.claimMu.Lock()
	defer s.claimMu.Unlock()

	ticket, err := s.tickets.Get(ev.TicketID)
	if err != nil {
		return err
	}
	if ticket.Claimed() {
		return apperrors.NewAlreadyClaimed(*ticket.ClaimedBy)
	}

	if err := s.tickets.Claim(ev.TicketID, ev.Actor.ID); err != nil {
		return err
	}

	if err := s.commander.SetChannelPermissions(ctx, ticket.ChannelID, ev.Actor.ID, platform.PermissionSet{
		Read:           true,
		Send:           true,
		ManageMessages: true,
	}); err != nil {
		s.logger.Warn("claimant permission grant failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	s.sendToChannel(ctx, ticket.ChannelID, fmt.Sprintf("%s has claimed this ticket!", ev.Actor.DisplayName))

	s.publish(ctx, events.Event{
		Type:     events.EventTicketClaimed,
		TicketID: ticket.ID,
		ActorID:  ev.Actor.ID,
		Payload:  events.TicketClaimedPayload{ClaimantID: ev.Actor.ID},
	})
	return nil
}

// HandleClose opens a close-confirmation prompt. Only staff or the original
// requester may request closure. The returned prompt token scopes the
// confirm/cancel controls the platform layer renders.
func (s *LifecycleService) HandleClose(ctx context.Context, ev platform.CloseEvent) (Prompt, error) {
	s.metrics.RecordEvent("close_requested")

	ticket, err := s.tickets.Get(ev.TicketID)
	if err != nil {
		return Prompt{}, err
	}

	isStaff := ev.Actor.HasRole(s.guild.StaffRoleID)
	isOwner := ev.Actor.ID == ticket.RequesterID
	if !isStaff && !isOwner {
		return Prompt{}, apperrors.NewPermissionDenied("you cannot close this ticket")
	}

	prompt := s.prompts.Open(PromptCloseConfirm, ticket.ID, ev.Actor.ID, s.lifecycle.CloseConfirmTTL())
	return prompt, nil
}

// HandleCloseDecision resolves a close-confirmation prompt. Cancel is a no-op;
// an expired or unknown token is inert. Confirmation runs the full close
// effect chain in order: close, transcript, archive, log-channel record,
// rating prompt, deferred channel deletion.
func (s *LifecycleService) HandleCloseDecision(ctx context.Context, ev platform.CloseDecisionEvent) error {
	s.metrics.RecordEvent("close_decision")

	prompt, status := s.prompts.Spend(ev.PromptToken)
	if status != PromptActive {
		return apperrors.NewNotFound("confirmation prompt", map[string]any{"token": ev.PromptToken})
	}
	if !ev.Confirmed {
		return nil
	}

	ticket, err := s.tickets.Close(prompt.TicketID, ev.Actor.ID)
	if err != nil {
		return err
	}

	text := transcript.Render(ticket)
	if err := s.archive.Save(ticket.ID, text); err != nil {
		return apperrors.NewStoreIO(err)
	}

	s.emitArchiveRecord(ctx, ticket, text)
	s.offerRating(ctx, ticket)

	s.sendToChannel(ctx, ticket.ChannelID, fmt.Sprintf("This ticket will close in %d seconds...", s.lifecycle.ChannelDeleteDelaySec))
	channelID := ticket.ChannelID
	s.scheduler.Schedule(ticket.ID, s.lifecycle.ChannelDeleteDelay(), func() {
		if err := s.commander.DeleteChannel(context.Background(), channelID); err != nil {
			s.logger.Warn("channel deletion failed", zap.String("channel_id", channelID), zap.Error(err))
		}
	})

	s.publish(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticket.ID,
		ActorID:  ev.Actor.ID,
		Payload: events.TicketClosedPayload{
			Category:     ticket.Category,
			CloserID:     ev.Actor.ID,
			MessageCount: len(ticket.Transcript),
		},
	})

	s.logger.Info("ticket closed",
		zap.String("ticket_id", ticket.ID),
		zap.String("closer_id", ev.Actor.ID))
	return nil
}

// HandleRating resolves a rating prompt press. The prompt is single-use:
// repeat presses after the first success report AlreadyRated.
func (s *LifecycleService) HandleRating(ctx context.Context, ev platform.RatingEvent) error {
	s.metrics.RecordEvent("rating")

	prompt, status := s.prompts.Status(ev.PromptToken)
	switch status {
	case PromptUnknown:
		return apperrors.NewNotFound("rating prompt", map[string]any{"token": ev.PromptToken})
	case PromptSpent:
		return apperrors.NewAlreadyRated(prompt.TicketID)
	}

	ticket, err := s.tickets.AttachRating(prompt.TicketID, ev.Stars, "")
	if err != nil {
		return err
	}
	s.prompts.Spend(ev.PromptToken)

	if err := s.commander.SendDirect(ctx, ticket.RequesterID, fmt.Sprintf("Thank you for rating us %d/5!", ev.Stars)); err != nil {
		s.logger.Debug("rating acknowledgement failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketRated,
		TicketID: ticket.ID,
		ActorID:  ev.Actor.ID,
		Payload:  events.TicketRatedPayload{Stars: ev.Stars},
	})
	return nil
}

// HandleMessage appends a message posted in a ticket channel to the transcript
// and fires the canned auto-replies on the requester's first message. Messages
// outside open ticket channels are ignored.
func (s *LifecycleService) HandleMessage(ctx context.Context, ev platform.MessageEvent) error {
	if ev.Actor.Bot {
		return nil
	}
	ticket, ok := s.tickets.FindOpenByChannel(ev.ChannelID)
	if !ok {
		return nil
	}
	s.metrics.RecordEvent("ticket_message")

	first := ev.Actor.ID == ticket.RequesterID && FirstMessageFrom(ticket, ev.Actor.DisplayName)

	timestamp := ev.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	entry := domain.TranscriptEntry{
		Author:      ev.Actor.DisplayName,
		Content:     ev.Content,
		Timestamp:   timestamp,
		Attachments: ev.Attachments,
	}
	if err := s.tickets.AppendTranscript(ticket.ID, entry); err != nil {
		return err
	}

	if first {
		for _, reply := range s.responder.RepliesFor(ticket.Category) {
			s.sendToChannel(ctx, ticket.ChannelID, reply)
		}
	}
	return nil
}

// AddMember grants a user access to the ticket channel. Staff only.
func (s *LifecycleService) AddMember(ctx context.Context, actor platform.Actor, channelID, userID string) error {
	if err := s.requireStaffTicketChannel(actor, channelID); err != nil {
		return err
	}
	if err := s.commander.SetChannelPermissions(ctx, channelID, userID, platform.PermissionSet{Read: true, Send: true}); err != nil {
		return apperrors.NewPlatformCommandFailed("set_permissions", err)
	}
	return nil
}

// RemoveMember revokes a user's access to the ticket channel. Staff only.
func (s *LifecycleService) RemoveMember(ctx context.Context, actor platform.Actor, channelID, userID string) error {
	if err := s.requireStaffTicketChannel(actor, channelID); err != nil {
		return err
	}
	if err := s.commander.ClearChannelPermissions(ctx, channelID, userID); err != nil {
		return apperrors.NewPlatformCommandFailed("clear_permissions", err)
	}
	return nil
}

// RenameTicket renames the ticket channel, keeping the ticket- prefix. Staff only.
func (s *LifecycleService) RenameTicket(ctx context.Context, actor platform.Actor, channelID, name string) error {
	if err := s.requireStaffTicketChannel(actor, channelID); err != nil {
		return err
	}
	if err := s.commander.RenameChannel(ctx, channelID, "ticket-"+name); err != nil {
		return apperrors.NewPlatformCommandFailed("rename_channel", err)
	}
	return nil
}

// Shutdown cancels pending deferred tasks.
func (s *LifecycleService) Shutdown() {
	s.scheduler.Stop()
}

func (s *LifecycleService) requireStaffTicketChannel(actor platform.Actor, channelID string) error {
	if !actor.HasRole(s.guild.StaffRoleID) {
		return apperrors.NewPermissionDenied("staff role required")
	}
	if _, ok := s.tickets.FindOpenByChannel(channelID); !ok {
		return apperrors.NewNotFound("ticket channel", map[string]any{"channel_id": channelID})
	}
	return nil
}

// emitArchiveRecord stages the transcript document, posts it with the ticket
// metadata to the transcripts channel, and removes the staged copy once the
// record is delivered. Delivery failure keeps the staged copy for inspection.
func (s *LifecycleService) emitArchiveRecord(ctx context.Context, ticket *domain.Ticket, text string) {
	if s.guild.TranscriptsChannel == "" {
		return
	}
	if _, err := s.archive.Stage(ticket.ID, text); err != nil {
		s.logger.Warn("transcript staging failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}

	content := fmt.Sprintf("Transcript • %s\nType: %s\nUser: %s\nClosed By: %s",
		ticket.ID, ticket.Category.Label(), ticket.RequesterID, derefOr(ticket.ClosedBy, "unknown"))
	if ticket.ClaimedBy != nil {
		content += "\nClaimed By: " + *ticket.ClaimedBy
	}

	err := s.commander.SendMessageWithFile(ctx, s.guild.TranscriptsChannel, content, platform.FileUpload{
		Name:    ticket.ID + "_transcript.txt",
		Content: []byte(text),
	})
	if err != nil {
		s.logger.Warn("archive record delivery failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	s.archive.Unstage(ticket.ID)
}

// offerRating sends the requester a time-bounded rating prompt out-of-band
// from the ticket channel. An unreachable requester simply gets no prompt.
func (s *LifecycleService) offerRating(ctx context.Context, ticket *domain.Ticket) {
	prompt := s.prompts.Open(PromptRating, ticket.ID, ticket.RequesterID, s.lifecycle.RatingPromptTTL())
	if err := s.commander.SendRatingPrompt(ctx, ticket.RequesterID, ticket.ID, prompt.Token); err != nil {
		s.prompts.CancelTicket(ticket.ID, PromptRating)
		s.logger.Debug("rating prompt undeliverable",
			zap.String("ticket_id", ticket.ID),
			zap.String("requester_id", ticket.RequesterID),
			zap.Error(err))
	}
}

func (s *LifecycleService) sendToChannel(ctx context.Context, channelID, content string) {
	if err := s.commander.SendMessage(ctx, channelID, content); err != nil {
		s.logger.Warn("message send failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
