package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/westservices/ticketd/internal/archive"
	"github.com/westservices/ticketd/internal/config"
	"github.com/westservices/ticketd/internal/domain"
	"github.com/westservices/ticketd/internal/events"
	"github.com/westservices/ticketd/internal/observability"
	"github.com/westservices/ticketd/internal/persistence"
	"github.com/westservices/ticketd/internal/platform"
	"github.com/westservices/ticketd/internal/repository"
	apperrors "github.com/westservices/ticketd/pkg/util"
)

// fakeCommander records outbound platform commands and lets tests inject
// failures. All methods are safe for concurrent use; deferred channel deletion
// runs off the caller's goroutine.
type fakeCommander struct {
	mu sync.Mutex

	createErr error

	channels      []platform.ChannelRequest
	messages      map[string][]string
	files         map[string][]string
	permissions   map[string][]string
	cleared       map[string][]string
	renames       map[string]string
	deleted       []string
	directs       map[string][]string
	ratingPrompts []string

	nextChannel int
}

func newFakeCommander() *fakeCommander {
	return &fakeCommander{
		messages:    map[string][]string{},
		files:       map[string][]string{},
		permissions: map[string][]string{},
		cleared:     map[string][]string{},
		renames:     map[string]string{},
		directs:     map[string][]string{},
	}
}

func (f *fakeCommander) CreateTicketChannel(ctx context.Context, req platform.ChannelRequest) (platform.ChannelRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return platform.ChannelRef{}, f.createErr
	}
	f.nextChannel++
	ref := platform.ChannelRef{ID: fmt.Sprintf("chan-%d", f.nextChannel), Name: req.Name}
	f.channels = append(f.channels, req)
	return ref, nil
}

func (f *fakeCommander) SendMessage(ctx context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[channelID] = append(f.messages[channelID], content)
	return nil
}

func (f *fakeCommander) SendMessageWithFile(ctx context.Context, channelID, content string, file platform.FileUpload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[channelID] = append(f.files[channelID], file.Name)
	return nil
}

func (f *fakeCommander) SetChannelPermissions(ctx context.Context, channelID, subjectID string, perms platform.PermissionSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permissions[channelID] = append(f.permissions[channelID], subjectID)
	return nil
}

func (f *fakeCommander) ClearChannelPermissions(ctx context.Context, channelID, subjectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared[channelID] = append(f.cleared[channelID], subjectID)
	return nil
}

func (f *fakeCommander) RenameChannel(ctx context.Context, channelID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renames[channelID] = name
	return nil
}

func (f *fakeCommander) DeleteChannel(ctx context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID)
	return nil
}

func (f *fakeCommander) SendDirect(ctx context.Context, userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.directs[userID] = append(f.directs[userID], content)
	return nil
}

func (f *fakeCommander) SendRatingPrompt(ctx context.Context, userID, ticketID, promptToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratingPrompts = append(f.ratingPrompts, promptToken)
	return nil
}

func (f *fakeCommander) lastRatingToken(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ratingPrompts) == 0 {
		t.Fatal("no rating prompt was delivered")
	}
	return f.ratingPrompts[len(f.ratingPrompts)-1]
}

func (f *fakeCommander) deletedChannels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deleted))
	copy(out, f.deleted)
	return out
}

func (f *fakeCommander) channelMessages(channelID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.messages[channelID]))
	copy(out, f.messages[channelID])
	return out
}

type lifecycleFixture struct {
	commander *fakeCommander
	tickets   repository.TicketRepository
	archive   *archive.Store
	service   *LifecycleService
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	logger := zap.NewNop()

	store, err := persistence.NewFileStore(config.StorageConfig{DataDir: t.TempDir()}, logger)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	archiveStore, err := archive.NewStore(config.StorageConfig{TranscriptsDir: t.TempDir()}, logger)
	if err != nil {
		t.Fatalf("archive.NewStore: %v", err)
	}

	stats, err := repository.NewStatsRepository(store)
	if err != nil {
		t.Fatalf("NewStatsRepository: %v", err)
	}
	ratings, err := repository.NewRatingRepository(store)
	if err != nil {
		t.Fatalf("NewRatingRepository: %v", err)
	}
	blacklist, err := repository.NewBlacklistRepository(store)
	if err != nil {
		t.Fatalf("NewBlacklistRepository: %v", err)
	}
	tickets, err := repository.NewTicketRepository(store, stats, ratings, logger)
	if err != nil {
		t.Fatalf("NewTicketRepository: %v", err)
	}

	access := NewAccessService(AccessDependencies{
		BlacklistRepo:   blacklist,
		TicketRepo:      tickets,
		OpenTicketLimit: 1,
	})

	commander := newFakeCommander()
	svc := NewLifecycleService(
		config.GuildConfig{
			CategoryID:         "category-1",
			StaffRoleID:        "staff-role",
			TranscriptsChannel: "log-channel",
		},
		config.LifecycleConfig{
			OpenTicketLimit:       1,
			CloseConfirmTTLSec:    60,
			RatingPromptTTLSec:    60,
			ChannelDeleteDelaySec: 0,
		},
		LifecycleDependencies{
			TicketRepo: tickets,
			Access:     access,
			Archive:    archiveStore,
			Commander:  commander,
			Dispatcher: events.NewInMemoryDispatcher(),
			Prompts:    NewPromptRegistry(),
			Scheduler:  NewScheduler(),
			Responder:  NewAutoResponder(),
			Metrics:    observability.NewMetrics(),
			Logger:     logger,
		},
	)
	t.Cleanup(svc.Shutdown)

	return &lifecycleFixture{commander: commander, tickets: tickets, archive: archiveStore, service: svc}
}

func requester() platform.Actor {
	return platform.Actor{ID: "user-1", DisplayName: "alice"}
}

func staff(id, name string) platform.Actor {
	return platform.Actor{ID: id, DisplayName: name, Roles: []string{"staff-role"}}
}

func TestTicketLifecycle(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	ticket, err := f.service.HandleTypeSelected(ctx, platform.TypeSelectedEvent{Actor: requester(), Category: "support"})
	if err != nil {
		t.Fatalf("HandleTypeSelected: %v", err)
	}
	if ticket.ID != "ticket-0001" {
		t.Errorf("first ticket ID = %s, want ticket-0001", ticket.ID)
	}

	// One open ticket per user.
	if _, err := f.service.HandleTypeSelected(ctx, platform.TypeSelectedEvent{Actor: requester(), Category: "order"}); !apperrors.IsCode(err, "CREATION_DENIED") {
		t.Errorf("second create error = %v, want CREATION_DENIED", err)
	}

	// Claim is staff-only and first-wins.
	if err := f.service.HandleClaim(ctx, platform.ClaimEvent{Actor: requester(), TicketID: ticket.ID}); !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Errorf("non-staff claim error = %v, want PERMISSION_DENIED", err)
	}
	if err := f.service.HandleClaim(ctx, platform.ClaimEvent{Actor: staff("staff-a", "bob"), TicketID: ticket.ID}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := f.service.HandleClaim(ctx, platform.ClaimEvent{Actor: staff("staff-b", "carol"), TicketID: ticket.ID}); !apperrors.IsCode(err, "ALREADY_CLAIMED") {
		t.Errorf("second claim error = %v, want ALREADY_CLAIMED", err)
	}

	// Strangers cannot request closure.
	stranger := platform.Actor{ID: "user-9", DisplayName: "mallory"}
	if _, err := f.service.HandleClose(ctx, platform.CloseEvent{Actor: stranger, TicketID: ticket.ID}); !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Errorf("stranger close error = %v, want PERMISSION_DENIED", err)
	}

	// Cancelling the confirmation leaves the ticket open.
	prompt, err := f.service.HandleClose(ctx, platform.CloseEvent{Actor: requester(), TicketID: ticket.ID})
	if err != nil {
		t.Fatalf("HandleClose: %v", err)
	}
	if err := f.service.HandleCloseDecision(ctx, platform.CloseDecisionEvent{Actor: requester(), PromptToken: prompt.Token, Confirmed: false}); err != nil {
		t.Fatalf("cancel decision: %v", err)
	}
	stillOpen, err := f.tickets.Get(ticket.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stillOpen.Status != domain.TicketStatusOpen {
		t.Fatalf("ticket status after cancel = %s, want open", stillOpen.Status)
	}

	// A spent confirmation token is inert.
	if err := f.service.HandleCloseDecision(ctx, platform.CloseDecisionEvent{Actor: requester(), PromptToken: prompt.Token, Confirmed: true}); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Errorf("spent confirmation error = %v, want NOT_FOUND", err)
	}

	// Confirmed closure runs the full effect chain.
	prompt, err = f.service.HandleClose(ctx, platform.CloseEvent{Actor: staff("staff-a", "bob"), TicketID: ticket.ID})
	if err != nil {
		t.Fatalf("HandleClose: %v", err)
	}
	if err := f.service.HandleCloseDecision(ctx, platform.CloseDecisionEvent{Actor: staff("staff-a", "bob"), PromptToken: prompt.Token, Confirmed: true}); err != nil {
		t.Fatalf("confirm decision: %v", err)
	}

	closed, err := f.tickets.Get(ticket.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if closed.Status != domain.TicketStatusClosed {
		t.Fatalf("ticket status = %s, want closed", closed.Status)
	}
	text, ok, err := f.archive.Read(ticket.ID)
	if err != nil || !ok {
		t.Fatalf("transcript not archived: ok=%v err=%v", ok, err)
	}
	if !strings.Contains(text, "Ticket ID: "+ticket.ID) {
		t.Errorf("archived transcript missing header:\n%s", text)
	}

	// Channel deletion is deferred but happens.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if deleted := f.commander.deletedChannels(); len(deleted) > 0 {
			if deleted[0] != closed.ChannelID {
				t.Errorf("deleted channel = %s, want %s", deleted[0], closed.ChannelID)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("ticket channel was never deleted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Rating: one press counts, repeats are rejected, strangers' tokens unknown.
	token := f.commander.lastRatingToken(t)
	if err := f.service.HandleRating(ctx, platform.RatingEvent{Actor: requester(), PromptToken: "bogus", Stars: 5}); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Errorf("bogus rating token error = %v, want NOT_FOUND", err)
	}
	if err := f.service.HandleRating(ctx, platform.RatingEvent{Actor: requester(), PromptToken: token, Stars: 5}); err != nil {
		t.Fatalf("HandleRating: %v", err)
	}
	if err := f.service.HandleRating(ctx, platform.RatingEvent{Actor: requester(), PromptToken: token, Stars: 1}); !apperrors.IsCode(err, "ALREADY_RATED") {
		t.Errorf("repeat rating error = %v, want ALREADY_RATED", err)
	}

	rated, err := f.tickets.Get(ticket.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rated.Rating == nil || rated.Rating.Stars != 5 {
		t.Errorf("rating = %+v, want 5 stars", rated.Rating)
	}

	// The requester can open a new ticket once theirs is closed.
	if _, err := f.service.HandleTypeSelected(ctx, platform.TypeSelectedEvent{Actor: requester(), Category: "refund"}); err != nil {
		t.Errorf("create after close: %v", err)
	}
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.service.HandleTypeSelected(context.Background(), platform.TypeSelectedEvent{Actor: requester(), Category: "billing"})
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Errorf("unknown category error = %v, want VALIDATION_FAILED", err)
	}
}

func TestChannelFailureLeavesNoRecord(t *testing.T) {
	f := newLifecycleFixture(t)
	f.commander.createErr = errors.New("missing permissions")

	_, err := f.service.HandleTypeSelected(context.Background(), platform.TypeSelectedEvent{Actor: requester(), Category: "support"})
	if !apperrors.IsCode(err, "PLATFORM_COMMAND_FAILED") {
		t.Fatalf("create error = %v, want PLATFORM_COMMAND_FAILED", err)
	}

	if got := f.tickets.List(); len(got) != 0 {
		t.Errorf("tickets registered despite channel failure: %+v", got)
	}
	if next := f.tickets.NextID(); next != 1 {
		t.Errorf("NextID = %d after failed create, want 1", next)
	}
}

func TestHandleMessageAppendsAndAutoReplies(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	ticket, err := f.service.HandleTypeSelected(ctx, platform.TypeSelectedEvent{Actor: requester(), Category: "support"})
	if err != nil {
		t.Fatalf("HandleTypeSelected: %v", err)
	}
	welcomeCount := len(f.commander.channelMessages(ticket.ChannelID))

	msg := platform.MessageEvent{Actor: requester(), ChannelID: ticket.ChannelID, Content: "my login is broken"}
	if err := f.service.HandleMessage(ctx, msg); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	after := f.commander.channelMessages(ticket.ChannelID)
	if len(after) != welcomeCount+2 {
		t.Errorf("auto replies sent = %d, want 2", len(after)-welcomeCount)
	}

	// Second message from the same author gets no replies.
	msg.Content = "any update?"
	if err := f.service.HandleMessage(ctx, msg); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if got := f.commander.channelMessages(ticket.ChannelID); len(got) != len(after) {
		t.Errorf("repeat message triggered %d extra replies", len(got)-len(after))
	}

	// Bot and off-channel messages are ignored.
	bot := platform.MessageEvent{Actor: platform.Actor{ID: "bot-1", DisplayName: "botty", Bot: true}, ChannelID: ticket.ChannelID, Content: "beep"}
	if err := f.service.HandleMessage(ctx, bot); err != nil {
		t.Fatalf("HandleMessage bot: %v", err)
	}
	other := platform.MessageEvent{Actor: requester(), ChannelID: "general", Content: "hello"}
	if err := f.service.HandleMessage(ctx, other); err != nil {
		t.Fatalf("HandleMessage off-channel: %v", err)
	}

	stored, err := f.tickets.Get(ticket.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Transcript) != 2 {
		t.Errorf("transcript entries = %d, want 2", len(stored.Transcript))
	}
}

func TestMemberAndRenameCommandsRequireStaff(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	ticket, err := f.service.HandleTypeSelected(ctx, platform.TypeSelectedEvent{Actor: requester(), Category: "order"})
	if err != nil {
		t.Fatalf("HandleTypeSelected: %v", err)
	}

	if err := f.service.AddMember(ctx, requester(), ticket.ChannelID, "user-2"); !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Errorf("non-staff AddMember error = %v, want PERMISSION_DENIED", err)
	}
	if err := f.service.AddMember(ctx, staff("staff-a", "bob"), "general", "user-2"); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Errorf("AddMember outside ticket channel error = %v, want NOT_FOUND", err)
	}

	if err := f.service.AddMember(ctx, staff("staff-a", "bob"), ticket.ChannelID, "user-2"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := f.service.RemoveMember(ctx, staff("staff-a", "bob"), ticket.ChannelID, "user-2"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}

	if err := f.service.RenameTicket(ctx, staff("staff-a", "bob"), ticket.ChannelID, "invoice-issue"); err != nil {
		t.Fatalf("RenameTicket: %v", err)
	}
	f.commander.mu.Lock()
	renamed := f.commander.renames[ticket.ChannelID]
	f.commander.mu.Unlock()
	if renamed != "ticket-invoice-issue" {
		t.Errorf("renamed to %q, want ticket-invoice-issue", renamed)
	}
}
