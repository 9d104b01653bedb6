package repository

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/westservices/ticketd/internal/domain"
	"github.com/westservices/ticketd/internal/persistence"
	apperrors "github.com/westservices/ticketd/pkg/util"
)

// TicketRepository is the ticket registry: it owns ID allocation, status
// transitions, and transcript accumulation, and keeps the ratings and stats
// collections in step with the events that change them.
type TicketRepository interface {
	// NextID previews the ID the next Create call will allocate.
	NextID() int
	Create(requesterID, channelID string, category domain.TicketCategory) (*domain.Ticket, error)
	Get(id string) (*domain.Ticket, error)
	List() []domain.Ticket
	ListByRequester(userID string) []domain.Ticket
	OpenTicketsOf(userID string) []domain.Ticket
	FindOpenByChannel(channelID string) (*domain.Ticket, bool)
	Claim(id, staffID string) error
	AppendTranscript(id string, entry domain.TranscriptEntry) error
	Close(id, closerID string) (*domain.Ticket, error)
	AttachRating(id string, stars int, feedback string) (*domain.Ticket, error)
}

type ticketRepository struct {
	store   *persistence.FileStore
	stats   StatsRepository
	ratings RatingRepository
	logger  *zap.Logger

	mu      sync.Mutex
	tickets map[string]domain.Ticket
}

// NewTicketRepository loads the tickets collection.
func NewTicketRepository(store *persistence.FileStore, stats StatsRepository, ratings RatingRepository, logger *zap.Logger) (TicketRepository, error) {
	tickets := map[string]domain.Ticket{}
	if err := store.Load(persistence.CollectionTickets, &tickets); err != nil {
		return nil, err
	}
	return &ticketRepository{
		store:   store,
		stats:   stats,
		ratings: ratings,
		logger:  logger,
		tickets: tickets,
	}, nil
}

func (r *ticketRepository) NextID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextIDLocked()
}

// nextIDLocked scans persisted keys for the highest numeric suffix. The store
// contents are the single source of truth, so a retried create after a partial
// failure cannot double-allocate.
func (r *ticketRepository) nextIDLocked() int {
	max := 0
	for id := range r.tickets {
		n, ok := domain.ParseTicketNumber(id)
		if !ok {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1
}

func (r *ticketRepository) Create(requesterID, channelID string, category domain.TicketCategory) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket := domain.Ticket{
		ID:          domain.TicketID(r.nextIDLocked()),
		RequesterID: requesterID,
		ChannelID:   channelID,
		Category:    category,
		Status:      domain.TicketStatusOpen,
		CreatedAt:   time.Now().UTC(),
		Transcript:  []domain.TranscriptEntry{},
	}

	if err := r.commitLocked(ticket); err != nil {
		return nil, apperrors.NewStoreIO(err)
	}
	r.incrementStat(domain.MetricTicketsCreated, string(category))

	return copyTicket(ticket), nil
}

func (r *ticketRepository) Get(id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return copyTicket(ticket), nil
}

func (r *ticketRepository) List() []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collectLocked(func(domain.Ticket) bool { return true })
}

func (r *ticketRepository) ListByRequester(userID string) []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collectLocked(func(t domain.Ticket) bool { return t.RequesterID == userID })
}

func (r *ticketRepository) OpenTicketsOf(userID string) []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collectLocked(func(t domain.Ticket) bool {
		return t.RequesterID == userID && t.Status == domain.TicketStatusOpen
	})
}

func (r *ticketRepository) FindOpenByChannel(channelID string) (*domain.Ticket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ticket := range r.tickets {
		if ticket.ChannelID == channelID && ticket.Status == domain.TicketStatusOpen {
			return copyTicket(ticket), true
		}
	}
	return nil, false
}

// Claim records the claimant unconditionally; the already-claimed policy is
// enforced by the lifecycle controller.
func (r *ticketRepository) Claim(id, staffID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}

	now := time.Now().UTC()
	ticket.ClaimedBy = &staffID
	ticket.ClaimedAt = &now
	if err := r.commitLocked(ticket); err != nil {
		return apperrors.NewStoreIO(err)
	}
	return nil
}

func (r *ticketRepository) AppendTranscript(id string, entry domain.TranscriptEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}

	transcript := make([]domain.TranscriptEntry, len(ticket.Transcript), len(ticket.Transcript)+1)
	copy(transcript, ticket.Transcript)
	ticket.Transcript = append(transcript, entry)

	if err := r.commitLocked(ticket); err != nil {
		return apperrors.NewStoreIO(err)
	}
	return nil
}

// Close rejects absent and already-closed tickets so a repeated close can
// never double-increment tickets_closed.
func (r *ticketRepository) Close(id, closerID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok || ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewNotFound("open ticket", map[string]any{"ticket_id": id})
	}

	now := time.Now().UTC()
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedBy = &closerID
	ticket.ClosedAt = &now
	if err := r.commitLocked(ticket); err != nil {
		return nil, apperrors.NewStoreIO(err)
	}
	r.incrementStat(domain.MetricTicketsClosed, string(ticket.Category))

	return copyTicket(ticket), nil
}

func (r *ticketRepository) AttachRating(id string, stars int, feedback string) (*domain.Ticket, error) {
	if !domain.ValidStars(stars) {
		return nil, apperrors.NewInvalidRating(stars)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	if ticket.Rating != nil {
		return nil, apperrors.NewAlreadyRated(id)
	}

	rating := domain.Rating{Stars: stars, Feedback: feedback, RatedAt: time.Now().UTC()}
	ticket.Rating = &rating
	if err := r.commitLocked(ticket); err != nil {
		return nil, apperrors.NewStoreIO(err)
	}

	if err := r.ratings.Set(id, rating); err != nil {
		r.logger.Warn("ratings mirror write failed", zap.String("ticket_id", id), zap.Error(err))
	}
	r.incrementStat(domain.MetricRatings, strconv.Itoa(stars))

	return copyTicket(ticket), nil
}

// commitLocked persists the collection with the staged ticket and only then
// swaps it into memory, so a failed write never diverges memory from disk.
func (r *ticketRepository) commitLocked(ticket domain.Ticket) error {
	staged := make(map[string]domain.Ticket, len(r.tickets)+1)
	for id, existing := range r.tickets {
		staged[id] = existing
	}
	staged[ticket.ID] = ticket

	if err := r.store.Save(persistence.CollectionTickets, staged); err != nil {
		return err
	}
	r.tickets = staged
	return nil
}

func (r *ticketRepository) collectLocked(match func(domain.Ticket) bool) []domain.Ticket {
	out := []domain.Ticket{}
	for _, ticket := range r.tickets {
		if match(ticket) {
			out = append(out, *copyTicket(ticket))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// incrementStat bumps a counter after the owning ticket write succeeded. The
// tickets collection is the source of truth; a failed counter write is logged
// and does not fail the operation.
func (r *ticketRepository) incrementStat(metric, category string) {
	if err := r.stats.Increment(metric, category); err != nil {
		r.logger.Warn("stats counter write failed",
			zap.String("metric", metric),
			zap.String("category", category),
			zap.Error(err))
	}
}

func copyTicket(t domain.Ticket) *domain.Ticket {
	out := t
	out.Transcript = make([]domain.TranscriptEntry, len(t.Transcript))
	copy(out.Transcript, t.Transcript)
	if t.ClaimedBy != nil {
		v := *t.ClaimedBy
		out.ClaimedBy = &v
	}
	if t.ClaimedAt != nil {
		v := *t.ClaimedAt
		out.ClaimedAt = &v
	}
	if t.ClosedBy != nil {
		v := *t.ClosedBy
		out.ClosedBy = &v
	}
	if t.ClosedAt != nil {
		v := *t.ClosedAt
		out.ClosedAt = &v
	}
	if t.Rating != nil {
		v := *t.Rating
		out.Rating = &v
	}
	return &out
}
