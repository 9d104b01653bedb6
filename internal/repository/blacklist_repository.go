package repository

import (
	"sync"

	"github.com/westservices/ticketd/internal/domain"
	"github.com/westservices/ticketd/internal/persistence"
)

// BlacklistRepository owns the blacklist collection. Add appends without
// deduplicating; the policy layer decides whether duplicates are allowed.
// Remove drops every entry for the user.
type BlacklistRepository interface {
	Add(entry domain.BlacklistEntry) error
	Remove(userID string) (bool, error)
	Contains(userID string) bool
	Entries() []domain.BlacklistEntry
}

type blacklistRepository struct {
	store *persistence.FileStore

	mu      sync.Mutex
	entries []domain.BlacklistEntry
}

// NewBlacklistRepository loads the blacklist collection.
func NewBlacklistRepository(store *persistence.FileStore) (BlacklistRepository, error) {
	entries := []domain.BlacklistEntry{}
	if err := store.Load(persistence.CollectionBlacklist, &entries); err != nil {
		return nil, err
	}
	return &blacklistRepository{store: store, entries: entries}, nil
}

func (r *blacklistRepository) Add(entry domain.BlacklistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make([]domain.BlacklistEntry, len(r.entries), len(r.entries)+1)
	copy(staged, r.entries)
	staged = append(staged, entry)

	if err := r.store.Save(persistence.CollectionBlacklist, staged); err != nil {
		return err
	}
	r.entries = staged
	return nil
}

func (r *blacklistRepository) Remove(userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make([]domain.BlacklistEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.UserID != userID {
			staged = append(staged, entry)
		}
	}
	if len(staged) == len(r.entries) {
		return false, nil
	}

	if err := r.store.Save(persistence.CollectionBlacklist, staged); err != nil {
		return false, err
	}
	r.entries = staged
	return true, nil
}

func (r *blacklistRepository) Contains(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.entries {
		if entry.UserID == userID {
			return true
		}
	}
	return false
}

func (r *blacklistRepository) Entries() []domain.BlacklistEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.BlacklistEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
