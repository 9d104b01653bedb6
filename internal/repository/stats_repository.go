package repository

import (
	"sync"

	"github.com/westservices/ticketd/internal/domain"
	"github.com/westservices/ticketd/internal/persistence"
)

// StatsRepository owns the write-through counters collection.
type StatsRepository interface {
	Increment(metric, category string) error
	Counters() domain.StatsCounters
}

type statsRepository struct {
	store *persistence.FileStore

	mu       sync.Mutex
	counters domain.StatsCounters
}

// NewStatsRepository loads the stats collection.
func NewStatsRepository(store *persistence.FileStore) (StatsRepository, error) {
	counters := domain.StatsCounters{}
	if err := store.Load(persistence.CollectionStats, &counters); err != nil {
		return nil, err
	}
	return &statsRepository{store: store, counters: counters}, nil
}

// Increment stages the bump, persists, then commits to memory.
func (r *statsRepository) Increment(metric, category string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := r.counters.Clone()
	staged.Increment(metric, category)
	if err := r.store.Save(persistence.CollectionStats, staged); err != nil {
		return err
	}
	r.counters = staged
	return nil
}

func (r *statsRepository) Counters() domain.StatsCounters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters.Clone()
}
