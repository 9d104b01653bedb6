package repository

import (
	"sync"

	"github.com/westservices/ticketd/internal/domain"
	"github.com/westservices/ticketd/internal/persistence"
)

// RatingRepository owns the ratings collection, a mirror of per-ticket ratings
// keyed by ticket ID for aggregate queries.
type RatingRepository interface {
	Set(ticketID string, rating domain.Rating) error
	All() map[string]domain.Rating
}

type ratingRepository struct {
	store *persistence.FileStore

	mu      sync.Mutex
	ratings map[string]domain.Rating
}

// NewRatingRepository loads the ratings collection.
func NewRatingRepository(store *persistence.FileStore) (RatingRepository, error) {
	ratings := map[string]domain.Rating{}
	if err := store.Load(persistence.CollectionRatings, &ratings); err != nil {
		return nil, err
	}
	return &ratingRepository{store: store, ratings: ratings}, nil
}

func (r *ratingRepository) Set(ticketID string, rating domain.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[string]domain.Rating, len(r.ratings)+1)
	for id, existing := range r.ratings {
		staged[id] = existing
	}
	staged[ticketID] = rating

	if err := r.store.Save(persistence.CollectionRatings, staged); err != nil {
		return err
	}
	r.ratings = staged
	return nil
}

func (r *ratingRepository) All() map[string]domain.Rating {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]domain.Rating, len(r.ratings))
	for id, rating := range r.ratings {
		out[id] = rating
	}
	return out
}
