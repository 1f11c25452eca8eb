package memory

import (
	"context"
	"sync"
	"time"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"
	"anitrack-bot/internal/repository/contract"
)

// WatchlistRepository is an in-memory store with the same atomicity and
// uniqueness guarantees as the Postgres implementation. It backs the console
// transport and the test suites.
type WatchlistRepository struct {
	mu      sync.Mutex
	entries map[string]map[string]*entity.WatchlistEntry // userId -> title -> entry
}

func NewWatchlistRepository() *WatchlistRepository {
	return &WatchlistRepository{
		entries: make(map[string]map[string]*entity.WatchlistEntry),
	}
}

var _ contract.WatchlistRepository = (*WatchlistRepository)(nil)

func (r *WatchlistRepository) Add(ctx context.Context, entry *entity.WatchlistEntry) (*entity.WatchlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.entries[entry.UserId]
	if !ok {
		user = make(map[string]*entity.WatchlistEntry)
		r.entries[entry.UserId] = user
	}
	if _, exists := user[entry.Title]; exists {
		return nil, apperror.ErrAlreadyExists
	}

	stored := *entry
	stored.CreatedAt = time.Now()
	user[entry.Title] = &stored

	out := stored
	return &out, nil
}

func (r *WatchlistRepository) Get(ctx context.Context, userId, title string) (*entity.WatchlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userId][title]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	out := *e
	return &out, nil
}

func (r *WatchlistRepository) Update(ctx context.Context, userId, title string, patch entity.EntryPatch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userId][title]
	if !ok {
		return false, apperror.ErrNotFound
	}
	changed := patch.ApplyTo(e)
	if changed {
		now := time.Now()
		e.UpdatedAt = &now
	}
	return changed, nil
}

func (r *WatchlistRepository) Delete(ctx context.Context, userId, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userId][title]
	if !ok {
		return apperror.ErrNotFound
	}
	if e.IsFavorite {
		return apperror.ErrProtected
	}
	delete(r.entries[userId], title)
	return nil
}

func (r *WatchlistRepository) List(ctx context.Context, userId string, filter entity.ListFilter) ([]*entity.WatchlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*entity.WatchlistEntry, 0)
	for _, e := range r.entries[userId] {
		if !filter.Matches(e) {
			continue
		}
		out := *e
		result = append(result, &out)
	}
	return result, nil
}
