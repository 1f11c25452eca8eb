package contract

import (
	"context"

	"anitrack-bot/internal/entity"
)

// WatchlistRepository owns the (userId, title) uniqueness invariant. All
// operations are atomic with respect to that key; backing technology is
// substitutable as long as the atomicity and uniqueness guarantees hold.
type WatchlistRepository interface {
	// Add inserts a new entry. Returns apperror.ErrAlreadyExists if the
	// (userId, title) key is already present.
	Add(ctx context.Context, entry *entity.WatchlistEntry) (*entity.WatchlistEntry, error)

	// Get returns the entry or apperror.ErrNotFound.
	Get(ctx context.Context, userId, title string) (*entity.WatchlistEntry, error)

	// Update applies a field-level merge patch in a single atomic write and
	// reports whether any field actually changed. apperror.ErrNotFound if absent.
	Update(ctx context.Context, userId, title string, patch entity.EntryPatch) (bool, error)

	// Delete removes the entry. apperror.ErrNotFound if absent,
	// apperror.ErrProtected if the entry is favorited.
	Delete(ctx context.Context, userId, title string) error

	// List returns all of the user's entries matching the filter. Order is
	// unspecified; callers sort.
	List(ctx context.Context, userId string, filter entity.ListFilter) ([]*entity.WatchlistEntry, error)
}
