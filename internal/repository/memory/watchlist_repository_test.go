package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestAddAndGet(t *testing.T) {
	repo := NewWatchlistRepository()
	ctx := context.Background()

	stored, err := repo.Add(ctx, &entity.WatchlistEntry{
		UserId: "alice", Title: "Naruto", Status: entity.StatusWatching,
	})
	assert.NoError(t, err)
	assert.False(t, stored.CreatedAt.IsZero())

	got, err := repo.Get(ctx, "alice", "Naruto")
	assert.NoError(t, err)
	assert.Equal(t, entity.StatusWatching, got.Status)

	_, err = repo.Add(ctx, &entity.WatchlistEntry{UserId: "alice", Title: "Naruto"})
	assert.ErrorIs(t, err, apperror.ErrAlreadyExists)

	// Same title for a different user is a different key.
	_, err = repo.Add(ctx, &entity.WatchlistEntry{UserId: "bob", Title: "Naruto"})
	assert.NoError(t, err)
}

func TestGetReturnsCopy(t *testing.T) {
	repo := NewWatchlistRepository()
	ctx := context.Background()

	_, err := repo.Add(ctx, &entity.WatchlistEntry{UserId: "alice", Title: "Naruto", Status: entity.StatusWatching})
	assert.NoError(t, err)

	got, _ := repo.Get(ctx, "alice", "Naruto")
	got.Status = entity.StatusDropped

	again, _ := repo.Get(ctx, "alice", "Naruto")
	assert.Equal(t, entity.StatusWatching, again.Status)
}

func TestUpdateReportsChanged(t *testing.T) {
	repo := NewWatchlistRepository()
	ctx := context.Background()

	_, err := repo.Add(ctx, &entity.WatchlistEntry{UserId: "alice", Title: "Naruto", Status: entity.StatusWatching})
	assert.NoError(t, err)

	status := entity.StatusOnHold
	changed, err := repo.Update(ctx, "alice", "Naruto", entity.EntryPatch{Status: &status})
	assert.NoError(t, err)
	assert.True(t, changed)

	// Same value again is a no-op.
	changed, err = repo.Update(ctx, "alice", "Naruto", entity.EntryPatch{Status: &status})
	assert.NoError(t, err)
	assert.False(t, changed)

	_, err = repo.Update(ctx, "alice", "Ghost", entity.EntryPatch{Status: &status})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteProtectsFavorites(t *testing.T) {
	repo := NewWatchlistRepository()
	ctx := context.Background()

	_, err := repo.Add(ctx, &entity.WatchlistEntry{
		UserId: "alice", Title: "Naruto", Status: entity.StatusWatching, IsFavorite: true,
	})
	assert.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, "alice", "Naruto"), apperror.ErrProtected)

	fav := false
	_, err = repo.Update(ctx, "alice", "Naruto", entity.EntryPatch{IsFavorite: &fav})
	assert.NoError(t, err)

	assert.NoError(t, repo.Delete(ctx, "alice", "Naruto"))
	assert.ErrorIs(t, repo.Delete(ctx, "alice", "Naruto"), apperror.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	repo := NewWatchlistRepository()
	ctx := context.Background()

	seed := []entity.WatchlistEntry{
		{UserId: "alice", Title: "Naruto", Status: entity.StatusWatching, IsFavorite: true},
		{UserId: "alice", Title: "Bleach", Status: entity.StatusCompleted},
		{UserId: "alice", Title: "One Piece", Status: entity.StatusWatching},
		{UserId: "bob", Title: "Pokemon", Status: entity.StatusWatching},
	}
	for i := range seed {
		_, err := repo.Add(ctx, &seed[i])
		assert.NoError(t, err)
	}

	all, err := repo.List(ctx, "alice", entity.ListFilter{})
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	favs, err := repo.List(ctx, "alice", entity.ListFilter{FavoritesOnly: true})
	assert.NoError(t, err)
	assert.Len(t, favs, 1)
	assert.Equal(t, "Naruto", favs[0].Title)

	watching := entity.StatusWatching
	byStatus, err := repo.List(ctx, "alice", entity.ListFilter{Status: &watching})
	assert.NoError(t, err)
	assert.Len(t, byStatus, 2)

	empty, err := repo.List(ctx, "carol", entity.ListFilter{})
	assert.NoError(t, err)
	assert.Empty(t, empty)
}

func TestConcurrentAddsSingleWinner(t *testing.T) {
	repo := NewWatchlistRepository()
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Add(ctx, &entity.WatchlistEntry{
				UserId: "alice", Title: "Naruto", Status: entity.StatusWatching,
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, apperror.ErrAlreadyExists)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestConcurrentMixedOperations(t *testing.T) {
	repo := NewWatchlistRepository()
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			title := fmt.Sprintf("Anime %d", i)
			if _, err := repo.Add(ctx, &entity.WatchlistEntry{UserId: "alice", Title: title, Status: entity.StatusToWatch}); err != nil {
				return
			}
			status := entity.StatusWatching
			repo.Update(ctx, "alice", title, entity.EntryPatch{Status: &status})
			repo.Delete(ctx, "alice", title)
		}(i)
	}
	wg.Wait()

	left, err := repo.List(ctx, "alice", entity.ListFilter{})
	assert.NoError(t, err)
	assert.Empty(t, left)
}
