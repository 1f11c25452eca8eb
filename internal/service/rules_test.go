package service

import (
	"testing"
	"time"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"

	"github.com/stretchr/testify/assert"
)

var today = time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)

func TestProgressPatch(t *testing.T) {
	tests := []struct {
		name       string
		entry      entity.WatchlistEntry
		episodes   int
		wantErr    error
		wantStatus *entity.WatchStatus
		wantStart  bool
		wantDone   bool
	}{
		{
			name:     "negative count",
			entry:    entity.WatchlistEntry{Status: entity.StatusWatching, TotalEpisodes: 12},
			episodes: -1,
			wantErr:  apperror.ErrInvalidRange,
		},
		{
			name:     "beyond known total",
			entry:    entity.WatchlistEntry{Status: entity.StatusWatching, TotalEpisodes: 12},
			episodes: 13,
			wantErr:  apperror.ErrInvalidRange,
		},
		{
			name:     "unknown total accepts any count",
			entry:    entity.WatchlistEntry{Status: entity.StatusWatching, TotalEpisodes: 0},
			episodes: 1000,
		},
		{
			name:       "reaching the total completes",
			entry:      entity.WatchlistEntry{Status: entity.StatusWatching, TotalEpisodes: 12},
			episodes:   12,
			wantStatus: statusPtr(entity.StatusCompleted),
			wantDone:   true,
		},
		{
			name:       "first progress on a to-watch entry starts watching",
			entry:      entity.WatchlistEntry{Status: entity.StatusToWatch, TotalEpisodes: 12},
			episodes:   1,
			wantStatus: statusPtr(entity.StatusWatching),
			wantStart:  true,
		},
		{
			name:     "mid-series progress changes nothing else",
			entry:    entity.WatchlistEntry{Status: entity.StatusWatching, TotalEpisodes: 12},
			episodes: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := ProgressPatch(&tt.entry, tt.episodes, today)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.episodes, *patch.EpisodesWatched)
			if tt.wantStatus != nil {
				assert.Equal(t, *tt.wantStatus, *patch.Status)
			} else {
				assert.Nil(t, patch.Status)
			}
			assert.Equal(t, tt.wantStart, patch.StartDate != nil)
			assert.Equal(t, tt.wantDone, patch.CompletionDate != nil)
		})
	}
}

func TestProgressPatchKeepsExistingDates(t *testing.T) {
	done := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := entity.WatchlistEntry{Status: entity.StatusWatching, TotalEpisodes: 12, CompletionDate: &done}

	patch, err := ProgressPatch(&e, 12, today)
	assert.NoError(t, err)
	assert.Nil(t, patch.CompletionDate, "an existing completion date must not be overwritten by progress")
}

func TestStatusPatch(t *testing.T) {
	t.Run("invalid status", func(t *testing.T) {
		e := entity.WatchlistEntry{Status: entity.StatusWatching}
		_, err := StatusPatch(&e, entity.WatchStatus("Binging"), today)
		assert.ErrorIs(t, err, apperror.ErrInvalidStatus)
	})

	t.Run("watching stamps a missing start date", func(t *testing.T) {
		e := entity.WatchlistEntry{Status: entity.StatusToWatch}
		patch, err := StatusPatch(&e, entity.StatusWatching, today)
		assert.NoError(t, err)
		assert.NotNil(t, patch.StartDate)
		assert.Equal(t, "2025-06-01", patch.StartDate.Format("2006-01-02"))
	})

	t.Run("watching keeps an existing start date", func(t *testing.T) {
		start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		e := entity.WatchlistEntry{Status: entity.StatusOnHold, StartDate: &start}
		patch, err := StatusPatch(&e, entity.StatusWatching, today)
		assert.NoError(t, err)
		assert.Nil(t, patch.StartDate)
	})

	t.Run("completed stamps the date and snaps progress", func(t *testing.T) {
		e := entity.WatchlistEntry{Status: entity.StatusWatching, TotalEpisodes: 26, EpisodesWatched: 4}
		patch, err := StatusPatch(&e, entity.StatusCompleted, today)
		assert.NoError(t, err)
		assert.NotNil(t, patch.CompletionDate)
		assert.Equal(t, 26, *patch.EpisodesWatched)
	})

	t.Run("completed with unknown total leaves progress alone", func(t *testing.T) {
		e := entity.WatchlistEntry{Status: entity.StatusWatching, TotalEpisodes: 0, EpisodesWatched: 400}
		patch, err := StatusPatch(&e, entity.StatusCompleted, today)
		assert.NoError(t, err)
		assert.Nil(t, patch.EpisodesWatched)
	})

	t.Run("dropped touches no dates", func(t *testing.T) {
		e := entity.WatchlistEntry{Status: entity.StatusWatching}
		patch, err := StatusPatch(&e, entity.StatusDropped, today)
		assert.NoError(t, err)
		assert.Nil(t, patch.StartDate)
		assert.Nil(t, patch.CompletionDate)
	})
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	assert.NoError(t, err)
	assert.Equal(t, 2025, d.Year())

	_, err = ParseDate("01/06/2025")
	assert.Error(t, err)
}

func statusPtr(s entity.WatchStatus) *entity.WatchStatus { return &s }
