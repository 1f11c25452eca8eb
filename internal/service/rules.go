package service

import (
	"time"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"
)

// Status and progress transition rules shared by session state machines and
// one-shot commands. Both are pure: (current entry, request) -> (patch, error).
// Callers apply the returned patch through the watchlist repository.

// ProgressPatch validates a requested episodesWatched value against the entry
// and derives the follow-on status transitions:
//   - reaching a known total forces Completed and stamps completionDate if unset
//   - first nonzero progress on a To Watch entry moves it to Watching and
//     stamps startDate if unset
func ProgressPatch(e *entity.WatchlistEntry, episodes int, today time.Time) (entity.EntryPatch, error) {
	var patch entity.EntryPatch

	total := e.TotalEpisodes
	if episodes < 0 || (total > 0 && episodes > total) {
		return patch, apperror.ErrInvalidRange
	}

	patch.EpisodesWatched = &episodes
	day := DateOnly(today)

	switch {
	case total > 0 && episodes == total:
		completed := entity.StatusCompleted
		patch.Status = &completed
		if e.CompletionDate == nil {
			patch.CompletionDate = &day
		}
	case episodes > 0 && e.Status == entity.StatusToWatch:
		watching := entity.StatusWatching
		patch.Status = &watching
		if e.StartDate == nil {
			patch.StartDate = &day
		}
	}
	return patch, nil
}

// StatusPatch validates a requested status and derives the date stamps:
// Watching sets startDate if unset; Completed always refreshes completionDate
// and, when the total is known, snaps progress to it.
func StatusPatch(e *entity.WatchlistEntry, status entity.WatchStatus, today time.Time) (entity.EntryPatch, error) {
	var patch entity.EntryPatch

	if !status.Valid() {
		return patch, apperror.ErrInvalidStatus
	}

	patch.Status = &status
	day := DateOnly(today)

	switch status {
	case entity.StatusWatching:
		if e.StartDate == nil {
			patch.StartDate = &day
		}
	case entity.StatusCompleted:
		patch.CompletionDate = &day
		if e.TotalEpisodes > 0 {
			total := e.TotalEpisodes
			patch.EpisodesWatched = &total
		}
	}
	return patch, nil
}

// DateOnly truncates a timestamp to its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate parses a YYYY-MM-DD user input.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
