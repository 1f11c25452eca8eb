package entity

import "time"

// WatchStatus is the closed set of per-entry watch states.
type WatchStatus string

const (
	StatusWatching  WatchStatus = "Watching"
	StatusCompleted WatchStatus = "Completed"
	StatusToWatch   WatchStatus = "To Watch"
	StatusOnHold    WatchStatus = "On Hold"
	StatusDropped   WatchStatus = "Dropped"
)

// AllStatuses in presentation order.
var AllStatuses = []WatchStatus{
	StatusWatching, StatusCompleted, StatusToWatch, StatusOnHold, StatusDropped,
}

func (s WatchStatus) Valid() bool {
	switch s {
	case StatusWatching, StatusCompleted, StatusToWatch, StatusOnHold, StatusDropped:
		return true
	}
	return false
}

// WatchlistEntry is a persisted per-user anime entry. (UserId, Title) is unique.
type WatchlistEntry struct {
	UserId          string
	Title           string
	Status          WatchStatus
	EpisodesWatched int
	TotalEpisodes   int // 0 = unknown/ongoing; suppresses completion logic
	IsFavorite      bool
	StartDate       *time.Time
	CompletionDate  *time.Time
	Rating          *int // 0-10
	SourceLink      string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// EntryPatch is a field-level merge patch. Nil fields are left untouched.
type EntryPatch struct {
	Status          *WatchStatus
	EpisodesWatched *int
	TotalEpisodes   *int
	IsFavorite      *bool
	StartDate       *time.Time
	CompletionDate  *time.Time
	Rating          *int
	SourceLink      *string
	Notes           *string
}

func (p EntryPatch) IsEmpty() bool {
	return p.Status == nil && p.EpisodesWatched == nil && p.TotalEpisodes == nil &&
		p.IsFavorite == nil && p.StartDate == nil && p.CompletionDate == nil &&
		p.Rating == nil && p.SourceLink == nil && p.Notes == nil
}

// ApplyTo merges the patch into e, reporting whether any field actually changed.
func (p EntryPatch) ApplyTo(e *WatchlistEntry) bool {
	changed := false
	if p.Status != nil && e.Status != *p.Status {
		e.Status = *p.Status
		changed = true
	}
	if p.EpisodesWatched != nil && e.EpisodesWatched != *p.EpisodesWatched {
		e.EpisodesWatched = *p.EpisodesWatched
		changed = true
	}
	if p.TotalEpisodes != nil && e.TotalEpisodes != *p.TotalEpisodes {
		e.TotalEpisodes = *p.TotalEpisodes
		changed = true
	}
	if p.IsFavorite != nil && e.IsFavorite != *p.IsFavorite {
		e.IsFavorite = *p.IsFavorite
		changed = true
	}
	if p.StartDate != nil && !sameDate(e.StartDate, p.StartDate) {
		d := *p.StartDate
		e.StartDate = &d
		changed = true
	}
	if p.CompletionDate != nil && !sameDate(e.CompletionDate, p.CompletionDate) {
		d := *p.CompletionDate
		e.CompletionDate = &d
		changed = true
	}
	if p.Rating != nil && (e.Rating == nil || *e.Rating != *p.Rating) {
		v := *p.Rating
		e.Rating = &v
		changed = true
	}
	if p.SourceLink != nil && e.SourceLink != *p.SourceLink {
		e.SourceLink = *p.SourceLink
		changed = true
	}
	if p.Notes != nil && e.Notes != *p.Notes {
		e.Notes = *p.Notes
		changed = true
	}
	return changed
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ListFilter narrows a per-user listing. Zero value matches everything.
type ListFilter struct {
	FavoritesOnly bool
	Status        *WatchStatus
}

func (f ListFilter) Matches(e *WatchlistEntry) bool {
	if f.FavoritesOnly && !e.IsFavorite {
		return false
	}
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	return true
}
