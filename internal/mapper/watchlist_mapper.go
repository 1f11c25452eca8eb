package mapper

import (
	"time"

	"anitrack-bot/internal/entity"
	"anitrack-bot/internal/model"

	"gorm.io/datatypes"
)

type WatchlistMapper struct{}

func NewWatchlistMapper() *WatchlistMapper {
	return &WatchlistMapper{}
}

func (m *WatchlistMapper) ToEntity(w *model.WatchlistEntry) *entity.WatchlistEntry {
	if w == nil {
		return nil
	}

	var updatedAt *time.Time
	if !w.UpdatedAt.IsZero() {
		t := w.UpdatedAt
		updatedAt = &t
	}

	return &entity.WatchlistEntry{
		UserId:          w.UserId,
		Title:           w.Title,
		Status:          entity.WatchStatus(w.Status),
		EpisodesWatched: w.EpisodesWatched,
		TotalEpisodes:   w.TotalEpisodes,
		IsFavorite:      w.IsFavorite,
		StartDate:       dateToTime(w.StartDate),
		CompletionDate:  dateToTime(w.CompletionDate),
		Rating:          w.Rating,
		SourceLink:      w.SourceLink,
		Notes:           w.Notes,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *WatchlistMapper) ToModel(e *entity.WatchlistEntry) *model.WatchlistEntry {
	if e == nil {
		return nil
	}

	return &model.WatchlistEntry{
		UserId:          e.UserId,
		Title:           e.Title,
		Status:          string(e.Status),
		EpisodesWatched: e.EpisodesWatched,
		TotalEpisodes:   e.TotalEpisodes,
		IsFavorite:      e.IsFavorite,
		StartDate:       timeToDate(e.StartDate),
		CompletionDate:  timeToDate(e.CompletionDate),
		Rating:          e.Rating,
		SourceLink:      e.SourceLink,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
	}
}

func (m *WatchlistMapper) ToEntities(entries []*model.WatchlistEntry) []*entity.WatchlistEntry {
	entities := make([]*entity.WatchlistEntry, len(entries))
	for i, w := range entries {
		entities[i] = m.ToEntity(w)
	}
	return entities
}

func dateToTime(d *datatypes.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}

func timeToDate(t *time.Time) *datatypes.Date {
	if t == nil {
		return nil
	}
	d := datatypes.Date(*t)
	return &d
}
