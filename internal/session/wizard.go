package session

import (
	"context"
	"fmt"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"
	"anitrack-bot/internal/presenter"
	"anitrack-bot/internal/service"
	"anitrack-bot/internal/transport"
)

// AddWizard collects the fields for a new watchlist entry. Confirm is only
// honoured once a status is chosen; the rendered surface withholds the
// confirm affordance until then, and the machine guards it regardless.
type AddWizard struct {
	OwnerId   string
	Metadata  *entity.MetadataRecord
	Status    *entity.WatchStatus
	Rating    *int
	StartDate string // YYYY-MM-DD, defaults to today at open
	DateSet   bool   // user picked the date themselves
	Favorite  bool
}

// NewAddWizard seeds a wizard for fetched metadata with today's date.
func NewAddWizard(ownerId string, md *entity.MetadataRecord, env Env) *AddWizard {
	return &AddWizard{
		OwnerId:   ownerId,
		Metadata:  md,
		StartDate: service.DateOnly(env.Now()).Format("2006-01-02"),
	}
}

func (w *AddWizard) Kind() Kind {
	return KindAddWizard
}

func (w *AddWizard) Step(ctx context.Context, env Env, ev Event) Outcome {
	switch e := ev.(type) {
	case WizardSetStatus:
		if !e.Status.Valid() {
			eph := presenter.DomainError(apperror.ErrInvalidStatus, w.Metadata.Title)
			return Outcome{Ephemeral: &eph, Err: apperror.ErrInvalidStatus}
		}
		next := *w
		status := e.Status
		next.Status = &status
		eph := presenter.Success("Status Set", fmt.Sprintf("%s Status set to **%s**.", presenter.StatusEmoji(status), status))
		return w.rerender(&next, &eph)

	case WizardSetRating:
		if e.Rating < 0 || e.Rating > 10 {
			eph := presenter.Error("Invalid Rating", "Rating must be between 0 and 10.")
			return Outcome{Ephemeral: &eph, Err: apperror.ErrInvalidRange}
		}
		next := *w
		rating := e.Rating
		next.Rating = &rating
		eph := presenter.Success("Rating Set", fmt.Sprintf("⭐ Rating set to **%d/10**.", rating))
		return w.rerender(&next, &eph)

	case WizardSetDate:
		if e.Date.After(env.Now()) {
			eph := presenter.Error("Invalid Date", "Cannot set a future date!")
			return Outcome{Ephemeral: &eph}
		}
		next := *w
		next.StartDate = service.DateOnly(e.Date).Format("2006-01-02")
		next.DateSet = true
		eph := presenter.Success("Date Set", fmt.Sprintf("📅 Start date set to **%s**.", next.StartDate))
		return w.rerender(&next, &eph)

	case WizardToggleFavorite:
		next := *w
		next.Favorite = !w.Favorite
		text := "⭐ Marked as favorite!"
		if !next.Favorite {
			text = "Removed from favorites."
		}
		eph := presenter.Success("Favorite", text)
		return w.rerender(&next, &eph)

	case WizardConfirm:
		return w.confirm(ctx, env)

	case WizardCancel:
		view := presenter.Success("Cancelled", fmt.Sprintf("**%s** was not added.", w.Metadata.Title))
		return Outcome{Terminal: true, View: &view}

	default:
		return Outcome{Ignored: true}
	}
}

func (w *AddWizard) confirm(ctx context.Context, env Env) Outcome {
	if w.Status == nil {
		eph := presenter.Error("Missing Status", "Please select a status first!")
		return Outcome{Ephemeral: &eph}
	}

	entry := w.buildEntry(env)
	stored, err := env.Store.Add(ctx, entry)
	if err != nil {
		if apperror.IsDomain(err) || apperror.IsTransient(err) {
			// The wizard stays open so the user can cancel, or retry after a
			// race with another entry path.
			eph := presenter.DomainError(err, w.Metadata.Title)
			return Outcome{Ephemeral: &eph, Err: err}
		}
		return Outcome{Err: apperror.Internal(err)}
	}

	view := presenter.Details(w.Metadata, stored)
	view.Title = "✅ Added: " + view.Title
	return Outcome{Terminal: true, View: &view}
}

func (w *AddWizard) buildEntry(env Env) *entity.WatchlistEntry {
	entry := &entity.WatchlistEntry{
		UserId:        w.OwnerId,
		Title:         w.Metadata.Title,
		Status:        *w.Status,
		TotalEpisodes: w.Metadata.EpisodeCount,
		IsFavorite:    w.Favorite,
		Rating:        w.Rating,
		SourceLink:    w.Metadata.SiteUrl,
	}
	// The prefilled today-date only sticks when watching has actually begun;
	// a user-picked date always does.
	started := *w.Status == entity.StatusWatching || *w.Status == entity.StatusCompleted
	if w.DateSet || started {
		if start, err := service.ParseDate(w.StartDate); err == nil {
			entry.StartDate = &start
		}
	}
	if *w.Status == entity.StatusCompleted {
		today := service.DateOnly(env.Now())
		entry.CompletionDate = &today
		entry.EpisodesWatched = w.Metadata.EpisodeCount
	}
	return entry
}

func (w *AddWizard) rerender(next *AddWizard, ephemeral *transport.View) Outcome {
	view := presenter.Wizard(next.Metadata, next.Status, next.Rating, next.StartDate, next.Favorite)
	return Outcome{
		Next:        next,
		View:        &view,
		Affordances: WizardAffordances(next.Status != nil),
		Ephemeral:   ephemeral,
	}
}

func WizardAffordances(statusChosen bool) []string {
	ids := []string{AffWizardStatus, AffWizardRating, AffWizardDate, AffWizardFavorite, AffWizardCancel}
	if statusChosen {
		ids = append(ids, AffWizardConfirm)
	}
	return ids
}
