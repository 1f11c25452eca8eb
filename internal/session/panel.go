package session

import (
	"context"
	"fmt"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"
	"anitrack-bot/internal/presenter"
	"anitrack-bot/internal/service"
	"anitrack-bot/internal/transport"

	"github.com/google/uuid"
)

// ControlPanel is the longest-lived shape, so it deliberately holds nothing
// but the title: the live entry and fresh metadata are re-fetched on every
// transition, because other sessions or other bot instances may have mutated
// the store in between.
type ControlPanel struct {
	UserId string
	Title  string
}

func (p *ControlPanel) Kind() Kind {
	return KindControlPanel
}

func (p *ControlPanel) Step(ctx context.Context, env Env, ev Event) Outcome {
	entry, err := env.Store.Get(ctx, p.UserId, p.Title)
	if err != nil {
		if err == apperror.ErrNotFound {
			// Deleted out from under the panel (e.g. by the nested
			// confirmation, or another shard).
			view := presenter.DomainError(err, p.Title)
			return Outcome{Terminal: true, View: &view, Err: err}
		}
		if apperror.IsTransient(err) {
			eph := presenter.DomainError(err, p.Title)
			return Outcome{Ephemeral: &eph, Err: err}
		}
		return Outcome{Err: apperror.Internal(err)}
	}

	switch e := ev.(type) {
	case PanelSetStatus:
		return p.applyPatch(ctx, env, entry,
			func() (entity.EntryPatch, error) {
				return service.StatusPatch(entry, e.Status, env.Now())
			},
			fmt.Sprintf("Updated status of **%s** to **%s**.", p.Title, e.Status))

	case PanelSetEpisodes:
		return p.applyPatch(ctx, env, entry,
			func() (entity.EntryPatch, error) {
				return service.ProgressPatch(entry, e.Count, env.Now())
			},
			fmt.Sprintf("Updated progress of **%s** to **%d** episodes.", p.Title, e.Count))

	case PanelToggleFavorite:
		toggled := !entry.IsFavorite
		text := fmt.Sprintf("**%s** is no longer marked as favorite.", p.Title)
		if toggled {
			text = fmt.Sprintf("⭐ **%s** is now marked as favorite!", p.Title)
		}
		return p.applyPatch(ctx, env, entry,
			func() (entity.EntryPatch, error) {
				return entity.EntryPatch{IsFavorite: &toggled}, nil
			},
			text)

	case PanelViewDetails:
		return p.viewDetails(ctx, env, entry)

	case PanelDelete:
		return p.requestDelete(ctx, env, entry)

	case PanelReload:
		md := p.fetchMetadata(ctx, env)
		return p.render(md, entry, nil)

	case PanelCancel:
		view := presenter.Success("Closed", fmt.Sprintf("Control panel for **%s** closed.", p.Title))
		return Outcome{Terminal: true, View: &view}

	default:
		return Outcome{Ignored: true}
	}
}

// applyPatch runs one of the shared transition rules and commits the result
// as a single atomic store update.
func (p *ControlPanel) applyPatch(ctx context.Context, env Env, entry *entity.WatchlistEntry, rule func() (entity.EntryPatch, error), note string) Outcome {
	patch, err := rule()
	if err != nil {
		eph := presenter.DomainError(err, p.Title)
		return Outcome{Ephemeral: &eph, Err: err}
	}

	if _, err := env.Store.Update(ctx, p.UserId, p.Title, patch); err != nil {
		if apperror.IsDomain(err) || apperror.IsTransient(err) {
			eph := presenter.DomainError(err, p.Title)
			return Outcome{Ephemeral: &eph, Err: err}
		}
		return Outcome{Err: apperror.Internal(err)}
	}

	updated := *entry
	patch.ApplyTo(&updated)
	eph := presenter.Success("Updated", note)
	return p.render(p.fetchMetadata(ctx, env), &updated, &eph)
}

func (p *ControlPanel) viewDetails(ctx context.Context, env Env, entry *entity.WatchlistEntry) Outcome {
	md, err := env.Metadata.FetchByTitle(ctx, p.Title)
	if err != nil {
		eph := presenter.DomainError(err, p.Title)
		return Outcome{Ephemeral: &eph, Err: err}
	}
	details := presenter.Details(md, entry)
	return Outcome{
		View:        viewPtr(presenter.Panel(md, entry)),
		Affordances: PanelAffordances(entry),
		Ephemeral:   &details,
	}
}

func (p *ControlPanel) requestDelete(ctx context.Context, env Env, entry *entity.WatchlistEntry) Outcome {
	if entry.IsFavorite {
		eph := presenter.DomainError(apperror.ErrProtected, p.Title)
		return Outcome{Ephemeral: &eph, Err: apperror.ErrProtected}
	}

	userId, title := p.UserId, p.Title
	confirm := &Confirmation{
		Subject: title,
		OnConfirm: func(ctx context.Context, env Env) (transport.View, error) {
			// Delete re-checks Protected atomically; a favorite toggled after
			// this prompt opened still survives.
			if err := env.Store.Delete(ctx, userId, title); err != nil {
				return presenter.DomainError(err, title), err
			}
			return presenter.Success("Deleted", fmt.Sprintf("**%s** has been deleted from your watchlist!", title)), nil
		},
	}

	return Outcome{
		Open: &OpenRequest{
			SurfaceId:   "surface:" + uuid.NewString(),
			OwnerId:     p.UserId,
			Machine:     confirm,
			TTL:         env.Config.ConfirmationTTL,
			View:        presenter.Confirmation("Confirm Deletion", fmt.Sprintf("Are you sure you want to delete **%s** from your watchlist?", title)),
			Affordances: ConfirmationAffordances(),
		},
	}
}

func (p *ControlPanel) fetchMetadata(ctx context.Context, env Env) *entity.MetadataRecord {
	md, err := env.Metadata.FetchByTitle(ctx, p.Title)
	if err != nil {
		// The panel renders from the stored entry alone when the metadata
		// service is unavailable.
		env.Log.Warn("session", "metadata fetch failed for panel", map[string]interface{}{
			"title": p.Title,
			"error": err.Error(),
		})
		return nil
	}
	return md
}

func (p *ControlPanel) render(md *entity.MetadataRecord, entry *entity.WatchlistEntry, ephemeral *transport.View) Outcome {
	return Outcome{
		View:        viewPtr(presenter.Panel(md, entry)),
		Affordances: PanelAffordances(entry),
		Ephemeral:   ephemeral,
	}
}

// PanelAffordances withholds the delete control for favorited entries.
func PanelAffordances(e *entity.WatchlistEntry) []string {
	ids := []string{AffPanelStatus, AffPanelEpisodes, AffPanelFavorite, AffPanelDetails, AffPanelReload, AffPanelCancel}
	if !e.IsFavorite {
		ids = append(ids, AffPanelDelete)
	}
	return ids
}

func viewPtr(v transport.View) *transport.View {
	return &v
}
