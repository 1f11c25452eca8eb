package session

import (
	"context"
	"fmt"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"
	"anitrack-bot/internal/presenter"

	"github.com/google/uuid"
)

// Paginator pages through a snapshot of the user's watchlist. In manage mode
// (Selectable) picking a title opens a control panel on a fresh surface.
// The paginator itself only ends on expiry or owner cancel.
type Paginator struct {
	OwnerId    string
	Header     string
	Items      []*entity.WatchlistEntry
	PageIndex  int
	PageSize   int
	Selectable bool
}

func (p *Paginator) Kind() Kind {
	return KindPaginator
}

func (p *Paginator) Step(ctx context.Context, env Env, ev Event) Outcome {
	switch e := ev.(type) {
	case PageNext:
		return p.renderAt(p.PageIndex + 1)
	case PagePrev:
		return p.renderAt(p.PageIndex - 1)
	case PageSelect:
		if !p.Selectable {
			return Outcome{Ignored: true}
		}
		return p.openPanel(ctx, env, e.Title)
	default:
		return Outcome{Ignored: true}
	}
}

// renderAt clamps the requested page and re-renders. Stepping past either
// boundary is a no-op that still produces a valid render.
func (p *Paginator) renderAt(index int) Outcome {
	lastPage := presenter.PageCount(len(p.Items), p.PageSize) - 1
	if index < 0 {
		index = 0
	}
	if index > lastPage {
		index = lastPage
	}

	next := *p
	next.PageIndex = index
	view := presenter.ListPage(p.Header, p.Items, index, p.PageSize)
	return Outcome{
		Next:        &next,
		View:        &view,
		Affordances: PaginatorAffordances(p.Selectable),
	}
}

func (p *Paginator) openPanel(ctx context.Context, env Env, title string) Outcome {
	entry, err := env.Store.Get(ctx, p.OwnerId, title)
	if err != nil {
		if apperror.IsTransient(err) || apperror.IsDomain(err) {
			eph := presenter.DomainError(err, title)
			return Outcome{Ephemeral: &eph, Err: err}
		}
		return Outcome{Err: apperror.Internal(err)}
	}

	md, err := env.Metadata.FetchByTitle(ctx, title)
	if err != nil && !apperror.IsTransient(err) && err != apperror.ErrNotFound {
		return Outcome{Err: apperror.Internal(err)}
	}

	panel := &ControlPanel{UserId: p.OwnerId, Title: title}
	note := presenter.Success("Control Panel", fmt.Sprintf("Opened a control panel for **%s**.", title))
	return Outcome{
		Ephemeral: &note,
		Open: &OpenRequest{
			SurfaceId:   "surface:" + uuid.NewString(),
			OwnerId:     p.OwnerId,
			Machine:     panel,
			TTL:         env.Config.PanelTTL,
			View:        presenter.Panel(md, entry),
			Affordances: PanelAffordances(entry),
		},
	}
}

func PaginatorAffordances(selectable bool) []string {
	ids := []string{AffPagePrev, AffPageNext}
	if selectable {
		ids = append(ids, AffPageSelect)
	}
	return ids
}
