package dispatcher

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"
	"anitrack-bot/internal/presenter"
	"anitrack-bot/internal/service"
	"anitrack-bot/internal/session"
	"anitrack-bot/internal/transport"
)

func (d *Dispatcher) handleCommand(ctx context.Context, ev transport.Event) {
	cmd := ev.Command
	switch cmd.Name {
	case "add":
		d.cmdAdd(ctx, ev, cmd.Args)
	case "search":
		d.cmdSearch(ctx, ev, cmd.Args)
	case "status":
		d.cmdStatus(ctx, ev, cmd.Args)
	case "list":
		d.cmdList(ctx, ev, cmd.Args, false)
	case "manage":
		d.cmdList(ctx, ev, cmd.Args, true)
	case "delete":
		d.cmdDelete(ctx, ev, cmd.Args)
	case "update_status":
		d.cmdUpdateStatus(ctx, ev, cmd.Args)
	case "update_progress":
		d.cmdUpdateProgress(ctx, ev, cmd.Args)
	case "toggle_favorite":
		d.cmdToggleFavorite(ctx, ev, cmd.Args)
	case "help":
		d.render(ev.SurfaceId, helpView())
	default:
		d.sendEphemeral(ev.UserId, presenter.Error("Unknown Command", fmt.Sprintf("Unknown command `%s`. Try `help`.", cmd.Name)))
	}
}

// cmdAdd looks up the title and opens an add wizard on the invoking surface.
func (d *Dispatcher) cmdAdd(ctx context.Context, ev transport.Event, args []string) {
	title, ok := oneArg(args)
	if !ok {
		d.sendEphemeral(ev.UserId, presenter.Error("Missing Title", "Usage: `add <title>`"))
		return
	}

	md, err := d.env.Metadata.FetchByTitle(ctx, title)
	if err != nil {
		d.sendEphemeral(ev.UserId, metadataError(err, title))
		return
	}

	wizard := session.NewAddWizard(ev.UserId, md, d.env)
	if _, err := d.registry.Open(ev.SurfaceId, ev.UserId, wizard, d.env.Config.WizardTTL); err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, title))
		return
	}
	d.render(ev.SurfaceId, presenter.Wizard(md, nil, nil, wizard.StartDate, false))
	d.addAffordances(ev.SurfaceId, session.WizardAffordances(false))
}

// cmdSearch shows metadata for a title without touching the watchlist.
func (d *Dispatcher) cmdSearch(ctx context.Context, ev transport.Event, args []string) {
	title, ok := oneArg(args)
	if !ok {
		d.sendEphemeral(ev.UserId, presenter.Error("Missing Title", "Usage: `search <title>`"))
		return
	}

	md, err := d.env.Metadata.FetchByTitle(ctx, title)
	if err != nil {
		d.sendEphemeral(ev.UserId, metadataError(err, title))
		return
	}
	d.render(ev.SurfaceId, presenter.Details(md, nil))
}

// cmdStatus opens a control panel for one tracked entry on the invoking
// surface, same as picking it from a manage list.
func (d *Dispatcher) cmdStatus(ctx context.Context, ev transport.Event, args []string) {
	title, ok := oneArg(args)
	if !ok {
		d.sendEphemeral(ev.UserId, presenter.Error("Missing Title", "Usage: `status <title>`"))
		return
	}

	entry, err := d.env.Store.Get(ctx, ev.UserId, title)
	if err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, title))
		return
	}

	// Metadata enrichment is optional; the stored entry renders on its own.
	md, err := d.env.Metadata.FetchByTitle(ctx, title)
	if err != nil {
		md = nil
	}

	panel := &session.ControlPanel{UserId: ev.UserId, Title: entry.Title}
	if _, err := d.registry.Open(ev.SurfaceId, ev.UserId, panel, d.env.Config.PanelTTL); err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, title))
		return
	}
	d.render(ev.SurfaceId, presenter.Panel(md, entry))
	d.addAffordances(ev.SurfaceId, session.PanelAffordances(entry))
}

// cmdList opens a paginator over the user's watchlist. Manage mode adds the
// per-title select control.
func (d *Dispatcher) cmdList(ctx context.Context, ev transport.Event, args []string, manage bool) {
	filter, header, err := parseListFilter(args)
	if err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, strings.Join(args, " ")))
		return
	}

	entries, err := d.env.Store.List(ctx, ev.UserId, filter)
	if err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, header))
		return
	}
	if len(entries) == 0 {
		d.sendEphemeral(ev.UserId, presenter.Error("Empty", "Your watchlist is empty! Add something with `add <title>`."))
		return
	}
	presenter.SortEntries(entries)

	pager := &session.Paginator{
		OwnerId:    ev.UserId,
		Header:     header,
		Items:      entries,
		PageSize:   d.env.Config.PageSize,
		Selectable: manage,
	}
	if _, err := d.registry.Open(ev.SurfaceId, ev.UserId, pager, d.env.Config.PaginatorTTL); err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, header))
		return
	}
	d.render(ev.SurfaceId, presenter.ListPage(header, entries, 0, d.env.Config.PageSize))
	d.addAffordances(ev.SurfaceId, session.PaginatorAffordances(manage))
}

// cmdDelete opens a confirmation flow for one entry. Favorites are refused up
// front; the store re-checks at commit time regardless.
func (d *Dispatcher) cmdDelete(ctx context.Context, ev transport.Event, args []string) {
	title, ok := oneArg(args)
	if !ok {
		d.sendEphemeral(ev.UserId, presenter.Error("Missing Title", "Usage: `delete <title>`"))
		return
	}

	entry, err := d.env.Store.Get(ctx, ev.UserId, title)
	if err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, title))
		return
	}
	if entry.IsFavorite {
		d.sendEphemeral(ev.UserId, presenter.DomainError(apperror.ErrProtected, title))
		return
	}

	userId := ev.UserId
	confirm := &session.Confirmation{
		Subject: title,
		OnConfirm: func(ctx context.Context, env session.Env) (transport.View, error) {
			if err := env.Store.Delete(ctx, userId, title); err != nil {
				return presenter.DomainError(err, title), err
			}
			return presenter.Success("Deleted", fmt.Sprintf("**%s** has been deleted from your watchlist!", title)), nil
		},
	}
	if _, err := d.registry.Open(ev.SurfaceId, ev.UserId, confirm, d.env.Config.ConfirmationTTL); err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, title))
		return
	}
	d.render(ev.SurfaceId, presenter.Confirmation("Confirm Deletion", fmt.Sprintf("Are you sure you want to delete **%s** from your watchlist?", title)))
	d.addAffordances(ev.SurfaceId, session.ConfirmationAffordances())
}

// cmdUpdateStatus is the one-shot, sessionless counterpart of the panel's
// status control.
func (d *Dispatcher) cmdUpdateStatus(ctx context.Context, ev transport.Event, args []string) {
	if len(args) < 2 {
		d.sendEphemeral(ev.UserId, presenter.Error("Missing Arguments", "Usage: `update_status <title> <status>`"))
		return
	}
	title := args[0]
	status := entity.WatchStatus(args[1])
	if !status.Valid() {
		d.sendEphemeral(ev.UserId, presenter.DomainError(apperror.ErrInvalidStatus, args[1]))
		return
	}

	entry, err := d.env.Store.Get(ctx, ev.UserId, title)
	if err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, title))
		return
	}
	patch, err := service.StatusPatch(entry, status, d.env.Now())
	if err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, title))
		return
	}
	if _, err := d.env.Store.Update(ctx, ev.UserId, title, patch); err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, title))
		return
	}
	d.render(ev.SurfaceId, presenter.Success("Status Updated", fmt.Sprintf("%s Updated status of **%s** to **%s**.", presenter.StatusEmoji(status), title, status)))
}

func (d *Dispatcher) cmdUpdateProgress(ctx context.Context, ev transport.Event, args []string) {
	if len(args) < 2 {
		d.sendEphemeral(ev.UserId, presenter.Error("Missing Arguments", "Usage: `update_progress <title> <episodes>`"))
		return
	}
	title := args[0]
	episodes, err := strconv.Atoi(args[1])
	if err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(apperror.ErrInvalidRange, args[1]))
		return
	}

	entry, err := d.env.Store.Get(ctx, ev.UserId, title)
	if err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, title))
		return
	}
	patch, err := service.ProgressPatch(entry, episodes, d.env.Now())
	if err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, title))
		return
	}
	if _, err := d.env.Store.Update(ctx, ev.UserId, title, patch); err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, title))
		return
	}
	d.render(ev.SurfaceId, presenter.Success("Progress Updated", fmt.Sprintf("Updated progress of **%s** to **%d** episodes.", title, episodes)))
}

func (d *Dispatcher) cmdToggleFavorite(ctx context.Context, ev transport.Event, args []string) {
	title, ok := oneArg(args)
	if !ok {
		d.sendEphemeral(ev.UserId, presenter.Error("Missing Title", "Usage: `toggle_favorite <title>`"))
		return
	}

	entry, err := d.env.Store.Get(ctx, ev.UserId, title)
	if err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, title))
		return
	}
	toggled := !entry.IsFavorite
	if _, err := d.env.Store.Update(ctx, ev.UserId, title, entity.EntryPatch{IsFavorite: &toggled}); err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, title))
		return
	}
	if toggled {
		d.render(ev.SurfaceId, presenter.Success("Favorite", fmt.Sprintf("⭐ **%s** is now marked as favorite!", title)))
	} else {
		d.render(ev.SurfaceId, presenter.Success("Favorite", fmt.Sprintf("**%s** is no longer marked as favorite.", title)))
	}
}

// parseListFilter interprets the optional list argument: "favorites" or a
// watch status.
func parseListFilter(args []string) (entity.ListFilter, string, error) {
	if len(args) == 0 {
		return entity.ListFilter{}, "Your Watchlist", nil
	}
	arg := strings.Join(args, " ")
	if strings.EqualFold(arg, "favorites") {
		return entity.ListFilter{FavoritesOnly: true}, "Your Favorites", nil
	}
	status := entity.WatchStatus(arg)
	if !status.Valid() {
		return entity.ListFilter{}, "", apperror.ErrInvalidStatus
	}
	return entity.ListFilter{Status: &status}, fmt.Sprintf("Your Watchlist — %s", status), nil
}

// metadataError distinguishes a lookup miss from a watchlist miss.
func metadataError(err error, title string) transport.View {
	if err == apperror.ErrNotFound {
		return presenter.Error("No Results", fmt.Sprintf("No anime found matching **%s**. Check the spelling and try again.", title))
	}
	return presenter.DomainError(err, title)
}

func oneArg(args []string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	return strings.Join(args, " "), true
}

// ParseCommandLine splits a raw command line into a name and arguments,
// honoring double quotes so multi-word titles survive: `add "Death Note"`.
func ParseCommandLine(line string) (string, []string) {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == ' ' && !inQuote:
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	if len(tokens) == 0 {
		return "", nil
	}
	// Callers range over args, so a bare command yields nil rather than an
	// empty slice.
	if len(tokens) == 1 {
		return tokens[0], nil
	}
	return tokens[0], tokens[1:]
}

func helpView() transport.View {
	return transport.View{
		Title: "AniTrack Commands",
		Fields: []transport.Field{
			{Name: "add <title>", Value: "Look up an anime and add it through the interactive wizard."},
			{Name: "search <title>", Value: "Show information about an anime without adding it."},
			{Name: "list [favorites|status]", Value: "Browse your watchlist page by page."},
			{Name: "manage [favorites|status]", Value: "Browse your watchlist and open control panels."},
			{Name: "status <title>", Value: "Open a control panel for one tracked entry."},
			{Name: "update_status <title> <status>", Value: "Change an entry's status directly."},
			{Name: "update_progress <title> <episodes>", Value: "Change an entry's episode progress directly."},
			{Name: "toggle_favorite <title>", Value: "Mark or unmark an entry as favorite."},
			{Name: "delete <title>", Value: "Delete an entry (favorites are protected)."},
		},
		Footer: "Statuses: Watching, Completed, To Watch, On Hold, Dropped",
	}
}

func (d *Dispatcher) addAffordances(surfaceId string, ids []string) {
	if err := d.env.Transport.AddAffordances(surfaceId, ids); err != nil {
		d.env.Log.Warn("dispatcher", "failed to enable affordances", map[string]interface{}{
			"surface_id": surfaceId,
			"error":      err.Error(),
		})
	}
}
