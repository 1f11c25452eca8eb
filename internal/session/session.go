package session

import (
	"context"
	"time"

	"anitrack-bot/internal/config"
	"anitrack-bot/internal/pkg/logger"
	"anitrack-bot/internal/repository/contract"
	"anitrack-bot/internal/service"
	"anitrack-bot/internal/transport"
)

// Kind identifies one of the four supported interaction shapes.
type Kind string

const (
	KindPaginator    Kind = "paginator"
	KindConfirmation Kind = "confirmation"
	KindAddWizard    Kind = "add_wizard"
	KindControlPanel Kind = "control_panel"
)

// Affordance ids. The dispatcher parses inbound component actions against
// these and the machines advertise them per state.
const (
	AffPageNext   = "page:next"
	AffPagePrev   = "page:prev"
	AffPageSelect = "page:select"

	AffConfirmYes = "confirm:yes"
	AffConfirmNo  = "confirm:no"

	AffWizardStatus   = "wizard:status"
	AffWizardRating   = "wizard:rating"
	AffWizardDate     = "wizard:date"
	AffWizardFavorite = "wizard:favorite"
	AffWizardConfirm  = "wizard:confirm"
	AffWizardCancel   = "wizard:cancel"

	AffPanelStatus   = "panel:status"
	AffPanelEpisodes = "panel:episodes"
	AffPanelFavorite = "panel:favorite"
	AffPanelDetails  = "panel:details"
	AffPanelDelete   = "panel:delete"
	AffPanelReload   = "panel:reload"
	AffPanelCancel   = "panel:cancel"
)

// Env bundles the collaborators a transition may touch. Machines receive it
// per Step call and must not retain it.
type Env struct {
	Store     contract.WatchlistRepository
	Metadata  service.MetadataClient
	Transport transport.Transport
	Log       logger.ILogger
	Now       func() time.Time
	Config    config.SessionConfig
}

// Event is the closed set of component events, tagged per session kind.
// Machines match exhaustively and report non-matching events as ignored.
type Event interface {
	isSessionEvent()
}

// Machine is one session state machine. Step is a single transition:
// (state, event) -> (state', store patch, render). Reads re-fetch live data;
// any store mutation is a single atomic repository call.
type Machine interface {
	Kind() Kind
	Step(ctx context.Context, env Env, ev Event) Outcome
}

// OpenRequest asks the registry to open a nested session on a fresh surface
// after the current transition commits (e.g. the control panel's delete
// confirmation).
type OpenRequest struct {
	SurfaceId   string
	OwnerId     string
	Machine     Machine
	TTL         time.Duration
	View        transport.View
	Affordances []string
}

// Outcome carries a transition's full result as data. Domain errors live in
// Err alongside the render that displays them; they never escape un-typed.
type Outcome struct {
	Next        Machine // nil leaves the state unchanged
	Terminal    bool
	Ignored     bool // event does not apply to this machine; drop silently
	View        *transport.View
	Affordances []string
	Ephemeral   *transport.View // private notice to the acting user
	Open        *OpenRequest
	Err         error
}
