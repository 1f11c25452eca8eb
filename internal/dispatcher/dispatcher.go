package dispatcher

import (
	"context"
	"encoding/json"
	"strconv"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"
	"anitrack-bot/internal/presenter"
	"anitrack-bot/internal/service"
	"anitrack-bot/internal/session"
	"anitrack-bot/internal/transport"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Dispatcher consumes inbound platform events off the bus and routes them:
// commands to their handlers, component interactions to the session registry.
type Dispatcher struct {
	pubSub   *gochannel.GoChannel
	topic    string
	registry *session.Registry
	env      session.Env
}

func NewDispatcher(pubSub *gochannel.GoChannel, topic string, registry *session.Registry, env session.Env) *Dispatcher {
	return &Dispatcher{
		pubSub:   pubSub,
		topic:    topic,
		registry: registry,
		env:      env,
	}
}

// Run subscribes to the event topic and processes messages until ctx is
// cancelled. Malformed payloads are acked and dropped; platform events carry
// no redelivery semantics worth retrying.
func (d *Dispatcher) Run(ctx context.Context) error {
	messages, err := d.pubSub.Subscribe(ctx, d.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			d.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (d *Dispatcher) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var ev transport.Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		d.env.Log.Warn("dispatcher", "failed to unmarshal event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}
	d.HandleEvent(ctx, ev)
}

// HandleEvent routes one inbound event. It never returns an error: every
// failure mode ends in a render, an ephemeral notice, or a logged drop.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev transport.Event) {
	switch {
	case ev.Component != nil:
		d.handleComponent(ctx, ev)
	case ev.Command != nil:
		d.handleCommand(ctx, ev)
	default:
		d.env.Log.Debug("dispatcher", "event carries neither command nor component", map[string]interface{}{
			"event_id": ev.Id,
		})
	}
}

func (d *Dispatcher) handleComponent(ctx context.Context, ev transport.Event) {
	// A panicking transition must not take the process down; the blast radius
	// is the one session on this surface.
	defer func() {
		if rec := recover(); rec != nil {
			d.env.Log.Error("dispatcher", "panic during component dispatch", map[string]interface{}{
				"surface_id": ev.SurfaceId,
				"action":     ev.Component.Action,
				"panic":      rec,
			})
			d.registry.Close(ev.SurfaceId)
			d.render(ev.SurfaceId, presenter.Error("Error", "An unexpected error occurred. Please try again later."))
		}
	}()

	sev, err := parseComponent(*ev.Component)
	if err != nil {
		d.sendEphemeral(ev.UserId, presenter.DomainError(err, ev.Component.Value))
		return
	}
	if sev == nil {
		d.env.Log.Debug("dispatcher", "unroutable component action", map[string]interface{}{
			"surface_id": ev.SurfaceId,
			"action":     ev.Component.Action,
		})
		return
	}

	res, err := d.registry.Dispatch(ctx, ev.SurfaceId, ev.UserId, sev)
	if err != nil {
		switch err {
		case apperror.ErrNoSession:
			// Stale click on a dead surface; the controls are already gone or
			// about to be. Silence is the contract.
			d.env.Log.Debug("dispatcher", "event for dead surface dropped", map[string]interface{}{
				"surface_id": ev.SurfaceId,
				"action":     ev.Component.Action,
			})
		case apperror.ErrNotOwner:
			d.sendEphemeral(ev.UserId, presenter.Error("Not Yours", "These controls belong to someone else's interaction."))
		default:
			d.env.Log.Error("dispatcher", "dispatch failed", map[string]interface{}{
				"surface_id": ev.SurfaceId,
				"error":      err.Error(),
			})
		}
		return
	}
	if res.Discarded {
		return
	}
	d.renderOutcome(ev, res.Outcome)
}

// renderOutcome delivers a transition's render. Outbound calls are
// best-effort; a transport failure never rolls back the committed transition.
func (d *Dispatcher) renderOutcome(ev transport.Event, out session.Outcome) {
	if out.View != nil {
		d.render(ev.SurfaceId, *out.View)
	}
	if out.Terminal {
		// The registry already stripped the affordances.
	} else if out.Affordances != nil {
		if err := d.env.Transport.AddAffordances(ev.SurfaceId, out.Affordances); err != nil {
			d.env.Log.Warn("dispatcher", "failed to enable affordances", map[string]interface{}{
				"surface_id": ev.SurfaceId,
				"error":      err.Error(),
			})
		}
	}
	if out.Ephemeral != nil {
		d.sendEphemeral(ev.UserId, *out.Ephemeral)
	}
}

// parseComponent maps a wire-level component interaction onto a typed session
// event. A nil event with nil error means the action id is unknown.
func parseComponent(c transport.Component) (session.Event, error) {
	switch c.Action {
	case session.AffPageNext:
		return session.PageNext{}, nil
	case session.AffPagePrev:
		return session.PagePrev{}, nil
	case session.AffPageSelect:
		return session.PageSelect{Title: c.Value}, nil

	case session.AffConfirmYes:
		return session.ConfirmYes{}, nil
	case session.AffConfirmNo:
		return session.ConfirmNo{}, nil

	case session.AffWizardStatus:
		status := entity.WatchStatus(c.Value)
		if !status.Valid() {
			return nil, apperror.ErrInvalidStatus
		}
		return session.WizardSetStatus{Status: status}, nil
	case session.AffWizardRating:
		rating, err := strconv.Atoi(c.Value)
		if err != nil {
			return nil, apperror.ErrInvalidRange
		}
		return session.WizardSetRating{Rating: rating}, nil
	case session.AffWizardDate:
		date, err := service.ParseDate(c.Value)
		if err != nil {
			return nil, apperror.ErrInvalidRange
		}
		return session.WizardSetDate{Date: date}, nil
	case session.AffWizardFavorite:
		return session.WizardToggleFavorite{}, nil
	case session.AffWizardConfirm:
		return session.WizardConfirm{}, nil
	case session.AffWizardCancel:
		return session.WizardCancel{}, nil

	case session.AffPanelStatus:
		status := entity.WatchStatus(c.Value)
		if !status.Valid() {
			return nil, apperror.ErrInvalidStatus
		}
		return session.PanelSetStatus{Status: status}, nil
	case session.AffPanelEpisodes:
		count, err := strconv.Atoi(c.Value)
		if err != nil {
			return nil, apperror.ErrInvalidRange
		}
		return session.PanelSetEpisodes{Count: count}, nil
	case session.AffPanelFavorite:
		return session.PanelToggleFavorite{}, nil
	case session.AffPanelDetails:
		return session.PanelViewDetails{}, nil
	case session.AffPanelDelete:
		return session.PanelDelete{}, nil
	case session.AffPanelReload:
		return session.PanelReload{}, nil
	case session.AffPanelCancel:
		return session.PanelCancel{}, nil
	}
	return nil, nil
}

func (d *Dispatcher) render(surfaceId string, view transport.View) {
	if err := d.env.Transport.Render(surfaceId, view); err != nil {
		d.env.Log.Warn("dispatcher", "failed to render view", map[string]interface{}{
			"surface_id": surfaceId,
			"error":      err.Error(),
		})
	}
}

func (d *Dispatcher) sendEphemeral(userId string, view transport.View) {
	if err := d.env.Transport.SendEphemeral(userId, view); err != nil {
		d.env.Log.Warn("dispatcher", "failed to send ephemeral notice", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
	}
}
