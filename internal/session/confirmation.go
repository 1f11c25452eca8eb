package session

import (
	"context"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/presenter"
	"anitrack-bot/internal/transport"
)

// ConfirmAction is the store mutation bound to a confirmation prompt. It runs
// at most once, on confirm, and returns the final view to show.
type ConfirmAction func(ctx context.Context, env Env) (transport.View, error)

// Confirmation is a one-shot confirm/cancel prompt. Either event is terminal;
// a failing action surfaces as the final error render instead of escaping the
// session boundary.
type Confirmation struct {
	Subject   string
	OnConfirm ConfirmAction
}

func (c *Confirmation) Kind() Kind {
	return KindConfirmation
}

func (c *Confirmation) Step(ctx context.Context, env Env, ev Event) Outcome {
	switch ev.(type) {
	case ConfirmYes:
		view, err := c.OnConfirm(ctx, env)
		if err != nil && !apperror.IsDomain(err) && !apperror.IsTransient(err) {
			return Outcome{Err: apperror.Internal(err)}
		}
		return Outcome{Terminal: true, View: &view, Err: err}
	case ConfirmNo:
		view := presenter.Success("Cancelled", "No changes were made to **"+c.Subject+"**.")
		return Outcome{Terminal: true, View: &view}
	default:
		return Outcome{Ignored: true}
	}
}

func ConfirmationAffordances() []string {
	return []string{AffConfirmYes, AffConfirmNo}
}
