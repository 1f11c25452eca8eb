package session

import (
	"context"
	"sync"
	"time"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/presenter"
)

// Session is one live interactive surface. The registry exclusively owns the
// session table; machines only ever see their own state for the duration of a
// single transition.
type Session struct {
	SurfaceId string
	OwnerId   string
	CreatedAt time.Time
	ExpiresAt time.Time

	machine Machine
	version uint64
	ttl     time.Duration
	timer   *time.Timer

	// runMu serializes transitions on this surface. Ordering between surfaces
	// is unconstrained.
	runMu sync.Mutex
}

func (s *Session) Kind() Kind {
	return s.machine.Kind()
}

// Result is what a dispatch returns to the routing layer. A discarded result
// means the transition lost a same-surface race (duplicate click or expiry)
// and must not be rendered.
type Result struct {
	Outcome   Outcome
	Discarded bool
}

// Registry is the process-wide table of live sessions, keyed by surface id.
// At most one session exists per surface.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	env      Env
}

func NewRegistry(env Env) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		env:      env,
	}
}

// Open registers a new session and schedules its expiry. Returns
// apperror.ErrConflict if the surface already has a live session.
func (r *Registry) Open(surfaceId, ownerId string, m Machine, ttl time.Duration) (*Session, error) {
	now := r.env.Now()

	r.mu.Lock()
	if existing, ok := r.sessions[surfaceId]; ok && now.Before(existing.ExpiresAt) {
		r.mu.Unlock()
		return nil, apperror.ErrConflict
	}
	s := &Session{
		SurfaceId: surfaceId,
		OwnerId:   ownerId,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		machine:   m,
		ttl:       ttl,
	}
	s.timer = time.AfterFunc(ttl, func() { r.expire(s) })
	r.sessions[surfaceId] = s
	r.mu.Unlock()

	r.env.Log.Info("session", "session opened", map[string]interface{}{
		"surface_id": surfaceId,
		"owner_id":   ownerId,
		"kind":       string(m.Kind()),
		"ttl":        ttl.String(),
	})
	return s, nil
}

// Dispatch routes a component event to the owning session. The session's
// version is captured at entry; if it has advanced by the time this
// transition would apply (a duplicated click raced past us, or expiry won),
// the result is discarded without touching the store or rendering.
func (r *Registry) Dispatch(ctx context.Context, surfaceId, actorId string, ev Event) (Result, error) {
	now := r.env.Now()

	r.mu.Lock()
	s, ok := r.sessions[surfaceId]
	// Deadline is inclusive-exclusive: an event landing exactly at ExpiresAt
	// is already too late, even if the timer has not fired yet.
	if !ok || !now.Before(s.ExpiresAt) {
		r.mu.Unlock()
		return Result{}, apperror.ErrNoSession
	}
	if actorId != s.OwnerId {
		r.mu.Unlock()
		return Result{}, apperror.ErrNotOwner
	}
	entryVersion := s.version
	r.mu.Unlock()

	s.runMu.Lock()
	defer s.runMu.Unlock()

	if !r.validate(s, entryVersion) {
		return Result{Discarded: true}, nil
	}

	out := s.machine.Step(ctx, r.env, ev)
	if out.Ignored {
		return Result{Outcome: out}, nil
	}
	if out.Err != nil && apperror.IsInternal(out.Err) {
		// Unexpected failure: terminate this session only, surface a generic
		// notice, keep the process and unrelated sessions alive.
		r.env.Log.Error("session", "transition failed", map[string]interface{}{
			"surface_id": surfaceId,
			"kind":       string(s.Kind()),
			"error":      out.Err.Error(),
		})
		r.remove(s, "failed")
		view := presenter.Error("Error", "An unexpected error occurred. Please try again later.")
		return Result{Outcome: Outcome{Terminal: true, View: &view, Err: out.Err}}, nil
	}

	r.mu.Lock()
	if r.sessions[surfaceId] != s {
		// Expiry or an explicit close won the race mid-transition; the render
		// computed against the dead session must not land.
		r.mu.Unlock()
		return Result{Discarded: true}, nil
	}
	if out.Next != nil {
		s.machine = out.Next
	}
	s.version++
	if out.Terminal {
		s.timer.Stop()
		delete(r.sessions, surfaceId)
	} else {
		s.ExpiresAt = r.env.Now().Add(s.ttl)
		s.timer.Reset(s.ttl)
	}
	r.mu.Unlock()

	if out.Terminal {
		r.cleanupSurface(s, "terminal")
	}
	if out.Open != nil {
		r.openNested(out.Open)
	}
	return Result{Outcome: out}, nil
}

// Close terminates a session early, cancelling its pending expiry so a stale
// timer cannot fire after the surface id is later reused.
func (r *Registry) Close(surfaceId string) bool {
	r.mu.Lock()
	s, ok := r.sessions[surfaceId]
	if !ok {
		r.mu.Unlock()
		return false
	}
	s.timer.Stop()
	delete(r.sessions, surfaceId)
	r.mu.Unlock()

	r.cleanupSurface(s, "closed")
	return true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Version exposes a session's transition counter for a surface, primarily for
// tests and health reporting.
func (r *Registry) Version(surfaceId string) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[surfaceId]
	if !ok {
		return 0, false
	}
	return s.version, true
}

func (r *Registry) validate(s *Session, entryVersion uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[s.SurfaceId] == s && s.version == entryVersion
}

func (r *Registry) expire(s *Session) {
	r.mu.Lock()
	cur, ok := r.sessions[s.SurfaceId]
	if !ok || cur != s || r.env.Now().Before(s.ExpiresAt) {
		// Refreshed or replaced since this timer was armed.
		r.mu.Unlock()
		return
	}
	delete(r.sessions, s.SurfaceId)
	r.mu.Unlock()

	r.cleanupSurface(s, "expired")
}

func (r *Registry) remove(s *Session, reason string) {
	r.mu.Lock()
	if r.sessions[s.SurfaceId] == s {
		s.timer.Stop()
		delete(r.sessions, s.SurfaceId)
	}
	r.mu.Unlock()
	r.cleanupSurface(s, reason)
}

// cleanupSurface best-effort strips the dead session's controls from its
// surface. Transport failures are logged, never retried.
func (r *Registry) cleanupSurface(s *Session, reason string) {
	if err := r.env.Transport.RemoveAffordances(s.SurfaceId); err != nil {
		r.env.Log.Warn("session", "failed to remove affordances", map[string]interface{}{
			"surface_id": s.SurfaceId,
			"error":      err.Error(),
		})
	}
	r.env.Log.Info("session", "session closed", map[string]interface{}{
		"surface_id": s.SurfaceId,
		"kind":       string(s.Kind()),
		"reason":     reason,
	})
}

func (r *Registry) openNested(req *OpenRequest) {
	if _, err := r.Open(req.SurfaceId, req.OwnerId, req.Machine, req.TTL); err != nil {
		r.env.Log.Warn("session", "failed to open nested session", map[string]interface{}{
			"surface_id": req.SurfaceId,
			"error":      err.Error(),
		})
		return
	}
	if err := r.env.Transport.Render(req.SurfaceId, req.View); err != nil {
		r.env.Log.Warn("session", "failed to render nested session", map[string]interface{}{
			"surface_id": req.SurfaceId,
			"error":      err.Error(),
		})
	}
	if err := r.env.Transport.AddAffordances(req.SurfaceId, req.Affordances); err != nil {
		r.env.Log.Warn("session", "failed to enable affordances", map[string]interface{}{
			"surface_id": req.SurfaceId,
			"error":      err.Error(),
		})
	}
}
