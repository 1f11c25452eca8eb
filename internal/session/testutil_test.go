package session

import (
	"context"
	"sync"
	"time"

	"anitrack-bot/internal/config"
	"anitrack-bot/internal/entity"
	"anitrack-bot/internal/pkg/logger"
	"anitrack-bot/internal/repository/memory"
	"anitrack-bot/internal/transport"
)

// fakeClock lets tests move "now" without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeTransport records every outbound call.
type fakeTransport struct {
	mu         sync.Mutex
	Renders    map[string][]transport.View
	Added      map[string][][]string
	Removed    []string
	Ephemerals map[string][]transport.View
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		Renders:    make(map[string][]transport.View),
		Added:      make(map[string][][]string),
		Ephemerals: make(map[string][]transport.View),
	}
}

func (t *fakeTransport) Render(surfaceId string, view transport.View) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Renders[surfaceId] = append(t.Renders[surfaceId], view)
	return nil
}

func (t *fakeTransport) AddAffordances(surfaceId string, ids []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Added[surfaceId] = append(t.Added[surfaceId], ids)
	return nil
}

func (t *fakeTransport) RemoveAffordances(surfaceId string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Removed = append(t.Removed, surfaceId)
	return nil
}

func (t *fakeTransport) SendEphemeral(userId string, view transport.View) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Ephemerals[userId] = append(t.Ephemerals[userId], view)
	return nil
}

func (t *fakeTransport) RemovedCount(surfaceId string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, id := range t.Removed {
		if id == surfaceId {
			n++
		}
	}
	return n
}

// fakeMetadata serves canned records keyed by lowercase title.
type fakeMetadata struct {
	records map[string]*entity.MetadataRecord
	err     error
}

func (m *fakeMetadata) FetchByTitle(ctx context.Context, title string) (*entity.MetadataRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if rec, ok := m.records[title]; ok {
		return rec, nil
	}
	return &entity.MetadataRecord{
		Title:        title,
		EpisodeCount: entity.EpisodesUnknown,
		AverageScore: entity.ScoreUnknown,
		SeasonYear:   entity.YearUnknown,
	}, nil
}

type testFixture struct {
	Clock     *fakeClock
	Store     *memory.WatchlistRepository
	Transport *fakeTransport
	Metadata  *fakeMetadata
	Env       Env
	Registry  *Registry
}

func newFixture() *testFixture {
	clock := newFakeClock()
	store := memory.NewWatchlistRepository()
	tr := newFakeTransport()
	md := &fakeMetadata{records: make(map[string]*entity.MetadataRecord)}

	env := Env{
		Store:     store,
		Metadata:  md,
		Transport: tr,
		Log:       logger.NewNopLogger(),
		Now:       clock.Now,
		Config: config.SessionConfig{
			PaginatorTTL:    60 * time.Second,
			ConfirmationTTL: 30 * time.Second,
			WizardTTL:       180 * time.Second,
			PanelTTL:        60 * time.Second,
			PageSize:        5,
		},
	}
	return &testFixture{
		Clock:     clock,
		Store:     store,
		Transport: tr,
		Metadata:  md,
		Env:       env,
		Registry:  NewRegistry(env),
	}
}

func strPtr(s entity.WatchStatus) *entity.WatchStatus { return &s }
