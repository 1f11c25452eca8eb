package session

import (
	"context"
	"fmt"
	"testing"

	"anitrack-bot/internal/entity"

	"github.com/stretchr/testify/assert"
)

func testEntries(n int) []*entity.WatchlistEntry {
	entries := make([]*entity.WatchlistEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, &entity.WatchlistEntry{
			UserId: "alice",
			Title:  fmt.Sprintf("Anime %02d", i),
			Status: entity.StatusWatching,
		})
	}
	return entries
}

func TestPaginatorPaging(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := &Paginator{
		OwnerId:  "alice",
		Header:   "Your Watchlist",
		Items:    testEntries(12),
		PageSize: 5,
	}

	out := p.Step(ctx, f.Env, PageNext{})
	assert.NotNil(t, out.Next)
	assert.Equal(t, 1, out.Next.(*Paginator).PageIndex)
	assert.NotNil(t, out.View)

	out = out.Next.(*Paginator).Step(ctx, f.Env, PageNext{})
	assert.Equal(t, 2, out.Next.(*Paginator).PageIndex)

	t.Run("past the last page clamps and re-renders", func(t *testing.T) {
		last := out.Next.(*Paginator)
		out := last.Step(ctx, f.Env, PageNext{})
		assert.False(t, out.Ignored)
		assert.Equal(t, 2, out.Next.(*Paginator).PageIndex)
		assert.NotNil(t, out.View)
	})

	t.Run("before the first page clamps and re-renders", func(t *testing.T) {
		out := p.Step(ctx, f.Env, PagePrev{})
		assert.False(t, out.Ignored)
		assert.Equal(t, 0, out.Next.(*Paginator).PageIndex)
		assert.NotNil(t, out.View)
	})
}

func TestPaginatorSelectRequiresManageMode(t *testing.T) {
	f := newFixture()

	p := &Paginator{OwnerId: "alice", Items: testEntries(3), PageSize: 5}
	out := p.Step(context.Background(), f.Env, PageSelect{Title: "Anime 01"})
	assert.True(t, out.Ignored)

	assert.NotContains(t, PaginatorAffordances(false), AffPageSelect)
	assert.Contains(t, PaginatorAffordances(true), AffPageSelect)
}

func TestPaginatorSelectOpensPanel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.Store.Add(ctx, &entity.WatchlistEntry{
		UserId: "alice", Title: "Naruto", Status: entity.StatusWatching, TotalEpisodes: 220,
	})
	assert.NoError(t, err)

	p := &Paginator{OwnerId: "alice", Items: testEntries(3), PageSize: 5, Selectable: true}
	out := p.Step(ctx, f.Env, PageSelect{Title: "Naruto"})

	assert.NotNil(t, out.Open)
	assert.Equal(t, "alice", out.Open.OwnerId)
	assert.NotEqual(t, "", out.Open.SurfaceId)
	assert.Equal(t, KindControlPanel, out.Open.Machine.Kind())
	assert.Equal(t, f.Env.Config.PanelTTL, out.Open.TTL)
	// The panel opens on its own fresh surface; the paginator stays live.
	assert.False(t, out.Terminal)
	assert.Nil(t, out.Next)
}

func TestPaginatorSelectUnknownTitle(t *testing.T) {
	f := newFixture()

	p := &Paginator{OwnerId: "alice", Items: testEntries(3), PageSize: 5, Selectable: true}
	out := p.Step(context.Background(), f.Env, PageSelect{Title: "Ghost"})

	assert.Nil(t, out.Open)
	assert.NotNil(t, out.Ephemeral)
	assert.Error(t, out.Err)
}
