package session

import (
	"context"
	"testing"
	"time"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"

	"github.com/stretchr/testify/assert"
)

func narutoMetadata() *entity.MetadataRecord {
	return &entity.MetadataRecord{
		Title:        "Naruto",
		EpisodeCount: 220,
		AverageScore: 79,
		SiteUrl:      "https://anilist.co/anime/20",
	}
}

func TestWizardFullFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	w := NewAddWizard("alice", narutoMetadata(), f.Env)
	assert.Equal(t, "2025-06-01", w.StartDate)

	out := w.Step(ctx, f.Env, WizardSetStatus{Status: entity.StatusWatching})
	assert.NotNil(t, out.Next)
	w = out.Next.(*AddWizard)
	assert.Equal(t, entity.StatusWatching, *w.Status)
	assert.Contains(t, out.Affordances, AffWizardConfirm)

	out = w.Step(ctx, f.Env, WizardSetRating{Rating: 8})
	w = out.Next.(*AddWizard)
	assert.Equal(t, 8, *w.Rating)

	out = w.Step(ctx, f.Env, WizardToggleFavorite{})
	w = out.Next.(*AddWizard)
	assert.True(t, w.Favorite)

	out = w.Step(ctx, f.Env, WizardConfirm{})
	assert.True(t, out.Terminal)
	assert.NotNil(t, out.View)
	assert.Contains(t, out.View.Title, "Added")

	stored, err := f.Store.Get(ctx, "alice", "Naruto")
	assert.NoError(t, err)
	assert.Equal(t, entity.StatusWatching, stored.Status)
	assert.Equal(t, 0, stored.EpisodesWatched)
	assert.Equal(t, 220, stored.TotalEpisodes)
	assert.True(t, stored.IsFavorite)
	assert.Equal(t, 8, *stored.Rating)
	assert.NotNil(t, stored.StartDate)
	assert.Equal(t, "2025-06-01", stored.StartDate.Format("2006-01-02"))
	assert.Nil(t, stored.CompletionDate)
}

func TestWizardCompletedSnapsProgress(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	w := NewAddWizard("alice", narutoMetadata(), f.Env)
	out := w.Step(ctx, f.Env, WizardSetStatus{Status: entity.StatusCompleted})
	w = out.Next.(*AddWizard)

	out = w.Step(ctx, f.Env, WizardConfirm{})
	assert.True(t, out.Terminal)

	stored, err := f.Store.Get(ctx, "alice", "Naruto")
	assert.NoError(t, err)
	assert.Equal(t, 220, stored.EpisodesWatched)
	assert.NotNil(t, stored.CompletionDate)
	assert.Equal(t, "2025-06-01", stored.CompletionDate.Format("2006-01-02"))
}

func TestWizardStartDateOnlyStampedWhenStarted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Default date does not stick for an entry that has not been started.
	w := NewAddWizard("alice", narutoMetadata(), f.Env)
	out := w.Step(ctx, f.Env, WizardSetStatus{Status: entity.StatusToWatch})
	w = out.Next.(*AddWizard)
	out = w.Step(ctx, f.Env, WizardConfirm{})
	assert.True(t, out.Terminal)

	stored, err := f.Store.Get(ctx, "alice", "Naruto")
	assert.NoError(t, err)
	assert.Nil(t, stored.StartDate)

	// A date the user picked themselves always sticks.
	md := narutoMetadata()
	md.Title = "Bleach"
	w = NewAddWizard("alice", md, f.Env)
	out = w.Step(ctx, f.Env, WizardSetStatus{Status: entity.StatusDropped})
	w = out.Next.(*AddWizard)
	out = w.Step(ctx, f.Env, WizardSetDate{Date: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)})
	w = out.Next.(*AddWizard)
	out = w.Step(ctx, f.Env, WizardConfirm{})
	assert.True(t, out.Terminal)

	stored, err = f.Store.Get(ctx, "alice", "Bleach")
	assert.NoError(t, err)
	assert.NotNil(t, stored.StartDate)
	assert.Equal(t, "2025-05-10", stored.StartDate.Format("2006-01-02"))
}

func TestWizardConfirmRequiresStatus(t *testing.T) {
	f := newFixture()

	w := NewAddWizard("alice", narutoMetadata(), f.Env)
	out := w.Step(context.Background(), f.Env, WizardConfirm{})

	assert.False(t, out.Terminal)
	assert.NotNil(t, out.Ephemeral)
	assert.NotContains(t, WizardAffordances(false), AffWizardConfirm)

	_, err := f.Store.Get(context.Background(), "alice", "Naruto")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestWizardRejectsFutureDate(t *testing.T) {
	f := newFixture()

	w := NewAddWizard("alice", narutoMetadata(), f.Env)
	future := f.Clock.Now().Add(48 * time.Hour)
	out := w.Step(context.Background(), f.Env, WizardSetDate{Date: future})

	assert.Nil(t, out.Next)
	assert.NotNil(t, out.Ephemeral)
	assert.True(t, out.Ephemeral.IsError)
}

func TestWizardRejectsRatingOutOfRange(t *testing.T) {
	f := newFixture()
	w := NewAddWizard("alice", narutoMetadata(), f.Env)

	for _, rating := range []int{-1, 11} {
		out := w.Step(context.Background(), f.Env, WizardSetRating{Rating: rating})
		assert.Nil(t, out.Next)
		assert.ErrorIs(t, out.Err, apperror.ErrInvalidRange)
	}
}

func TestWizardDuplicateTitleKeepsWizardOpen(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.Store.Add(ctx, &entity.WatchlistEntry{
		UserId: "alice", Title: "Naruto", Status: entity.StatusToWatch,
	})
	assert.NoError(t, err)

	w := NewAddWizard("alice", narutoMetadata(), f.Env)
	out := w.Step(ctx, f.Env, WizardSetStatus{Status: entity.StatusWatching})
	w = out.Next.(*AddWizard)

	out = w.Step(ctx, f.Env, WizardConfirm{})
	assert.False(t, out.Terminal)
	assert.NotNil(t, out.Ephemeral)
	assert.ErrorIs(t, out.Err, apperror.ErrAlreadyExists)
}

func TestWizardCancel(t *testing.T) {
	f := newFixture()

	w := NewAddWizard("alice", narutoMetadata(), f.Env)
	out := w.Step(context.Background(), f.Env, WizardCancel{})

	assert.True(t, out.Terminal)
	assert.NotNil(t, out.View)
}
