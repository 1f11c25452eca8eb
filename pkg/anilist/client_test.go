package anilist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func mediaPayload(title string, episodes int) map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"Media": map[string]interface{}{
				"id":           20,
				"title":        map[string]string{"romaji": title, "english": title},
				"description":  "A ninja story.",
				"episodes":     episodes,
				"genres":       []string{"Action"},
				"averageScore": 79,
				"siteUrl":      "https://anilist.co/anime/20",
				"coverImage":   map[string]string{"large": "https://img/cover.png"},
				"studios": map[string]interface{}{
					"nodes": []map[string]string{{"name": "Pierrot"}},
				},
				"seasonYear": 2002,
				"season":     "FALL",
			},
		},
	}
}

func newTestClient(url string, minInterval time.Duration) *Client {
	return NewClient(url, minInterval, time.Minute, 5*time.Second, logger.NewNopLogger())
}

func TestFetchByTitle(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)

		var req graphQLRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "Media(search: $search, type: ANIME)")
		assert.Equal(t, "Naruto", req.Variables["search"])

		json.NewEncoder(w).Encode(mediaPayload("Naruto", 220))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Millisecond)
	rec, err := c.FetchByTitle(context.Background(), "Naruto")
	assert.NoError(t, err)
	assert.Equal(t, "Naruto", rec.Title)
	assert.Equal(t, 220, rec.EpisodeCount)
	assert.Equal(t, 79, rec.AverageScore)
	assert.Equal(t, []string{"Pierrot"}, rec.Studios)

	// Second lookup is served from cache.
	_, err = c.FetchByTitle(context.Background(), "  NARUTO ")
	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchByTitleNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// AniList reports misses as a GraphQL error with null Media, HTTP 404.
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data":   map[string]interface{}{"Media": nil},
			"errors": []map[string]interface{}{{"message": "Not Found.", "status": 404}},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Millisecond)
	_, err := c.FetchByTitle(context.Background(), "definitely not an anime")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFetchByTitleRetriesOnceOn429(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(mediaPayload("Naruto", 220))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Millisecond)
	start := time.Now()
	rec, err := c.FetchByTitle(context.Background(), "Naruto")
	assert.NoError(t, err)
	assert.Equal(t, "Naruto", rec.Title)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.GreaterOrEqual(t, time.Since(start), time.Second, "must honor Retry-After before retrying")
}

func TestRateLimitSuspendsOtherLookups(t *testing.T) {
	var hits int32
	limited := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			close(limited)
			return
		}
		var req graphQLRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(mediaPayload(req.Variables["search"].(string), 12))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Millisecond)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.FetchByTitle(context.Background(), "alpha")
		assert.NoError(t, err)
	}()

	// The penalty is client-wide: once alpha is throttled, an unrelated
	// lookup waits out the window too.
	<-limited
	start := time.Now()
	_, err := c.FetchByTitle(context.Background(), "beta")
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
	<-done
}

func TestFetchByTitleGivesUpAfterSecond429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Millisecond)
	_, err := c.FetchByTitle(context.Background(), "Naruto")
	assert.Error(t, err)
	assert.True(t, apperror.IsTransient(err))
}

func TestFetchByTitleServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Millisecond)
	_, err := c.FetchByTitle(context.Background(), "Naruto")
	assert.True(t, apperror.IsTransient(err))
}

func TestWaitTurnSpacesRequests(t *testing.T) {
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stamps = append(stamps, time.Now())
		json.NewEncoder(w).Encode(mediaPayload("x", 1))
	}))
	defer srv.Close()

	const interval = 50 * time.Millisecond
	c := newTestClient(srv.URL, interval)

	// Distinct titles bypass cache and singleflight.
	_, err := c.FetchByTitle(context.Background(), "one")
	assert.NoError(t, err)
	_, err = c.FetchByTitle(context.Background(), "two")
	assert.NoError(t, err)

	assert.Len(t, stamps, 2)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), interval-5*time.Millisecond)
}
