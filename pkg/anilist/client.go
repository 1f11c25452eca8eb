package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"
	"anitrack-bot/internal/pkg/logger"

	"github.com/avast/retry-go/v4"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const searchQuery = `
query ($search: String) {
  Media(search: $search, type: ANIME) {
    id
    title {
      romaji
      english
      native
    }
    description
    episodes
    status
    genres
    averageScore
    popularity
    siteUrl
    coverImage {
      large
    }
    bannerImage
    studios {
      nodes {
        name
      }
    }
    seasonYear
    season
  }
}
`

// Client is a rate-limited AniList lookup client. Outbound requests are
// spaced at least minInterval apart process-wide; concurrent lookups of the
// same title collapse into one request, and successful results are cached
// briefly so one interaction does not hammer the API.
type Client struct {
	apiURL      string
	httpClient  *http.Client
	minInterval time.Duration
	log         logger.ILogger

	group singleflight.Group
	cache *gocache.Cache

	mu          sync.Mutex
	nextRequest time.Time
}

func NewClient(apiURL string, minInterval, cacheTTL, httpTimeout time.Duration, log logger.ILogger) *Client {
	return &Client{
		apiURL:      apiURL,
		httpClient:  &http.Client{Timeout: httpTimeout},
		minInterval: minInterval,
		log:         log,
		cache:       gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// FetchByTitle looks up the best-matching anime for a title. Returns
// apperror.ErrNotFound when nothing matches and a transient error when the
// service is unreachable or still rate-limiting after one retry.
func (c *Client) FetchByTitle(ctx context.Context, title string) (*entity.MetadataRecord, error) {
	key := strings.ToLower(strings.TrimSpace(title))
	if key == "" {
		return nil, apperror.ErrNotFound
	}

	if cached, ok := c.cache.Get(key); ok {
		return cached.(*entity.MetadataRecord), nil
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		rec, err := c.fetch(ctx, title)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(key, rec)
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*entity.MetadataRecord), nil
}

// rateLimitedError carries the server-suggested delay through the retry
// policy.
type rateLimitedError struct {
	retryAfter time.Duration
}

func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.retryAfter)
}

func (c *Client) fetch(ctx context.Context, title string) (*entity.MetadataRecord, error) {
	var rec *entity.MetadataRecord

	err := retry.Do(
		func() error {
			var err error
			rec, err = c.request(ctx, title)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			_, ok := err.(*rateLimitedError)
			return ok
		}),
		retry.DelayType(func(n uint, err error, cfg *retry.Config) time.Duration {
			if rl, ok := err.(*rateLimitedError); ok {
				return rl.retryAfter
			}
			return time.Second
		}),
	)
	if err != nil {
		if rl, ok := err.(*rateLimitedError); ok {
			// Still throttled after honoring Retry-After once; give up and let
			// the user retry.
			c.log.Warn("anilist", "rate limited twice, giving up", map[string]interface{}{
				"title":       title,
				"retry_after": rl.retryAfter.String(),
			})
			return nil, apperror.Transient(err)
		}
		return nil, err
	}
	return rec, nil
}

func (c *Client) request(ctx context.Context, title string) (*entity.MetadataRecord, error) {
	if err := c.waitTurn(ctx); err != nil {
		return nil, apperror.Transient(err)
	}

	body, err := json.Marshal(graphQLRequest{
		Query:     searchQuery,
		Variables: map[string]interface{}{"search": title},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		delay := retryAfterOf(resp)
		// The penalty applies to the whole client, not just this lookup:
		// push every pending slot past the window.
		c.suspend(delay)
		return nil, &rateLimitedError{retryAfter: delay}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, apperror.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Transient(fmt.Errorf("anilist: unexpected status %d", resp.StatusCode))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Transient(err)
	}

	var gql graphQLResponse
	if err := json.Unmarshal(payload, &gql); err != nil {
		return nil, apperror.Transient(fmt.Errorf("anilist: malformed response: %w", err))
	}
	if gql.Data == nil || gql.Data.Media == nil {
		// The API reports a miss as a GraphQL "Not Found" error with a null
		// Media, not as an HTTP 404.
		return nil, apperror.ErrNotFound
	}
	return toRecord(gql.Data.Media), nil
}

// waitTurn reserves the next outbound slot and sleeps until it arrives. Slots
// are handed out under the lock so concurrent callers queue up at
// minInterval spacing instead of stampeding.
func (c *Client) waitTurn(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	slot := c.nextRequest
	if slot.Before(now) {
		slot = now
	}
	c.nextRequest = slot.Add(c.minInterval)
	c.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// suspend delays the next outbound slot until the rate-limit window has
// passed, so queued requests for other titles wait it out too.
func (c *Client) suspend(d time.Duration) {
	c.mu.Lock()
	if until := time.Now().Add(d); c.nextRequest.Before(until) {
		c.nextRequest = until
	}
	c.mu.Unlock()
}

func retryAfterOf(resp *http.Response) time.Duration {
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Minute
}
