// Package fetch retrieves GTFS Realtime trip-update feeds from the
// PTV open-data API, with a feed-wide rate limit and a short per-mode
// cache.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the PTV open-data realtime endpoint. The mode tag
// and feed name are appended per request.
const DefaultBaseURL = "https://api.opendata.transport.vic.gov.au/opendata/public-transport/gtfs/realtime/v1"

// DefaultCacheTTL bounds how long a fetched blob is reused. The
// upstream feed refreshes well under a minute.
const DefaultCacheTTL = 60 * time.Second

// APIKeyEnv is the environment variable holding the PTV API key.
const APIKeyEnv = "PTV_API_KEY"

var (
	// ErrMissingAPIKey means no key was configured; realtime is
	// disabled, not broken.
	ErrMissingAPIKey = errors.New("no PTV API key configured")

	// ErrRateLimited means the feed-wide call budget is exhausted for
	// this window.
	ErrRateLimited = errors.New("realtime fetch rate limited")

	// ErrUpstreamUnavailable means the feed endpoint failed or
	// answered non-200.
	ErrUpstreamUnavailable = errors.New("realtime feed unavailable")
)

type cacheEntry struct {
	blob    []byte
	fetched time.Time
}

// Fetcher pulls trip-update blobs, one endpoint per mode. The upstream
// allows 24 calls per rolling 60 seconds across all modes; over-limit
// calls fail fast with ErrRateLimited instead of queueing, because a
// journey answer shouldn't wait on an overlay.
type Fetcher struct {
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration

	// TimeNow is swappable for tests.
	TimeNow func() time.Time

	client  *http.Client
	limiter *rate.Limiter

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewFetcher builds a fetcher reading the API key from PTV_API_KEY.
func NewFetcher() *Fetcher {
	return &Fetcher{
		BaseURL:  DefaultBaseURL,
		APIKey:   os.Getenv(APIKeyEnv),
		CacheTTL: DefaultCacheTTL,
		TimeNow:  time.Now,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(24.0/60.0), 24),
		cache:    map[string]cacheEntry{},
	}
}

// TripUpdates returns the trip-update protobuf bytes for a mode,
// serving from cache when fresh.
func (f *Fetcher) TripUpdates(ctx context.Context, mode string) ([]byte, error) {
	if f.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	now := f.TimeNow()

	f.mu.Lock()
	if entry, ok := f.cache[mode]; ok && now.Sub(entry.fetched) < f.CacheTTL {
		f.mu.Unlock()
		return entry.blob, nil
	}
	f.mu.Unlock()

	if !f.limiter.Allow() {
		return nil, ErrRateLimited
	}

	blob, err := f.fetch(ctx, mode)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.cache[mode] = cacheEntry{blob: blob, fetched: now}
	f.mu.Unlock()

	return blob, nil
}

func (f *Fetcher) fetch(ctx context.Context, mode string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/trip-updates", f.BaseURL, mode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building realtime request")
	}
	req.Header.Set("KeyID", f.APIKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d from %s", ErrUpstreamUnavailable, resp.StatusCode, url)
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstreamUnavailable, err)
	}
	return blob, nil
}
