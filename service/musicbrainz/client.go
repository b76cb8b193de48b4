package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://musicbrainz.org/ws/2"

// Sentinel errors callers branch on. A not-found recording is absence, not
// failure; rate-limit exhaustion is surfaced only after the retry budget.
var (
	ErrNotFound    = errors.New("musicbrainz: not found")
	ErrRateLimited = errors.New("musicbrainz: rate limit exceeded")
)

// Attribution is stamped onto every successful response, per the
// MusicBrainz usage policy.
type Attribution struct {
	Source  string `json:"source"`
	License string `json:"license"`
	URL     string `json:"url"`
}

var defaultAttribution = Attribution{
	Source:  "MusicBrainz",
	License: "CC0 / CC-BY",
	URL:     "https://musicbrainz.org",
}

// cacheEntry holds a decorated response and when it was stored.
type cacheEntry struct {
	data     json.RawMessage
	storedAt time.Time
}

// Client is a rate-limit-compliant MusicBrainz client with retry/backoff and
// a TTL response cache keyed by canonical request URL. Safe for concurrent
// use; duplicate in-flight requests for the same key are allowed and the
// last writer wins the cache slot.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter

	cache    map[string]cacheEntry
	cacheMu  sync.RWMutex
	cacheTTL time.Duration

	maxAttempts int
	retryDelay  time.Duration

	logger *slog.Logger
}

// NewClient creates a client honoring the MusicBrainz limit of one request
// per second, with a 1 hour response cache.
func NewClient(userAgent string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     defaultBaseURL,
		userAgent:   userAgent,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		limiter:     rate.NewLimiter(rate.Every(time.Second), 1),
		cache:       make(map[string]cacheEntry),
		cacheTTL:    1 * time.Hour,
		maxAttempts: 3,
		retryDelay:  time.Second,
		logger:      logger,
	}
}

// canonicalURL builds the cache key: stable parameter ordering, JSON always
// requested.
func (c *Client) canonicalURL(endpoint string, params url.Values) string {
	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("fmt", "json")
	return c.baseURL + endpoint + "?" + q.Encode()
}

func (c *Client) cached(key string) (json.RawMessage, bool) {
	c.cacheMu.RLock()
	entry, found := c.cache[key]
	c.cacheMu.RUnlock()
	if !found {
		return nil, false
	}
	if time.Since(entry.storedAt) < c.cacheTTL {
		return entry.data, true
	}
	// Stale entries are evicted lazily on lookup, never swept.
	c.cacheMu.Lock()
	if e, ok := c.cache[key]; ok && e.storedAt.Equal(entry.storedAt) {
		delete(c.cache, key)
	}
	c.cacheMu.Unlock()
	return nil, false
}

func (c *Client) store(key string, data json.RawMessage) {
	c.cacheMu.Lock()
	c.cache[key] = cacheEntry{data: data, storedAt: time.Now()}
	c.cacheMu.Unlock()
}

// Fetch performs a GET against a MusicBrainz endpoint (e.g. "/recording").
// Responses are decorated with an attribution stamp and cached for the TTL.
// Returns ErrNotFound on 404 and ErrRateLimited once the retry budget for
// 429/503 responses is spent.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	reqURL := c.canonicalURL(endpoint, params)

	if data, ok := c.cached(reqURL); ok {
		c.logger.Debug("musicbrainz cache hit", "url", reqURL)
		return data, nil
	}

	var lastErr error
	rateLimited := false
	delay := c.retryDelay

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		data, retryIn, err := c.fetchOnce(ctx, reqURL)
		if err == nil {
			c.store(reqURL, data)
			return data, nil
		}
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		lastErr = err
		if attempt == c.maxAttempts {
			break
		}

		// Server-provided Retry-After wins over the exponential delay,
		// which keeps doubling for subsequent attempts either way.
		wait := delay
		if errors.Is(err, ErrRateLimited) {
			rateLimited = true
			if retryIn > 0 {
				wait = retryIn
			}
			c.logger.Warn("musicbrainz rate limited", "url", reqURL, "wait", wait)
		} else {
			c.logger.Warn("musicbrainz fetch failed", "url", reqURL, "attempts_left", c.maxAttempts-attempt, "error", err)
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
		delay *= 2
	}

	if rateLimited {
		return nil, fmt.Errorf("%w after %d attempts", ErrRateLimited, c.maxAttempts)
	}
	return nil, lastErr
}

// fetchOnce issues a single request. On 429/503 it returns ErrRateLimited
// plus any server-provided Retry-After duration.
func (c *Client) fetchOnce(ctx context.Context, reqURL string) (json.RawMessage, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, fmt.Errorf("executing request to %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, retryAfter(resp), ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, 0, fmt.Errorf("musicbrainz returned status %d for %s", resp.StatusCode, reqURL)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, 0, fmt.Errorf("decoding response from %s: %w", reqURL, err)
	}

	attribution, err := json.Marshal(defaultAttribution)
	if err != nil {
		return nil, 0, err
	}
	body["_attribution"] = attribution

	decorated, err := json.Marshal(body)
	if err != nil {
		return nil, 0, err
	}
	return decorated, 0, nil
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
