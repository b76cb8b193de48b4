// Package lyrics fetches plain and synchronized lyrics from the LRCLIB
// public API.
package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://lrclib.net/api"
	sourceName     = "LRCLIB"

	// durationTolerance is how far a hit's duration may drift from the
	// requested track before the duration filter rejects it.
	durationTolerance = 10 * time.Second
)

// ErrNotFound means LRCLIB has no lyrics for the track.
var ErrNotFound = errors.New("lyrics: not found")

// Result is the lyrics payload returned to clients.
type Result struct {
	PlainLyrics  string `json:"plainLyrics,omitempty"`
	SyncedLyrics string `json:"syncedLyrics,omitempty"`
	Source       string `json:"source"`
}

type searchHit struct {
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	Duration     float64 `json:"duration"` // seconds
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// Service is a thin LRCLIB search client.
type Service struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewService(userAgent string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		baseURL:    defaultBaseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Search looks lyrics up by title and artist. When durationMs is supplied,
// the first hit within the duration tolerance is preferred over the search
// ranking; with no close hit the ranking is trusted.
func (s *Service) Search(ctx context.Context, title, artist string, durationMs int64) (*Result, error) {
	params := url.Values{}
	params.Set("q", title+" "+artist)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lrclib returned status %d", resp.StatusCode)
	}

	var hits []searchHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	if len(hits) == 0 {
		return nil, ErrNotFound
	}

	match := pickHit(hits, durationMs)
	return &Result{
		PlainLyrics:  match.PlainLyrics,
		SyncedLyrics: match.SyncedLyrics,
		Source:       sourceName,
	}, nil
}

func pickHit(hits []searchHit, durationMs int64) *searchHit {
	if durationMs > 0 {
		wantSecs := float64(durationMs) / 1000
		for i := range hits {
			if math.Abs(hits[i].Duration-wantSecs) < durationTolerance.Seconds() {
				return &hits[i]
			}
		}
	}
	return &hits[0]
}
