// Package wikidata resolves artist portrait images from the Wikidata
// knowledge graph: entity search, then the P18 image claim, then a Wikimedia
// Commons file-path URL. Missing entities or claims are absence, never
// errors.
package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	defaultAPIURL     = "https://www.wikidata.org/w/api.php"
	commonsFilePath   = "https://commons.wikimedia.org/wiki/Special:FilePath/"
	imageClaim        = "P18"
	defaultImageWidth = 400
)

type cacheEntry struct {
	imageURL string
	storedAt time.Time
}

// Service queries Wikidata with a per-name TTL cache. The cache also stores
// misses so a request fanning out over the same artists does not re-ask.
type Service struct {
	apiURL     string
	userAgent  string
	imageWidth int
	httpClient *http.Client

	cache    map[string]cacheEntry
	cacheMu  sync.RWMutex
	cacheTTL time.Duration

	logger *slog.Logger
}

func NewService(userAgent string, imageWidth int, logger *slog.Logger) *Service {
	if imageWidth <= 0 {
		imageWidth = defaultImageWidth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		apiURL:     defaultAPIURL,
		userAgent:  userAgent,
		imageWidth: imageWidth,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      make(map[string]cacheEntry),
		cacheTTL:   1 * time.Hour,
		logger:     logger,
	}
}

type searchResponse struct {
	Search []struct {
		ID string `json:"id"`
	} `json:"search"`
}

type claimsResponse struct {
	Claims map[string][]struct {
		Mainsnak struct {
			Datavalue struct {
				Value string `json:"value"`
			} `json:"datavalue"`
		} `json:"mainsnak"`
	} `json:"claims"`
}

// FindArtistImage returns a Commons image URL for the best-matching entity,
// or "" when the artist has no image claim.
func (s *Service) FindArtistImage(ctx context.Context, name string) (string, error) {
	s.cacheMu.RLock()
	entry, found := s.cache[name]
	s.cacheMu.RUnlock()
	if found && time.Since(entry.storedAt) < s.cacheTTL {
		return entry.imageURL, nil
	}

	imageURL, err := s.lookup(ctx, name)
	if err != nil {
		return "", err
	}

	s.cacheMu.Lock()
	s.cache[name] = cacheEntry{imageURL: imageURL, storedAt: time.Now()}
	s.cacheMu.Unlock()
	return imageURL, nil
}

func (s *Service) lookup(ctx context.Context, name string) (string, error) {
	params := url.Values{}
	params.Set("action", "wbsearchentities")
	params.Set("search", name)
	params.Set("language", "en")
	params.Set("type", "item")
	params.Set("limit", "1")
	params.Set("format", "json")

	var search searchResponse
	if err := s.get(ctx, params, &search); err != nil {
		return "", fmt.Errorf("entity search for %q: %w", name, err)
	}
	if len(search.Search) == 0 {
		return "", nil
	}
	entityID := search.Search[0].ID

	params = url.Values{}
	params.Set("action", "wbgetclaims")
	params.Set("entity", entityID)
	params.Set("property", imageClaim)
	params.Set("format", "json")

	var claims claimsResponse
	if err := s.get(ctx, params, &claims); err != nil {
		return "", fmt.Errorf("image claim for %s: %w", entityID, err)
	}
	images := claims.Claims[imageClaim]
	if len(images) == 0 {
		return "", nil
	}
	filename := images[0].Mainsnak.Datavalue.Value
	if filename == "" {
		return "", nil
	}
	return s.imageURL(filename), nil
}

// imageURL builds the Commons file-path URL from a raw claim filename.
func (s *Service) imageURL(filename string) string {
	return commonsFilePath + url.PathEscape(filename) + "?width=" + strconv.Itoa(s.imageWidth)
}

func (s *Service) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wikidata returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
