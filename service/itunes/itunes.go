// Package itunes is the alternate-catalog adapter, built on the public
// iTunes lookup/search API. No credentials are required, so it is always
// attempted.
package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/missionfinder/tracklink/models"
)

const defaultBaseURL = "https://itunes.apple.com"

// Service wraps the iTunes lookup and search endpoints.
type Service struct {
	baseURL    string
	country    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewService(country string, logger *slog.Logger) *Service {
	if country == "" {
		country = "US"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		baseURL:    defaultBaseURL,
		country:    country,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// itunesTrack is the subset of an iTunes result this service reads.
type itunesTrack struct {
	TrackID                int64  `json:"trackId"`
	TrackName              string `json:"trackName"`
	ArtistName             string `json:"artistName"`
	CollectionName         string `json:"collectionName"`
	CollectionCensoredName string `json:"collectionCensoredName"`
	TrackTimeMillis        int64  `json:"trackTimeMillis"`
	ReleaseDate            string `json:"releaseDate"`
	PrimaryGenreName       string `json:"primaryGenreName"`
	ArtworkURL100          string `json:"artworkUrl100"`
	TrackViewURL           string `json:"trackViewUrl"`
	PreviewURL             string `json:"previewUrl"`
}

type lookupResponse struct {
	ResultCount int           `json:"resultCount"`
	Results     []itunesTrack `json:"results"`
}

// FetchByID looks a track up by its numeric iTunes id. An unknown id is
// (nil, nil).
func (s *Service) FetchByID(ctx context.Context, id string) (*models.ProviderRecord, error) {
	params := url.Values{}
	params.Set("id", id)
	params.Set("country", s.country)

	result, err := s.get(ctx, "/lookup", params)
	if err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	return recordFromTrack(&result.Results[0]), nil
}

// SearchByISRC exists to satisfy the catalog-search contract; the public
// iTunes API cannot search by ISRC, so resolution always falls through to
// text search.
func (s *Service) SearchByISRC(ctx context.Context, isrc string) (*models.ProviderRecord, error) {
	return nil, nil
}

// SearchByTitleArtist runs a song search for "title artist" and trusts the
// first result.
func (s *Service) SearchByTitleArtist(ctx context.Context, title, artist string) (*models.ProviderRecord, error) {
	if title == "" {
		return nil, nil
	}
	term := strings.TrimSpace(title + " " + artist)

	params := url.Values{}
	params.Set("term", term)
	params.Set("entity", "song")
	params.Set("limit", "1")

	result, err := s.get(ctx, "/search", params)
	if err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	return recordFromTrack(&result.Results[0]), nil
}

// Search returns up to limit raw matches for the consolidated search
// endpoint.
func (s *Service) Search(ctx context.Context, term string, limit int, country string) ([]models.ProviderRecord, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	if country == "" {
		country = s.country
	}

	params := url.Values{}
	params.Set("term", term)
	params.Set("media", "music")
	params.Set("entity", "song")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("country", country)

	result, err := s.get(ctx, "/search", params)
	if err != nil {
		return nil, err
	}
	records := make([]models.ProviderRecord, 0, len(result.Results))
	for i := range result.Results {
		records = append(records, *recordFromTrack(&result.Results[i]))
	}
	return records, nil
}

func (s *Service) get(ctx context.Context, path string, params url.Values) (*lookupResponse, error) {
	reqURL := s.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("itunes returned status %d for %s", resp.StatusCode, path)
	}

	var result lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return &result, nil
}

func recordFromTrack(t *itunesTrack) *models.ProviderRecord {
	record := &models.ProviderRecord{
		ExternalID:  strconv.FormatInt(t.TrackID, 10),
		Title:       t.TrackName,
		Album:       t.CollectionName,
		DurationMs:  t.TrackTimeMillis,
		ReleaseDate: t.ReleaseDate,
		RecordLabel: t.CollectionCensoredName,
		CoverArtURL: upscaleArtwork(t.ArtworkURL100),
		PreviewURL:  t.PreviewURL,
		CrossLink:   t.TrackViewURL,
	}
	if t.ArtistName != "" {
		record.Artists = splitArtistCredit(t.ArtistName)
	}
	if t.PrimaryGenreName != "" {
		record.Genres = []string{t.PrimaryGenreName}
	}
	return record
}

// upscaleArtwork swaps the default 100x100 thumbnail for the 600x600
// rendition iTunes serves under the same path.
func upscaleArtwork(artworkURL string) string {
	return strings.Replace(artworkURL, "100x100", "600x600", 1)
}

// splitArtistCredit breaks iTunes' single joined artist string into the
// ordered list the shared record shape expects.
func splitArtistCredit(credit string) []string {
	parts := strings.Split(credit, ", ")
	var names []string
	for _, part := range parts {
		for _, sub := range strings.Split(part, " & ") {
			if sub = strings.TrimSpace(sub); sub != "" {
				names = append(names, sub)
			}
		}
	}
	return names
}
