package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/missionfinder/tracklink/models"
)

const defaultBaseURL = "https://api.spotify.com/v1"

var (
	// ErrNoCredentials marks calls attempted without a usable token; callers
	// skip the adapter, they never fail the request on it.
	ErrNoCredentials = errors.New("spotify: no credentials")

	// ErrNotFound means Spotify has no such track.
	ErrNotFound = errors.New("spotify: not found")
)

// Pitch-class and mode names used to render audio-feature key signatures.
var (
	keyNames  = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	modeNames = []string{"Minor", "Major"}
)

// Service is the primary-catalog adapter. Every method requires a broker
// token; when none is available the adapter reports ErrNoCredentials and the
// caller moves on without Spotify data.
type Service struct {
	broker     *Broker
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewService(broker *Broker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		broker:     broker,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// trackPayload is the subset of the Spotify track object this service reads.
type trackPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
	Popularity int    `json:"popularity"`
	Artists    []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artists"`
	ExternalIDs struct {
		ISRC string `json:"isrc"`
	} `json:"external_ids"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	Album struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ReleaseDate string `json:"release_date"`
		Images      []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
}

type albumPayload struct {
	Label  string   `json:"label"`
	Genres []string `json:"genres"`
}

type searchPayload struct {
	Tracks struct {
		Items []trackPayload `json:"items"`
	} `json:"tracks"`
}

type audioFeaturesPayload struct {
	Tempo float64 `json:"tempo"`
	Key   int     `json:"key"`
	Mode  int     `json:"mode"`
}

// FetchByID assembles the primary record for a Spotify track id: the track
// itself plus its containing album for label/genre. An album fetch failure
// only costs those two fields.
func (s *Service) FetchByID(ctx context.Context, id string) (*models.ProviderRecord, error) {
	token, ok := s.broker.Token(ctx)
	if !ok {
		return nil, ErrNoCredentials
	}

	var track trackPayload
	if err := s.get(ctx, "/tracks/"+url.PathEscape(id), nil, token, &track); err != nil {
		return nil, err
	}
	record := recordFromTrack(&track)

	if track.Album.ID != "" {
		var album albumPayload
		if err := s.get(ctx, "/albums/"+url.PathEscape(track.Album.ID), nil, token, &album); err != nil {
			s.logger.Warn("spotify album fetch failed", "album", track.Album.ID, "error", err)
		} else {
			record.RecordLabel = album.Label
			if len(album.Genres) > 0 {
				record.Genres = album.Genres
			}
		}
	}
	return record, nil
}

// SearchByISRC finds a track by its standardized recording code; the first
// result is trusted. No match is (nil, nil).
func (s *Service) SearchByISRC(ctx context.Context, isrc string) (*models.ProviderRecord, error) {
	if isrc == "" {
		return nil, nil
	}
	return s.search(ctx, "isrc:"+isrc)
}

// SearchByTitleArtist falls back to free-text track search.
func (s *Service) SearchByTitleArtist(ctx context.Context, title, artist string) (*models.ProviderRecord, error) {
	if title == "" {
		return nil, nil
	}
	query := "track:" + title
	if artist != "" {
		query += " artist:" + artist
	}
	return s.search(ctx, query)
}

func (s *Service) search(ctx context.Context, query string) (*models.ProviderRecord, error) {
	token, ok := s.broker.Token(ctx)
	if !ok {
		return nil, ErrNoCredentials
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", "1")

	var result searchPayload
	if err := s.get(ctx, "/search", params, token, &result); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(result.Tracks.Items) == 0 {
		return nil, nil
	}
	return recordFromTrack(&result.Tracks.Items[0]), nil
}

// AudioFeatures returns a tempo/key/mode-only record for a known track id.
func (s *Service) AudioFeatures(ctx context.Context, id string) (*models.ProviderRecord, error) {
	token, ok := s.broker.Token(ctx)
	if !ok {
		return nil, ErrNoCredentials
	}

	var features audioFeaturesPayload
	if err := s.get(ctx, "/audio-features/"+url.PathEscape(id), nil, token, &features); err != nil {
		return nil, err
	}

	record := &models.ProviderRecord{}
	if features.Tempo > 0 {
		bpm := int(features.Tempo + 0.5)
		record.TempoBPM = &bpm
	}
	if features.Key >= 0 && features.Key < len(keyNames) {
		record.Key = keyNames[features.Key]
		if features.Mode >= 0 && features.Mode < len(modeNames) {
			record.Mode = modeNames[features.Mode]
		}
	}
	return record, nil
}

type artistPayload struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

// ArtistImage returns the catalog-native image for an artist id, used as a
// fallback when the linked-data source has nothing. "" means no image.
func (s *Service) ArtistImage(ctx context.Context, artistID string) (string, error) {
	token, ok := s.broker.Token(ctx)
	if !ok {
		return "", ErrNoCredentials
	}

	var artist artistPayload
	if err := s.get(ctx, "/artists/"+url.PathEscape(artistID), nil, token, &artist); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if len(artist.Images) == 0 {
		return "", nil
	}
	return artist.Images[0].URL, nil
}

func (s *Service) get(ctx context.Context, path string, params url.Values, token string, out any) error {
	reqURL := s.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("spotify returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

func recordFromTrack(t *trackPayload) *models.ProviderRecord {
	record := &models.ProviderRecord{
		ExternalID:  t.ID,
		Title:       t.Name,
		Album:       t.Album.Name,
		DurationMs:  t.DurationMs,
		ReleaseDate: t.Album.ReleaseDate,
		CrossLink:   t.ExternalURLs.Spotify,
		ISRC:        t.ExternalIDs.ISRC,
	}
	for _, a := range t.Artists {
		record.Artists = append(record.Artists, a.Name)
		record.ArtistIDs = append(record.ArtistIDs, a.ID)
	}
	if len(t.Album.Images) > 0 {
		record.CoverArtURL = t.Album.Images[0].URL
	}
	popularity := t.Popularity
	record.Popularity = &popularity
	return record
}
