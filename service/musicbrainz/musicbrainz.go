package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/missionfinder/tracklink/models"
)

// Tag is a community genre/style tag on a MusicBrainz entity.
type Tag struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
}

// ArtistCredit is a credited artist on a recording.
type ArtistCredit struct {
	Name   string `json:"name"`
	Artist struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artist"`
}

// Recording is the subset of a recording search result this service reads.
type Recording struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Length       int            `json:"length,omitempty"`
	ISRCs        []string       `json:"isrcs,omitempty"`
	ArtistCredit []ArtistCredit `json:"artist-credit,omitempty"`
	Tags         []Tag          `json:"tags,omitempty"`
}

// SearchResponse is the recording search envelope.
type SearchResponse struct {
	Count      int         `json:"count"`
	Offset     int         `json:"offset"`
	Recordings []Recording `json:"recordings"`
}

// maxGenres caps how many community tags are promoted to genres.
const maxGenres = 5

// searchableEntities are the entity types the passthrough search accepts.
var searchableEntities = map[string]bool{
	"artist":        true,
	"recording":     true,
	"release":       true,
	"release-group": true,
}

// ErrInvalidEntity is returned for passthrough searches on unknown types.
var ErrInvalidEntity = errors.New("musicbrainz: invalid entity type")

// Service is the open-metadata adapter. It supplies genre/tag enrichment for
// a recording identified by ISRC and backs the passthrough search endpoints.
// It never supplies title, artist, or duration to the merge.
type Service struct {
	client  *Client
	cleaner *QueryCleaner
	logger  *slog.Logger
}

func NewService(client *Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:  client,
		cleaner: NewQueryCleaner(),
		logger:  logger,
	}
}

// Cleaner exposes the query cleaner for callers building weak search keys.
func (s *Service) Cleaner() *QueryCleaner {
	return s.cleaner
}

// LookupByISRC finds the recording carrying the given ISRC and returns its
// community tags as a genre-only ProviderRecord. Absence (no recording, or a
// recording with no tags) is (nil, nil), never an error.
func (s *Service) LookupByISRC(ctx context.Context, isrc string) (*models.ProviderRecord, error) {
	isrc = strings.TrimSpace(isrc)
	if isrc == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", fmt.Sprintf(`isrc:"%s"`, isrc))
	params.Set("limit", "1")

	raw, err := s.client.Fetch(ctx, "/recording", params)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("isrc lookup: %w", err)
	}

	var result SearchResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding isrc lookup: %w", err)
	}
	if len(result.Recordings) == 0 {
		return nil, nil
	}

	genres := topGenres(result.Recordings[0].Tags)
	if len(genres) == 0 {
		return nil, nil
	}
	return &models.ProviderRecord{ISRC: isrc, Genres: genres}, nil
}

// SearchEntity runs a free-text search against one MusicBrainz entity index
// and returns the attributed raw response for passthrough handlers.
func (s *Service) SearchEntity(ctx context.Context, entityType, query string) (json.RawMessage, error) {
	if !searchableEntities[entityType] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEntity, entityType)
	}
	params := url.Values{}
	params.Set("query", query)
	return s.client.Fetch(ctx, "/"+entityType, params)
}

// topGenres orders tags by vote count and keeps the most agreed-upon few.
func topGenres(tags []Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	sorted := make([]Tag, len(tags))
	copy(sorted, tags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	genres := make([]string, 0, maxGenres)
	for _, tag := range sorted {
		name := strings.ToLower(strings.TrimSpace(tag.Name))
		if name == "" {
			continue
		}
		genres = append(genres, name)
		if len(genres) == maxGenres {
			break
		}
	}
	return genres
}
