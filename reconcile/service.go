package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/missionfinder/tracklink/models"
	"github.com/missionfinder/tracklink/service/spotify"
)

// ErrNoRecord means no catalog could supply a base record for the requested
// track, so there is nothing to reconcile.
var ErrNoRecord = errors.New("reconcile: no catalog record for track")

// Catalog is one track catalog: direct id lookup plus the weak-key searches
// used for cross-referencing.
type Catalog interface {
	FetchByID(ctx context.Context, id string) (*models.ProviderRecord, error)
	CatalogSearcher
}

// PrimaryCatalog is the catalog that additionally serves audio analysis and
// artist portraits for tracks it knows about.
type PrimaryCatalog interface {
	Catalog
	AudioFeatures(ctx context.Context, id string) (*models.ProviderRecord, error)
	ArtistImage(ctx context.Context, artistID string) (string, error)
}

// GenreEnricher supplies open-catalog genre tags for a recording code.
type GenreEnricher interface {
	LookupByISRC(ctx context.Context, isrc string) (*models.ProviderRecord, error)
}

// Service runs the full reconciliation pipeline for one track reference:
// fetch the base record from the named catalog, cross-reference the other
// catalog, merge, enrich genres and audio features, resolve artist images
// and classify the language.
type Service struct {
	primary   PrimaryCatalog
	alternate Catalog
	enricher  GenreEnricher
	images    *ImageResolver
	crossref  *Resolver
	logger    *slog.Logger
}

func NewService(primary PrimaryCatalog, alternate Catalog, enricher GenreEnricher, images *ImageResolver, crossref *Resolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		primary:   primary,
		alternate: alternate,
		enricher:  enricher,
		images:    images,
		crossref:  crossref,
		logger:    logger,
	}
}

// GetUnifiedMetadata reconciles one track. The catalog named by ref must
// yield a record; everything layered on top of it is best-effort, so a
// flaky secondary source degrades the response instead of failing it.
func (s *Service) GetUnifiedMetadata(ctx context.Context, ref models.TrackReference) (*models.UnifiedMetadata, error) {
	meta := &models.UnifiedMetadata{}

	var base, counterpart *models.ProviderRecord
	var primaryRecord *models.ProviderRecord

	switch ref.Platform {
	case models.PlatformSpotify:
		record, err := s.primary.FetchByID(ctx, ref.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoRecord, err)
		}
		base = record
		primaryRecord = record
		meta.CrossLinks.Spotify = record.CrossLink

		counterpart = s.crossref.Resolve(ctx, base, s.alternate)
		if counterpart != nil {
			meta.CrossLinks.Apple = counterpart.CrossLink
		}

	case models.PlatformApple:
		record, err := s.alternate.FetchByID(ctx, ref.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoRecord, err)
		}
		if record == nil {
			return nil, ErrNoRecord
		}
		base = record
		meta.CrossLinks.Apple = record.CrossLink

		counterpart = s.crossref.Resolve(ctx, base, s.primary)
		if counterpart != nil {
			primaryRecord = counterpart
			meta.CrossLinks.Spotify = counterpart.CrossLink
		}

	default:
		return nil, fmt.Errorf("%w: unknown platform %q", ErrNoRecord, ref.Platform)
	}

	Merge(meta, base, counterpart)

	if meta.ISRC != "" {
		record, err := s.enricher.LookupByISRC(ctx, meta.ISRC)
		if err != nil {
			s.logger.Warn("genre enrichment failed", "isrc", meta.ISRC, "error", err)
		} else {
			Merge(meta, record)
		}
	}

	if primaryRecord != nil && (meta.BPM == nil || meta.Key == "") {
		record, err := s.primary.AudioFeatures(ctx, primaryRecord.ExternalID)
		switch {
		case errors.Is(err, spotify.ErrNoCredentials):
			s.logger.Debug("audio features skipped, no credentials")
		case err != nil:
			s.logger.Warn("audio features fetch failed", "track", primaryRecord.ExternalID, "error", err)
		default:
			Merge(meta, record)
		}
	}

	meta.ArtistImages = s.resolveImages(ctx, meta.Artists, primaryRecord)
	meta.Language = ClassifyLanguage(meta.Title, meta.Genre, meta.Artist)
	meta.ExternalSearchLink = videoSearchLink(meta.Title, meta.Artist)

	return meta, nil
}

// resolveImages prefers linked-data portraits; when that yields nothing it
// falls back to the primary catalog's own image for the first credited
// artist, attributed to that artist alone.
func (s *Service) resolveImages(ctx context.Context, names []string, primaryRecord *models.ProviderRecord) []models.ArtistImage {
	images := s.images.Resolve(ctx, names, "")
	if len(images) > 0 || len(names) == 0 {
		return images
	}

	if primaryRecord == nil || len(primaryRecord.ArtistIDs) == 0 {
		return nil
	}
	fallback, err := s.primary.ArtistImage(ctx, primaryRecord.ArtistIDs[0])
	if err != nil {
		if !errors.Is(err, spotify.ErrNoCredentials) {
			s.logger.Warn("fallback artist image fetch failed", "artist", names[0], "error", err)
		}
		return nil
	}
	if fallback == "" {
		return nil
	}
	return []models.ArtistImage{{Name: names[0], URL: fallback}}
}

func videoSearchLink(title, artist string) string {
	query := title
	if artist != "" {
		query += " " + artist
	}
	if query == "" {
		return ""
	}
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
}
