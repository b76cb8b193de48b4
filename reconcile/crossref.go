package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/missionfinder/tracklink/models"
	"github.com/missionfinder/tracklink/service/musicbrainz"
	"github.com/missionfinder/tracklink/service/spotify"
)

// CatalogSearcher locates a track in one catalog by weak keys. Both methods
// return (nil, nil) when the catalog simply has no match.
type CatalogSearcher interface {
	SearchByISRC(ctx context.Context, isrc string) (*models.ProviderRecord, error)
	SearchByTitleArtist(ctx context.Context, title, artist string) (*models.ProviderRecord, error)
}

// Resolver finds the counterpart of a known track in another catalog. The
// ISRC is the strong key and is tried first; only when it is absent or
// yields nothing does the resolver fall back to a cleaned title/artist text
// search, trusting the catalog's own ranking for the top hit.
type Resolver struct {
	cleaner *musicbrainz.QueryCleaner
	logger  *slog.Logger
}

func NewResolver(cleaner *musicbrainz.QueryCleaner, logger *slog.Logger) *Resolver {
	if cleaner == nil {
		cleaner = musicbrainz.NewQueryCleaner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{cleaner: cleaner, logger: logger}
}

// Resolve returns the counterpart record, or nil when none could be found.
// Cross-referencing is opportunistic: search failures are logged and
// swallowed, they never fail the caller's request.
func (r *Resolver) Resolve(ctx context.Context, base *models.ProviderRecord, catalog CatalogSearcher) *models.ProviderRecord {
	if base == nil {
		return nil
	}

	if base.ISRC != "" {
		match, err := catalog.SearchByISRC(ctx, base.ISRC)
		switch {
		case errors.Is(err, spotify.ErrNoCredentials):
			r.logger.Debug("cross-reference skipped, catalog has no credentials")
			return nil
		case err != nil:
			r.logger.Warn("cross-reference isrc search failed", "isrc", base.ISRC, "error", err)
		case match != nil:
			return match
		}
	}

	if base.Title == "" {
		return nil
	}
	title, _ := r.cleaner.CleanTitle(base.Title)
	artist, _ := r.cleaner.CleanArtist(base.PrimaryArtist())

	match, err := catalog.SearchByTitleArtist(ctx, title, artist)
	if err != nil {
		if !errors.Is(err, spotify.ErrNoCredentials) {
			r.logger.Warn("cross-reference text search failed", "title", title, "artist", artist, "error", err)
		}
		return nil
	}
	return match
}
