package reconcile

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/missionfinder/tracklink/models"
)

// defaultMaxArtists bounds the image fan-out for tracks with very long
// artist credits.
const defaultMaxArtists = 8

// ImageSource finds a portrait URL for a single artist name. "" with a nil
// error means the source has no image for that name.
type ImageSource interface {
	FindArtistImage(ctx context.Context, name string) (string, error)
}

// ImageResolver looks up portraits for a track's credited artists in
// parallel, preserving the credit order in its results.
type ImageResolver struct {
	source     ImageSource
	maxArtists int
	logger     *slog.Logger
}

func NewImageResolver(source ImageSource, maxArtists int, logger *slog.Logger) *ImageResolver {
	if maxArtists <= 0 {
		maxArtists = defaultMaxArtists
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageResolver{source: source, maxArtists: maxArtists, logger: logger}
}

// Resolve fans out one lookup per distinct artist name and collects the
// hits in credit order, dropping names with no image. A lookup failure only
// costs its own entry. When every lookup comes back empty and a non-empty
// fallback URL is supplied, the result is a single entry attributing the
// fallback to the first credited artist.
func (r *ImageResolver) Resolve(ctx context.Context, names []string, fallback string) []models.ArtistImage {
	distinct := dedupeNames(names, r.maxArtists)
	if len(distinct) == 0 {
		return nil
	}

	urls := make([]string, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range distinct {
		g.Go(func() error {
			url, err := r.source.FindArtistImage(gctx, name)
			if err != nil {
				r.logger.Warn("artist image lookup failed", "artist", name, "error", err)
				return nil
			}
			urls[i] = url
			return nil
		})
	}
	g.Wait()

	var images []models.ArtistImage
	for i, url := range urls {
		if url != "" {
			images = append(images, models.ArtistImage{Name: distinct[i], URL: url})
		}
	}
	if len(images) == 0 && fallback != "" {
		return []models.ArtistImage{{Name: distinct[0], URL: fallback}}
	}
	return images
}

func dedupeNames(names []string, limit int) []string {
	var distinct []string
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		distinct = append(distinct, name)
		if len(distinct) == limit {
			break
		}
	}
	return distinct
}
