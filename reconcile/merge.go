// Package reconcile assembles a single unified track record from partial
// views held by several catalogs: cross-referencing the same logical track
// between them, merging their fields, resolving artist portraits and tagging
// a display language.
package reconcile

import "github.com/missionfinder/tracklink/models"

// Merge folds overlays into dst left to right. A field is copied only when
// dst does not have it yet; once set, a field is never replaced or cleared,
// so merging the same overlay again is a no-op. The genre list is taken
// whole from the first overlay that has one, never unioned across overlays.
func Merge(dst *models.UnifiedMetadata, overlays ...*models.ProviderRecord) {
	for _, overlay := range overlays {
		if overlay == nil {
			continue
		}
		if dst.Title == "" {
			dst.Title = overlay.Title
		}
		if len(dst.Artists) == 0 && len(overlay.Artists) > 0 {
			dst.Artists = overlay.Artists
		}
		if dst.Artist == "" {
			dst.Artist = overlay.ArtistDisplay()
		}
		if dst.Album == "" {
			dst.Album = overlay.Album
		}
		if dst.DurationMs == 0 {
			dst.DurationMs = overlay.DurationMs
		}
		if dst.ISRC == "" {
			dst.ISRC = overlay.ISRC
		}
		if len(dst.Genre) == 0 && len(overlay.Genres) > 0 {
			dst.Genre = overlay.Genres
		}
		if dst.ReleaseDate == "" {
			dst.ReleaseDate = overlay.ReleaseDate
		}
		if dst.RecordLabel == "" {
			dst.RecordLabel = overlay.RecordLabel
		}
		if dst.BPM == nil && overlay.TempoBPM != nil {
			dst.BPM = overlay.TempoBPM
		}
		if dst.Key == "" {
			dst.Key = overlay.Key
		}
		if dst.Mode == "" {
			dst.Mode = overlay.Mode
		}
		if dst.Popularity == nil && overlay.Popularity != nil {
			dst.Popularity = overlay.Popularity
		}
		if dst.CoverArt == "" {
			dst.CoverArt = overlay.CoverArtURL
		}
		if dst.PreviewURL == "" {
			dst.PreviewURL = overlay.PreviewURL
		}
	}
}
