package models

import "strings"

// Platform identifies which catalog an external track id belongs to.
type Platform string

const (
	PlatformSpotify Platform = "spotify"
	PlatformApple   Platform = "apple"
)

// ParsePlatform validates a platform query value.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformSpotify:
		return PlatformSpotify, true
	case PlatformApple:
		return PlatformApple, true
	}
	return "", false
}

// Other returns the opposite catalog, used when cross-referencing.
func (p Platform) Other() Platform {
	if p == PlatformSpotify {
		return PlatformApple
	}
	return PlatformSpotify
}

// TrackReference is the immutable input key for a reconciliation request.
type TrackReference struct {
	Platform   Platform `json:"platform"`
	ExternalID string   `json:"id"`
}

// ProviderRecord is the partial view of a track as seen by one provider.
// Every field is optional; adapters fill whatever their upstream returned.
type ProviderRecord struct {
	// ExternalID and ArtistIDs are provider-native ids of the matched track
	// and its credited artists, kept for follow-up lookups (audio features,
	// fallback artist images); they never reach the response.
	ExternalID  string   `json:"-"`
	ArtistIDs   []string `json:"-"`
	Title       string   `json:"title,omitempty"`
	Artists     []string `json:"artists,omitempty"`
	Album       string   `json:"album,omitempty"`
	DurationMs  int64    `json:"durationMs,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	RecordLabel string   `json:"recordLabel,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	CoverArtURL string   `json:"coverArt,omitempty"`
	PreviewURL  string   `json:"previewUrl,omitempty"`
	Popularity  *int     `json:"popularity,omitempty"`
	CrossLink   string   `json:"crossLink,omitempty"`
	ISRC        string   `json:"isrc,omitempty"`
	TempoBPM    *int     `json:"bpm,omitempty"`
	Key         string   `json:"key,omitempty"`
	Mode        string   `json:"mode,omitempty"`
}

// PrimaryArtist returns the first credited artist, or "".
func (r *ProviderRecord) PrimaryArtist() string {
	if r == nil || len(r.Artists) == 0 {
		return ""
	}
	return r.Artists[0]
}

// ArtistDisplay joins the ordered artist credit for display.
func (r *ProviderRecord) ArtistDisplay() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Artists, ", ")
}

// CrossLinks holds the per-catalog canonical track URLs.
type CrossLinks struct {
	Spotify string `json:"spotify,omitempty"`
	Apple   string `json:"apple,omitempty"`
}

// ArtistImage pairs a credited artist name with a resolved image URL.
type ArtistImage struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UnifiedMetadata is the reconciled record returned to clients. Once a field
// is set, later merge steps never null it out or replace it; they only fill
// empty fields.
type UnifiedMetadata struct {
	Title              string        `json:"title,omitempty"`
	Artist             string        `json:"artist,omitempty"`
	Artists            []string      `json:"artists,omitempty"`
	Album              string        `json:"album,omitempty"`
	DurationMs         int64         `json:"durationMs,omitempty"`
	ISRC               string        `json:"isrc,omitempty"`
	Genre              []string      `json:"genre"`
	ReleaseDate        string        `json:"releaseDate,omitempty"`
	RecordLabel        string        `json:"recordLabel,omitempty"`
	BPM                *int          `json:"bpm"`
	Key                string        `json:"key,omitempty"`
	Mode               string        `json:"mode,omitempty"`
	Popularity         *int          `json:"popularity"`
	CoverArt           string        `json:"coverArt,omitempty"`
	PreviewURL         string        `json:"previewUrl,omitempty"`
	CrossLinks         CrossLinks    `json:"crossLinks"`
	ArtistImages       []ArtistImage `json:"artistImages,omitempty"`
	Language           string        `json:"language,omitempty"`
	ExternalSearchLink string        `json:"externalSearchLink,omitempty"`
}
