package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/missionfinder/tracklink/models"
)

type stubPrimary struct {
	record      *models.ProviderRecord
	fetchErr    error
	isrcRecord  *models.ProviderRecord
	textRecord  *models.ProviderRecord
	features    *models.ProviderRecord
	featuresErr error
	artistImage string
	featuresFor string
}

func (s *stubPrimary) FetchByID(_ context.Context, _ string) (*models.ProviderRecord, error) {
	return s.record, s.fetchErr
}

func (s *stubPrimary) SearchByISRC(_ context.Context, _ string) (*models.ProviderRecord, error) {
	return s.isrcRecord, nil
}

func (s *stubPrimary) SearchByTitleArtist(_ context.Context, _, _ string) (*models.ProviderRecord, error) {
	return s.textRecord, nil
}

func (s *stubPrimary) AudioFeatures(_ context.Context, id string) (*models.ProviderRecord, error) {
	s.featuresFor = id
	return s.features, s.featuresErr
}

func (s *stubPrimary) ArtistImage(_ context.Context, _ string) (string, error) {
	return s.artistImage, nil
}

type stubAlternate struct {
	record     *models.ProviderRecord
	fetchErr   error
	isrcRecord *models.ProviderRecord
	textRecord *models.ProviderRecord
}

func (s *stubAlternate) FetchByID(_ context.Context, _ string) (*models.ProviderRecord, error) {
	return s.record, s.fetchErr
}

func (s *stubAlternate) SearchByISRC(_ context.Context, _ string) (*models.ProviderRecord, error) {
	return s.isrcRecord, nil
}

func (s *stubAlternate) SearchByTitleArtist(_ context.Context, _, _ string) (*models.ProviderRecord, error) {
	return s.textRecord, nil
}

type stubEnricher struct {
	record *models.ProviderRecord
	err    error
}

func (s *stubEnricher) LookupByISRC(_ context.Context, _ string) (*models.ProviderRecord, error) {
	return s.record, s.err
}

func newTestService(primary *stubPrimary, alternate *stubAlternate, enricher *stubEnricher, images ImageSource) *Service {
	if images == nil {
		images = &stubImageSource{}
	}
	return NewService(
		primary,
		alternate,
		enricher,
		NewImageResolver(images, 0, testLogger),
		NewResolver(nil, testLogger),
		testLogger,
	)
}

func spotifyBaseRecord() *models.ProviderRecord {
	return &models.ProviderRecord{
		ExternalID:  "11dFghVXANMlKmJXsNCbNl",
		ArtistIDs:   []string{"6sFIWsNpZYqfjUpaCgueju"},
		Title:       "Cut To The Feeling",
		Artists:     []string{"Carly Rae Jepsen"},
		Album:       "Cut To The Feeling",
		DurationMs:  207959,
		ISRC:        "USUM71703861",
		CrossLink:   "https://open.spotify.com/track/11dFghVXANMlKmJXsNCbNl",
		CoverArtURL: "https://i.scdn.co/image/large.png",
	}
}

func TestGetUnifiedMetadataFromPrimary(t *testing.T) {
	bpm := 120
	primary := &stubPrimary{
		record:   spotifyBaseRecord(),
		features: &models.ProviderRecord{TempoBPM: &bpm, Key: "C#", Mode: "Major"},
	}
	alternate := &stubAlternate{
		isrcRecord: &models.ProviderRecord{
			CrossLink:   "https://music.apple.com/us/album/1442192328",
			RecordLabel: "School Boy/Interscope Records",
		},
	}
	enricher := &stubEnricher{record: &models.ProviderRecord{Genres: []string{"pop", "dance pop"}}}
	images := &stubImageSource{urls: map[string]string{
		"Carly Rae Jepsen": "https://commons.example/crj.png",
	}}

	svc := newTestService(primary, alternate, enricher, images)
	got, err := svc.GetUnifiedMetadata(context.Background(), models.TrackReference{
		Platform:   models.PlatformSpotify,
		ExternalID: "11dFghVXANMlKmJXsNCbNl",
	})
	if err != nil {
		t.Fatalf("GetUnifiedMetadata() error: %v", err)
	}

	if got.Title != "Cut To The Feeling" || got.Artist != "Carly Rae Jepsen" {
		t.Errorf("base fields = %q / %q", got.Title, got.Artist)
	}
	if got.CrossLinks.Spotify == "" || got.CrossLinks.Apple == "" {
		t.Errorf("crossLinks incomplete: %+v", got.CrossLinks)
	}
	if got.RecordLabel != "School Boy/Interscope Records" {
		t.Errorf("recordLabel = %q, want counterpart fill", got.RecordLabel)
	}
	if len(got.Genre) != 2 || got.Genre[0] != "pop" {
		t.Errorf("genre = %v, want enrichment tags", got.Genre)
	}
	if got.BPM == nil || *got.BPM != 120 {
		t.Errorf("bpm = %v, want 120", got.BPM)
	}
	if got.Key != "C#" || got.Mode != "Major" {
		t.Errorf("key/mode = %q/%q", got.Key, got.Mode)
	}
	if primary.featuresFor != "11dFghVXANMlKmJXsNCbNl" {
		t.Errorf("audio features fetched for %q", primary.featuresFor)
	}
	if len(got.ArtistImages) != 1 || got.ArtistImages[0].URL != "https://commons.example/crj.png" {
		t.Errorf("artistImages = %v", got.ArtistImages)
	}
	if got.Language != "International" {
		t.Errorf("language = %q", got.Language)
	}
	if !strings.Contains(got.ExternalSearchLink, "youtube.com/results?search_query=") {
		t.Errorf("externalSearchLink = %q", got.ExternalSearchLink)
	}
}

func TestGetUnifiedMetadataFromAlternate(t *testing.T) {
	primary := &stubPrimary{
		isrcRecord: &models.ProviderRecord{
			ExternalID: "11dFghVXANMlKmJXsNCbNl",
			CrossLink:  "https://open.spotify.com/track/11dFghVXANMlKmJXsNCbNl",
			Popularity: intPtr(71),
		},
		features: &models.ProviderRecord{Key: "C#", Mode: "Major"},
	}
	alternate := &stubAlternate{
		record: &models.ProviderRecord{
			ExternalID: "1442192328",
			Title:      "Cut To The Feeling",
			Artists:    []string{"Carly Rae Jepsen"},
			ISRC:       "USUM71703861",
			CrossLink:  "https://music.apple.com/us/album/1442192328",
		},
	}
	enricher := &stubEnricher{}

	svc := newTestService(primary, alternate, enricher, nil)
	got, err := svc.GetUnifiedMetadata(context.Background(), models.TrackReference{
		Platform:   models.PlatformApple,
		ExternalID: "1442192328",
	})
	if err != nil {
		t.Fatalf("GetUnifiedMetadata() error: %v", err)
	}

	if got.CrossLinks.Apple == "" || got.CrossLinks.Spotify == "" {
		t.Errorf("crossLinks incomplete: %+v", got.CrossLinks)
	}
	if got.Popularity == nil || *got.Popularity != 71 {
		t.Errorf("popularity = %v, want counterpart fill", got.Popularity)
	}
	if primary.featuresFor != "11dFghVXANMlKmJXsNCbNl" {
		t.Errorf("audio features fetched for %q, want the counterpart id", primary.featuresFor)
	}
}

func TestGetUnifiedMetadataUnknownTrack(t *testing.T) {
	svc := newTestService(&stubPrimary{}, &stubAlternate{}, &stubEnricher{}, nil)

	_, err := svc.GetUnifiedMetadata(context.Background(), models.TrackReference{
		Platform:   models.PlatformApple,
		ExternalID: "0",
	})
	if !errors.Is(err, ErrNoRecord) {
		t.Errorf("error = %v, want ErrNoRecord", err)
	}
}

func TestGetUnifiedMetadataPrimaryFetchFailure(t *testing.T) {
	primary := &stubPrimary{fetchErr: errors.New("upstream down")}
	svc := newTestService(primary, &stubAlternate{}, &stubEnricher{}, nil)

	_, err := svc.GetUnifiedMetadata(context.Background(), models.TrackReference{
		Platform:   models.PlatformSpotify,
		ExternalID: "x",
	})
	if !errors.Is(err, ErrNoRecord) {
		t.Errorf("error = %v, want ErrNoRecord", err)
	}
}

func TestGetUnifiedMetadataEnrichmentFailureDegrades(t *testing.T) {
	primary := &stubPrimary{record: spotifyBaseRecord()}
	enricher := &stubEnricher{err: errors.New("rate limited")}

	svc := newTestService(primary, &stubAlternate{}, enricher, nil)
	got, err := svc.GetUnifiedMetadata(context.Background(), models.TrackReference{
		Platform:   models.PlatformSpotify,
		ExternalID: "11dFghVXANMlKmJXsNCbNl",
	})
	if err != nil {
		t.Fatalf("GetUnifiedMetadata() error: %v", err)
	}
	if len(got.Genre) != 0 {
		t.Errorf("genre = %v, want none when enrichment fails", got.Genre)
	}
}

func TestGetUnifiedMetadataFallbackArtistImage(t *testing.T) {
	primary := &stubPrimary{
		record:      spotifyBaseRecord(),
		artistImage: "https://i.scdn.co/image/artist.png",
	}

	svc := newTestService(primary, &stubAlternate{}, &stubEnricher{}, &stubImageSource{})
	got, err := svc.GetUnifiedMetadata(context.Background(), models.TrackReference{
		Platform:   models.PlatformSpotify,
		ExternalID: "11dFghVXANMlKmJXsNCbNl",
	})
	if err != nil {
		t.Fatalf("GetUnifiedMetadata() error: %v", err)
	}

	want := []models.ArtistImage{{Name: "Carly Rae Jepsen", URL: "https://i.scdn.co/image/artist.png"}}
	if len(got.ArtistImages) != 1 || got.ArtistImages[0] != want[0] {
		t.Errorf("artistImages = %v, want %v", got.ArtistImages, want)
	}
}

func intPtr(v int) *int { return &v }
