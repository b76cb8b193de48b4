package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"golang.org/x/oauth2"
)

func staticBroker() *Broker {
	return &Broker{source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})}
}

func newTestService(t *testing.T, handler http.Handler) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	svc := NewService(staticBroker(), nil)
	svc.baseURL = srv.URL
	return svc, srv
}

const trackBody = `{
	"id": "11dFghVXANMlKmJXsNCbNl",
	"name": "Cut To The Feeling",
	"duration_ms": 207959,
	"popularity": 63,
	"artists": [{"name": "Carly Rae Jepsen"}, {"name": "Other"}],
	"external_ids": {"isrc": "USUM71703861"},
	"external_urls": {"spotify": "https://open.spotify.com/track/11dFghVXANMlKmJXsNCbNl"},
	"album": {
		"id": "0tGPJ0bkWOUmH7MEOR77qc",
		"name": "Cut To The Feeling",
		"release_date": "2017-05-26",
		"images": [{"url": "https://i.scdn.co/image/big"}, {"url": "https://i.scdn.co/image/small"}]
	}
}`

func TestFetchByID(t *testing.T) {
	var gotAuth string
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/tracks/11dFghVXANMlKmJXsNCbNl":
			w.Write([]byte(trackBody))
		case "/albums/0tGPJ0bkWOUmH7MEOR77qc":
			w.Write([]byte(`{"label": "School Boy/Interscope Records", "genres": ["dance pop"]}`))
		default:
			http.NotFound(w, r)
		}
	}))

	record, err := svc.FetchByID(context.Background(), "11dFghVXANMlKmJXsNCbNl")
	if err != nil {
		t.Fatalf("FetchByID() error: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}

	if record.Title != "Cut To The Feeling" {
		t.Errorf("title = %q", record.Title)
	}
	if want := []string{"Carly Rae Jepsen", "Other"}; !reflect.DeepEqual(record.Artists, want) {
		t.Errorf("artists = %v, want %v", record.Artists, want)
	}
	if record.DurationMs != 207959 {
		t.Errorf("durationMs = %d", record.DurationMs)
	}
	if record.ISRC != "USUM71703861" {
		t.Errorf("isrc = %q", record.ISRC)
	}
	if record.RecordLabel != "School Boy/Interscope Records" {
		t.Errorf("recordLabel = %q", record.RecordLabel)
	}
	if want := []string{"dance pop"}; !reflect.DeepEqual(record.Genres, want) {
		t.Errorf("genres = %v, want %v", record.Genres, want)
	}
	if record.CoverArtURL != "https://i.scdn.co/image/big" {
		t.Errorf("coverArt = %q, want first (largest) image", record.CoverArtURL)
	}
	if record.Popularity == nil || *record.Popularity != 63 {
		t.Errorf("popularity = %v, want 63", record.Popularity)
	}
	if record.CrossLink == "" || record.ExternalID != "11dFghVXANMlKmJXsNCbNl" {
		t.Errorf("crossLink = %q, externalID = %q", record.CrossLink, record.ExternalID)
	}
}

func TestFetchByIDAlbumFailureDegrades(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tracks/abc" {
			w.Write([]byte(trackBody))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))

	record, err := svc.FetchByID(context.Background(), "abc")
	if err != nil {
		t.Fatalf("FetchByID() error: %v", err)
	}
	if record.Title == "" {
		t.Error("track fields should survive an album fetch failure")
	}
	if record.RecordLabel != "" || record.Genres != nil {
		t.Errorf("album fields should be empty, got label=%q genres=%v", record.RecordLabel, record.Genres)
	}
}

func TestFetchByIDWithoutCredentials(t *testing.T) {
	svc := NewService(&Broker{}, nil)
	_, err := svc.FetchByID(context.Background(), "abc")
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("FetchByID() error = %v, want ErrNoCredentials", err)
	}
}

func TestSearchByISRC(t *testing.T) {
	var gotQuery string
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"tracks": {"items": [` + trackBody + `]}}`))
	}))

	record, err := svc.SearchByISRC(context.Background(), "USUM71703861")
	if err != nil {
		t.Fatalf("SearchByISRC() error: %v", err)
	}
	if gotQuery != "isrc:USUM71703861" {
		t.Errorf("query = %q", gotQuery)
	}
	if record == nil || record.Title != "Cut To The Feeling" {
		t.Errorf("record = %+v", record)
	}
}

func TestSearchNoResults(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tracks": {"items": []}}`))
	}))

	record, err := svc.SearchByTitleArtist(context.Background(), "Nonexistent", "Nobody")
	if err != nil {
		t.Fatalf("SearchByTitleArtist() error: %v", err)
	}
	if record != nil {
		t.Errorf("record = %+v, want nil for empty result", record)
	}
}

func TestAudioFeatures(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tempo": 119.6, "key": 1, "mode": 1}`))
	}))

	record, err := svc.AudioFeatures(context.Background(), "abc")
	if err != nil {
		t.Fatalf("AudioFeatures() error: %v", err)
	}
	if record.TempoBPM == nil || *record.TempoBPM != 120 {
		t.Errorf("tempo = %v, want rounded 120", record.TempoBPM)
	}
	if record.Key != "C#" || record.Mode != "Major" {
		t.Errorf("key/mode = %q %q, want C# Major", record.Key, record.Mode)
	}
}

func TestAudioFeaturesUnknownKey(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tempo": 0, "key": -1, "mode": 0}`))
	}))

	record, err := svc.AudioFeatures(context.Background(), "abc")
	if err != nil {
		t.Fatalf("AudioFeatures() error: %v", err)
	}
	if record.TempoBPM != nil || record.Key != "" || record.Mode != "" {
		t.Errorf("record = %+v, want empty descriptors", record)
	}
}

func TestBrokerTokenExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "granted", "token_type": "Bearer", "expires_in": 3600}`))
	}))
	defer srv.Close()

	broker := NewBroker("client-id", "client-secret", srv.URL, nil)
	token, ok := broker.Token(context.Background())
	if !ok || token != "granted" {
		t.Errorf("Token() = (%q, %t), want (granted, true)", token, ok)
	}
}

func TestBrokerMissingCredentials(t *testing.T) {
	broker := NewBroker("", "", "", nil)
	if _, ok := broker.Token(context.Background()); ok {
		t.Error("Token() ok = true without credentials")
	}
}

func TestBrokerExchangeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	broker := NewBroker("client-id", "client-secret", srv.URL, nil)
	if _, ok := broker.Token(context.Background()); ok {
		t.Error("Token() ok = true after failed exchange, want false")
	}
}
