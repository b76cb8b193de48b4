package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/missionfinder/tracklink/models"
	"github.com/missionfinder/tracklink/service/lyrics"
	"github.com/missionfinder/tracklink/service/musicbrainz"
)

// sharedCacheControl marks reconciled metadata and raw catalog searches as
// cacheable by shared proxies for a day, with an hour of
// stale-while-revalidate slack. Only successful responses carry it; errors
// must stay uncached so a transient upstream failure is not served for a day.
const sharedCacheControl = "public, s-maxage=86400, stale-while-revalidate=3600"

func (app *application) getMetadata(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	platform, ok := models.ParsePlatform(r.URL.Query().Get("platform"))
	if id == "" || !ok {
		app.clientError(w, http.StatusBadRequest, "id and platform (spotify or apple) are required")
		return
	}

	meta, err := app.reconciler.GetUnifiedMetadata(r.Context(), models.TrackReference{
		Platform:   platform,
		ExternalID: id,
	})
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", sharedCacheControl)
	app.writeJSON(w, http.StatusOK, meta)
}

func (app *application) searchTracks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := q.Get("term")
	if term == "" {
		app.clientError(w, http.StatusBadRequest, "term is required")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	records, err := app.itunes.Search(r.Context(), term, limit, q.Get("country"))
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, map[string]any{"results": records})
}

func (app *application) getLyrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title, artist := q.Get("title"), q.Get("artist")
	if title == "" || artist == "" {
		app.clientError(w, http.StatusBadRequest, "title and artist are required")
		return
	}
	durationMs, _ := strconv.ParseInt(q.Get("durationMs"), 10, 64)

	result, err := app.lyrics.Search(r.Context(), title, artist, durationMs)
	switch {
	case errors.Is(err, lyrics.ErrNotFound):
		app.clientError(w, http.StatusNotFound, "no lyrics found")
	case err != nil:
		app.serverError(w, r, err)
	default:
		app.writeJSON(w, http.StatusOK, result)
	}
}

func (app *application) searchMusicBrainz(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entityType := q.Get("type")
	if entityType == "" {
		entityType = "recording"
	}
	query := q.Get("query")
	if query == "" {
		app.clientError(w, http.StatusBadRequest, "query is required")
		return
	}

	raw, err := app.musicbrainz.SearchEntity(r.Context(), entityType, query)
	switch {
	case errors.Is(err, musicbrainz.ErrInvalidEntity):
		app.clientError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		app.serverError(w, r, err)
	default:
		w.Header().Set("Cache-Control", sharedCacheControl)
		w.Header().Set("Content-Type", "application/json")
		w.Write(raw)
	}
}

func (app *application) healthz(w http.ResponseWriter, _ *http.Request) {
	app.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
