package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /metadata", app.getMetadata)
	mux.HandleFunc("GET /mb/search", app.searchMusicBrainz)
	mux.HandleFunc("GET /search", app.searchTracks)
	mux.HandleFunc("GET /lyrics", app.getLyrics)
	mux.HandleFunc("GET /healthz", app.healthz)

	standard := alice.New(app.recoverPanic, app.logRequest, commonHeaders)

	return standard.Then(mux)
}
