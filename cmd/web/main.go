package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/missionfinder/tracklink/config"
	"github.com/missionfinder/tracklink/models"
	"github.com/missionfinder/tracklink/reconcile"
	"github.com/missionfinder/tracklink/service/itunes"
	"github.com/missionfinder/tracklink/service/lyrics"
	"github.com/missionfinder/tracklink/service/musicbrainz"
	"github.com/missionfinder/tracklink/service/spotify"
	"github.com/missionfinder/tracklink/service/wikidata"
)

type metadataReconciler interface {
	GetUnifiedMetadata(ctx context.Context, ref models.TrackReference) (*models.UnifiedMetadata, error)
}

type entitySearcher interface {
	SearchEntity(ctx context.Context, entityType, query string) (json.RawMessage, error)
}

type trackSearcher interface {
	Search(ctx context.Context, term string, limit int, country string) ([]models.ProviderRecord, error)
}

type lyricsSearcher interface {
	Search(ctx context.Context, title, artist string, durationMs int64) (*lyrics.Result, error)
}

type application struct {
	logger      *slog.Logger
	reconciler  metadataReconciler
	musicbrainz entitySearcher
	itunes      trackSearcher
	lyrics      lyricsSearcher
}

func main() {
	addr := flag.String("addr", "", "HTTP network address (overrides configuration)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	config.Load()

	if *addr == "" {
		*addr = fmt.Sprintf("%s:%s", viper.GetString("server.host"), viper.GetString("server.port"))
	}

	userAgent := viper.GetString("musicbrainz.user_agent")

	mbService := musicbrainz.NewService(musicbrainz.NewClient(userAgent, logger), logger)

	broker := spotify.NewBroker(
		viper.GetString("spotify.client_id"),
		viper.GetString("spotify.client_secret"),
		viper.GetString("spotify.token_url"),
		logger,
	)
	spotifyService := spotify.NewService(broker, logger)
	itunesService := itunes.NewService(viper.GetString("itunes.country"), logger)
	wikidataService := wikidata.NewService(userAgent, viper.GetInt("images.width"), logger)

	reconciler := reconcile.NewService(
		spotifyService,
		itunesService,
		mbService,
		reconcile.NewImageResolver(wikidataService, viper.GetInt("images.max_artists"), logger),
		reconcile.NewResolver(mbService.Cleaner(), logger),
		logger,
	)

	app := &application{
		logger:      logger,
		reconciler:  reconciler,
		musicbrainz: mbService,
		itunes:      itunesService,
		lyrics:      lyrics.NewService(userAgent, logger),
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      app.routes(),
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Info(fmt.Sprintf("starting server at: http://%s", *addr))

	err := srv.ListenAndServe()
	logger.Error(err.Error())
	os.Exit(1)
}
