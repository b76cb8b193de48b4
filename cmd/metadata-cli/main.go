package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/missionfinder/tracklink/config"
	"github.com/missionfinder/tracklink/models"
	"github.com/missionfinder/tracklink/reconcile"
	"github.com/missionfinder/tracklink/service/itunes"
	"github.com/missionfinder/tracklink/service/musicbrainz"
	"github.com/missionfinder/tracklink/service/spotify"
	"github.com/missionfinder/tracklink/service/wikidata"
)

func main() {
	var (
		id       = flag.String("id", "", "Track id in the source catalog")
		platform = flag.String("platform", "spotify", "Source catalog (spotify or apple)")
		isrc     = flag.String("isrc", "", "Look up open-catalog genre tags for an ISRC instead")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	config.Load()
	userAgent := viper.GetString("musicbrainz.user_agent")

	mbService := musicbrainz.NewService(musicbrainz.NewClient(userAgent, logger), logger)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "\t")

	if *isrc != "" {
		record, err := mbService.LookupByISRC(context.Background(), *isrc)
		if err != nil {
			log.Fatalf("Error looking up ISRC: %v", err)
		}
		enc.Encode(record)
		return
	}

	parsed, ok := models.ParsePlatform(*platform)
	if !ok || *id == "" {
		log.Fatal("either -isrc, or -id with -platform spotify|apple, is required")
	}

	broker := spotify.NewBroker(
		viper.GetString("spotify.client_id"),
		viper.GetString("spotify.client_secret"),
		viper.GetString("spotify.token_url"),
		logger,
	)
	wikidataService := wikidata.NewService(userAgent, viper.GetInt("images.width"), logger)

	reconciler := reconcile.NewService(
		spotify.NewService(broker, logger),
		itunes.NewService(viper.GetString("itunes.country"), logger),
		mbService,
		reconcile.NewImageResolver(wikidataService, viper.GetInt("images.max_artists"), logger),
		reconcile.NewResolver(mbService.Cleaner(), logger),
		logger,
	)

	meta, err := reconciler.GetUnifiedMetadata(context.Background(), models.TrackReference{
		Platform:   parsed,
		ExternalID: *id,
	})
	if err != nil {
		log.Fatalf("Error reconciling track: %v", err)
	}
	enc.Encode(meta)
}
