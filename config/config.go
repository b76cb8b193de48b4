package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load initializes the configuration with viper
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it. Using default values and environment variables.")
	}

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("spotify.token_url", "https://accounts.spotify.com/api/token")
	viper.SetDefault("musicbrainz.user_agent", "MissionFinder/1.0 (https://github.com/missionfinder/tracklink)")
	viper.SetDefault("itunes.country", "US")
	viper.SetDefault("images.width", 400)
	viper.SetDefault("images.max_artists", 8)

	viper.AutomaticEnv()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("Error reading config file: %v", err)
		}
		log.Println("Config file not found, using default values and environment variables")
	} else {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}

	// Spotify credentials are optional: without them the primary catalog is
	// skipped rather than refused, so missing values only warn.
	for _, v := range []string{"spotify.client_id", "spotify.client_secret"} {
		if !viper.IsSet(v) {
			log.Printf("Configuration variable %s not set; Spotify lookups will be skipped", v)
		}
	}
}
