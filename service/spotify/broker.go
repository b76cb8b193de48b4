package spotify

import (
	"context"
	"log/slog"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultTokenURL = "https://accounts.spotify.com/api/token"

// Broker obtains short-lived bearer tokens via the client-credentials grant
// and caches them until their declared expiry; the first use after expiry
// refreshes synchronously. A broker built without credentials, or one whose
// exchange fails, yields no token rather than an error: callers skip Spotify
// enrichment instead of failing the request.
type Broker struct {
	source oauth2.TokenSource
	logger *slog.Logger
}

// NewBroker wires the client-credentials flow. tokenURL "" means the
// production Spotify accounts endpoint.
func NewBroker(clientID, clientSecret, tokenURL string, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	if clientID == "" || clientSecret == "" {
		logger.Warn("spotify credentials not configured; catalog enrichment disabled")
		return &Broker{logger: logger}
	}
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return &Broker{
		source: cfg.TokenSource(context.Background()),
		logger: logger,
	}
}

// Token returns a valid bearer token, or ok=false when none can be obtained.
func (b *Broker) Token(ctx context.Context) (string, bool) {
	if b.source == nil {
		return "", false
	}
	tok, err := b.source.Token()
	if err != nil {
		b.logger.Warn("spotify token exchange failed", "error", err)
		return "", false
	}
	return tok.AccessToken, true
}
