package server

import (
	"backend/vault"
)

// Config is assembled once at startup in cmd/server.go and handed
// explicitly to the server and its handlers. Nothing reads configuration
// ambiently mid-request.
type Config struct {
	Host  string
	Port  int64
	Debug bool
	SSL   bool

	CookieDomain string

	// FrontendURL is where the OAuth callback redirects the browser.
	FrontendURL string

	// EncryptionSecret derives the AES key for stored credentials.
	// Must be at least 32 characters; validated at startup.
	EncryptionSecret string

	// InternalAPIKey authenticates service-to-service calls. An empty
	// value disables the internal surface entirely.
	InternalAPIKey string

	// OAuthRedirectBase is the public base URL of this backend, used to
	// build provider redirect URLs.
	OAuthRedirectBase string

	AdMobClientID     string
	AdMobClientSecret string
	GAMClientID       string
	GAMClientSecret   string

	// ProviderSpecs overrides the default provider endpoints; tests use
	// this to point the OAuth flow at local servers.
	ProviderSpecs []vault.ProviderSpec
}

func (c Config) providerSpecs() []vault.ProviderSpec {
	if c.ProviderSpecs != nil {
		return c.ProviderSpecs
	}
	return vault.DefaultProviderSpecs(c.AdMobClientID, c.AdMobClientSecret, c.GAMClientID, c.GAMClientSecret)
}
