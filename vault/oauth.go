package vault

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"backend/database"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	exchangeTimeout = 15 * time.Second
	identityTimeout = 10 * time.Second
)

// ProviderSpec describes one connectable ad platform: OAuth client
// credentials, endpoints and the identity endpoint used to resolve a
// human-meaningful account identifier after connecting.
type ProviderSpec struct {
	Type         string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	IdentityURL  string
	Scopes       []string
}

// DefaultProviderSpecs returns the Google endpoints for AdMob and
// Ad Manager. Tests substitute their own endpoints.
func DefaultProviderSpecs(admobClientID, admobClientSecret, gamClientID, gamClientSecret string) []ProviderSpec {
	return []ProviderSpec{
		{
			Type:         database.ProviderTypeAdMob,
			ClientID:     admobClientID,
			ClientSecret: admobClientSecret,
			AuthURL:      "https://accounts.google.com/o/oauth2/auth",
			TokenURL:     "https://oauth2.googleapis.com/token",
			IdentityURL:  "https://admob.googleapis.com/v1/accounts",
			Scopes:       []string{"https://www.googleapis.com/auth/admob.readonly"},
		},
		{
			Type:         database.ProviderTypeGAM,
			ClientID:     gamClientID,
			ClientSecret: gamClientSecret,
			AuthURL:      "https://accounts.google.com/o/oauth2/auth",
			TokenURL:     "https://oauth2.googleapis.com/token",
			IdentityURL:  "https://admanager.googleapis.com/v1/networks",
			Scopes:       []string{"https://www.googleapis.com/auth/dfp"},
		},
	}
}

type OAuthProvider struct {
	Type        string
	Config      *oauth2.Config
	IdentityURL string
}

// ProviderRegistry holds the configured OAuth providers. It is assembled
// once at startup from the server configuration and passed explicitly to
// the handlers that need it.
type ProviderRegistry struct {
	providers map[string]*OAuthProvider
}

func NewProviderRegistry(redirectBase string, specs []ProviderSpec) *ProviderRegistry {
	registry := &ProviderRegistry{providers: map[string]*OAuthProvider{}}
	for _, spec := range specs {
		registry.providers[spec.Type] = &OAuthProvider{
			Type: spec.Type,
			Config: &oauth2.Config{
				ClientID:     spec.ClientID,
				ClientSecret: spec.ClientSecret,
				RedirectURL:  fmt.Sprintf("%s/api/v1/providers/callback/%s", redirectBase, spec.Type),
				Scopes:       spec.Scopes,
				Endpoint: oauth2.Endpoint{
					AuthURL:  spec.AuthURL,
					TokenURL: spec.TokenURL,
				},
			},
			IdentityURL: spec.IdentityURL,
		}
	}
	return registry
}

func (r *ProviderRegistry) Get(providerType string) (*OAuthProvider, bool) {
	provider, ok := r.providers[providerType]
	return provider, ok
}

// AuthState travels base64url-encoded in the OAuth `state` parameter. The
// callback leg is an unauthenticated cross-domain redirect, so the caller's
// identity has to ride along opaquely instead of relying on a session.
type AuthState struct {
	Nonce        string `json:"nonce"`
	UserUUID     string `json:"user_uuid"`
	OrgUUID      string `json:"org_uuid,omitempty"`
	ProviderType string `json:"provider_type"`
}

func EncodeState(state AuthState) string {
	if state.Nonce == "" {
		state.Nonce = uuid.New().String()
	}
	raw, _ := json.Marshal(state)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeState rejects anything that does not decode back to a caller
// identity. There is no anonymous fallback.
func DecodeState(raw string) (*AuthState, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid state encoding: %w", err)
	}
	var state AuthState
	if err := json.Unmarshal(decoded, &state); err != nil {
		return nil, fmt.Errorf("invalid state payload: %w", err)
	}
	if state.UserUUID == "" || state.ProviderType == "" {
		return nil, fmt.Errorf("state is missing caller identity")
	}
	return &state, nil
}

// AuthorizationURL builds the provider consent URL. Offline access is
// requested so a refresh token is issued, and consent is forced so Google
// re-issues one on reconnect.
func (p *OAuthProvider) AuthorizationURL(state string) string {
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades the authorization code for tokens using the service's
// own client credentials. Time-bounded, no retry.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	return p.Config.Exchange(ctx, code)
}

// ProviderIdentity is the human-meaningful account identification fetched
// after a successful token exchange.
type ProviderIdentity struct {
	PublisherID string
	NetworkCode string
	AccountName string
}

// FetchIdentity resolves publisher/network identifiers from the provider's
// identity endpoint. This is informational and best-effort: any failure
// degrades to empty identifiers instead of aborting the connect flow.
func (p *OAuthProvider) FetchIdentity(ctx context.Context, accessToken string) ProviderIdentity {
	var identity ProviderIdentity

	ctx, cancel := context.WithTimeout(ctx, identityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", p.IdentityURL, nil)
	if err != nil {
		log.Printf("Failed to build identity request for %s: %v", p.Type, err)
		return identity
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("Identity lookup for %s failed: %v", p.Type, err)
		return identity
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Identity lookup for %s returned status %d", p.Type, resp.StatusCode)
		return identity
	}

	var payload struct {
		Account []struct {
			Name        string `json:"name"`
			PublisherID string `json:"publisherId"`
		} `json:"account"`
		Networks []struct {
			NetworkCode string `json:"networkCode"`
			DisplayName string `json:"displayName"`
		} `json:"networks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Printf("Failed to parse identity response for %s: %v", p.Type, err)
		return identity
	}

	if len(payload.Account) > 0 {
		identity.PublisherID = payload.Account[0].PublisherID
		identity.AccountName = payload.Account[0].Name
	}
	if len(payload.Networks) > 0 {
		identity.NetworkCode = payload.Networks[0].NetworkCode
		identity.AccountName = payload.Networks[0].DisplayName
	}

	return identity
}
