package vault

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"backend/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(authURL, tokenURL, identityURL string) *ProviderRegistry {
	return NewProviderRegistry("http://localhost:1984", []ProviderSpec{
		{
			Type:         database.ProviderTypeAdMob,
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			AuthURL:      authURL,
			TokenURL:     tokenURL,
			IdentityURL:  identityURL,
			Scopes:       []string{"https://www.googleapis.com/auth/admob.readonly"},
		},
	})
}

func TestEncodeDecodeStateRoundtrip(t *testing.T) {
	state := AuthState{
		UserUUID:     "7a3d3a3e-1111-2222-3333-444455556666",
		OrgUUID:      "8b4e4b4f-aaaa-bbbb-cccc-ddddeeeeffff",
		ProviderType: database.ProviderTypeAdMob,
	}

	encoded := EncodeState(state)
	decoded, err := DecodeState(encoded)
	require.NoError(t, err)

	assert.Equal(t, state.UserUUID, decoded.UserUUID)
	assert.Equal(t, state.OrgUUID, decoded.OrgUUID)
	assert.Equal(t, state.ProviderType, decoded.ProviderType)
	assert.NotEmpty(t, decoded.Nonce, "a CSRF nonce is always embedded")
}

func TestDecodeStateRejectsGarbage(t *testing.T) {
	_, err := DecodeState("not-base64-!!!")
	assert.Error(t, err)

	notJSON := base64.RawURLEncoding.EncodeToString([]byte("not json"))
	_, err = DecodeState(notJSON)
	assert.Error(t, err)

	// Valid JSON without a caller identity never silently defaults to an
	// anonymous identity.
	anonymous := base64.RawURLEncoding.EncodeToString([]byte(`{"nonce":"x"}`))
	_, err = DecodeState(anonymous)
	assert.Error(t, err)
}

func TestAuthorizationURL(t *testing.T) {
	registry := testRegistry("https://auth.example.com/authorize", "https://auth.example.com/token", "")
	provider, ok := registry.Get(database.ProviderTypeAdMob)
	require.True(t, ok)

	state := EncodeState(AuthState{UserUUID: "user-uuid", ProviderType: database.ProviderTypeAdMob})
	authURL := provider.AuthorizationURL(state)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	query := parsed.Query()

	assert.Equal(t, "test-client-id", query.Get("client_id"))
	assert.Equal(t, state, query.Get("state"))
	assert.Equal(t, "offline", query.Get("access_type"))
	assert.Equal(t, "http://localhost:1984/api/v1/providers/callback/admob", query.Get("redirect_uri"))
}

func TestRegistryUnknownType(t *testing.T) {
	registry := testRegistry("https://a", "https://t", "")
	_, ok := registry.Get("unknown-network")
	assert.False(t, ok)
}

func TestExchange(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "test-code", r.Form.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	registry := testRegistry("https://a", tokenServer.URL, "")
	provider, _ := registry.Get(database.ProviderTypeAdMob)

	token, err := provider.Exchange(context.Background(), "test-code")
	require.NoError(t, err)

	assert.Equal(t, "new-access", token.AccessToken)
	assert.Equal(t, "new-refresh", token.RefreshToken)
	assert.False(t, token.Expiry.IsZero())
}

func TestFetchIdentityAdMob(t *testing.T) {
	identityServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer live-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"account":[{"name":"accounts/pub-1234567890","publisherId":"pub-1234567890"}]}`))
	}))
	defer identityServer.Close()

	registry := testRegistry("https://a", "https://t", identityServer.URL)
	provider, _ := registry.Get(database.ProviderTypeAdMob)

	identity := provider.FetchIdentity(context.Background(), "live-token")
	assert.Equal(t, "pub-1234567890", identity.PublisherID)
	assert.Equal(t, "accounts/pub-1234567890", identity.AccountName)
}

func TestFetchIdentityNetworks(t *testing.T) {
	identityServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"networks":[{"networkCode":"22334455","displayName":"Example Network"}]}`))
	}))
	defer identityServer.Close()

	registry := testRegistry("https://a", "https://t", identityServer.URL)
	provider, _ := registry.Get(database.ProviderTypeAdMob)

	identity := provider.FetchIdentity(context.Background(), "live-token")
	assert.Equal(t, "22334455", identity.NetworkCode)
	assert.Equal(t, "Example Network", identity.AccountName)
}

func TestFetchIdentityDegradesOnFailure(t *testing.T) {
	identityServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer identityServer.Close()

	registry := testRegistry("https://a", "https://t", identityServer.URL)
	provider, _ := registry.Get(database.ProviderTypeAdMob)

	identity := provider.FetchIdentity(context.Background(), "live-token")
	assert.Equal(t, ProviderIdentity{}, identity)
}
