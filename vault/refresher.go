package vault

import (
	"context"
	"fmt"
	"log"
	"time"

	"backend/database"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// RefreshWindow is how close to expiry a token may get before a read
// triggers a refresh.
const RefreshWindow = 5 * time.Minute

const refreshTimeout = 15 * time.Second

// NeedsRefresh reports whether a token should be refreshed before use.
// An unknown expiry counts as stale.
func NeedsRefresh(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return true
	}
	return expiresAt.Sub(now) < RefreshWindow
}

// TokenRefresher implements refresh-on-read: tokens are only ever
// refreshed at the moment they are requested, never by a background job.
type TokenRefresher struct {
	Cipher   *TokenCipher
	Registry *ProviderRegistry
}

// LiveToken returns a decrypted access token for the provider, refreshing
// and re-persisting it first when it is about to expire.
//
// Refresh failure is downgraded to a warning and the previous (possibly
// stale) token is returned: the downstream ad platform API rejecting a
// stale token is a cheaper failure path than the vault going dark. The
// only hard error is a connection with no stored access token at all.
//
// Concurrent reads of the same provider may both refresh; the writes race
// and the last one wins, which costs at most one extra refresh round trip.
func (tr *TokenRefresher) LiveToken(ctx context.Context, DB *gorm.DB, provider *database.ConnectedProvider) (string, string, error) {
	accessToken := tr.Cipher.SafeDecrypt(provider.AccessToken)
	if accessToken == "" {
		return "", "", fmt.Errorf("no access token stored for provider %s", provider.ProviderType)
	}

	if !NeedsRefresh(provider.TokenExpiresAt, time.Now()) {
		return accessToken, "", nil
	}

	refreshToken := tr.Cipher.SafeDecrypt(provider.RefreshToken)
	if refreshToken == "" {
		// Nothing to refresh with. The stale token goes out as-is and the
		// ad platform API will reject it if it is truly expired.
		return accessToken, "", nil
	}

	oauthProvider, ok := tr.Registry.Get(provider.ProviderType)
	if !ok {
		log.Printf("Warning: no OAuth configuration for provider type %s, returning stored token", provider.ProviderType)
		return accessToken, "provider is not configured for refresh", nil
	}

	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	source := oauthProvider.Config.TokenSource(refreshCtx, &oauth2.Token{RefreshToken: refreshToken})
	newToken, err := source.Token()
	if err != nil {
		log.Printf("Token refresh for %s (provider %s) failed: %v", provider.UUID, provider.ProviderType, err)
		return accessToken, "token refresh failed, the returned token may be expired", nil
	}

	if err := tr.persistRefreshedToken(DB, provider, newToken, refreshToken); err != nil {
		log.Printf("Failed to persist refreshed token for %s: %v", provider.UUID, err)
		return newToken.AccessToken, "refreshed token could not be persisted", nil
	}

	return newToken.AccessToken, "", nil
}

func (tr *TokenRefresher) persistRefreshedToken(DB *gorm.DB, provider *database.ConnectedProvider, newToken *oauth2.Token, priorRefreshToken string) error {
	encryptedAccess, err := tr.Cipher.Encrypt(newToken.AccessToken)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"access_token": encryptedAccess,
	}

	// Providers only rotate the refresh token sometimes; keep the prior
	// encrypted one when no new one was issued.
	if newToken.RefreshToken != "" && newToken.RefreshToken != priorRefreshToken {
		encryptedRefresh, err := tr.Cipher.Encrypt(newToken.RefreshToken)
		if err != nil {
			return err
		}
		updates["refresh_token"] = encryptedRefresh
	}

	if newToken.Expiry.IsZero() {
		updates["token_expires_at"] = nil
	} else {
		expiry := newToken.Expiry
		updates["token_expires_at"] = &expiry
	}

	if err := DB.Model(provider).Updates(updates).Error; err != nil {
		return err
	}
	return nil
}
