package providers

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"backend/database"
	"backend/server/util"
	"backend/vault"

	"gorm.io/gorm"
)

// Callback is the OAuth redirect target. It runs outside the session
// middleware: the browser arrives here from the provider's domain, so the
// caller's identity comes from the opaque state parameter instead. The
// response is always a redirect back to the frontend carrying a success
// or error query parameter, never JSON.
//
//	@Summary      OAuth callback
//	@Description  Completes the OAuth flow: validates state, exchanges the code, fetches account identity and persists the encrypted connection
//	@Tags         providers
//	@Produce      html
//	@Param        provider_type path string true "Provider type (admob, gam)"
//	@Param        code query string false "Authorization code"
//	@Param        state query string false "Opaque state from the connect call"
//	@Param        error query string false "Provider error code"
//	@Success      302 {string} string "Redirect to the frontend"
//	@Router       /api/v1/providers/callback/{provider_type} [get]
func (h *ProvidersHandler) Callback(w http.ResponseWriter, r *http.Request) {
	DB, err := util.GetDB(r)
	if err != nil {
		http.Error(w, "Unable to get database", http.StatusInternalServerError)
		return
	}

	providerType := r.PathValue("provider_type")
	query := r.URL.Query()

	if providerError := query.Get("error"); providerError != "" {
		log.Printf("OAuth consent for %s denied: %s", providerType, providerError)
		h.redirectWithError(w, r, "access_denied")
		return
	}

	state, err := vault.DecodeState(query.Get("state"))
	if err != nil {
		log.Printf("OAuth callback with undecodable state: %v", err)
		h.redirectWithError(w, r, "invalid_state")
		return
	}

	if state.ProviderType != providerType || !database.IsValidProviderType(providerType) {
		h.redirectWithError(w, r, "invalid_state")
		return
	}

	var user database.User
	if err := DB.Where("uuid = ?", state.UserUUID).First(&user).Error; err != nil {
		h.redirectWithError(w, r, "invalid_state")
		return
	}

	organizationID, err := resolveCallbackOrganization(DB, &user, state.OrgUUID)
	if err != nil {
		h.redirectWithError(w, r, "forbidden")
		return
	}

	oauthProvider, found := h.Registry.Get(providerType)
	if !found {
		h.redirectWithError(w, r, "provider_not_configured")
		return
	}

	code := query.Get("code")
	if code == "" {
		h.redirectWithError(w, r, "missing_code")
		return
	}

	token, err := oauthProvider.Exchange(r.Context(), code)
	if err != nil {
		log.Printf("Token exchange for %s failed: %v", providerType, err)
		h.redirectWithError(w, r, "token_exchange_failed")
		return
	}

	// Best-effort: a failed identity lookup degrades to empty identifiers,
	// it never aborts the connect.
	identity := oauthProvider.FetchIdentity(r.Context(), token.AccessToken)

	encryptedAccess, err := h.Cipher.Encrypt(token.AccessToken)
	if err != nil {
		h.redirectWithError(w, r, "persist_failed")
		return
	}
	encryptedRefresh, err := h.Cipher.SafeEncrypt(token.RefreshToken)
	if err != nil {
		h.redirectWithError(w, r, "persist_failed")
		return
	}

	now := time.Now()
	provider := database.ConnectedProvider{
		UserID:         user.ID,
		OrganizationID: organizationID,
		ProviderType:   providerType,
		PublisherID:    identity.PublisherID,
		NetworkCode:    identity.NetworkCode,
		AccountName:    identity.AccountName,
		AccessToken:    encryptedAccess,
		RefreshToken:   encryptedRefresh,
		IsEnabled:      true,
		LastSyncAt:     &now,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		provider.TokenExpiresAt = &expiry
	}

	if err := database.UpsertConnectedProvider(DB, &provider); err != nil {
		log.Printf("Failed to persist %s connection for user %s: %v", providerType, user.UUID, err)
		h.redirectWithError(w, r, "persist_failed")
		return
	}

	http.Redirect(w, r, fmt.Sprintf("%s/settings/providers?success=%s", h.FrontendURL, url.QueryEscape(providerType)), http.StatusFound)
}

// resolveCallbackOrganization re-checks the admin requirement at callback
// time: the state parameter is opaque but replayable, so the membership
// that gated the connect call is verified again before persisting.
func resolveCallbackOrganization(DB *gorm.DB, user *database.User, orgUUID string) (*uint, error) {
	if orgUUID == "" {
		return nil, nil
	}

	var org database.Organization
	if err := DB.Where("uuid = ?", orgUUID).First(&org).Error; err != nil {
		return nil, err
	}

	member, err := database.GetMembership(DB, org.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if !database.IsAdminRole(member.Role) {
		return nil, fmt.Errorf("user %s is not an admin of organization %s", user.UUID, orgUUID)
	}

	return &org.ID, nil
}

func (h *ProvidersHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, fmt.Sprintf("%s/settings/providers?error=%s", h.FrontendURL, url.QueryEscape(code)), http.StatusFound)
}
