package providers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"backend/database"

	"gorm.io/gorm"
)

type TokenResponse struct {
	ProviderType string     `json:"provider_type"`
	AccessToken  string     `json:"access_token"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Warning      string     `json:"warning,omitempty"`
}

// Token returns a live access token for the caller's provider of the
// given type, refreshing it first when it is about to expire. A failed
// refresh is reported as a warning alongside the stale token rather than
// an error.
//
//	@Summary      Get a live access token
//	@Description  Return the provider access token for the current tenant scope, refreshed on read when stale
//	@Tags         providers
//	@Accept       json
//	@Produce      json
//	@Param        provider_type path string true "Provider type (admob, gam)"
//	@Param        x-organization-id header string false "Organization UUID; absent means personal scope"
//	@Success      200 {object} TokenResponse "Access token"
//	@Failure      404 {string} string "Provider not connected"
//	@Router       /api/v1/providers/{provider_type}/token [get]
func (h *ProvidersHandler) Token(w http.ResponseWriter, r *http.Request) {
	DB, user, scope, ok := requestScope(w, r)
	if !ok {
		return
	}

	providerType := r.PathValue("provider_type")
	if !database.IsValidProviderType(providerType) {
		http.Error(w, "Unsupported provider type", http.StatusBadRequest)
		return
	}

	provider, err := database.FindProviderByType(DB, user.ID, scope.OrganizationID, providerType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Provider not connected", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	accessToken, warning, err := h.Refresher.LiveToken(r.Context(), DB, provider)
	if err != nil {
		http.Error(w, "No token available for this provider", http.StatusNotFound)
		return
	}

	var reloaded database.ConnectedProvider
	if err := DB.First(&reloaded, provider.ID).Error; err == nil {
		provider = &reloaded
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TokenResponse{
		ProviderType: providerType,
		AccessToken:  accessToken,
		ExpiresAt:    provider.TokenExpiresAt,
		Warning:      warning,
	})
}
