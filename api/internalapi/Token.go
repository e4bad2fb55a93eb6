package internalapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"backend/database"
	"backend/server/util"

	"gorm.io/gorm"
)

type InternalTokenRequest struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id,omitempty"`
	ProviderType   string `json:"provider_type"`
}

type InternalTokenResponse struct {
	ProviderType string     `json:"provider_type"`
	AccessToken  string     `json:"access_token"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Warning      string     `json:"warning,omitempty"`
}

// Token returns a live access token on behalf of a user. The preference
// overlay still applies: a provider the user disabled is not handed out
// even to a caller holding a valid service key.
//
//	@Summary      Get a live access token (internal)
//	@Description  Service-to-service: return a refreshed-if-needed access token for a user's provider
//	@Tags         internal
//	@Accept       json
//	@Produce      json
//	@Param        request body InternalTokenRequest true "Token request"
//	@Success      200 {object} InternalTokenResponse "Access token"
//	@Failure      401 {string} string "Unauthorized"
//	@Failure      404 {string} string "Not found"
//	@Router       /api/internal/providers/token [post]
func (h *InternalHandler) Token(w http.ResponseWriter, r *http.Request) {
	DB, err := util.GetDB(r)
	if err != nil {
		http.Error(w, "Unable to get database", http.StatusInternalServerError)
		return
	}

	var data InternalTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if !database.IsValidProviderType(data.ProviderType) {
		http.Error(w, "Unsupported provider type", http.StatusBadRequest)
		return
	}

	user, organizationID, err := resolveSubject(DB, data.UserID, data.OrganizationID)
	if err != nil {
		notFound(w)
		return
	}

	provider, err := database.FindProviderByType(DB, user.ID, organizationID, data.ProviderType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(w)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	enabled, err := database.EffectiveEnabled(DB, provider, user.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !enabled {
		// Disabled looks exactly like absent.
		notFound(w)
		return
	}

	accessToken, warning, err := h.Refresher.LiveToken(r.Context(), DB, provider)
	if err != nil {
		notFound(w)
		return
	}

	var reloaded database.ConnectedProvider
	if err := DB.First(&reloaded, provider.ID).Error; err == nil {
		provider = &reloaded
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(InternalTokenResponse{
		ProviderType: data.ProviderType,
		AccessToken:  accessToken,
		ExpiresAt:    provider.TokenExpiresAt,
		Warning:      warning,
	})
}
