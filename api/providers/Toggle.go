package providers

import (
	"encoding/json"
	"errors"
	"net/http"

	"backend/database"

	"gorm.io/gorm"
)

type TogglePreferenceRequest struct {
	IsEnabled bool `json:"is_enabled"`
}

type TogglePreferenceResponse struct {
	UUID             string `json:"uuid"`
	ProviderType     string `json:"provider_type"`
	EffectiveEnabled bool   `json:"effective_enabled"`
}

// Toggle sets the caller's personal enable/disable preference for a
// provider. This is a per-user overlay: it never requires admin rights
// and never mutates the shared tenant-level enabled flag.
//
//	@Summary      Toggle provider preference
//	@Description  Enable or disable a provider for the current user only. Any tenant member may toggle their own preference.
//	@Tags         providers
//	@Accept       json
//	@Produce      json
//	@Param        provider_uuid path string true "Provider UUID"
//	@Param        request body TogglePreferenceRequest true "Preference"
//	@Param        x-organization-id header string false "Organization UUID; absent means personal scope"
//	@Success      200 {object} TogglePreferenceResponse "Updated preference"
//	@Failure      404 {string} string "Provider not found"
//	@Router       /api/v1/providers/{provider_uuid}/toggle [patch]
func (h *ProvidersHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	DB, user, scope, ok := requestScope(w, r)
	if !ok {
		return
	}

	var data TogglePreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	provider, err := database.FindProviderByUUID(DB, user.ID, scope.OrganizationID, r.PathValue("provider_uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Provider not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if _, err := database.SetPreference(DB, provider, user.ID, data.IsEnabled); err != nil {
		http.Error(w, "Failed to update preference", http.StatusInternalServerError)
		return
	}

	effective, err := database.EffectiveEnabled(DB, provider, user.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TogglePreferenceResponse{
		UUID:             provider.UUID,
		ProviderType:     provider.ProviderType,
		EffectiveEnabled: effective,
	})
}
