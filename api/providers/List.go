package providers

import (
	"encoding/json"
	"net/http"
	"time"

	"backend/database"
)

type ListedProvider struct {
	UUID             string     `json:"uuid"`
	ProviderType     string     `json:"provider_type"`
	PublisherID      string     `json:"publisher_id,omitempty"`
	NetworkCode      string     `json:"network_code,omitempty"`
	AccountName      string     `json:"account_name,omitempty"`
	IsEnabled        bool       `json:"is_enabled"`
	EffectiveEnabled bool       `json:"effective_enabled"`
	CreatedAt        time.Time  `json:"created_at"`
	LastSyncAt       *time.Time `json:"last_sync_at,omitempty"`
}

type ListProvidersResponse struct {
	Providers []ListedProvider `json:"providers"`
	CanManage bool             `json:"can_manage"`
}

// List returns the connected providers in the current tenant scope.
// Providers the user has disabled for themselves stay visible with
// effective_enabled=false so they can be re-enabled.
//
//	@Summary      List connected providers
//	@Description  List connected ad platform providers in the current tenant scope, annotated with the caller's effective enabled state
//	@Tags         providers
//	@Accept       json
//	@Produce      json
//	@Param        x-organization-id header string false "Organization UUID; absent means personal scope"
//	@Success      200 {object} ListProvidersResponse "Providers in scope"
//	@Failure      404 {string} string "Organization not found"
//	@Router       /api/v1/providers/list [get]
func (h *ProvidersHandler) List(w http.ResponseWriter, r *http.Request) {
	DB, user, scope, ok := requestScope(w, r)
	if !ok {
		return
	}

	providers, err := database.ListProviders(DB, user.ID, scope.OrganizationID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	listed := make([]ListedProvider, len(providers))
	for i := range providers {
		effective, err := database.EffectiveEnabled(DB, &providers[i], user.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		listed[i] = ListedProvider{
			UUID:             providers[i].UUID,
			ProviderType:     providers[i].ProviderType,
			PublisherID:      providers[i].PublisherID,
			NetworkCode:      providers[i].NetworkCode,
			AccountName:      providers[i].AccountName,
			IsEnabled:        providers[i].IsEnabled,
			EffectiveEnabled: effective,
			CreatedAt:        providers[i].CreatedAt,
			LastSyncAt:       providers[i].LastSyncAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListProvidersResponse{
		Providers: listed,
		CanManage: scope.CanManage,
	})
}
