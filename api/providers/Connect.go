package providers

import (
	"encoding/json"
	"net/http"

	"backend/database"
	"backend/vault"
)

type ConnectProviderResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// Connect starts the OAuth flow for an ad platform. The caller's identity
// rides along in the opaque state parameter because the callback leg is an
// unauthenticated cross-domain redirect.
//
//	@Summary      Connect a provider
//	@Description  Build the provider authorization URL. In organization scope only owners and admins may connect.
//	@Tags         providers
//	@Accept       json
//	@Produce      json
//	@Param        provider_type path string true "Provider type (admob, gam)"
//	@Param        x-organization-id header string false "Organization UUID; absent means personal scope"
//	@Success      200 {object} ConnectProviderResponse "Authorization URL"
//	@Failure      400 {string} string "Unsupported provider type"
//	@Failure      403 {string} string "Only organization admins can connect providers"
//	@Router       /api/v1/providers/connect/{provider_type} [post]
func (h *ProvidersHandler) Connect(w http.ResponseWriter, r *http.Request) {
	_, user, scope, ok := requestScope(w, r)
	if !ok {
		return
	}

	providerType := r.PathValue("provider_type")
	if !database.IsValidProviderType(providerType) {
		http.Error(w, "Unsupported provider type", http.StatusBadRequest)
		return
	}

	if !scope.CanManage {
		http.Error(w, "Only organization admins can connect providers", http.StatusForbidden)
		return
	}

	oauthProvider, found := h.Registry.Get(providerType)
	if !found {
		http.Error(w, "Provider is not configured", http.StatusBadRequest)
		return
	}

	state := vault.EncodeState(vault.AuthState{
		UserUUID:     user.UUID,
		OrgUUID:      scope.OrganizationUUID,
		ProviderType: providerType,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ConnectProviderResponse{
		AuthorizationURL: oauthProvider.AuthorizationURL(state),
		State:            state,
	})
}
