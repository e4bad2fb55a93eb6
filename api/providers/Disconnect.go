package providers

import (
	"errors"
	"net/http"

	"backend/database"

	"gorm.io/gorm"
)

// Disconnect removes a connected provider and its stored tokens.
//
//	@Summary      Disconnect a provider
//	@Description  Delete a connected provider. In organization scope only owners and admins may disconnect.
//	@Tags         providers
//	@Accept       json
//	@Produce      json
//	@Param        provider_uuid path string true "Provider UUID"
//	@Param        x-organization-id header string false "Organization UUID; absent means personal scope"
//	@Success      200 {string} string "Provider disconnected"
//	@Failure      403 {string} string "Only organization admins can disconnect providers"
//	@Failure      404 {string} string "Provider not found"
//	@Router       /api/v1/providers/{provider_uuid} [delete]
func (h *ProvidersHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	DB, user, scope, ok := requestScope(w, r)
	if !ok {
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

	if !scope.CanManage {
		http.Error(w, "Only organization admins can disconnect providers", http.StatusForbidden)
		return
	}

	// Hard delete: the encrypted tokens are gone for good. Preference rows
	// referencing this provider may dangle; readers treat them as absent.
	if err := DB.Unscoped().Delete(provider).Error; err != nil {
		http.Error(w, "Failed to disconnect provider", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Provider disconnected"))
}
