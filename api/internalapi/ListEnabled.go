package internalapi

import (
	"encoding/json"
	"net/http"

	"backend/database"
	"backend/server/util"
)

type EnabledProvider struct {
	UUID         string `json:"uuid"`
	ProviderType string `json:"provider_type"`
	PublisherID  string `json:"publisher_id,omitempty"`
	NetworkCode  string `json:"network_code,omitempty"`
	AccountName  string `json:"account_name,omitempty"`
}

type EnabledNetwork struct {
	UUID        string            `json:"uuid"`
	NetworkName string            `json:"network_name"`
	Credentials map[string]string `json:"credentials"`
}

type ListEnabledResponse struct {
	Providers []EnabledProvider `json:"providers"`
	Networks  []EnabledNetwork  `json:"networks"`
}

// ListEnabled returns the providers a user can actually use right now:
// tenant default folded with the user's own preference. A provider the
// user disabled is filtered out here even though the service key is
// valid; the user-facing list is the surface that still shows it.
//
//	@Summary      List effectively enabled providers (internal)
//	@Description  Service-to-service: list the providers and mediation networks enabled for a user in a tenant scope
//	@Tags         internal
//	@Accept       json
//	@Produce      json
//	@Param        user_id query string true "User UUID"
//	@Param        organization_id query string false "Organization UUID; absent means personal scope"
//	@Success      200 {object} ListEnabledResponse "Enabled providers"
//	@Failure      401 {string} string "Unauthorized"
//	@Failure      404 {string} string "Not found"
//	@Router       /api/internal/providers/list [get]
func (h *InternalHandler) ListEnabled(w http.ResponseWriter, r *http.Request) {
	DB, err := util.GetDB(r)
	if err != nil {
		http.Error(w, "Unable to get database", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	user, organizationID, err := resolveSubject(DB, query.Get("user_id"), query.Get("organization_id"))
	if err != nil {
		notFound(w)
		return
	}

	providers, err := database.ListProviders(DB, user.ID, organizationID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := ListEnabledResponse{
		Providers: []EnabledProvider{},
		Networks:  []EnabledNetwork{},
	}

	for i := range providers {
		enabled, err := database.EffectiveEnabled(DB, &providers[i], user.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !enabled {
			continue
		}
		response.Providers = append(response.Providers, EnabledProvider{
			UUID:         providers[i].UUID,
			ProviderType: providers[i].ProviderType,
			PublisherID:  providers[i].PublisherID,
			NetworkCode:  providers[i].NetworkCode,
			AccountName:  providers[i].AccountName,
		})
	}

	credentials, err := database.ListApiKeyCredentials(DB, user.ID, organizationID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for i := range credentials {
		if !credentials[i].IsEnabled {
			continue
		}
		fields, err := credentials[i].CredentialFields()
		if err != nil {
			continue
		}
		decrypted := make(map[string]string, len(fields))
		for field, value := range fields {
			decrypted[field] = h.Cipher.SafeDecrypt(value)
		}
		response.Networks = append(response.Networks, EnabledNetwork{
			UUID:        credentials[i].UUID,
			NetworkName: credentials[i].NetworkName,
			Credentials: decrypted,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
