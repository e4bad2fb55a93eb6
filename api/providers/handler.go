package providers

import (
	"net/http"

	"backend/api"
	"backend/database"
	"backend/server/util"
	"backend/vault"

	"gorm.io/gorm"
)

// ProvidersHandler brokers access to connected ad platform credentials:
// the OAuth connect/callback flow, tenant-scoped listing, per-user
// enable/disable preferences and live token reads.
type ProvidersHandler struct {
	Cipher      *vault.TokenCipher
	Registry    *vault.ProviderRegistry
	Refresher   *vault.TokenRefresher
	FrontendURL string
}

// requestScope resolves DB, user and tenant scope for a handler, writing
// the error response itself when something is off.
func requestScope(w http.ResponseWriter, r *http.Request) (*gorm.DB, *database.User, api.Scope, bool) {
	DB, user, err := util.GetDBAndUser(r)
	if err != nil {
		http.Error(w, "Unable to get database or user", http.StatusBadRequest)
		return nil, nil, api.Scope{}, false
	}

	scope, err := api.ResolveScope(DB, user, r)
	if err != nil {
		// Cross-tenant probing gets the same answer as a missing org.
		http.Error(w, "Organization not found", http.StatusNotFound)
		return nil, nil, api.Scope{}, false
	}

	return DB, user, scope, true
}
