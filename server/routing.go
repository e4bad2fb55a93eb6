package server

import (
	"fmt"
	"net/http"

	"backend/api/internalapi"
	"backend/api/organizations"
	"backend/api/providers"
	"backend/api/user"
	"backend/vault"
)

func BackendRouting(
	config Config,
) *http.ServeMux {
	mux := http.NewServeMux()
	v1PrivateApis := http.NewServeMux()
	internalApis := http.NewServeMux()

	cipher, err := vault.NewTokenCipher(config.EncryptionSecret)
	if err != nil {
		panic(fmt.Sprintf("Invalid encryption secret: %v", err))
	}
	registry := vault.NewProviderRegistry(config.OAuthRedirectBase, config.providerSpecs())
	refresher := &vault.TokenRefresher{
		Cipher:   cipher,
		Registry: registry,
	}

	userHandler := &user.UserHandler{CookieDomain: config.CookieDomain}
	organizationsHandler := &organizations.OrganizationsHandler{}
	providersHandler := &providers.ProvidersHandler{
		Cipher:      cipher,
		Registry:    registry,
		Refresher:   refresher,
		FrontendURL: config.FrontendURL,
	}
	internalHandler := &internalapi.InternalHandler{
		Cipher:    cipher,
		Refresher: refresher,
	}

	v1PrivateApis.HandleFunc("GET /user/self", userHandler.Self)
	v1PrivateApis.HandleFunc("POST /user/logout", userHandler.Logout)

	v1PrivateApis.HandleFunc("POST /organizations/create", organizationsHandler.Create)
	v1PrivateApis.HandleFunc("GET /organizations/list", organizationsHandler.List)
	v1PrivateApis.HandleFunc("POST /organizations/{org_uuid}/members/add", organizationsHandler.AddMember)

	v1PrivateApis.HandleFunc("GET /providers/list", providersHandler.List)
	v1PrivateApis.HandleFunc("POST /providers/connect/{provider_type}", providersHandler.Connect)
	v1PrivateApis.HandleFunc("DELETE /providers/{provider_uuid}", providersHandler.Disconnect)
	v1PrivateApis.HandleFunc("PATCH /providers/{provider_uuid}/toggle", providersHandler.Toggle)
	v1PrivateApis.HandleFunc("GET /providers/{provider_type}/token", providersHandler.Token)

	v1PrivateApis.HandleFunc("POST /providers/networks/connect", providersHandler.ConnectNetwork)
	v1PrivateApis.HandleFunc("GET /providers/networks/list", providersHandler.ListNetworks)
	v1PrivateApis.HandleFunc("DELETE /providers/networks/{network_uuid}", providersHandler.DisconnectNetwork)

	internalApis.HandleFunc("GET /providers/list", internalHandler.ListEnabled)
	internalApis.HandleFunc("POST /providers/token", internalHandler.Token)

	mux.HandleFunc("POST /api/v1/user/login", userHandler.Login)
	mux.HandleFunc("POST /api/v1/user/register", userHandler.Register)
	// The provider redirects the browser here; there is no session yet.
	mux.HandleFunc("GET /api/v1/providers/callback/{provider_type}", providersHandler.Callback)
	mux.HandleFunc("GET /_health", func(w http.ResponseWriter, r *http.Request) {
		if ServerStatus != "running" {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(fmt.Sprintf("Server is not running, status: %s", ServerStatus)))
		} else {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Server is running"))
		}
	})
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", Logging(AuthMiddleware(v1PrivateApis))))
	mux.Handle("/api/internal/", http.StripPrefix("/api/internal", Logging(ServiceKeyMiddleware(config.InternalAPIKey)(internalApis))))

	return mux
}
