package providers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"backend/database"

	"gorm.io/gorm"
)

type ConnectNetworkRequest struct {
	NetworkName string            `json:"network_name"`
	Credentials map[string]string `json:"credentials"`
}

type ListedNetwork struct {
	UUID             string     `json:"uuid"`
	NetworkName      string     `json:"network_name"`
	CredentialFields []string   `json:"credential_fields"`
	IsEnabled        bool       `json:"is_enabled"`
	CreatedAt        time.Time  `json:"created_at"`
	LastVerifiedAt   *time.Time `json:"last_verified_at,omitempty"`
}

// ConnectNetwork stores API-key credentials for a mediation network
// (AppLovin, Unity, ...). Every credential field is encrypted before it
// touches the database.
//
//	@Summary      Connect a mediation network
//	@Description  Store API-key credentials for a mediation network. In organization scope only owners and admins may connect.
//	@Tags         providers
//	@Accept       json
//	@Produce      json
//	@Param        request body ConnectNetworkRequest true "Network credentials"
//	@Param        x-organization-id header string false "Organization UUID; absent means personal scope"
//	@Success      201 {object} ListedNetwork "Stored network credential"
//	@Failure      400 {string} string "Network name and credentials are required"
//	@Failure      403 {string} string "Only organization admins can connect networks"
//	@Router       /api/v1/providers/networks/connect [post]
func (h *ProvidersHandler) ConnectNetwork(w http.ResponseWriter, r *http.Request) {
	DB, user, scope, ok := requestScope(w, r)
	if !ok {
		return
	}

	var data ConnectNetworkRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if data.NetworkName == "" || len(data.Credentials) == 0 {
		http.Error(w, "Network name and credentials are required", http.StatusBadRequest)
		return
	}

	if !scope.CanManage {
		http.Error(w, "Only organization admins can connect networks", http.StatusForbidden)
		return
	}

	encrypted := make(map[string]string, len(data.Credentials))
	for field, value := range data.Credentials {
		encryptedValue, err := h.Cipher.SafeEncrypt(value)
		if err != nil {
			http.Error(w, "Failed to encrypt credentials", http.StatusInternalServerError)
			return
		}
		encrypted[field] = encryptedValue
	}

	credential, err := database.FindApiKeyCredential(DB, user.ID, scope.OrganizationID, data.NetworkName)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		credential = &database.ApiKeyCredential{
			UserID:         user.ID,
			OrganizationID: scope.OrganizationID,
			NetworkName:    data.NetworkName,
			IsEnabled:      true,
		}
	}

	if err := credential.SetCredentialFields(encrypted); err != nil {
		http.Error(w, "Failed to encode credentials", http.StatusInternalServerError)
		return
	}

	if err := DB.Save(credential).Error; err != nil {
		http.Error(w, "Failed to store credentials", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(listedNetwork(credential))
}

// ListNetworks returns the stored mediation network credentials in scope.
// Field values never leave the vault through this endpoint, only the
// field names.
//
//	@Summary      List mediation networks
//	@Description  List stored API-key network credentials in the current tenant scope (field names only, never values)
//	@Tags         providers
//	@Accept       json
//	@Produce      json
//	@Param        x-organization-id header string false "Organization UUID; absent means personal scope"
//	@Success      200 {array} ListedNetwork "Stored networks"
//	@Router       /api/v1/providers/networks/list [get]
func (h *ProvidersHandler) ListNetworks(w http.ResponseWriter, r *http.Request) {
	DB, user, scope, ok := requestScope(w, r)
	if !ok {
		return
	}

	credentials, err := database.ListApiKeyCredentials(DB, user.ID, scope.OrganizationID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	listed := make([]ListedNetwork, len(credentials))
	for i := range credentials {
		listed[i] = listedNetwork(&credentials[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listed)
}

// DisconnectNetwork deletes stored API-key credentials.
//
//	@Summary      Disconnect a mediation network
//	@Description  Delete stored API-key credentials. In organization scope only owners and admins may disconnect.
//	@Tags         providers
//	@Accept       json
//	@Produce      json
//	@Param        network_uuid path string true "Credential UUID"
//	@Param        x-organization-id header string false "Organization UUID; absent means personal scope"
//	@Success      200 {string} string "Network disconnected"
//	@Failure      403 {string} string "Only organization admins can disconnect networks"
//	@Failure      404 {string} string "Network not found"
//	@Router       /api/v1/providers/networks/{network_uuid} [delete]
func (h *ProvidersHandler) DisconnectNetwork(w http.ResponseWriter, r *http.Request) {
	DB, user, scope, ok := requestScope(w, r)
	if !ok {
		return
	}

	credential, err := database.FindApiKeyCredentialByUUID(DB, user.ID, scope.OrganizationID, r.PathValue("network_uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Network not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if !scope.CanManage {
		http.Error(w, "Only organization admins can disconnect networks", http.StatusForbidden)
		return
	}

	if err := DB.Unscoped().Delete(credential).Error; err != nil {
		http.Error(w, "Failed to disconnect network", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Network disconnected"))
}

func listedNetwork(credential *database.ApiKeyCredential) ListedNetwork {
	fields, err := credential.CredentialFields()
	fieldNames := make([]string, 0, len(fields))
	if err == nil {
		for field := range fields {
			fieldNames = append(fieldNames, field)
		}
	}

	return ListedNetwork{
		UUID:             credential.UUID,
		NetworkName:      credential.NetworkName,
		CredentialFields: fieldNames,
		IsEnabled:        credential.IsEnabled,
		CreatedAt:        credential.CreatedAt,
		LastVerifiedAt:   credential.LastVerifiedAt,
	}
}
