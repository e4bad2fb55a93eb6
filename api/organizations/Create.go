package organizations

import (
	"encoding/json"
	"net/http"

	"backend/database"
	"backend/server/util"
)

type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

// Create a new organization
//
//	@Summary      Create organization
//	@Description  Create a new organization; the creator becomes its owner
//	@Tags         organizations
//	@Accept       json
//	@Produce      json
//	@Param        request body CreateOrganizationRequest true "Organization data"
//	@Success      201 {object} database.Organization "Created organization"
//	@Failure      400 {string} string "Organization name is required"
//	@Failure      500 {string} string "Internal server error"
//	@Router       /api/v1/organizations/create [post]
func (h *OrganizationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	DB, user, err := util.GetDBAndUser(r)
	if err != nil {
		http.Error(w, "Unable to get database or user", http.StatusBadRequest)
		return
	}

	var data CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if data.Name == "" {
		http.Error(w, "Organization name is required", http.StatusBadRequest)
		return
	}

	org, err := database.CreateOrganization(DB, data.Name, user)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(org)
}
