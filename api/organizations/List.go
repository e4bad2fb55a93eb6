package organizations

import (
	"encoding/json"
	"net/http"

	"backend/database"
	"backend/server/util"
)

type ListedOrganization struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// List returns the organizations the current user belongs to.
//
//	@Summary      List organizations
//	@Description  List the organizations the current user is a member of, with their role
//	@Tags         organizations
//	@Accept       json
//	@Produce      json
//	@Success      200 {array} ListedOrganization "Organizations"
//	@Failure      400 {string} string "Unable to get database or user"
//	@Router       /api/v1/organizations/list [get]
func (h *OrganizationsHandler) List(w http.ResponseWriter, r *http.Request) {
	DB, user, err := util.GetDBAndUser(r)
	if err != nil {
		http.Error(w, "Unable to get database or user", http.StatusBadRequest)
		return
	}

	var memberships []database.OrganizationMember
	q := DB.Where("user_id = ?", user.ID).Preload("Organization").Find(&memberships)
	if q.Error != nil {
		http.Error(w, q.Error.Error(), http.StatusInternalServerError)
		return
	}

	listed := make([]ListedOrganization, len(memberships))
	for i, membership := range memberships {
		listed[i] = ListedOrganization{
			UUID: membership.Organization.UUID,
			Name: membership.Organization.Name,
			Role: membership.Role,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listed)
}
