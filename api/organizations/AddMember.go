package organizations

import (
	"encoding/json"
	"errors"
	"net/http"

	"backend/database"
	"backend/server/util"

	"gorm.io/gorm"
)

type AddMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AddMember adds a user to an organization.
//
//	@Summary      Add organization member
//	@Description  Add a user to an organization by email. Only owners and admins may add members.
//	@Tags         organizations
//	@Accept       json
//	@Produce      json
//	@Param        org_uuid path string true "Organization UUID"
//	@Param        request body AddMemberRequest true "Member data"
//	@Success      201 {object} database.OrganizationMember "Created membership"
//	@Failure      400 {string} string "Invalid role"
//	@Failure      403 {string} string "Only organization admins can add members"
//	@Failure      404 {string} string "Organization not found"
//	@Router       /api/v1/organizations/{org_uuid}/members/add [post]
func (h *OrganizationsHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	DB, user, err := util.GetDBAndUser(r)
	if err != nil {
		http.Error(w, "Unable to get database or user", http.StatusBadRequest)
		return
	}

	var data AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if data.Role == "" {
		data.Role = database.OrgRoleMember
	}
	if data.Role != database.OrgRoleAdmin && data.Role != database.OrgRoleMember {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	var org database.Organization
	if err := DB.Where("uuid = ?", r.PathValue("org_uuid")).First(&org).Error; err != nil {
		http.Error(w, "Organization not found", http.StatusNotFound)
		return
	}

	membership, err := database.GetMembership(DB, org.ID, user.ID)
	if err != nil || !database.IsAdminRole(membership.Role) {
		// A non-member gets the same answer as a member without rights.
		http.Error(w, "Only organization admins can add members", http.StatusForbidden)
		return
	}

	var newMember database.User
	if err := DB.Where("email = ?", data.Email).First(&newMember).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if _, err := database.GetMembership(DB, org.ID, newMember.ID); err == nil {
		http.Error(w, "User is already a member", http.StatusConflict)
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	member := database.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         newMember.ID,
		Role:           data.Role,
	}
	if err := DB.Create(&member).Error; err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(member)
}
