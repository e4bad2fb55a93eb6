package api

import (
	"errors"
	"net/http"

	"backend/database"

	"gorm.io/gorm"
)

// OrganizationHeader selects the tenant for user-facing requests. Absence
// means personal scope.
const OrganizationHeader = "x-organization-id"

var ErrNotAMember = errors.New("not a member of this organization")

// Scope is the resolved tenant for one request: either personal
// (OrganizationID nil) or one specific organization. CanManage reports
// whether the caller may mutate shared credentials in this scope; in
// personal scope that is always true, in organization scope only for
// owners and admins.
type Scope struct {
	OrganizationID   *uint
	OrganizationUUID string
	CanManage        bool
}

func (s Scope) IsPersonal() bool {
	return s.OrganizationID == nil
}

// ResolveScope derives the request's tenant scope from the organization
// header. It is a pure function of the caller and the header value: a
// non-member asking for an organization is rejected without revealing
// whether the organization exists.
func ResolveScope(DB *gorm.DB, user *database.User, r *http.Request) (Scope, error) {
	orgUUID := r.Header.Get(OrganizationHeader)
	if orgUUID == "" {
		return Scope{CanManage: true}, nil
	}

	var org database.Organization
	if err := DB.Where("uuid = ?", orgUUID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Scope{}, ErrNotAMember
		}
		return Scope{}, err
	}

	member, err := database.GetMembership(DB, org.ID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Scope{}, ErrNotAMember
		}
		return Scope{}, err
	}

	return Scope{
		OrganizationID:   &org.ID,
		OrganizationUUID: org.UUID,
		CanManage:        database.IsAdminRole(member.Role),
	}, nil
}
