package database

import (
	"gorm.io/gorm"
)

const (
	OrgRoleOwner  = "owner"
	OrgRoleAdmin  = "admin"
	OrgRoleMember = "member"
)

type Organization struct {
	Model
	Name    string `json:"name"`
	OwnerID uint   `json:"-" gorm:"index"`
	Owner   User   `json:"-" gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:NO ACTION;"`
}

type OrganizationMember struct {
	Model
	OrganizationID uint         `json:"-" gorm:"index;uniqueIndex:idx_org_member"`
	Organization   Organization `json:"-" gorm:"foreignKey:OrganizationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	UserID         uint         `json:"user_id" gorm:"index;uniqueIndex:idx_org_member"`
	User           User         `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Role           string       `json:"role" gorm:"default:'member'"`
}

// IsAdminRole reports whether a membership role may manage shared
// organization credentials.
func IsAdminRole(role string) bool {
	return role == OrgRoleOwner || role == OrgRoleAdmin
}

func CreateOrganization(DB *gorm.DB, name string, owner *User) (*Organization, error) {
	org := Organization{
		Name:    name,
		OwnerID: owner.ID,
	}

	if err := DB.Create(&org).Error; err != nil {
		return nil, err
	}

	member := OrganizationMember{
		OrganizationID: org.ID,
		UserID:         owner.ID,
		Role:           OrgRoleOwner,
	}

	if err := DB.Create(&member).Error; err != nil {
		return nil, err
	}

	return &org, nil
}

// GetMembership returns the caller's membership row for an organization,
// or gorm.ErrRecordNotFound if the user is not a member.
func GetMembership(DB *gorm.DB, organizationID uint, userID uint) (*OrganizationMember, error) {
	var member OrganizationMember
	q := DB.Where("organization_id = ? AND user_id = ?", organizationID, userID).First(&member)
	if q.Error != nil {
		return nil, q.Error
	}
	return &member, nil
}
