package database

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// ApiKeyCredential holds API-key based mediation network credentials
// (AppLovin, Unity, ...). Credentials is a JSON object mapping field name
// to an encrypted value.
type ApiKeyCredential struct {
	Model
	UserID         uint          `json:"user_id" gorm:"index"`
	User           User          `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	OrganizationID *uint         `json:"-" gorm:"index"`
	Organization   *Organization `json:"-" gorm:"foreignKey:OrganizationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	NetworkName    string        `json:"network_name" gorm:"index"`
	Credentials    []byte        `json:"-"`
	IsEnabled      bool          `json:"is_enabled" gorm:"default:true"`
	LastVerifiedAt *time.Time    `json:"last_verified_at,omitempty"`
}

func (c *ApiKeyCredential) CredentialFields() (map[string]string, error) {
	fields := map[string]string{}
	if len(c.Credentials) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(c.Credentials, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (c *ApiKeyCredential) SetCredentialFields(fields map[string]string) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	c.Credentials = raw
	return nil
}

func ListApiKeyCredentials(DB *gorm.DB, userID uint, organizationID *uint) ([]ApiKeyCredential, error) {
	var credentials []ApiKeyCredential
	q := DB.Scopes(TenantScoped(userID, organizationID)).
		Order("created_at ASC").
		Find(&credentials)
	if q.Error != nil {
		return nil, q.Error
	}
	return credentials, nil
}

func FindApiKeyCredential(DB *gorm.DB, userID uint, organizationID *uint, networkName string) (*ApiKeyCredential, error) {
	var credential ApiKeyCredential
	q := DB.Scopes(TenantScoped(userID, organizationID)).
		Where("network_name = ?", networkName).
		First(&credential)
	if q.Error != nil {
		return nil, q.Error
	}
	return &credential, nil
}

func FindApiKeyCredentialByUUID(DB *gorm.DB, userID uint, organizationID *uint, uuid string) (*ApiKeyCredential, error) {
	var credential ApiKeyCredential
	q := DB.Scopes(TenantScoped(userID, organizationID)).
		Where("uuid = ?", uuid).
		First(&credential)
	if q.Error != nil {
		return nil, q.Error
	}
	return &credential, nil
}
