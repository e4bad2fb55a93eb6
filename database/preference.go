package database

import (
	"errors"

	"gorm.io/gorm"
)

// UserProviderPreference is a per-user enable/disable overlay on top of a
// shared organization provider. Absence of a row means "inherit the tenant
// default". Toggling never touches ConnectedProvider.IsEnabled, which is
// reserved for admin-level enable/disable of the underlying connection.
type UserProviderPreference struct {
	Model
	UserID     uint              `json:"user_id" gorm:"index;uniqueIndex:idx_user_provider_pref"`
	User       User              `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ProviderID uint              `json:"provider_id" gorm:"index;uniqueIndex:idx_user_provider_pref"`
	Provider   ConnectedProvider `json:"-" gorm:"foreignKey:ProviderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:NO ACTION;"`
	IsEnabled  bool              `json:"is_enabled"`
}

// EffectiveEnabled folds the tenant-level default with the user's override.
// The provider row must already be scope-filtered by the caller; a
// preference row therefore always refers to a provider in the current
// tenant. No override row means enabled.
func EffectiveEnabled(DB *gorm.DB, provider *ConnectedProvider, userID uint) (bool, error) {
	if !provider.IsEnabled {
		return false, nil
	}

	var preference UserProviderPreference
	q := DB.Where("user_id = ? AND provider_id = ?", userID, provider.ID).First(&preference)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, q.Error
	}
	return preference.IsEnabled, nil
}

// SetPreference creates the user's override row on first toggle and updates
// it afterwards. Preference rows are never auto-deleted.
func SetPreference(DB *gorm.DB, provider *ConnectedProvider, userID uint, enabled bool) (*UserProviderPreference, error) {
	var preference UserProviderPreference
	q := DB.Where("user_id = ? AND provider_id = ?", userID, provider.ID).First(&preference)
	if q.Error != nil {
		if !errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, q.Error
		}
		preference = UserProviderPreference{
			UserID:     userID,
			ProviderID: provider.ID,
			IsEnabled:  enabled,
		}
		if err := DB.Create(&preference).Error; err != nil {
			return nil, err
		}
		return &preference, nil
	}

	preference.IsEnabled = enabled
	if err := DB.Save(&preference).Error; err != nil {
		return nil, err
	}
	return &preference, nil
}
