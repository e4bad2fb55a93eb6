package database

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ProviderTypeAdMob = "admob"
	ProviderTypeGAM   = "gam"
)

func IsValidProviderType(providerType string) bool {
	return providerType == ProviderTypeAdMob || providerType == ProviderTypeGAM
}

// ConnectedProvider is one OAuth connection to an ad platform account.
// Token fields are stored encrypted (5-segment compact tokens, see vault).
//
// Uniqueness per tenant needs two indexes: the composite one covers
// organization rows, but SQL treats NULL organization_id values as
// distinct, so personal rows get their own partial unique index on
// (user_id, provider_type) WHERE organization_id IS NULL.
type ConnectedProvider struct {
	Model
	UserID         uint          `json:"user_id" gorm:"index;uniqueIndex:idx_provider_tenant_type;uniqueIndex:idx_provider_personal_type,where:organization_id IS NULL"`
	User           User          `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	OrganizationID *uint         `json:"-" gorm:"index;uniqueIndex:idx_provider_tenant_type"`
	Organization   *Organization `json:"-" gorm:"foreignKey:OrganizationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ProviderType   string        `json:"provider_type" gorm:"index;uniqueIndex:idx_provider_tenant_type;uniqueIndex:idx_provider_personal_type,where:organization_id IS NULL"`
	PublisherID    string        `json:"publisher_id"`
	NetworkCode    string        `json:"network_code"`
	AccountName    string        `json:"account_name"`
	AccessToken    string        `json:"-"`
	RefreshToken   string        `json:"-"`
	TokenExpiresAt *time.Time    `json:"token_expires_at,omitempty"`
	IsEnabled      bool          `json:"is_enabled" gorm:"default:true"`
	LastSyncAt     *time.Time    `json:"last_sync_at,omitempty"`
}

// TenantScoped filters to a tenant. A nil organization id means personal
// scope and is matched with an explicit IS NULL, never as a wildcard.
// Organization rows deliberately match on organization_id alone: an org
// credential is shared by every member, not tied to the user who
// connected it.
func TenantScoped(userID uint, organizationID *uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if organizationID == nil {
			return db.Where("user_id = ? AND organization_id IS NULL", userID)
		}
		return db.Where("organization_id = ?", *organizationID)
	}
}

// UpsertConnectedProvider persists a connection atomically: insert, or on
// conflict with the tenant uniqueness index update the token and account
// fields in place. This replaces a find-then-write pattern that could
// duplicate rows under concurrent OAuth callbacks.
//
// The conflict target depends on the scope: org rows conflict on the full
// composite index, personal rows on the partial index (NULL organization_id
// values never conflict with each other, so the composite index alone would
// let personal reconnects pile up duplicate rows).
func UpsertConnectedProvider(DB *gorm.DB, provider *ConnectedProvider) error {
	onConflict := clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "organization_id"},
			{Name: "provider_type"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token",
			"refresh_token",
			"token_expires_at",
			"publisher_id",
			"network_code",
			"account_name",
			"last_sync_at",
			"updated_at",
		}),
	}

	if provider.OrganizationID == nil {
		onConflict.Columns = []clause.Column{
			{Name: "user_id"},
			{Name: "provider_type"},
		}
		onConflict.TargetWhere = clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "organization_id IS NULL"},
		}}
	}

	return DB.Clauses(onConflict).Create(provider).Error
}

func ListProviders(DB *gorm.DB, userID uint, organizationID *uint) ([]ConnectedProvider, error) {
	var providers []ConnectedProvider
	q := DB.Scopes(TenantScoped(userID, organizationID)).
		Order("created_at ASC").
		Find(&providers)
	if q.Error != nil {
		return nil, q.Error
	}
	return providers, nil
}

// FindProviderByUUID looks a provider up inside the caller's current tenant
// scope. A provider that exists in another tenant is reported identically
// to one that does not exist.
func FindProviderByUUID(DB *gorm.DB, userID uint, organizationID *uint, uuid string) (*ConnectedProvider, error) {
	var provider ConnectedProvider
	q := DB.Scopes(TenantScoped(userID, organizationID)).
		Where("uuid = ?", uuid).
		First(&provider)
	if q.Error != nil {
		return nil, q.Error
	}
	return &provider, nil
}

func FindProviderByType(DB *gorm.DB, userID uint, organizationID *uint, providerType string) (*ConnectedProvider, error) {
	var provider ConnectedProvider
	q := DB.Scopes(TenantScoped(userID, organizationID)).
		Where("provider_type = ?", providerType).
		First(&provider)
	if q.Error != nil {
		return nil, q.Error
	}
	return &provider, nil
}
