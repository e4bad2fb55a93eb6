package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupPreferenceTest(t *testing.T) (*gorm.DB, *User, *ConnectedProvider) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	for _, table := range Tabels {
		require.NoError(t, db.AutoMigrate(table))
	}

	user, err := RegisterUser(db, "Tim", "tim@example.com", []byte("password"))
	require.NoError(t, err)

	provider := &ConnectedProvider{
		UserID:       user.ID,
		ProviderType: ProviderTypeAdMob,
		AccessToken:  "token",
		IsEnabled:    true,
	}
	require.NoError(t, db.Create(provider).Error)

	return db, user, provider
}

func TestEffectiveEnabledDefaultsToEnabled(t *testing.T) {
	db, user, provider := setupPreferenceTest(t)

	enabled, err := EffectiveEnabled(db, provider, user.ID)
	require.NoError(t, err)
	assert.True(t, enabled, "no preference row means enabled")
}

func TestEffectiveEnabledUserOverride(t *testing.T) {
	db, user, provider := setupPreferenceTest(t)

	_, err := SetPreference(db, provider, user.ID, false)
	require.NoError(t, err)

	enabled, err := EffectiveEnabled(db, provider, user.ID)
	require.NoError(t, err)
	assert.False(t, enabled)

	// Toggling back updates the existing row instead of duplicating it.
	_, err = SetPreference(db, provider, user.ID, true)
	require.NoError(t, err)

	enabled, err = EffectiveEnabled(db, provider, user.ID)
	require.NoError(t, err)
	assert.True(t, enabled)

	var count int64
	require.NoError(t, db.Model(&UserProviderPreference{}).
		Where("user_id = ? AND provider_id = ?", user.ID, provider.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEffectiveEnabledTenantDisableWins(t *testing.T) {
	db, user, provider := setupPreferenceTest(t)

	// The user's enable preference cannot resurrect a provider the tenant
	// disabled.
	_, err := SetPreference(db, provider, user.ID, true)
	require.NoError(t, err)

	provider.IsEnabled = false
	require.NoError(t, db.Save(provider).Error)

	enabled, err := EffectiveEnabled(db, provider, user.ID)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestPreferenceIsPerUser(t *testing.T) {
	db, user, provider := setupPreferenceTest(t)

	other, err := RegisterUser(db, "Eva", "eva@example.com", []byte("password"))
	require.NoError(t, err)

	_, err = SetPreference(db, provider, user.ID, false)
	require.NoError(t, err)

	enabled, err := EffectiveEnabled(db, provider, other.ID)
	require.NoError(t, err)
	assert.True(t, enabled, "one user's preference must not affect another")
}

func TestTenantScopedQueries(t *testing.T) {
	db, user, personal := setupPreferenceTest(t)

	org, err := CreateOrganization(db, "Acme Ads", user)
	require.NoError(t, err)

	orgProvider := &ConnectedProvider{
		UserID:         user.ID,
		OrganizationID: &org.ID,
		ProviderType:   ProviderTypeGAM,
		AccessToken:    "org-token",
		IsEnabled:      true,
	}
	require.NoError(t, db.Create(orgProvider).Error)

	personalList, err := ListProviders(db, user.ID, nil)
	require.NoError(t, err)
	require.Len(t, personalList, 1)
	assert.Equal(t, personal.UUID, personalList[0].UUID)

	orgList, err := ListProviders(db, user.ID, &org.ID)
	require.NoError(t, err)
	require.Len(t, orgList, 1)
	assert.Equal(t, orgProvider.UUID, orgList[0].UUID)

	// Looking an org provider up through the personal scope misses.
	_, err = FindProviderByUUID(db, user.ID, nil, orgProvider.UUID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpsertConnectedProviderReplacesTokens(t *testing.T) {
	db, user, provider := setupPreferenceTest(t)

	updated := &ConnectedProvider{
		UserID:       user.ID,
		ProviderType: ProviderTypeAdMob,
		AccessToken:  "new-token",
		RefreshToken: "new-refresh",
		PublisherID:  "pub-42",
		IsEnabled:    true,
	}
	require.NoError(t, UpsertConnectedProvider(db, updated))

	var count int64
	require.NoError(t, db.Model(&ConnectedProvider{}).
		Where("user_id = ? AND organization_id IS NULL AND provider_type = ?", user.ID, ProviderTypeAdMob).
		Count(&count).Error)
	assert.Equal(t, int64(1), count, "reconnect must update in place, not duplicate")

	var reloaded ConnectedProvider
	require.NoError(t, db.First(&reloaded, provider.ID).Error)
	assert.Equal(t, "new-token", reloaded.AccessToken)
	assert.Equal(t, "pub-42", reloaded.PublisherID)
}

func TestUpsertConnectedProviderOrgScope(t *testing.T) {
	db, user, _ := setupPreferenceTest(t)

	org, err := CreateOrganization(db, "Acme Ads", user)
	require.NoError(t, err)

	first := &ConnectedProvider{
		UserID:         user.ID,
		OrganizationID: &org.ID,
		ProviderType:   ProviderTypeGAM,
		AccessToken:    "org-token",
		IsEnabled:      true,
	}
	require.NoError(t, UpsertConnectedProvider(db, first))

	second := &ConnectedProvider{
		UserID:         user.ID,
		OrganizationID: &org.ID,
		ProviderType:   ProviderTypeGAM,
		AccessToken:    "org-token-2",
		IsEnabled:      true,
	}
	require.NoError(t, UpsertConnectedProvider(db, second))

	var count int64
	require.NoError(t, db.Model(&ConnectedProvider{}).
		Where("organization_id = ? AND provider_type = ?", org.ID, ProviderTypeGAM).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var reloaded ConnectedProvider
	require.NoError(t, db.First(&reloaded, first.ID).Error)
	assert.Equal(t, "org-token-2", reloaded.AccessToken)
}
