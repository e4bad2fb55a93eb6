package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"backend/api/internalapi"
	"backend/database"
)

func internalListEnabled(host string, key string, userUUID string, orgUUID string) (error, int, *internalapi.ListEnabledResponse) {
	url := fmt.Sprintf("%s/api/internal/providers/list?user_id=%s", host, userUUID)
	if orgUUID != "" {
		url += "&organization_id=" + orgUUID
	}

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return err, 0, nil
	}
	if key != "" {
		req.Header.Set("x-internal-api-key", key)
	}

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return err, 0, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var response internalapi.ListEnabledResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return err, resp.StatusCode, nil
	}
	return nil, resp.StatusCode, &response
}

func internalToken(host string, key string, data internalapi.InternalTokenRequest) (error, int, *internalapi.InternalTokenResponse) {
	body := new(bytes.Buffer)
	if err := json.NewEncoder(body).Encode(data); err != nil {
		return err, 0, nil
	}

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/api/internal/providers/token", host), body)
	if err != nil {
		return err, 0, nil
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("x-internal-api-key", key)
	}

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return err, 0, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var response internalapi.InternalTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return err, resp.StatusCode, nil
	}
	return nil, resp.StatusCode, &response
}

func TestInternalApiKeyRequired(t *testing.T) {
	host, _ := startTestVault(t, nil)

	// No key, wrong key, almost-right key: all rejected.
	for _, key := range []string{"", "wrong-key", testInternalKey + "x"} {
		err, status, _ := internalListEnabled(host, key, "some-uuid", "")
		if err != nil {
			t.Fatal(err)
		}
		if status != http.StatusUnauthorized {
			t.Errorf("Expected status code 401 for key %q, got %d", key, status)
		}
	}
}

func TestInternalApiDisabledWithoutConfiguredKey(t *testing.T) {
	host, _ := startTestVaultWithKey(t, nil, "")

	// With no configured key even an empty header must not match.
	err, status, _ := internalListEnabled(host, "", "some-uuid", "")
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusUnauthorized {
		t.Errorf("Expected status code 401, got %d", status)
	}
}

func TestDisabledProviderHiddenFromInternalApi(t *testing.T) {
	host, db := startTestVault(t, nil)
	sessionId := registerAndLogin(t, host, "tim@example.com")

	err, userInfo := getUserInfo(host, sessionId)
	if err != nil {
		t.Fatal(err)
	}
	var dbUser database.User
	if err := db.First(&dbUser, "uuid = ?", userInfo.UUID).Error; err != nil {
		t.Fatal(err)
	}

	future := time.Now().Add(time.Hour)
	seeded := seedConnectedProvider(t, db, dbUser.ID, nil, database.ProviderTypeAdMob,
		"access-token", "refresh-token", &future)

	// Enabled by default: visible to the broker.
	err, status, enabled := internalListEnabled(host, testInternalKey, dbUser.UUID, "")
	if err != nil || status != http.StatusOK {
		t.Fatalf("Failed internal list: %v (status %d)", err, status)
	}
	if len(enabled.Providers) != 1 {
		t.Fatalf("Expected one enabled provider, got %d", len(enabled.Providers))
	}

	// The user switches it off for themselves.
	err, toggled := toggleProvider(host, sessionId, "", seeded.UUID, false)
	if err != nil {
		t.Fatalf("Failed to toggle provider: %v", err)
	}
	if toggled.EffectiveEnabled {
		t.Error("Expected effective_enabled=false after disabling")
	}

	// Gone from the broker's view.
	err, status, enabled = internalListEnabled(host, testInternalKey, dbUser.UUID, "")
	if err != nil || status != http.StatusOK {
		t.Fatal("Failed internal list after toggle")
	}
	if len(enabled.Providers) != 0 {
		t.Errorf("Expected no enabled providers, got %d", len(enabled.Providers))
	}

	// A disabled provider looks exactly like an absent one.
	err, status, _ = internalToken(host, testInternalKey, internalapi.InternalTokenRequest{
		UserID:       dbUser.UUID,
		ProviderType: database.ProviderTypeAdMob,
	})
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusNotFound {
		t.Errorf("Expected status code 404 for a disabled provider, got %d", status)
	}

	// Still visible in the user-facing list, flagged as disabled.
	err, userList := listProviders(host, sessionId, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(userList.Providers) != 1 {
		t.Fatalf("Expected the provider in the user list, got %d", len(userList.Providers))
	}
	if userList.Providers[0].EffectiveEnabled {
		t.Error("Expected effective_enabled=false in the user list")
	}
	if !userList.Providers[0].IsEnabled {
		t.Error("Expected the tenant-level flag to stay enabled")
	}

	// Re-enable and the broker sees it again.
	err, _ = toggleProvider(host, sessionId, "", seeded.UUID, true)
	if err != nil {
		t.Fatal(err)
	}
	err, status, tokenResponse := internalToken(host, testInternalKey, internalapi.InternalTokenRequest{
		UserID:       dbUser.UUID,
		ProviderType: database.ProviderTypeAdMob,
	})
	if err != nil || status != http.StatusOK {
		t.Fatalf("Expected token after re-enable, got status %d", status)
	}
	if tokenResponse.AccessToken != "access-token" {
		t.Errorf("Expected plaintext access token, got %q", tokenResponse.AccessToken)
	}
}

func TestInternalListIncludesNetworkCredentials(t *testing.T) {
	host, db := startTestVault(t, nil)
	sessionId := registerAndLogin(t, host, "tim@example.com")

	err, userInfo := getUserInfo(host, sessionId)
	if err != nil {
		t.Fatal(err)
	}
	var dbUser database.User
	if err := db.First(&dbUser, "uuid = ?", userInfo.UUID).Error; err != nil {
		t.Fatal(err)
	}

	// Store network credentials through the user API so they go through
	// the cipher.
	body := new(bytes.Buffer)
	json.NewEncoder(body).Encode(map[string]interface{}{
		"network_name": "applovin",
		"credentials":  map[string]string{"api_key": "very-secret-key"},
	})
	req, _ := http.NewRequest("POST", fmt.Sprintf("%s/api/v1/providers/networks/connect", host), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", fmt.Sprintf("session_id=%s", sessionId))
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status code 201, got %d", resp.StatusCode)
	}

	// The row itself holds only ciphertext.
	var stored database.ApiKeyCredential
	if err := db.First(&stored, "network_name = ?", "applovin").Error; err != nil {
		t.Fatal(err)
	}
	fields, err := stored.CredentialFields()
	if err != nil {
		t.Fatal(err)
	}
	if fields["api_key"] == "very-secret-key" {
		t.Error("Expected the stored credential value to be encrypted")
	}

	// The broker gets the decrypted values.
	err, status, enabled := internalListEnabled(host, testInternalKey, dbUser.UUID, "")
	if err != nil || status != http.StatusOK {
		t.Fatalf("Failed internal list: %v (status %d)", err, status)
	}
	if len(enabled.Networks) != 1 {
		t.Fatalf("Expected one network, got %d", len(enabled.Networks))
	}
	if enabled.Networks[0].Credentials["api_key"] != "very-secret-key" {
		t.Errorf("Expected decrypted credential, got %q", enabled.Networks[0].Credentials["api_key"])
	}
}

func TestInternalApiRejectsNonMemberOrgScope(t *testing.T) {
	host, db := startTestVault(t, nil)
	ownerSession := registerAndLogin(t, host, "owner@example.com")
	registerAndLogin(t, host, "outsider@example.com")

	err, org := createOrganization(host, ownerSession, "Acme Ads")
	if err != nil {
		t.Fatal(err)
	}

	var outsider database.User
	if err := db.First(&outsider, "email = ?", "outsider@example.com").Error; err != nil {
		t.Fatal(err)
	}

	err, status, _ := internalListEnabled(host, testInternalKey, outsider.UUID, org.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusNotFound {
		t.Errorf("Expected status code 404 for non-member org scope, got %d", status)
	}
}
