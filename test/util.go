package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"backend/api"
	"backend/api/organizations"
	"backend/api/providers"
	"backend/api/user"
	"backend/database"
	"backend/server"
	"backend/vault"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const testEncryptionSecret = "integration-test-secret-0123456789abcdef"
const testInternalKey = "integration-test-internal-key"

func startTestVaultWithKey(t *testing.T, specs []vault.ProviderSpec, internalKey string) (string, *gorm.DB) {
	t.Helper()

	// A named shared-cache in-memory database so every pooled connection
	// sees the same tables.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db := database.SetupDatabase("sqlite", dsn, "", false)

	config := server.Config{
		Host:              "localhost",
		Port:              1984,
		CookieDomain:      "localhost",
		FrontendURL:       "http://frontend.localhost",
		OAuthRedirectBase: "http://localhost:1984",
		EncryptionSecret:  testEncryptionSecret,
		InternalAPIKey:    internalKey,
		ProviderSpecs:     specs,
	}

	s, _ := server.BackendServer(db, config)
	server.ServerStatus = "running"

	ts := httptest.NewServer(s.Handler)
	t.Cleanup(ts.Close)

	return ts.URL, db
}

func startTestVault(t *testing.T, specs []vault.ProviderSpec) (string, *gorm.DB) {
	t.Helper()
	return startTestVaultWithKey(t, specs, testInternalKey)
}

// testProviderSpecs points both provider types at a local stub so no test
// ever talks to Google.
func testProviderSpecs(oauthHost string) []vault.ProviderSpec {
	specs := []vault.ProviderSpec{}
	for _, providerType := range []string{database.ProviderTypeAdMob, database.ProviderTypeGAM} {
		specs = append(specs, vault.ProviderSpec{
			Type:         providerType,
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			AuthURL:      oauthHost + "/auth",
			TokenURL:     oauthHost + "/token",
			IdentityURL:  oauthHost + "/identity",
			Scopes:       []string{"test-scope"},
		})
	}
	return specs
}

func registerUser(host string, data user.UserRegister) error {
	body := new(bytes.Buffer)
	err := json.NewEncoder(body).Encode(data)
	if err != nil {
		log.Printf("Error encoding data: %v", err)
		return err
	}

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/api/v1/user/register", host), body)
	if err != nil {
		log.Printf("Error creating request: %v", err)
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", host)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Error sending request: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("Error response: %v", resp.Status)
	}

	return nil
}

func loginUser(host string, data user.UserLogin) (error, string) {
	body := new(bytes.Buffer)
	err := json.NewEncoder(body).Encode(data)
	if err != nil {
		log.Printf("Error encoding data: %v", err)
		return err, ""
	}

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/api/v1/user/login", host), body)
	if err != nil {
		log.Printf("Error creating request: %v", err)
		return err, ""
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", host)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Error sending request: %v", err)
		return err, ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Error response: %v", resp.Status), ""
	}

	cookieHeader := resp.Header.Get("Set-Cookie")
	re := regexp.MustCompile(`session_id=([^;]+)`)

	match := re.FindStringSubmatch(cookieHeader)
	if match != nil && len(match) > 1 {
		return nil, match[1]
	}
	return fmt.Errorf("No session cookie in response"), ""
}

// registerAndLogin is the common two-step setup for tests that just need
// an authenticated user.
func registerAndLogin(t *testing.T, host string, email string) string {
	t.Helper()

	err := registerUser(host, user.UserRegister{
		Name:     email,
		Email:    email,
		Password: "password1234",
	})
	if err != nil {
		t.Fatalf("Failed to register %s: %v", email, err)
	}

	err, sessionId := loginUser(host, user.UserLogin{
		Email:    email,
		Password: "password1234",
	})
	if err != nil {
		t.Fatalf("Failed to login %s: %v", email, err)
	}
	return sessionId
}

func getUserInfo(host string, sessionId string) (error, *database.User) {
	req, err := http.NewRequest("GET", fmt.Sprintf("%s/api/v1/user/self", host), nil)
	if err != nil {
		log.Printf("Error creating request: %v", err)
		return err, nil
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", host)
	req.Header.Set("Cookie", fmt.Sprintf("session_id=%s", sessionId))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Error sending request: %v", err)
		return err, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Error response: %v", resp.Status), nil
	}

	var userInfo database.User
	err = json.NewDecoder(resp.Body).Decode(&userInfo)
	if err != nil {
		log.Printf("Error decoding response: %v", err)
		return err, nil
	}

	return nil, &userInfo
}

func createOrganization(host string, sessionId string, name string) (error, *database.Organization) {
	body := new(bytes.Buffer)
	err := json.NewEncoder(body).Encode(organizations.CreateOrganizationRequest{Name: name})
	if err != nil {
		log.Printf("Error encoding data: %v", err)
		return err, nil
	}

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/api/v1/organizations/create", host), body)
	if err != nil {
		log.Printf("Error creating request: %v", err)
		return err, nil
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", host)
	req.Header.Set("Cookie", fmt.Sprintf("session_id=%s", sessionId))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Error sending request: %v", err)
		return err, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("Error response: %v", resp.Status), nil
	}

	var org database.Organization
	err = json.NewDecoder(resp.Body).Decode(&org)
	if err != nil {
		log.Printf("Error decoding response: %v", err)
		return err, nil
	}

	return nil, &org
}

func addOrganizationMember(host string, sessionId string, orgUUID string, data organizations.AddMemberRequest) (error, int) {
	body := new(bytes.Buffer)
	err := json.NewEncoder(body).Encode(data)
	if err != nil {
		log.Printf("Error encoding data: %v", err)
		return err, 0
	}

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/api/v1/organizations/%s/members/add", host, orgUUID), body)
	if err != nil {
		log.Printf("Error creating request: %v", err)
		return err, 0
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", host)
	req.Header.Set("Cookie", fmt.Sprintf("session_id=%s", sessionId))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Error sending request: %v", err)
		return err, 0
	}
	defer resp.Body.Close()

	return nil, resp.StatusCode
}

func listProviders(host string, sessionId string, orgUUID string) (error, *providers.ListProvidersResponse) {
	req, err := http.NewRequest("GET", fmt.Sprintf("%s/api/v1/providers/list", host), nil)
	if err != nil {
		log.Printf("Error creating request: %v", err)
		return err, nil
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", host)
	req.Header.Set("Cookie", fmt.Sprintf("session_id=%s", sessionId))
	if orgUUID != "" {
		req.Header.Set(api.OrganizationHeader, orgUUID)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Error sending request: %v", err)
		return err, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Error response: %v", resp.Status), nil
	}

	var response providers.ListProvidersResponse
	err = json.NewDecoder(resp.Body).Decode(&response)
	if err != nil {
		log.Printf("Error decoding response: %v", err)
		return err, nil
	}

	return nil, &response
}

func connectProvider(host string, sessionId string, orgUUID string, providerType string) (error, int, *providers.ConnectProviderResponse) {
	req, err := http.NewRequest("POST", fmt.Sprintf("%s/api/v1/providers/connect/%s", host, providerType), nil)
	if err != nil {
		log.Printf("Error creating request: %v", err)
		return err, 0, nil
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", host)
	req.Header.Set("Cookie", fmt.Sprintf("session_id=%s", sessionId))
	if orgUUID != "" {
		req.Header.Set(api.OrganizationHeader, orgUUID)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Error sending request: %v", err)
		return err, 0, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var response providers.ConnectProviderResponse
	err = json.NewDecoder(resp.Body).Decode(&response)
	if err != nil {
		log.Printf("Error decoding response: %v", err)
		return err, resp.StatusCode, nil
	}

	return nil, resp.StatusCode, &response
}

// completeCallback performs the OAuth redirect leg with a client that does
// not follow the final redirect, so the Location header can be inspected.
func completeCallback(host string, providerType string, code string, state string) (error, string) {
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	url := fmt.Sprintf("%s/api/v1/providers/callback/%s?code=%s&state=%s", host, providerType, code, state)
	resp, err := client.Get(url)
	if err != nil {
		log.Printf("Error sending request: %v", err)
		return err, ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return fmt.Errorf("Expected redirect, got: %v", resp.Status), ""
	}

	return nil, resp.Header.Get("Location")
}

func toggleProvider(host string, sessionId string, orgUUID string, providerUUID string, enabled bool) (error, *providers.TogglePreferenceResponse) {
	body := new(bytes.Buffer)
	err := json.NewEncoder(body).Encode(providers.TogglePreferenceRequest{IsEnabled: enabled})
	if err != nil {
		log.Printf("Error encoding data: %v", err)
		return err, nil
	}

	req, err := http.NewRequest("PATCH", fmt.Sprintf("%s/api/v1/providers/%s/toggle", host, providerUUID), body)
	if err != nil {
		log.Printf("Error creating request: %v", err)
		return err, nil
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", host)
	req.Header.Set("Cookie", fmt.Sprintf("session_id=%s", sessionId))
	if orgUUID != "" {
		req.Header.Set(api.OrganizationHeader, orgUUID)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Error sending request: %v", err)
		return err, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Error response: %v", resp.Status), nil
	}

	var response providers.TogglePreferenceResponse
	err = json.NewDecoder(resp.Body).Decode(&response)
	if err != nil {
		log.Printf("Error decoding response: %v", err)
		return err, nil
	}

	return nil, &response
}

func getProviderToken(host string, sessionId string, orgUUID string, providerType string) (error, int, *providers.TokenResponse) {
	req, err := http.NewRequest("GET", fmt.Sprintf("%s/api/v1/providers/%s/token", host, providerType), nil)
	if err != nil {
		log.Printf("Error creating request: %v", err)
		return err, 0, nil
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", host)
	req.Header.Set("Cookie", fmt.Sprintf("session_id=%s", sessionId))
	if orgUUID != "" {
		req.Header.Set(api.OrganizationHeader, orgUUID)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Error sending request: %v", err)
		return err, 0, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var response providers.TokenResponse
	err = json.NewDecoder(resp.Body).Decode(&response)
	if err != nil {
		log.Printf("Error decoding response: %v", err)
		return err, resp.StatusCode, nil
	}

	return nil, resp.StatusCode, &response
}

// seedConnectedProvider writes an encrypted provider row directly, the way
// a completed OAuth callback would have.
func seedConnectedProvider(t *testing.T, db *gorm.DB, userID uint, organizationID *uint, providerType string, accessToken string, refreshToken string, expiresAt *time.Time) *database.ConnectedProvider {
	t.Helper()

	cipher, err := vault.NewTokenCipher(testEncryptionSecret)
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}

	encryptedAccess, err := cipher.SafeEncrypt(accessToken)
	if err != nil {
		t.Fatalf("Failed to encrypt access token: %v", err)
	}
	encryptedRefresh, err := cipher.SafeEncrypt(refreshToken)
	if err != nil {
		t.Fatalf("Failed to encrypt refresh token: %v", err)
	}

	provider := &database.ConnectedProvider{
		UserID:         userID,
		OrganizationID: organizationID,
		ProviderType:   providerType,
		AccessToken:    encryptedAccess,
		RefreshToken:   encryptedRefresh,
		TokenExpiresAt: expiresAt,
		IsEnabled:      true,
	}
	if err := db.Create(provider).Error; err != nil {
		t.Fatalf("Failed to seed provider: %v", err)
	}
	return provider
}
