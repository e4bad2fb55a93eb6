package internalapi

import (
	"errors"
	"net/http"

	"backend/database"
	"backend/vault"

	"gorm.io/gorm"
)

// InternalHandler is the service-to-service broker surface. Callers are
// other backend services (the chat agent runtime), authenticated by a
// pre-shared key header instead of a session; user and tenant identity
// are passed explicitly in each request.
type InternalHandler struct {
	Cipher    *vault.TokenCipher
	Refresher *vault.TokenRefresher
}

// resolveSubject turns the explicit user/organization identifiers of an
// internal request into row ids. An organization the user is not a member
// of resolves the same way as one that does not exist.
func resolveSubject(DB *gorm.DB, userUUID string, orgUUID string) (*database.User, *uint, error) {
	if userUUID == "" {
		return nil, nil, errors.New("user_id is required")
	}

	var user database.User
	if err := DB.Where("uuid = ?", userUUID).First(&user).Error; err != nil {
		return nil, nil, err
	}

	if orgUUID == "" {
		return &user, nil, nil
	}

	var org database.Organization
	if err := DB.Where("uuid = ?", orgUUID).First(&org).Error; err != nil {
		return nil, nil, err
	}
	if _, err := database.GetMembership(DB, org.ID, user.ID); err != nil {
		return nil, nil, err
	}

	return &user, &org.ID, nil
}

func notFound(w http.ResponseWriter) {
	http.Error(w, "Not found", http.StatusNotFound)
}
