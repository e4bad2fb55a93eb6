package user

import (
	"encoding/json"
	"net/http"
	"time"

	"backend/api"
	"backend/database"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// curl -X POST -H "Content-Type: application/json" -d '{"email":"tim+test@example.com","password":"password"}' http://localhost:1984/api/v1/user/login -v

// Login a user
//
//	@Summary      Login a user
//	@Description  Authenticate and login a user with email and password
//	@Tags         user
//	@Accept       json
//	@Produce      json
//	@Param        request body UserLogin true "Login credentials"
//	@Success      200  {string}  string "Login successful"
//	@Failure      400  {string}  string "Invalid email or password"
//	@Failure      401  {string}  string "Invalid email or password"
//	@Router       /api/v1/user/login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var data UserLogin
	var defaultErrorMessage string = "Invalid email or password"

	DB, ok := r.Context().Value("db").(*gorm.DB)
	if !ok {
		http.Error(w, "Unable to get database", http.StatusInternalServerError)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if data.Password == "" {
		http.Error(w, defaultErrorMessage, http.StatusBadRequest)
		return
	}

	expiry := time.Now().Add(24 * time.Hour)
	token, err := LoginUser(DB, data.Email, data.Password, expiry)
	if err != nil {
		http.Error(w, defaultErrorMessage, http.StatusUnauthorized)
		return
	}

	cookie := api.CreateSessionToken(w, r, h.CookieDomain, token, expiry)
	w.Header().Add("Set-Cookie", cookie.String())
	w.Header().Add("Cache-Control", `no-cache="Set-Cookie"`)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Login successful"))
}

func LoginUser(DB *gorm.DB, email string, password string, expiry time.Time) (string, error) {
	var user database.User
	q := DB.First(&user, "email = ?", email)

	if q.Error != nil {
		return "", q.Error
	}

	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return "", err
	}

	return api.CreateSession(DB, &user, expiry)
}
