package user

// UserHandler handles session bootstrap: register, login, logout, self.
type UserHandler struct {
	CookieDomain string
}
