package model

import "time"

// User is the signed-in principal as reported by the auth backend.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	RegistrationDate time.Time `json:"registration_date"`
}

// Session is an authenticated session. The zero value means signed out.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether s holds a token.
func (s Session) Active() bool {
	return s.Token != ""
}

// Category is an entry of the fixed document taxonomy.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
