package queue

import "time"

// Routing keys on the auth topic exchange.
const (
	KeyUserRegistered  = "user.registered"
	KeyUserLoggedIn    = "user.loggedin"
	KeyVerifyRequested = "user.verify_requested"
	KeyResetRequested  = "user.reset_requested"
	KeyPasswordChanged = "user.password_changed"
)

type UserRegistered struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

type UserLoggedIn struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// VerifyRequested carries the raw verification token for one-time mail
// delivery; it is never persisted anywhere.
type VerifyRequested struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResetRequested is the password-reset counterpart of VerifyRequested.
type ResetRequested struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PasswordChanged struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
