package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of permission levels. Anything outside the set
// fails Valid() and never passes an allow-list check.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

// LoginType records how the account authenticates.
type LoginType string

const (
	LoginCredentials LoginType = "credentials"
	LoginGoogle      LoginType = "google"
	LoginGithub      LoginType = "github"
)

func (t LoginType) Valid() bool {
	switch t {
	case LoginCredentials, LoginGoogle, LoginGithub:
		return true
	}
	return false
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username"      json:"username"`
	Email        string             `bson:"email"         json:"email"`
	Fullname     string             `bson:"fullname"      json:"fullname"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Role         Role               `bson:"role"          json:"role"`
	LoginType    LoginType          `bson:"login_type"    json:"login_type"`
	Verified     bool               `bson:"verified"      json:"verified"`

	// Digest-at-rest token metadata. A token and its expiry are always
	// set or cleared together.
	VerifyTokenHash   string     `bson:"verify_token_hash,omitempty"   json:"-"`
	VerifyTokenExpiry *time.Time `bson:"verify_token_expiry,omitempty" json:"-"`
	ResetTokenHash    string     `bson:"reset_token_hash,omitempty"    json:"-"`
	ResetTokenExpiry  *time.Time `bson:"reset_token_expiry,omitempty"  json:"-"`

	// sha256 of the most recently issued refresh JWT; one active
	// session per user, revoked by overwrite.
	RefreshTokenHash string `bson:"refresh_token_hash,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NormalizeIdentity lowercases and trims a username or email so that
// uniqueness and lookups are case-insensitive.
func NormalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
