package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arshitcc/rablo-api/internal/domain"
)

// AccessClaims ride on short-lived bearer tokens.
type AccessClaims struct {
	UID      string      `json:"uid"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims carry the user id only.
type RefreshClaims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the two JWT kinds. Secrets and TTLs
// are fixed at construction; issuing is pure apart from the clock.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (ti *TokenIssuer) AccessTTL() time.Duration  { return ti.accessTTL }
func (ti *TokenIssuer) RefreshTTL() time.Duration { return ti.refreshTTL }

func (ti *TokenIssuer) IssueAccess(u *domain.User) (string, error) {
	now := time.Now()
	c := AccessClaims{
		UID: u.ID.Hex(), Email: u.Email, Username: u.Username, Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.accessTTL)),
			Subject:   u.ID.Hex(),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString(ti.accessSecret)
}

func (ti *TokenIssuer) IssueRefresh(u *domain.User) (string, error) {
	now := time.Now()
	c := RefreshClaims{
		UID: u.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.refreshTTL)),
			Subject:   u.ID.Hex(),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString(ti.refreshSecret)
}

// ParseAccess verifies signature and expiry against the access secret.
// Only HS256 is accepted.
func (ti *TokenIssuer) ParseAccess(token string) (*AccessClaims, error) {
	c := &AccessClaims{}
	if err := ti.parse(token, c, ti.accessSecret); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseRefresh verifies against the separate refresh secret.
func (ti *TokenIssuer) ParseRefresh(token string) (*RefreshClaims, error) {
	c := &RefreshClaims{}
	if err := ti.parse(token, c, ti.refreshSecret); err != nil {
		return nil, err
	}
	return c, nil
}

func (ti *TokenIssuer) parse(token string, claims jwt.Claims, secret []byte) error {
	t, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrExpiredToken
	case err != nil:
		return domain.ErrInvalidToken
	case !t.Valid:
		return domain.ErrInvalidToken
	}
	return nil
}
