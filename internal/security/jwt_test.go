package security_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arshitcc/rablo-api/internal/domain"
	"github.com/arshitcc/rablo-api/internal/security"
)

func testUser() *domain.User {
	return &domain.User{
		ID:       primitive.NewObjectID(),
		Username: "alice1",
		Email:    "a@x.com",
		Role:     domain.RoleUser,
	}
}

func newIssuer(accessTTL, refreshTTL time.Duration) *security.TokenIssuer {
	return security.NewTokenIssuer("access-secret", "refresh-secret", accessTTL, refreshTTL)
}

func TestAccessRoundTrip(t *testing.T) {
	t.Parallel()
	ti := newIssuer(15*time.Minute, 240*time.Hour)
	u := testUser()

	tok, err := ti.IssueAccess(u)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	c, err := ti.ParseAccess(tok)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if c.UID != u.ID.Hex() || c.Email != u.Email || c.Username != u.Username || c.Role != domain.RoleUser {
		t.Fatalf("claims mismatch: %#v", c)
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	t.Parallel()
	ti := newIssuer(15*time.Minute, 240*time.Hour)
	u := testUser()

	tok, err := ti.IssueRefresh(u)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	c, err := ti.ParseRefresh(tok)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if c.UID != u.ID.Hex() {
		t.Fatalf("uid mismatch: %q", c.UID)
	}
}

func TestSecretsAreSeparate(t *testing.T) {
	t.Parallel()
	ti := newIssuer(time.Hour, time.Hour)
	u := testUser()

	access, _ := ti.IssueAccess(u)
	refresh, _ := ti.IssueRefresh(u)

	if _, err := ti.ParseRefresh(access); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("access token accepted by refresh verifier: %v", err)
	}
	if _, err := ti.ParseAccess(refresh); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("refresh token accepted by access verifier: %v", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	t.Parallel()
	u := testUser()
	other := security.NewTokenIssuer("not-the-secret", "also-not", time.Hour, time.Hour)
	tok, _ := other.IssueAccess(u)

	ti := newIssuer(time.Hour, time.Hour)
	if _, err := ti.ParseAccess(tok); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestMalformedRejected(t *testing.T) {
	t.Parallel()
	ti := newIssuer(time.Hour, time.Hour)
	if _, err := ti.ParseAccess("not.a.jwt"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestOnlyHS256Accepted(t *testing.T) {
	t.Parallel()
	ti := newIssuer(time.Hour, time.Hour)
	u := testUser()

	// token signed with a different method but the correct secret must
	// still be rejected
	c := security.AccessClaims{
		UID: u.ID.Hex(), Email: u.Email, Username: u.Username, Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString([]byte("access-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ti.ParseAccess(tok); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("HS512 token accepted: %v", err)
	}
}

func TestExpiryBoundary(t *testing.T) {
	t.Parallel()
	u := testUser()

	// one second of validity left: accepted
	alive := newIssuer(time.Second, time.Second)
	tok, _ := alive.IssueAccess(u)
	if _, err := alive.ParseAccess(tok); err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}

	// one second past expiry: rejected with the expired class
	dead := newIssuer(-time.Second, -time.Second)
	tok, _ = dead.IssueAccess(u)
	if _, err := dead.ParseAccess(tok); !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	rtok, _ := dead.IssueRefresh(u)
	if _, err := dead.ParseRefresh(rtok); !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken for refresh, got %v", err)
	}
}
