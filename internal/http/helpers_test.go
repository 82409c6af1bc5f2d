package http_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arshitcc/rablo-api/internal/domain"
	api "github.com/arshitcc/rablo-api/internal/http"
	"github.com/arshitcc/rablo-api/internal/queue"
	"github.com/arshitcc/rablo-api/internal/repo"
	"github.com/arshitcc/rablo-api/internal/security"
	"github.com/arshitcc/rablo-api/internal/service"
)

type testEnv struct {
	T      *testing.T
	Store  *repo.Memory
	Issuer *security.TokenIssuer
	Events *queue.Capture
	Router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvRL(t, 0)
}

func newTestEnvRL(t *testing.T, ratePerMin int) *testEnv {
	t.Helper()

	store := repo.NewMemory()
	issuer := security.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	events := queue.NewCapture()
	auth := service.NewAuth(store, issuer, 20*time.Minute, events)

	h := &api.Handler{
		Auth:            auth,
		Products:        service.NewProducts(store),
		Issuer:          issuer,
		Health:          store,
		RateLimitPerMin: ratePerMin,
		SecureCookies:   false,
	}

	gin.SetMode(gin.TestMode)
	return &testEnv{
		T:      t,
		Store:  store,
		Issuer: issuer,
		Events: events,
		Router: api.NewRouter(h),
	}
}

func (e *testEnv) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	e.T.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

// seedAdmin plants an admin account the credentials path cannot create.
func (e *testEnv) seedAdmin(username, email, password string) *domain.User {
	e.T.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		e.T.Fatal(err)
	}
	u := &domain.User{
		Username:     username,
		Email:        email,
		Fullname:     "Admin",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		LoginType:    domain.LoginCredentials,
		Verified:     true,
	}
	if err := e.Store.CreateUser(context.Background(), u); err != nil {
		e.T.Fatal(err)
	}
	return u
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
