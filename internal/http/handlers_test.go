package http_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/arshitcc/rablo-api/internal/queue"
)

type loginData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func decodeLogin(t *testing.T, body []byte) loginData {
	t.Helper()
	var resp struct {
		Success bool      `json:"success"`
		Data    loginData `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("login resp parse: %v; body=%s", err, body)
	}
	if !resp.Success || resp.Data.AccessToken == "" || resp.Data.RefreshToken == "" {
		t.Fatalf("incomplete login response: %s", body)
	}
	return resp.Data
}

func TestSignupLoginLogoutScenario(t *testing.T) {
	env := newTestEnv(t)

	// signup
	w := env.do("POST", "/api/v1/auth/signup",
		`{"username":"alice1","fullname":"Alice A","email":"a@x.com","password":"longpass1"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: %d %s", w.Code, w.Body.String())
	}

	// duplicate email differing only in case
	w = env.do("POST", "/api/v1/auth/signup",
		`{"username":"other","fullname":"Other O","email":"A@X.com","password":"longpass2"}`, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: %d %s", w.Code, w.Body.String())
	}

	// wrong password
	w = env.do("POST", "/api/v1/auth/login", `{"user":"alice1","password":"wrongpass"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d %s", w.Code, w.Body.String())
	}

	// correct password: tokens in body and http-only cookies
	w = env.do("POST", "/api/v1/auth/login", `{"user":"alice1","password":"longpass1"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	lr := decodeLogin(t, w.Body.Bytes())

	cookies := w.Result().Cookies()
	var sawAccess, sawRefresh bool
	for _, ck := range cookies {
		switch ck.Name {
		case "accessToken":
			sawAccess = true
			if !ck.HttpOnly {
				t.Fatal("access cookie not http-only")
			}
		case "refreshToken":
			sawRefresh = true
			if !ck.HttpOnly {
				t.Fatal("refresh cookie not http-only")
			}
		}
	}
	if !sawAccess || !sawRefresh {
		t.Fatalf("session cookies missing: %v", cookies)
	}

	// authenticated endpoint
	w = env.do("GET", "/api/v1/auth/me", "", bearer(lr.AccessToken))
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"username":"alice1"`) {
		t.Fatalf("me body: %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "longpass1") || strings.Contains(w.Body.String(), "password_hash") {
		t.Fatalf("me leaks credentials: %s", w.Body.String())
	}

	// logout
	w = env.do("POST", "/api/v1/auth/logout", "", bearer(lr.AccessToken))
	if w.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", w.Code, w.Body.String())
	}

	// stateless access tokens survive logout until natural expiry
	w = env.do("GET", "/api/v1/auth/me", "", bearer(lr.AccessToken))
	if w.Code != http.StatusOK {
		t.Fatalf("me after logout: %d %s", w.Code, w.Body.String())
	}

	// but the refresh session is gone
	w = env.do("POST", "/api/v1/auth/refresh", `{"refresh":"`+lr.RefreshToken+`"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: %d %s", w.Code, w.Body.String())
	}
}

func TestLogoutAlwaysSucceedsClientSide(t *testing.T) {
	env := newTestEnv(t)
	env.do("POST", "/api/v1/auth/signup",
		`{"username":"alice1","fullname":"Alice A","email":"a@x.com","password":"longpass1"}`, nil)
	w := env.do("POST", "/api/v1/auth/login", `{"user":"alice1","password":"longpass1"}`, nil)
	lr := decodeLogin(t, w.Body.Bytes())

	env.Store.FailWrites = true
	w = env.do("POST", "/api/v1/auth/logout", "", bearer(lr.AccessToken))
	if w.Code != http.StatusOK {
		t.Fatalf("logout with degraded store must still answer 200, got %d %s", w.Code, w.Body.String())
	}
	for _, ck := range w.Result().Cookies() {
		if (ck.Name == "accessToken" || ck.Name == "refreshToken") && ck.MaxAge >= 0 && ck.Value != "" {
			t.Fatalf("cookie %s not cleared", ck.Name)
		}
	}
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.do("POST", "/api/v1/auth/signup",
		`{"username":"alice1","fullname":"Alice A","email":"a@x.com","password":"longpass1"}`, nil)
	w := env.do("POST", "/api/v1/auth/login", `{"user":"alice1","password":"longpass1"}`, nil)
	lr := decodeLogin(t, w.Body.Bytes())

	w = env.do("POST", "/api/v1/auth/refresh", `{"refresh":"`+lr.RefreshToken+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", w.Code, w.Body.String())
	}
	r1 := decodeLogin(t, w.Body.Bytes())

	// the used token is dead
	w = env.do("POST", "/api/v1/auth/refresh", `{"refresh":"`+lr.RefreshToken+`"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("reuse expected 401, got %d %s", w.Code, w.Body.String())
	}

	// the rotated one lives
	w = env.do("POST", "/api/v1/auth/refresh", `{"refresh":"`+r1.RefreshToken+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rotated refresh: %d %s", w.Code, w.Body.String())
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	env := newTestEnv(t)
	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/v1/auth/me"},
		{"GET", "/api/v1/products"},
		{"POST", "/api/v1/products"},
	} {
		w := env.do(tc.method, tc.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without token: %d", tc.method, tc.path, w.Code)
		}
	}

	// garbage bearer
	w := env.do("GET", "/api/v1/auth/me", "", bearer("not.a.jwt"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d", w.Code)
	}
}

func TestRoleGateOnProducts(t *testing.T) {
	env := newTestEnv(t)

	env.do("POST", "/api/v1/auth/signup",
		`{"username":"bob","fullname":"Bob B","email":"b@x.com","password":"longpass1"}`, nil)
	w := env.do("POST", "/api/v1/auth/login", `{"user":"bob","password":"longpass1"}`, nil)
	user := decodeLogin(t, w.Body.Bytes())

	env.seedAdmin("root", "root@x.com", "adminpass1")
	w = env.do("POST", "/api/v1/auth/login", `{"user":"root","password":"adminpass1"}`, nil)
	admin := decodeLogin(t, w.Body.Bytes())

	// user may list but not mutate
	w = env.do("GET", "/api/v1/products", "", bearer(user.AccessToken))
	if w.Code != http.StatusOK {
		t.Fatalf("user list: %d %s", w.Code, w.Body.String())
	}
	w = env.do("POST", "/api/v1/products",
		`{"name":"Mouse","price":25,"company":"Rablo"}`, bearer(user.AccessToken))
	if w.Code != http.StatusForbidden {
		t.Fatalf("user create expected 403, got %d %s", w.Code, w.Body.String())
	}

	// admin full cycle
	w = env.do("POST", "/api/v1/products",
		`{"name":"Mouse","price":25,"company":"Rablo","isFeatured":true,"rating":4.5}`, bearer(admin.AccessToken))
	if w.Code != http.StatusCreated {
		t.Fatalf("admin create: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || created.Data.ID == "" {
		t.Fatalf("create resp: %v %s", err, w.Body.String())
	}

	w = env.do("PUT", "/api/v1/products/"+created.Data.ID,
		`{"price":19.99}`, bearer(admin.AccessToken))
	if w.Code != http.StatusOK {
		t.Fatalf("admin update: %d %s", w.Code, w.Body.String())
	}

	w = env.do("GET", "/api/v1/products/featured", "", bearer(user.AccessToken))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Mouse") {
		t.Fatalf("featured list: %d %s", w.Code, w.Body.String())
	}

	w = env.do("DELETE", "/api/v1/products/"+created.Data.ID, "", bearer(user.AccessToken))
	if w.Code != http.StatusForbidden {
		t.Fatalf("user delete expected 403, got %d", w.Code)
	}
	w = env.do("DELETE", "/api/v1/products/"+created.Data.ID, "", bearer(admin.AccessToken))
	if w.Code != http.StatusOK {
		t.Fatalf("admin delete: %d %s", w.Code, w.Body.String())
	}
	w = env.do("DELETE", "/api/v1/products/"+created.Data.ID, "", bearer(admin.AccessToken))
	if w.Code != http.StatusNotFound {
		t.Fatalf("double delete expected 404, got %d", w.Code)
	}
}

func TestProductListFilters(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin("root", "root@x.com", "adminpass1")
	w := env.do("POST", "/api/v1/auth/login", `{"user":"root","password":"adminpass1"}`, nil)
	admin := decodeLogin(t, w.Body.Bytes())

	for _, body := range []string{
		`{"name":"Keyboard","price":80,"company":"Rablo","rating":5}`,
		`{"name":"Mouse","price":25,"company":"Rablo","isFeatured":true,"rating":4}`,
		`{"name":"Cable","price":5,"company":"Wires Inc","rating":2}`,
	} {
		if w := env.do("POST", "/api/v1/products", body, bearer(admin.AccessToken)); w.Code != http.StatusCreated {
			t.Fatalf("seed product: %d %s", w.Code, w.Body.String())
		}
	}

	names := func(body []byte) []string {
		var resp struct {
			Data []struct {
				Name string `json:"name"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("list parse: %v %s", err, body)
		}
		out := []string{}
		for _, p := range resp.Data {
			out = append(out, p.Name)
		}
		return out
	}

	// sorted by rating desc
	w = env.do("GET", "/api/v1/products", "", bearer(admin.AccessToken))
	got := names(w.Body.Bytes())
	if len(got) != 3 || got[0] != "Keyboard" || got[2] != "Cable" {
		t.Fatalf("default order: %v", got)
	}

	w = env.do("GET", "/api/v1/products?maxPrice=30", "", bearer(admin.AccessToken))
	got = names(w.Body.Bytes())
	if len(got) != 2 || got[0] != "Mouse" {
		t.Fatalf("maxPrice filter: %v", got)
	}

	w = env.do("GET", "/api/v1/products/rating?rating=4", "", bearer(admin.AccessToken))
	if got = names(w.Body.Bytes()); len(got) != 2 {
		t.Fatalf("rating filter: %v", got)
	}

	// pagination: page 2 of size 2 holds the last item
	w = env.do("GET", "/api/v1/products?page=2&offset=2", "", bearer(admin.AccessToken))
	if got = names(w.Body.Bytes()); len(got) != 1 || got[0] != "Cable" {
		t.Fatalf("pagination: %v", got)
	}
}

func TestEmailVerifyAndResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.do("POST", "/api/v1/auth/signup",
		`{"username":"ver","fullname":"V V","email":"ver@x.com","password":"longpass1"}`, nil)

	var verifyToken string
	for _, e := range env.Events.Events() {
		if ev, ok := e.Event.(queue.VerifyRequested); ok {
			verifyToken = ev.Token
		}
	}
	if verifyToken == "" {
		t.Fatal("no verification event published")
	}

	w := env.do("GET", "/api/v1/auth/verify-email?token="+verifyToken, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", w.Code, w.Body.String())
	}
	// one-time
	w = env.do("GET", "/api/v1/auth/verify-email?token="+verifyToken, "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("verify twice: %d %s", w.Code, w.Body.String())
	}

	// forgot → reset
	w = env.do("POST", "/api/v1/auth/forgot-password", `{"email":"ver@x.com"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("forgot: %d %s", w.Code, w.Body.String())
	}
	var resetToken string
	for _, e := range env.Events.Events() {
		if ev, ok := e.Event.(queue.ResetRequested); ok {
			resetToken = ev.Token
		}
	}
	if resetToken == "" {
		t.Fatal("no reset event published")
	}

	w = env.do("POST", "/api/v1/auth/reset-password",
		`{"token":"`+resetToken+`","newPassword":"newlongpass2"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset: %d %s", w.Code, w.Body.String())
	}

	w = env.do("POST", "/api/v1/auth/login", `{"user":"ver","password":"newlongpass2"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login after reset: %d %s", w.Code, w.Body.String())
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []string{
		`{"username":"al","fullname":"A","email":"a@x.com","password":"longpass1"}`,
		`{"username":"alice1","fullname":"","email":"a@x.com","password":"longpass1"}`,
		`{"username":"alice1","fullname":"A","email":"nomail","password":"longpass1"}`,
		`{"username":"alice1","fullname":"A","email":"a@x.com","password":"short"}`,
		`not json`,
	} {
		if w := env.do("POST", "/api/v1/auth/signup", body, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestRateLimitOnLogin(t *testing.T) {
	env := newTestEnvRL(t, 2)
	env.do("POST", "/api/v1/auth/signup",
		`{"username":"alice1","fullname":"Alice A","email":"a@x.com","password":"longpass1"}`, nil)

	// signup consumed its own window; login has a separate one
	for i := 0; i < 2; i++ {
		if w := env.do("POST", "/api/v1/auth/login", `{"user":"alice1","password":"wrongpass"}`, nil); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: %d", i, w.Code)
		}
	}
	if w := env.do("POST", "/api/v1/auth/login", `{"user":"alice1","password":"wrongpass"}`, nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d %s", w.Code, w.Body.String())
	}
}

func TestHealthcheck(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do("GET", "/api/v1/healthcheck", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthcheck: %d", w.Code)
	}
}
