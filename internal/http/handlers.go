package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arshitcc/rablo-api/internal/domain"
	"github.com/arshitcc/rablo-api/internal/log"
	"github.com/arshitcc/rablo-api/internal/metrics"
	"github.com/arshitcc/rablo-api/internal/oauth"
	"github.com/arshitcc/rablo-api/internal/repo"
	"github.com/arshitcc/rablo-api/internal/security"
	"github.com/arshitcc/rablo-api/internal/service"
)

// Pinger reports backing-store liveness for the healthcheck.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Auth            *service.Auth
	Products        *service.Products
	Issuer          *security.TokenIssuer
	Health          Pinger
	Redis           *repo.Redis
	RateLimitPerMin int
	Google          *oauth.GoogleOAuth
	SecureCookies   bool
}

type signupReq struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup godoc
// @Summary Register user
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body signupReq true "signup"
// @Success 201 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/auth/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var in signupReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	if msg := validSignup(in); msg != "" {
		fail(c, http.StatusBadRequest, msg)
		return
	}
	u, err := h.Auth.Signup(c.Request.Context(), in.Username, in.Fullname, in.Email, in.Password, reqID(c))
	if err != nil {
		metrics.AuthOps.WithLabelValues("signup", "fail").Inc()
		failErr(c, err)
		return
	}
	metrics.AuthOps.WithLabelValues("signup", "ok").Inc()
	ok(c, http.StatusCreated, "user registered", u)
}

func validSignup(in signupReq) string {
	if len(strings.TrimSpace(in.Username)) < 3 {
		return "username must be at least 3 characters"
	}
	if strings.TrimSpace(in.Fullname) == "" {
		return "fullname is required"
	}
	if !strings.Contains(in.Email, "@") {
		return "invalid email"
	}
	if len(in.Password) < 8 {
		return "password must be at least 8 characters"
	}
	return ""
}

type loginReq struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Login with username or email
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginReq true "login"
// @Success 200 {object} apiResponse
// @Failure 401 {object} apiResponse
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil || in.User == "" || in.Password == "" {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	u, pair, err := h.Auth.Login(c.Request.Context(), in.User, in.Password, reqID(c))
	if err != nil {
		metrics.AuthOps.WithLabelValues("login", "fail").Inc()
		failErr(c, err)
		return
	}
	metrics.AuthOps.WithLabelValues("login", "ok").Inc()
	h.setSessionCookies(c, pair)
	ok(c, http.StatusOK, "logged in", gin.H{
		"user":         u,
		"accessToken":  pair.Access,
		"refreshToken": pair.Refresh,
	})
}

// Logout godoc
// @Summary Logout
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} apiResponse
// @Router /api/v1/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	// cookies die no matter what the store says; discarding the
	// client-held tokens is the part that must not be skipped
	h.clearSessionCookies(c)

	if au, okAuth := identity(c); okAuth {
		if err := h.Auth.Logout(c.Request.Context(), au.ID); err != nil {
			metrics.AuthOps.WithLabelValues("logout", "store_fail").Inc()
			log.WithDD(c.Request.Context(), log.L).Warn("logout bookkeeping failed",
				zap.String("user_id", au.ID), zap.Error(err))
		}
	}
	ok(c, http.StatusOK, "logged out", nil)
}

type refreshReq struct {
	Refresh string `json:"refresh"`
}

// Refresh rotates the refresh credential: cookie first, JSON body as a
// fallback for non-browser clients.
func (h *Handler) Refresh(c *gin.Context) {
	tok, _ := c.Cookie(refreshCookie)
	if tok == "" {
		var in refreshReq
		if err := c.ShouldBindJSON(&in); err == nil {
			tok = in.Refresh
		}
	}
	if tok == "" {
		failErr(c, domain.ErrUnauthenticated)
		return
	}
	pair, err := h.Auth.Refresh(c.Request.Context(), tok)
	if err != nil {
		metrics.AuthOps.WithLabelValues("refresh", "fail").Inc()
		failErr(c, err)
		return
	}
	metrics.AuthOps.WithLabelValues("refresh", "ok").Inc()
	h.setSessionCookies(c, pair)
	ok(c, http.StatusOK, "tokens refreshed", gin.H{
		"accessToken":  pair.Access,
		"refreshToken": pair.Refresh,
	})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	tok := c.Query("token")
	if tok == "" {
		fail(c, http.StatusBadRequest, "token is required")
		return
	}
	u, err := h.Auth.VerifyEmail(c.Request.Context(), tok)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "email verified", gin.H{"email": u.Email})
}

type forgotReq struct {
	Email string `json:"email"`
}

// ForgotPassword answers 200 whether or not the account exists.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var in forgotReq
	if err := c.ShouldBindJSON(&in); err != nil || !strings.Contains(in.Email, "@") {
		fail(c, http.StatusBadRequest, "invalid email")
		return
	}
	if err := h.Auth.ForgotPassword(c.Request.Context(), in.Email, reqID(c)); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "if the account exists, a reset link has been sent", nil)
}

type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var in resetReq
	if err := c.ShouldBindJSON(&in); err != nil || in.Token == "" {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	if len(in.NewPassword) < 8 {
		fail(c, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if err := h.Auth.ResetPassword(c.Request.Context(), in.Token, in.NewPassword, reqID(c)); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "password reset", nil)
}

type changePasswordReq struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ChangePassword(c *gin.Context) {
	au, okAuth := identity(c)
	if !okAuth {
		failErr(c, domain.ErrUnauthenticated)
		return
	}
	var in changePasswordReq
	if err := c.ShouldBindJSON(&in); err != nil || in.OldPassword == "" {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	if len(in.NewPassword) < 8 {
		fail(c, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if err := h.Auth.ChangePassword(c.Request.Context(), au.ID, in.OldPassword, in.NewPassword, reqID(c)); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "password changed", nil)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} apiResponse
// @Failure 401 {object} apiResponse
// @Router /api/v1/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	au, okAuth := identity(c)
	if !okAuth {
		failErr(c, domain.ErrUnauthenticated)
		return
	}
	u, err := h.Auth.ResolveUser(c.Request.Context(), au.ID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "current user", u)
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := h.Health.Ping(c.Request.Context()); err != nil {
		fail(c, http.StatusServiceUnavailable, "degraded: "+err.Error())
		return
	}
	ok(c, http.StatusOK, "ok", nil)
}

func (h *Handler) GoogleRedirect(c *gin.Context) {
	if h.Google == nil {
		fail(c, http.StatusNotFound, "google login not configured")
		return
	}
	state := h.Google.MakeState(reqID(c))
	c.Redirect(http.StatusTemporaryRedirect, h.Google.AuthURL(state))
}

func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.Google == nil {
		fail(c, http.StatusNotFound, "google login not configured")
		return
	}
	if !h.Google.VerifyState(c.Query("state")) {
		fail(c, http.StatusBadRequest, "bad state")
		return
	}
	gu, err := h.Google.ExchangeAndVerify(c.Request.Context(), c.Query("code"))
	if err != nil {
		failErr(c, domain.ErrUnauthenticated)
		return
	}
	u, pair, err := h.Auth.LoginGoogle(c.Request.Context(), gu.Email, gu.Name, reqID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	h.setSessionCookies(c, pair)
	ok(c, http.StatusOK, "logged in", gin.H{"user": u})
}

func (h *Handler) setSessionCookies(c *gin.Context, pair service.TokenPair) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessCookie, pair.Access, int(h.Issuer.AccessTTL().Seconds()), "/", "", h.SecureCookies, true)
	c.SetCookie(refreshCookie, pair.Refresh, int(h.Issuer.RefreshTTL().Seconds()), "/", "", h.SecureCookies, true)
}

func (h *Handler) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessCookie, "", -1, "/", "", h.SecureCookies, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", h.SecureCookies, true)
}
