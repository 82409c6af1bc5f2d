package http

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arshitcc/rablo-api/internal/domain"
	"github.com/arshitcc/rablo-api/internal/log"
	"github.com/arshitcc/rablo-api/internal/metrics"
)

const (
	requestIDKey = "X-Request-ID"
	authUserKey  = "authUser"

	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// AuthUser is the identity the gate attaches for downstream handlers.
type AuthUser struct {
	ID       string
	Username string
	Email    string
	Role     domain.Role
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDKey)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDKey, id)
		c.Next()
	}
}

func reqID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Observe records prometheus metrics and a zap access line per request.
func Observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		start := time.Now()
		metrics.InFlight.Inc()
		c.Next()
		metrics.InFlight.Dec()

		dur := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, status).Inc()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).Observe(dur.Seconds())

		log.WithDD(c.Request.Context(), log.L).Info("http",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", dur),
			zap.String("request_id", reqID(c)),
		)
	}
}

// bearerToken pulls the access credential from the Authorization header
// or the access cookie; the header wins when both are present.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	if v, err := c.Cookie(accessCookie); err == nil {
		return v
	}
	return ""
}

// Authenticate is the authorization gate's first half: verify the access
// token, resolve the user it names and attach the identity to the
// request context. Any token problem collapses to 401.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c)
		if tok == "" {
			metrics.AuthOps.WithLabelValues("authenticate", "missing").Inc()
			failErr(c, domain.ErrUnauthenticated)
			c.Abort()
			return
		}
		claims, err := h.Issuer.ParseAccess(tok)
		if err != nil {
			metrics.AuthOps.WithLabelValues("authenticate", "rejected").Inc()
			failErr(c, err)
			c.Abort()
			return
		}
		u, err := h.Auth.ResolveUser(c.Request.Context(), claims.UID)
		if err != nil {
			metrics.AuthOps.WithLabelValues("authenticate", "unresolved").Inc()
			failErr(c, err)
			c.Abort()
			return
		}
		metrics.AuthOps.WithLabelValues("authenticate", "ok").Inc()
		c.Set(authUserKey, AuthUser{
			ID:       u.ID.Hex(),
			Username: u.Username,
			Email:    u.Email,
			Role:     u.Role,
		})
		c.Next()
	}
}

// RequireRole is the gate's second half: an explicit allow-list checked
// after authentication. No default-allow.
func RequireRole(allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		au, ok := identity(c)
		if !ok {
			failErr(c, domain.ErrUnauthenticated)
			c.Abort()
			return
		}
		for _, r := range allowed {
			if au.Role == r && au.Role.Valid() {
				c.Next()
				return
			}
		}
		metrics.AuthOps.WithLabelValues("authorize", "forbidden").Inc()
		failErr(c, domain.ErrForbidden)
		c.Abort()
	}
}

func identity(c *gin.Context) (AuthUser, bool) {
	v, ok := c.Get(authUserKey)
	if !ok {
		return AuthUser{}, false
	}
	au, ok := v.(AuthUser)
	return au, ok
}

type bucket struct {
	tokens  int
	updated time.Time
}

// localLimiter is the in-process fallback when redis is not configured.
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
}

func newLocalLimiter(rate int, window time.Duration) *localLimiter {
	return &localLimiter{buckets: make(map[string]*bucket), rate: rate, window: window}
}

func (rl *localLimiter) Allow(ip string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[ip]
	if !ok || now.Sub(b.updated) > rl.window {
		rl.buckets[ip] = &bucket{tokens: 1, updated: now}
		return true
	}
	if b.tokens < rl.rate {
		b.tokens++
		b.updated = now
		return true
	}
	return false
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}
	return ip
}

// RateLimit throttles credential endpoints per client IP. Redis-backed
// when configured so the window is shared across instances.
func (h *Handler) RateLimit() gin.HandlerFunc {
	if h.RateLimitPerMin <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	local := newLocalLimiter(h.RateLimitPerMin, time.Minute)
	return func(c *gin.Context) {
		key := clientIP(c) + ":" + c.FullPath()
		allowed := true
		if h.Redis != nil {
			allowed = h.Redis.Allow(c.Request.Context(), key, h.RateLimitPerMin, time.Minute)
		} else {
			allowed = local.Allow(key)
		}
		if !allowed {
			fail(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
