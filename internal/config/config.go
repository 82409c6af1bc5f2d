package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     string
	MongoURI string
	MongoDB  string

	// Access and refresh tokens use separate secrets so compromise of
	// one does not compromise the other.
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	TempTokenTTL  time.Duration

	RedisAddr       string
	RateLimitPerMin int

	RabbitURL      string
	RabbitExchange string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	OAuthStateSecret   string

	SecureCookies bool
}

// Load reads the process environment once. Secrets and expiries have no
// defaults: a missing or unparseable value aborts startup.
func Load() (Config, error) {
	cfg := Config{
		Port:            getenv("APP_PORT", "8080"),
		MongoURI:        getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getenv("MONGO_DB", "rablo_db"),
		RedisAddr:       getenv("REDIS_ADDR", ""),
		RateLimitPerMin: atoi(getenv("RATE_LIMIT_PER_MIN", "10")),
		RabbitURL:       getenv("RABBIT_URL", ""),
		RabbitExchange:  getenv("RABBIT_EXCHANGE", "auth.events"),

		GoogleClientID:     getenv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getenv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getenv("GOOGLE_REDIRECT_URI", ""),
		OAuthStateSecret:   getenv("OAUTH_STATE_SECRET", ""),

		SecureCookies: getenv("SECURE_COOKIES", "true") == "true",
	}

	var err error
	if cfg.AccessSecret, err = required("ACCESS_TOKEN_SECRET"); err != nil {
		return Config{}, err
	}
	if cfg.RefreshSecret, err = required("REFRESH_TOKEN_SECRET"); err != nil {
		return Config{}, err
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return Config{}, fmt.Errorf("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if cfg.AccessTTL, err = duration("ACCESS_TOKEN_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = duration("REFRESH_TOKEN_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.TempTokenTTL, err = duration("TEMP_TOKEN_TTL"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func required(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("config: %s is required", key)
	}
	return v, nil
}

// duration parses a required env var with time.ParseDuration. Expiries
// are typed values, never evaluated config strings.
func duration(key string) (time.Duration, error) {
	v, err := required(key)
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, d)
	}
	return d, nil
}

func atoi(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return 0
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
