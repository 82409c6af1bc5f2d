package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/arshitcc/rablo-api/internal/config"
	api "github.com/arshitcc/rablo-api/internal/http"
	"github.com/arshitcc/rablo-api/internal/log"
	"github.com/arshitcc/rablo-api/internal/metrics"
	"github.com/arshitcc/rablo-api/internal/oauth"
	"github.com/arshitcc/rablo-api/internal/queue"
	"github.com/arshitcc/rablo-api/internal/repo"
	"github.com/arshitcc/rablo-api/internal/security"
	"github.com/arshitcc/rablo-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("config: %v", err)
	}

	logger, err := log.Init(os.Getenv("APP_ENV") == "production")
	if err != nil {
		stdlog.Fatalf("log init: %v", err)
	}
	defer log.Sync()

	metrics.MustRegister()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Fatal("mongo indexes", zap.Error(err))
	}

	var rds *repo.Redis
	if cfg.RedisAddr != "" {
		rds = repo.NewRedis(cfg.RedisAddr)
		defer rds.Close()
		if err := rds.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, falling back to local rate limiting", zap.Error(err))
			rds = nil
		}
	}

	pub := queue.NewNoop()
	if cfg.RabbitURL != "" {
		p, err := queue.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			logger.Fatal("rabbit connect", zap.Error(err))
		}
		pub = p
	}
	defer pub.Close()

	issuer := security.NewTokenIssuer(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	var google *oauth.GoogleOAuth
	if cfg.GoogleClientID != "" {
		google = oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI, cfg.OAuthStateSecret)
	}

	h := &api.Handler{
		Auth:            service.NewAuth(store, issuer, cfg.TempTokenTTL, pub),
		Products:        service.NewProducts(store),
		Issuer:          issuer,
		Health:          store,
		Redis:           rds,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Google:          google,
		SecureCookies:   cfg.SecureCookies,
	}
	r := api.NewRouter(h)

	srvErr := make(chan error, 1)
	go func() { srvErr <- r.Run(":" + cfg.Port) }()

	logger.Info("rablo-api listening", zap.String("port", cfg.Port))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		logger.Error("server error", zap.Error(err))
	}
}
