package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/apiclient"
	"storefront/internal/config"
	httpapi "storefront/internal/http"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"

	_ "storefront/docs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	store := session.NewStore(logger)
	client, err := apiclient.New(cfg.APIBaseURL,
		apiclient.WithTokenSource(store),
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithLogger(logger))
	if err != nil {
		log.Fatalf("api client: %v", err)
	}

	cache, closeCache := profileCache(cfg, logger)
	defer closeCache()

	notes := &service.Recorder{}
	notifier := service.Notifiers{service.LogNotifier{Log: logger}, notes}
	carts := service.NewCartService(client, store, notifier, nil, logger)
	profiles := service.NewProfileService(client, store, cache, notifier, logger,
		service.WithBatchSize(cfg.ProfileBatchSize),
		service.WithBatchRate(cfg.ProfileBatchRate))
	auth := service.NewAuthService(client, store, notifier, logger)

	if cfg.SessionToken != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		if u, err := auth.Resume(ctx, cfg.SessionToken); err != nil {
			logger.Warn("stored session not resumed", "err", err)
		} else {
			logger.Info("session resumed", "user", u.ID, "role", u.Role)
		}
		cancel()
	}

	srv := httpapi.NewServer(httpapi.Services{
		Store:    store,
		Auth:     auth,
		Cart:     carts,
		Checkout: service.NewCheckoutService(client, carts, store, notifier, cfg.PaymentMethod, logger),
		Orders:   service.NewOrderService(client, profiles, store, notifier, logger),
		Profiles: profiles,
		Products: service.NewProductService(client, store, notifier, logger),
		Notes:    notes,
	}, logger)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("HTTP server listening", "addr", httpServer.Addr, "api", client.BaseURL())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	store.Teardown()
}

// profileCache uses Redis when REDIS_ADDR is set and reachable, memory
// otherwise.
func profileCache(cfg *config.Config, logger *slog.Logger) (repository.ProfileCache, func()) {
	if cfg.RedisAddr == "" {
		return repository.NewMemoryProfileCache(cfg.ProfileCacheTTL), func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, profile cache in memory", "addr", cfg.RedisAddr, "err", err)
		_ = rdb.Close()
		return repository.NewMemoryProfileCache(cfg.ProfileCacheTTL), func() {}
	}
	logger.Info("profile cache on redis", "addr", cfg.RedisAddr)
	return repository.NewRedisProfileCache(rdb, "", cfg.ProfileCacheTTL), func() { _ = rdb.Close() }
}
