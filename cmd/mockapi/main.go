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

	"storefront/internal/backend"
	"storefront/internal/config"
	"storefront/internal/repository"
)

func main() {
	cfg, err := config.LoadMock()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	srv := backend.New(repository.NewMemoryStore(), backend.Options{
		JWTSecret: cfg.JWTSecret,
		Pricing:   backend.Pricing{DeliveryCharge: cfg.DeliveryCharge, DiscountPercent: cfg.DiscountPercent},
		Logger:    logger,
	})
	seeded, err := srv.Seed(context.Background())
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	logger.Info("seeded", "admin", backend.SeedAdminEmail, "customer", backend.SeedCustomerEmail,
		"password", backend.SeedPassword, "products", len(seeded.Products))

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("mock API listening", "addr", httpServer.Addr)
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
}
