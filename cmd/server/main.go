package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"pricewatch_backend/internal/app/di"
	"pricewatch_backend/internal/app/router"
	"pricewatch_backend/internal/app/scheduler"
	pricehandler "pricewatch_backend/internal/feature/prices/transport/handler"
	"pricewatch_backend/internal/platform/catalog"
	"pricewatch_backend/internal/platform/http/handler"
	"pricewatch_backend/internal/platform/logger"
	infraredis "pricewatch_backend/internal/platform/redis"
	"pricewatch_backend/internal/shared/env"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	logger.New(env.String("LOG_LEVEL", "info"), env.String("LOG_FORMAT", "text"))
	gin.SetMode(env.String("GIN_MODE", gin.ReleaseMode))

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(env.String("CATALOG_PATH", ""))
	if err != nil {
		return err
	}

	// Store
	store, closeStore, err := di.NewObservationStore(di.LoadStoreConfig())
	if err != nil {
		return err
	}
	defer closeStore()

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(infraredis.LoadConfig()); err != nil {
		slog.Warn("Redis unavailable. Using in-memory quote cache.", "error", err)
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("Failed to close Redis client", "error", err)
			}
		}()
	}

	// Usecase
	source := di.NewPriceSource(di.NewQuoteCache(rdb))
	prices := di.NewPrices(source, store, cat)

	// Handler
	healthH := handler.NewHealthHandler(di.NewHealthChecks(store, rdb))
	priceH := pricehandler.NewPriceHandler(prices.Series, prices.Alarms, prices.Scrape)

	r := router.NewRouter(healthH, priceH, splitOrigins(env.String("CORS_ALLOW_ORIGINS", "")))

	go scheduler.Run(ctx, prices.Scrape, scheduler.LoadConfig())

	srv := &http.Server{
		Addr:              ":" + env.String("PORT", "8080"),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr, "categories", len(cat))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
