package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pricewatch_backend/internal/app/di"
	"pricewatch_backend/internal/feature/prices/usecase"
	"pricewatch_backend/internal/platform/catalog"
	"pricewatch_backend/internal/platform/logger"
	"pricewatch_backend/internal/shared/env"
)

func main() {
	category := flag.String("category", "", "refresh only this category (default: all)")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	logger.New(env.String("LOG_LEVEL", "info"), env.String("LOG_FORMAT", "text"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(env.String("CATALOG_PATH", ""))
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := di.NewObservationStore(di.LoadStoreConfig())
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// One-shot runs keep the quote cache in memory.
	prices := di.NewPrices(di.NewPriceSource(di.NewQuoteCache(nil)), store, cat)

	var reports []usecase.RefreshReport
	if *category != "" {
		var report usecase.RefreshReport
		report, err = prices.Scrape.Refresh(ctx, *category)
		reports = append(reports, report)
	} else {
		reports, err = prices.Scrape.RefreshAll(ctx)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(reports); encErr != nil {
		slog.Error("failed to write report", "error", encErr)
	}

	// Failed products are part of the report; only a failed cycle is fatal.
	if err != nil {
		slog.Error("refresh failed", "error", err)
		closeStore()
		os.Exit(1)
	}
}
