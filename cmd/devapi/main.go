package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/takmir/kas/internal/clock"
	"github.com/takmir/kas/internal/config"
	"github.com/takmir/kas/internal/database"
	"github.com/takmir/kas/internal/fakeapi"
	fakeStore "github.com/takmir/kas/internal/fakeapi/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	opening, err := decimal.NewFromString(cfg.DevAPI.OpeningBalance)
	if err != nil {
		slog.Error("invalid opening balance", "value", cfg.DevAPI.OpeningBalance, "error", err)
		os.Exit(1)
	}

	shape, err := fakeapi.ParseShape(cfg.DevAPI.Shape)
	if err != nil {
		slog.Error("invalid report shape", "error", err)
		os.Exit(1)
	}

	ledger, err := openLedger(cfg, opening)
	if err != nil {
		slog.Error("failed to open ledger", "error", err)
		os.Exit(1)
	}

	handler := fakeapi.NewHandler(ledger, shape, clock.Real{})
	router := fakeapi.NewRouter(handler, cfg.DevAPI.AllowedOrigins)

	port := fmt.Sprintf(":%d", cfg.DevAPI.Port)
	slog.Info("starting fake finance api", "port", port, "shape", shape, "opening_balance", opening.String())

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// openLedger keeps the ledger in memory unless a database is configured.
func openLedger(cfg *config.Config, opening decimal.Decimal) (*fakeapi.Ledger, error) {
	if cfg.DevAPI.DatabaseURL == "" {
		return fakeapi.NewLedger(opening), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg.DevAPI.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(ctx, db); err != nil {
		return nil, err
	}

	slog.Info("persisting ledger in postgres")

	return fakeapi.OpenLedger(ctx, opening, fakeStore.New(db))
}
