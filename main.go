package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"shiv-telegram/api"
	"shiv-telegram/bot"
	"shiv-telegram/config"
	"shiv-telegram/db"
	"shiv-telegram/services"
	"shiv-telegram/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.Telegram.Token == "" {
		fmt.Fprintln(os.Stderr, "TOKEN not set")
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Check for migrate subcommand
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrate(cfg)
		return
	}

	// Without a configured database the cart and identity live in memory
	// only, which is enough for local runs.
	var store storage.Store
	if cfg.DB.Host != "" {
		if err := db.Init(cfg.DB); err != nil {
			fmt.Fprintln(os.Stderr, "db:", err)
			os.Exit(1)
		}
		defer db.Close()

		if v := strings.TrimSpace(os.Getenv("AUTO_MIGRATE")); v == "1" || strings.EqualFold(v, "true") {
			if err := applyMigrations(context.Background(), false); err != nil {
				fmt.Fprintln(os.Stderr, "migrate:", err)
				os.Exit(1)
			}
		}
		store = storage.NewPostgres(db.Pool)
	} else {
		logger.Warn("DB_HOST not set, using in-memory storage")
		store = storage.NewMemory()
	}

	backend := api.New(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second)
	cart := services.NewCartStore(store, logger)
	identity := services.NewIdentity(store, backend, logger)
	checkout := services.NewCheckout(cart, backend, logger)

	b, err := bot.New(cfg, backend, cart, identity, checkout, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bot:", err)
		os.Exit(1)
	}

	fmt.Println("Bot started.")
	b.Start()
}

func runMigrate(cfg *config.Config) {
	if err := db.Init(cfg.DB); err != nil {
		fmt.Fprintln(os.Stderr, "db:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := applyMigrations(context.Background(), true); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
