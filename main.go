package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"

	"github.com/brianoflondon/v4vapp-hive-pricefeed/apis"
	"github.com/brianoflondon/v4vapp-hive-pricefeed/config"
	"github.com/brianoflondon/v4vapp-hive-pricefeed/feed"
	"github.com/brianoflondon/v4vapp-hive-pricefeed/hive"
	"github.com/brianoflondon/v4vapp-hive-pricefeed/store"
)

// version is stamped at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// A .env file is optional; deployments usually set plain environment
	// variables.
	_ = godotenv.Load()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "pricefeed",
		Level: hclog.Info,
	})

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)

		return 1
	}

	if level := hclog.LevelFromString(cfg.LogLevel); level != hclog.NoLevel {
		logger.SetLevel(level)
	}
	logger.Info("v4vapp hive price feed starting", "version", version, "config", cfg)

	ledger, err := hive.NewClient(cfg.NodeURL, cfg.ChainID, cfg.ActiveKey, logger)
	if err != nil {
		logger.Error("failed to initialise hive client", "error", err)

		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recordStore := store.NewFileStore(cfg.StateFile, logger)

	scheduler := feed.NewScheduler(
		apis.NewV4VApp(cfg.PriceURL, logger),
		feed.NewEngine(cfg.MinDelta, cfg.MaxRecordAge, logger),
		feed.NewPublisher(ledger, recordStore, cfg.WitnessName, logger),
		recordStore,
		cfg.PublishInterval,
		cfg.MaxConsecutiveErrors,
		logger,
	)

	if err := scheduler.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("terminated by operator")

			return 0
		}

		logger.Error("price feed loop terminated", "error", err)

		return 1
	}

	return 0
}
