package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"scriptgen/internal/config"
	"scriptgen/internal/notion"
	"scriptgen/internal/scheduler"
	"scriptgen/internal/thumbnail"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single pass and exit")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.ValidateNotion()
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	svc := thumbnail.NewService(
		notion.New(cfg.NotionClient(), logger),
		thumbnail.NewProber(cfg.Thumbnails.ImageBaseURL, cfg.API.Timeout, logger),
		thumbnail.Config{
			URLProperty:       cfg.Thumbnails.URLProperty,
			ThumbnailProperty: cfg.Thumbnails.ThumbnailProperty,
		},
		logger,
	)

	sched := scheduler.NewScheduler(svc, scheduler.Config{
		Interval:     cfg.Thumbnails.Interval,
		ErrorBackoff: cfg.Sync.ErrorBackoff,
		CycleTimeout: cfg.Sync.CycleTimeout,
		Once:         *once || cfg.Sync.RunOnce,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting thumbnail fetcher",
		"database_id", cfg.Notion.DatabaseID,
		"interval", cfg.Thumbnails.Interval,
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		stop()
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}
