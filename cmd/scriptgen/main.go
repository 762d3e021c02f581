package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"scriptgen/internal/config"
	"scriptgen/internal/llm"
	"scriptgen/internal/notion"
	"scriptgen/internal/publisher"
	"scriptgen/internal/scheduler"
	"scriptgen/internal/service"
	"scriptgen/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single pass and exit")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *once {
		cfg.Sync.RunOnce = true
	}

	logger = setupLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("script generator stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	prompt := llm.DefaultPrompt()
	if cfg.Generator.PromptFile != "" {
		var err error
		prompt, err = llm.LoadPromptFile(cfg.Generator.PromptFile)
		if err != nil {
			return fmt.Errorf("load prompt file: %w", err)
		}
		logger.Info("loaded prompt file", "path", cfg.Generator.PromptFile)
	}

	notionClient := notion.New(cfg.NotionClient(), logger)
	generator := llm.NewScriptGenerator(
		llm.NewOpenAIClient(cfg.OpenAIClient(), logger),
		prompt,
		cfg.ScriptGenerator(),
		logger,
	)

	// The ledger and the publisher are optional.
	var (
		generations service.GenerationStore
		syncState   service.SyncStateStore
		txManager   service.TransactionManager
		events      service.Publisher
	)

	if cfg.Database.Enabled {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("connected to database", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)

		generations = postgres.NewGenerationStore(db)
		syncState = postgres.NewSyncStateStore(db)
		txManager = postgres.NewTransactionManager(db)
	}

	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		events = rabbitMQ
	}

	scriptService := service.NewScriptService(
		notionClient,
		generator,
		generations,
		syncState,
		txManager,
		events,
		logger,
	)

	sched := scheduler.NewScheduler(scriptService, scheduler.Config{
		Interval:     cfg.Sync.Interval,
		ErrorBackoff: cfg.Sync.ErrorBackoff,
		CycleTimeout: cfg.Sync.CycleTimeout,
		Once:         cfg.Sync.RunOnce,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("received shutdown signal, finishing current record")
	}()

	logger.Info("starting script generator",
		"database_id", cfg.Notion.DatabaseID,
		"model", cfg.OpenAI.Model,
		"interval", cfg.Sync.Interval,
		"once", cfg.Sync.RunOnce,
		"ledger", cfg.Database.Enabled,
		"events", cfg.RabbitMQ.Enabled,
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
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

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
