// Package main is the entry point for the NetWarden alerting service.
// It initializes all components and starts the HTTP server, the event
// processing pipeline, and the digest summarizer.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"netwarden/internal/api"
	"netwarden/internal/config"
	"netwarden/internal/cooldown"
	"netwarden/internal/correlate"
	"netwarden/internal/digest"
	"netwarden/internal/domain"
	"netwarden/internal/ingest"
	"netwarden/internal/notify"
	"netwarden/internal/pipeline"
	"netwarden/internal/queue"
	kafkaqueue "netwarden/internal/queue/kafka"
	memoryqueue "netwarden/internal/queue/memory"
	"netwarden/internal/rules"
	"netwarden/internal/store"
	memorystor "netwarden/internal/store/memory"
	postgresstor "netwarden/internal/store/postgres"
	redisstor "netwarden/internal/store/redis"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	// Bootstrap logger for configuration loading
	logger := initLogger(&config.LoggerConfig{Level: "info", Format: "json"})

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}

	logger = initLogger(&cfg.Logger)
	logger.Info("configuration loaded",
		"path", *configPath,
		"storage_mode", cfg.Storage.Mode,
	)

	// Initialize dependencies based on storage mode
	deps, cleanup, err := initDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create context that listens for shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Start pipeline in background
	go func() {
		if err := deps.pipeline.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("pipeline error", "error", err)
			cancel()
		}
	}()

	// Start digest summarizer in background
	go func() {
		if err := deps.summarizer.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("digest summarizer error", "error", err)
			cancel()
		}
	}()

	// Start HTTP server
	go func() {
		if err := deps.server.Start(); err != nil {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	logger.Info("NetWarden started",
		"address", cfg.Server.Address(),
		"storage_mode", cfg.Storage.Mode,
	)

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := deps.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := deps.pipeline.Stop(); err != nil {
		logger.Error("pipeline shutdown error", "error", err)
	}

	logger.Info("NetWarden stopped")
}

// dependencies holds all initialized service dependencies.
type dependencies struct {
	server     *api.Server
	pipeline   *pipeline.Service
	summarizer *digest.Summarizer
}

// initDependencies creates and wires all service dependencies based on config.
// Returns the dependencies and a cleanup function.
func initDependencies(cfg *config.Config, logger *slog.Logger) (*dependencies, func(), error) {
	var (
		ruleRepo     store.RuleRepository
		channelRepo  store.ChannelRepository
		historyRepo  store.HistoryRepository
		incidentRepo store.IncidentRepository
		digestState  store.DigestStateStore
		producer     queue.Producer
		consumer     queue.Consumer
		cleanupFuncs []func()
	)

	if cfg.Storage.UseMemory() {
		// Initialize in-memory implementations
		logger.Info("initializing in-memory storage")

		ruleRepo = memorystor.NewRuleRepository()
		channelRepo = memorystor.NewChannelRepository()
		historyRepo = memorystor.NewHistoryRepository()
		incidentRepo = memorystor.NewIncidentRepository()

		memState := memorystor.NewDigestStateStore()
		digestState = memState
		cleanupFuncs = append(cleanupFuncs, func() { _ = memState.Close() })

		memQueue := memoryqueue.NewQueue(10000)
		producer = memQueue
		consumer = memQueue
		cleanupFuncs = append(cleanupFuncs, func() { _ = memQueue.Close() })
	} else {
		// Initialize real storage implementations
		logger.Info("initializing production storage (Kafka, Redis, PostgreSQL)")

		// Initialize PostgreSQL
		ctx := context.Background()
		db, err := postgresstor.NewDB(ctx, &cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		cleanupFuncs = append(cleanupFuncs, db.Close)

		// Run migrations
		if err := db.RunMigrations(ctx); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations completed")

		ruleRepo = postgresstor.NewRuleRepository(db)
		channelRepo = postgresstor.NewChannelRepository(db)
		historyRepo = postgresstor.NewHistoryRepository(db)
		incidentRepo = postgresstor.NewIncidentRepository(db)

		// Initialize Redis
		redisState, err := redisstor.NewDigestStateStore(&cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		digestState = redisState
		cleanupFuncs = append(cleanupFuncs, func() { _ = redisState.Close() })

		// Initialize Kafka
		kafkaProducer := kafkaqueue.NewProducer(&cfg.Kafka)
		producer = kafkaProducer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaProducer.Close() })

		kafkaConsumer := kafkaqueue.NewConsumer(&cfg.Kafka, logger)
		consumer = kafkaConsumer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaConsumer.Close() })
	}

	// Initialize delivery senders. Webhook-style sinks share one sender;
	// email has no sender yet, so email channels are logged and skipped.
	registry := notify.NewRegistry(logger)
	webhookSender := notify.NewWebhookSender(cfg.Notify.WebhookTimeout)
	registry.Register(domain.ChannelTypeWebhook, webhookSender)
	registry.Register(domain.ChannelTypeSlack, webhookSender)
	registry.Register(domain.ChannelTypeDiscord, webhookSender)
	registry.Register(domain.ChannelTypeTeams, webhookSender)
	registry.Register(domain.ChannelTypeLog, notify.NewLogSender(logger))

	// Initialize evaluation and correlation
	tracker := cooldown.NewTracker()
	evaluator := rules.NewEvaluator(tracker, logger)
	correlator := correlate.NewEngine(incidentRepo, logger)

	// Initialize ingest service
	ingestService := ingest.NewService(producer, logger)

	// Initialize pipeline service
	pipelineService := pipeline.NewService(
		consumer,
		ruleRepo,
		channelRepo,
		historyRepo,
		evaluator,
		correlator,
		tracker,
		registry,
		logger,
	)

	// Initialize digest summarizer
	summarizer := digest.NewSummarizer(channelRepo, historyRepo, digestState, registry, logger)

	// Initialize API handlers
	ruleHandler := api.NewRuleHandler(ruleRepo, logger)
	channelHandler := api.NewChannelHandler(channelRepo, logger)
	historyHandler := api.NewHistoryHandler(historyRepo, logger)
	incidentHandler := api.NewIncidentHandler(incidentRepo, logger)
	ingestHandler := api.NewIngestHandler(ingestService, logger)

	// Initialize HTTP server
	server := api.NewServer(api.ServerDeps{
		Config:          &cfg.Server,
		Logger:          logger,
		RuleHandler:     ruleHandler,
		ChannelHandler:  channelHandler,
		HistoryHandler:  historyHandler,
		IncidentHandler: incidentHandler,
		IngestHandler:   ingestHandler,
	})

	// Build cleanup function
	cleanup := func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}

	return &dependencies{
		server:     server,
		pipeline:   pipelineService,
		summarizer: summarizer,
	}, cleanup, nil
}

// initLogger creates and configures the application logger.
func initLogger(cfg *config.LoggerConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
