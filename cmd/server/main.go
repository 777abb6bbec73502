package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dandantas/starling/internal/config"
	"github.com/dandantas/starling/internal/database"
	"github.com/dandantas/starling/internal/driver"
	"github.com/dandantas/starling/internal/handler"
	"github.com/dandantas/starling/internal/model"
	"github.com/dandantas/starling/internal/notify"
	"github.com/dandantas/starling/internal/scheduler"
	"github.com/dandantas/starling/internal/store"
	"github.com/dandantas/starling/pkg/middleware"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting Starling Engagement Scheduler", "version", version, "store_backend", cfg.StoreBackend)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire the persistence backend
	var (
		scheduleStore store.ScheduleStore
		profileStore  store.ProfileStore
		runLog        model.RunLog
		pinger        handler.Pinger
	)

	switch cfg.StoreBackend {
	case "mongo":
		db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			slog.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				slog.Error("Failed to disconnect from MongoDB", "error", err)
			}
		}()

		if err := database.CreateIndexes(ctx, db); err != nil {
			slog.Error("Failed to create indexes", "error", err)
			os.Exit(1)
		}

		scheduleStore = database.NewScheduleRepository(db)
		profileStore = database.NewProfileRepository(db)
		runLog = database.NewRunLogRepository(db)
		pinger = db

	case "file":
		scheduleStore = store.NewFileScheduleStore(cfg.SchedulePath)
		profileStore = store.NewFileProfileStore(cfg.ProfilesPath)
		runLog = model.NewMemoryRunLog(cfg.RunLogCapacity)

	default:
		slog.Error("Unknown store backend", "store_backend", cfg.StoreBackend)
		os.Exit(1)
	}

	// Load profiles once at startup. A missing or broken profile source is
	// not fatal: the service comes up with an empty roster and the operator
	// surface stays available.
	profiles, err := profileStore.List(ctx)
	if err != nil {
		slog.Error("Failed to load profiles, starting with empty roster", "error", err)
		profiles = nil
	}
	enabled := model.FilterEnabled(profiles)
	slog.Info("Profiles loaded", "total", len(profiles), "enabled", len(enabled))

	// Schedule builder and store manager
	builder := scheduler.NewBuilder(cfg)
	manager := store.NewManager(scheduleStore,
		func() *model.Schedule { return builder.Build(enabled) },
		store.ManagerConfig{
			Vocabulary:          model.DefaultVocabulary(),
			BalanceCheckEnabled: cfg.BalanceCheckEnabled,
			BalanceMinPerAction: cfg.BalanceMinPerAction,
		},
	)

	// Execution plumbing
	state := scheduler.NewState(cfg.ProfileCooldown, cfg.MinExecutionInterval)
	driverClient := driver.NewClient(driver.Config{
		BaseURL:     cfg.DriverBaseURL,
		Token:       cfg.DriverToken,
		Timeout:     cfg.DriverTimeout,
		SuccessPath: cfg.DriverSuccessPath,
		CommentPath: cfg.DriverCommentPath,
		ContentPath: cfg.DriverContentPath,
	})

	var notifier scheduler.Notifier = notify.Nop{}
	if cfg.NotifierWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.NotifierWebhookURL, cfg.NotifierTimeout)
	}

	coordinator := scheduler.NewCoordinator(manager, enabled, state, driverClient, notifier, runLog)

	// Scheduler
	sched, err := scheduler.NewScheduler(cfg, coordinator)
	if err != nil {
		slog.Error("Failed to create scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start(ctx)

	// Async runner for operator-triggered runs
	asyncRunner := scheduler.NewAsyncRunner(coordinator)

	// Initialize handlers
	scheduleHandler := handler.NewScheduleHandler(manager, sched, state)
	runHandler := handler.NewRunHandler(coordinator, asyncRunner, runLog, state)
	profileHandler := handler.NewProfileHandler(profileStore)
	healthHandler := handler.NewHealthHandler(pinger, cfg.StoreBackend, version)

	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}

	router := handler.NewRouter(
		scheduleHandler,
		runHandler,
		profileHandler,
		healthHandler,
		corsConfig,
	)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop scheduler first so no new runs start while the server drains
	slog.Info("Stopping scheduler...")
	sched.Stop(shutdownCtx)

	slog.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Starling Engagement Scheduler stopped")
}
