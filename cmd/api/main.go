package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelth-com/sowflow/internal/ai"
	"github.com/xelth-com/sowflow/internal/config"
	"github.com/xelth-com/sowflow/internal/database"
	"github.com/xelth-com/sowflow/internal/handlers"
	"github.com/xelth-com/sowflow/internal/logging"
	"github.com/xelth-com/sowflow/internal/models"
	"github.com/xelth-com/sowflow/internal/notify"
	"github.com/xelth-com/sowflow/internal/reminders"
	"github.com/xelth-com/sowflow/internal/repositories"
	"github.com/xelth-com/sowflow/internal/workflow"
)

func main() {
	logging.Init()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (detects embedded vs external automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in the shutdown handler below

	// 3. Synchronize schema
	log.Info("synchronizing database schema")
	err = db.AutoMigrate(
		&models.UserAuth{},
		&models.SOW{},
		&models.ApprovalStage{},
		&models.Approval{},
		&models.ChangelogEntry{},
	)
	if err != nil {
		log.Warnf("migration warning: %v", err)
	}
	if err := db.SeedStages(); err != nil {
		log.Warnf("stage seeding failed: %v", err)
	}

	// 4. Workflow engine and collaborators
	engine := workflow.NewEngine(repositories.NewGormStore(db.DB), cfg.Workflow)

	hub := notify.NewHub()
	go hub.Run()
	engine.SetNotifier(notify.NewDispatcher(hub, cfg.Notify.WebhookURL))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.Notify.RedisAddr != "" {
		scheduler, err := reminders.New(
			cfg.Notify.RedisAddr,
			cfg.Notify.RedisPassword,
			cfg.Notify.RedisDB,
			db.DB,
			notify.NewDispatcher(hub, cfg.Notify.WebhookURL),
			cfg.Workflow.ReminderAfterHours,
		)
		if err != nil {
			log.Warnf("reminders disabled: %v", err)
		} else {
			engine.SetReminders(scheduler)
			go scheduler.Run(ctx)
			log.Info("reminder scheduler started")
		}
	}

	if cfg.AI.GeminiAPIKey != "" {
		summarizer, err := ai.NewSummarizer(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
		if err != nil {
			log.Warnf("AI summarizer disabled: %v", err)
		} else {
			engine.SetSummarizer(summarizer)
			defer summarizer.Close()
			log.Info("AI diff summarizer enabled")
		}
	}

	// 5. HTTP router
	router := handlers.NewRouter(db, engine, hub, cfg)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// 6. Start server with graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Infof("server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Infof("received signal: %v, shutting down gracefully", sig)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP server shutdown error: %v", err)
	}

	log.Info("closing database connection")
	if err := db.Close(); err != nil {
		log.Warnf("database close error: %v", err)
	}

	log.Info("shutdown complete")
}
