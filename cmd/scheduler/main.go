package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"birthdays/internal/config"
	"birthdays/internal/email"
	"birthdays/internal/logger"
	"birthdays/internal/repository"
	"birthdays/internal/scheduler"
	"birthdays/internal/service"
)

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// A store that cannot be reached at startup is deliberately fatal; a
	// replica without its store can do nothing useful.
	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		zlog.Fatal("failed to ping database", zap.Error(err))
	}
	zlog.Info("connected to database")

	// Wire the engine
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db, cfg.Scheduler.MaxRetries)
	deliveryClient := email.NewClient(cfg.Email, zlog.Named("delivery"))
	templates := service.NewTemplateService()

	occurrences := service.NewOccurrenceService(userRepo, messageRepo, templates, cfg.Scheduler, zlog.Named("materialiser"))
	processor := service.NewProcessorService(messageRepo, userRepo, deliveryClient, cfg.Scheduler, zlog.Named("processor"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(occurrences, processor, cfg.Scheduler.CheckInterval, cfg.Scheduler.ProcessInterval, zlog.Named("scheduler"))
	sched.Start(ctx)

	// Graceful shutdown: stop new ticks, let in-flight work drain
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zlog.Info("shutting down")
	cancel()
	sched.Stop()

	metrics := deliveryClient.Metrics()
	zlog.Info("delivery totals",
		zap.Int64("attempts", metrics.TotalAttempts),
		zap.Int64("successes", metrics.SuccessCount))
	zlog.Info("scheduler stopped")
}
