package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"birthdays/internal/config"
	"birthdays/internal/handler"
	"birthdays/internal/logger"
	"birthdays/internal/middleware"
	"birthdays/internal/repository"
	"birthdays/internal/service"
)

const version = "1.0.0"

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

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		zlog.Fatal("failed to ping database", zap.Error(err))
	}
	zlog.Info("connected to database")

	// Wire repositories, services and handlers
	userRepo := repository.NewUserRepository(db)
	userSvc := service.NewUserService(userRepo, zlog)
	healthSvc := service.NewHealthService(db, nil, version)

	router := mux.NewRouter()
	router.Use(middleware.Recovery(zlog))
	handler.NewUserHandler(userSvc, zlog).Register(router)
	router.HandleFunc("/health", handler.NewHealthHandler(healthSvc).Check).Methods("GET")

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("api server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}

	zlog.Info("api server stopped")
}
