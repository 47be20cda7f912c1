package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/warbler/internal/logger"
	"github.com/anonto42/warbler/internal/router"
	"github.com/anonto42/warbler/pkg/config"
	"github.com/anonto42/warbler/pkg/firebase"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	defer log.Sync()

	// Initialize database connections
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize databases", logger.Error(err))
	}
	defer db.CloseDB()

	repos, err := router.NewRepositories(db, cfg, log)
	if err != nil {
		log.Fatal("failed to set up repositories", logger.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Firebase login is optional
	var firebaseApp *firebase.App
	firebaseApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	switch {
	case errors.Is(err, firebase.ErrNotConfigured):
		log.Info("firebase not configured, firebase-login disabled")
	case err != nil:
		log.Fatal("failed to initialize firebase", logger.Error(err))
	default:
		log.Info("firebase initialized")
	}

	e := echo.New()
	e.HideBanner = true

	config.SetupMiddleware(e, cfg, log)
	if firebaseApp != nil {
		router.SetupRoutes(e, repos, firebaseApp.AuthClient, cfg.JWTSecret, log)
	} else {
		router.SetupRoutes(e, repos, nil, cfg.JWTSecret, log)
	}

	go func() {
		log.Info("server starting", logger.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", logger.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Error(err))
	}
	log.Info("server stopped")
}
