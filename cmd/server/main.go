package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ceureg/ceureg/internal/config"
	"github.com/ceureg/ceureg/internal/database"
	"github.com/ceureg/ceureg/internal/email"
	"github.com/ceureg/ceureg/internal/handler"
	"github.com/ceureg/ceureg/internal/logger"
	"github.com/ceureg/ceureg/internal/middleware"
	"github.com/ceureg/ceureg/internal/repository"
	"github.com/ceureg/ceureg/internal/router"
	"github.com/ceureg/ceureg/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", "0.1.0").Msg("starting CEU registry server")

	// Connect to PostgreSQL
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to PostgreSQL")

	// Initialize repositories
	eventRepo := repository.NewEventRepository(db)
	attendeeRepo := repository.NewAttendeeRepository(db)
	userRepo := repository.NewUserRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)

	// Initialize mail provider
	tokens := email.NewTokenProvider(cfg.Gmail)
	sender := email.NewGmailSender(cfg.Gmail.SenderAddress, cfg.Gmail.SenderName)
	if !tokens.Configured() {
		log.Warn().Msg("Gmail credentials not configured, deliveries will be recorded as failed")
	}

	// Initialize delivery service
	deliverySvc := service.NewDeliveryService(eventRepo, attendeeRepo, userRepo, deliveryRepo, tokens, sender, cfg, log)
	log.Info().Msg("delivery service initialized")

	// Initialize handlers and middleware
	h := handler.New(db, log, cfg, deliverySvc)
	mw := middleware.New(log, cfg)

	// Set up router
	r := router.New(h, mw)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
