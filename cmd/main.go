/*
Package main is the entry point for the PeerChat application.

It is responsible for loading configuration, initializing the global logging
system, connecting to PostgreSQL (and running migrations), wiring the chat hub
and session coordinator, setting up the HTTP server, and gracefully handling
operating system interrupt signals (SIGINT, SIGTERM) to ensure a smooth server
shutdown. A failed database connection does not abort startup; the server runs
with nickname uniqueness relaxed and message persistence disabled until a
restart.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"peerchat/internal/app/chat"
	"peerchat/internal/app/db"
	"peerchat/internal/app/storage"
	"peerchat/internal/app/store"
	"peerchat/internal/configs"
	"peerchat/internal/handler"
	"peerchat/internal/pkg/logx"
	"peerchat/internal/pkg/mailer"
)

const (
	// staleAccountAge is how long an account may stay inactive before the
	// background sweep deletes it.
	staleAccountAge = 30 * 24 * time.Hour

	// staleSweepInterval is how often the background sweep runs.
	staleSweepInterval = 24 * time.Hour
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("storage_enabled", cfg.StorageEnabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL and run migrations. A nil pool puts the stores
	// into their degraded mode instead of refusing to start.
	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Error(err, "Database unavailable, starting without persistence")
		pool = nil
	}
	if pool != nil {
		defer pool.Close()
	}

	registry := store.NewNicknameRegistry(pool)
	messages := store.NewMessageStore(pool)
	rooms := store.NewRoomStore(pool)
	accounts := store.NewAccountStore(pool)

	// Claims held by a previous process would block every returning nickname.
	if pool != nil {
		if err := registry.ReleaseAll(ctx); err != nil {
			logx.Error(err, "Failed to clear stale nickname claims")
		}
	}

	hub := chat.NewHub()
	coordinator := chat.NewCoordinator(registry, messages, hub)

	var storageService storage.StorageService
	if cfg.StorageEnabled() {
		storageService, err = storage.NewStorageService(storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Error(err, "Failed to initialize object storage, avatar uploads disabled")
			storageService = nil
		}
	}

	mailSender := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		BaseURL:  cfg.AppBaseURL,
	})

	deps := &handler.AppDeps{
		Coordinator: coordinator,
		Hub:         hub,
		Config:      cfg,
		Accounts:    accounts,
		Rooms:       rooms,
		Messages:    messages,
		Storage:     storageService,
		Mailer:      mailSender,
	}

	// Setup HTTP server and routes
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if pool != nil {
		go sweepStaleAccounts(ctx, accounts)
	}

	go func() {
		logx.Info(fmt.Sprintf("PeerChat Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}

// sweepStaleAccounts periodically deletes accounts with no recent login.
func sweepStaleAccounts(ctx context.Context, accounts *store.AccountStore) {
	ticker := time.NewTicker(staleSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := accounts.DeleteStale(ctx, time.Now().Add(-staleAccountAge))
			if err != nil {
				logx.Error(err, "Stale account sweep failed")
				continue
			}
			if deleted > 0 {
				logx.Info("Stale account sweep complete", "deleted", deleted)
			}
		}
	}
}
