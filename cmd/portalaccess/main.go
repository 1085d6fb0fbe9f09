package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	echoadapter "github.com/ericfisherdev/portalaccess/internal/adapter/driven/echo"
	"github.com/ericfisherdev/portalaccess/internal/adapter/driven/queue"
	sqliteadapter "github.com/ericfisherdev/portalaccess/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/portalaccess/internal/adapter/driving/http"
	"github.com/ericfisherdev/portalaccess/internal/application"
	"github.com/ericfisherdev/portalaccess/internal/config"
	"github.com/ericfisherdev/portalaccess/internal/registry"
	"github.com/ericfisherdev/portalaccess/internal/secrets"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"sync_interval", cfg.SyncInterval,
		"push_workers", cfg.PushWorkers,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Build the credential codec and adapter catalog.
	codec, err := secrets.NewCodec(cfg.SecretKey)
	if err != nil {
		return err
	}

	catalog, err := registry.New(
		echoadapter.Entry(),
	)
	if err != nil {
		return err
	}
	slog.Info("adapter catalog built", "adapters", catalog.Slugs())

	// 6. Wire stores.
	portalStore := sqliteadapter.NewPortalRepo(db)
	roleStore := sqliteadapter.NewRoleRepo(db)
	assignmentStore := sqliteadapter.NewAssignmentRepo(db)
	credentialStore := sqliteadapter.NewCredentialRepo(db)

	// 7. Create services: resolver, push, queue, sync.
	resolver := application.NewAdapterResolver(catalog, codec, cfg.AdapterConfig, credentialStore)
	pushSvc := application.NewPushService(assignmentStore, credentialStore, resolver)

	pushQueue := queue.New(pushSvc.Push, cfg.QueueSize, cfg.PushWorkers)
	go pushQueue.Start(ctx)

	syncSvc := application.NewSyncService(portalStore, assignmentStore, pushQueue, cfg.SyncInterval)
	go syncSvc.Start(ctx)

	// 8. Create HTTP handler and server.
	apiHandler := httphandler.NewHandler(
		portalStore,
		roleStore,
		assignmentStore,
		credentialStore,
		codec,
		resolver,
		pushSvc,
		syncSvc,
		pushQueue,
		slog.Default(),
	)
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 9. Log startup complete.
	slog.Info("portalaccess started",
		"listen_addr", cfg.ListenAddr,
		"sync_interval", cfg.SyncInterval,
	)

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 11. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
