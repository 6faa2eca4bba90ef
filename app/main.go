package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/lysyi3m/cfa-cal/app/api"
	"github.com/lysyi3m/cfa-cal/app/calendar"
	"github.com/lysyi3m/cfa-cal/app/cfg"
	"github.com/lysyi3m/cfa-cal/app/database"
	"github.com/lysyi3m/cfa-cal/app/feed"
	"github.com/lysyi3m/cfa-cal/app/kv"
	"github.com/lysyi3m/cfa-cal/app/tasks"
	"github.com/lysyi3m/cfa-cal/app/upstream"
	"github.com/lysyi3m/cfa-cal/app/venue"
)

const redisKeyPrefix = "cfa-cal"

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting CFA Calendar server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	store, closeStore, err := openStore(appCfg, db)
	if err != nil {
		slog.Error("Failed to open key/value store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	table, err := venue.Load(appCfg.VenuesFile)
	if err != nil {
		slog.Error("Failed to load venues", "error", err)
		os.Exit(1)
	}
	resolver := venue.NewTreeResolver(table)

	if appCfg.APIAccount == "" || appCfg.APIPassword == "" {
		slog.Warn("Upstream credentials not set (API_ACCOUNT/API_PASSWORD), syncing will fail")
	}

	dayRepo := database.NewDayRepo(db)
	eventRepo := database.NewEventRepo(db)
	fetchLogRepo := database.NewFetchLogRepo(db)

	client := upstream.NewClient(appCfg.UpstreamURL, appCfg.UpstreamTimeoutDuration(), appCfg.UserAgent)
	tokens := upstream.NewTokenManager(store, client, appCfg.APIAccount, appCfg.APIPassword)
	reconciler := calendar.NewReconciler(dayRepo, eventRepo, fetchLogRepo)
	syncer := calendar.NewSyncer(tokens, client, reconciler, dayRepo, eventRepo, store)

	scheduler, err := tasks.NewScheduler(syncer, appCfg.RefreshCron, appCfg.WorkerCount)
	if err != nil {
		slog.Error("Failed to create scheduler", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	generator := feed.NewGenerator(resolver, appCfg.ContactEmail)
	handler := api.NewHandler(syncer, generator, resolver, eventRepo, fetchLogRepo, appCfg.BaseUrl)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// openStore picks Redis when configured and the SQLite kv_store table
// otherwise.
func openStore(appCfg *cfg.Cfg, db *database.DB) (kv.Store, func(), error) {
	if !appCfg.RedisEnabled() {
		slog.Info("Using SQLite key/value store")
		return kv.NewSQLStore(db), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := kv.NewRedisStore(ctx, kv.RedisOptions{
		Addr:     appCfg.RedisAddr,
		Password: appCfg.RedisPassword,
		DB:       appCfg.RedisDB,
		Prefix:   redisKeyPrefix,
	})
	if err != nil {
		return nil, nil, err
	}

	return store, func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close Redis client", "error", err)
		}
	}, nil
}
