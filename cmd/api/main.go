// Package main is the entry point for the Planificate API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/planificate/backend/internal/config"
	"github.com/planificate/backend/internal/dedupe"
	"github.com/planificate/backend/internal/geocache"
	"github.com/planificate/backend/internal/handler"
	"github.com/planificate/backend/internal/middleware"
	"github.com/planificate/backend/internal/oracle"
	"github.com/planificate/backend/internal/repo"
	"github.com/planificate/backend/internal/route"
	"github.com/planificate/backend/internal/service"
	"github.com/planificate/backend/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := migrate(ctx, pool); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// --- Geo cache and map services ----------------------------------------
	var store geocache.Store = geocache.NewMemoryStore()
	backend := "memory"
	if cfg.GeoCache.SQLitePath != "" {
		backend = "sqlite"
		sqliteStore, err := geocache.OpenSQLiteStore(ctx, cfg.GeoCache.SQLitePath)
		if err != nil {
			slog.Error("failed to open geocache", "path", cfg.GeoCache.SQLitePath, "error", err)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	}
	cache := geocache.New(store, cfg.GeoCache.TTL, geocache.WithLogger(logger))
	slog.Info("geocache ready", "backend", backend, "ttl", cache.TTL())

	osrm := oracle.NewOSRM(cfg.Oracle.OSRMBaseURL, cfg.Oracle.Timeout, logger)
	nominatim := oracle.NewNominatim(oracle.NominatimConfig{
		BaseURL:       cfg.Oracle.NominatimBaseURL,
		UserAgent:     cfg.Oracle.NominatimUserAgent,
		Timeout:       cfg.Oracle.GeocodeTimeout,
		RatePerSecond: cfg.Oracle.NominatimRatePerSec,
	}, logger)
	overpass := oracle.NewOverpass(cfg.Oracle.OverpassBaseURL, cfg.Oracle.Timeout, logger)

	// --- Services ---------------------------------------------------------
	repos := repo.NewRepos(pool)
	tx := repo.NewTransactor(pool)

	geoSvc := service.NewGeoService(nominatim, overpass, route.NewOptimizer(osrm, cache, logger), cache)
	srv := handler.NewServer(handler.Services{
		Trips:     service.NewTripService(repos.Trips),
		POIs:      service.NewPOIService(tx, repos, geoSvc, dedupe.NewGuard(), logger),
		Itinerary: service.NewItineraryService(tx, repos, service.NewSyncManager(logger), logger),
		Schedule:  service.NewScheduleService(repos),
		Geo:       geoSvc,
	}, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	// The write timeout leaves room for a full oracle round trip.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Oracle.Timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies the embedded migrations through a database/sql view of the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	n, err := migrations.Up(ctx, db)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", n)
	return nil
}
