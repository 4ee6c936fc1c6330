/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the gift card ledger server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, CARDLEDGER_* variables, flags)
  2. Build the zerolog logger
  3. Open the SQLite store (migrations are applied on open)
  4. Build the ledger service with metrics and seed default retailers
  5. Configure HTTP router and start the reconciliation scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -addr    HTTP listen address (overrides CARDLEDGER_LISTEN_ADDR)
  -db      SQLite database path (overrides CARDLEDGER_DATA_DIR/DB_FILE)
           Use ":memory:" for in-memory database
  -static  Built frontend directory to serve (default ./web/dist)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the reconciliation scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with the default database under ~/.gift_card_manager
  ./server

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/warp/cardledger/api"
	"github.com/warp/cardledger/config"
	"github.com/warp/cardledger/ledger"
	"github.com/warp/cardledger/logging"
	"github.com/warp/cardledger/metrics"
	"github.com/warp/cardledger/store/sqlite"
)

func main() {
	// Flags
	addr := flag.String("addr", "", "HTTP listen address")
	dbPath := flag.String("db", "", "SQLite database path")
	staticDir := flag.String("static", "./web/dist", "frontend build directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New(logging.Options{ServiceName: "cardledger"})
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New(logging.Options{
		ServiceName: cfg.AppName,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})

	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	path := *dbPath
	if path == "" {
		if path, err = cfg.DatabasePath(); err != nil {
			log.Fatal().Err(err).Msg("failed to resolve database path")
		}
	}

	// Initialize store
	store, err := sqlite.New(path)
	if err != nil {
		log.Fatal().Err(err).Str("db", path).Msg("failed to initialize database")
	}
	defer store.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := ledger.NewService(store,
		ledger.WithLogger(log),
		ledger.WithObserver(metrics.NewActionMetrics(registry)),
	)
	added, err := svc.SeedRetailers(context.Background(), ledger.DefaultRetailers)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed retailers")
	}
	if added > 0 {
		log.Info().Int("added", added).Msg("seeded default retailers")
	}

	handler := api.NewHandler(svc, log)
	handler.Store = store
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		Gatherer:       registry,
		StaticDir:      *staticDir,
	})

	scheduler := api.NewReconciliationScheduler(svc, log, metrics.NewReconcileMetrics(registry))
	scheduler.Enabled = cfg.ReconcileEnabled
	scheduler.CheckInterval = cfg.ReconcileInterval
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("db", path).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
