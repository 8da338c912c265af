// Package main runs the MSC settlement service:
// - Settlement engine: swaps, claims, service payments, token issuance
// - JSON HTTP API plus WebSocket event feed
// - Background archiver draining settlement events into ClickHouse
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"msc-ledger/internal/api"
	"msc-ledger/internal/archive"
	"msc-ledger/internal/custody"
	"msc-ledger/internal/events"
	"msc-ledger/internal/ledger"
	"msc-ledger/internal/observability"
	"msc-ledger/internal/storage"
	chstore "msc-ledger/internal/storage/clickhouse"
	"msc-ledger/internal/storage/memory"
	"msc-ledger/internal/storage/migrations"
	pgstore "msc-ledger/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, enables the event archive)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	treasury := flag.String("treasury-account", os.Getenv("TREASURY_ACCOUNT"), "Custody account receiving claim payments")
	serviceAccount := flag.String("service-account", os.Getenv("SERVICE_ACCOUNT"), "Custody account receiving service payments")
	archiveBatch := flag.Int("archive-batch-size", 100, "Archive flush batch size")
	archiveInterval := flag.Duration("archive-flush-interval", 5*time.Second, "Archive flush interval")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	if *treasury == "" || *serviceAccount == "" {
		logger.Fatal("--treasury-account and --service-account are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, chConn, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	hub := events.NewHub(log.New(os.Stdout, "[events] ", log.LstdFlags))

	// Uptime ticker for the health metrics.
	go func() {
		const tick = 15 * time.Second
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.DefaultMetrics.UptimeSeconds.Add(tick.Seconds())
			}
		}
	}()

	engine, err := ledger.NewEngine(ledger.Options{
		Store:          store,
		Bank:           custody.NewMemoryBank(),
		Events:         hub,
		Treasury:       *treasury,
		ServiceAccount: *serviceAccount,
		Logger:         log.New(os.Stdout, "[engine] ", log.LstdFlags),
	})
	if err != nil {
		logger.Fatalf("Failed to create engine: %v", err)
	}

	// Start the archiver when ClickHouse is configured.
	archiverDone := make(chan struct{})
	if chConn != nil {
		eventCh, cancelSub := hub.Subscribe()
		archiver := archive.NewArchiver(archive.ArchiverOptions{
			Sink:          chstore.NewSettlementArchive(chConn),
			Events:        eventCh,
			BatchSize:     *archiveBatch,
			FlushInterval: *archiveInterval,
			Logger:        log.New(os.Stdout, "[archive] ", log.LstdFlags),
		})
		go func() {
			defer close(archiverDone)
			defer cancelSub()
			if err := archiver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("Archiver error: %v", err)
			}
		}()
	} else {
		close(archiverDone)
	}

	apiServer := api.NewServer(engine, hub, log.New(os.Stdout, "[api] ", log.LstdFlags))
	httpServer := &http.Server{
		Addr:              *listenAddr,
		Handler:           apiServer.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
		hub.Close()
	}()

	logger.Printf("Starting HTTP server on %s", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}

	<-archiverDone
	logger.Println("Shutdown complete")
}

// createStores opens the ledger of record and the optional analytics
// connection, running migrations on both.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *log.Logger) (storage.Ledger, *chstore.Conn, func(), error) {
	var store storage.Ledger
	cleanup := func() {}

	if useMemory {
		store = memory.NewLedger()
		logger.Println("Using in-memory storage")
	} else {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("run postgres migrations: %w", err)
		}
		store = pgstore.NewLedger(pool)
		cleanup = pool.Close
		logger.Println("Connected to PostgreSQL")
	}

	if clickhouseDSN == "" {
		return store, nil, cleanup, nil
	}

	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
		chConn.Close()
		cleanup()
		return nil, nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}
	logger.Println("Connected to ClickHouse, event archive enabled")

	pgCleanup := cleanup
	cleanup = func() {
		chConn.Close()
		pgCleanup()
	}
	return store, chConn, cleanup, nil
}

// envOr returns the env var value or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
