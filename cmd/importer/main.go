package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/qepting91/caption-importer/internal/caption"
	"github.com/qepting91/caption-importer/internal/catalog"
	"github.com/qepting91/caption-importer/internal/collector"
	"github.com/qepting91/caption-importer/internal/config"
	"github.com/qepting91/caption-importer/internal/dashboard"
	"github.com/qepting91/caption-importer/internal/events"
	"github.com/qepting91/caption-importer/internal/ingest"
	"github.com/qepting91/caption-importer/internal/logging"
	"github.com/qepting91/caption-importer/internal/metrics"
	"github.com/qepting91/caption-importer/internal/pipeline"
	"github.com/qepting91/caption-importer/internal/review"
	"github.com/qepting91/caption-importer/internal/storage"
)

func main() {
	// 1. Setup
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLogger(os.Stdout, "caption-importer", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Load Inputs
	categories, err := ingest.LoadCategories(cfg.CategoriesFile)
	if err != nil || len(categories) == 0 {
		logger.Warn("Using built-in categories", "file", cfg.CategoriesFile, "err", err)
		categories = caption.DefaultCategories()
	}
	parser := caption.NewParser(categories)
	logger.Info("Categories loaded", "names", parser.Categories().Names())

	// 3. Initialize Collector (Using Factory)
	client, err := collector.NewCollector(cfg.Collector)
	if err != nil {
		logger.Error("Failed to initialize collector", "err", err)
		os.Exit(1)
	}
	logger.Info("Collector initialized", "mode", cfg.Collector.Mode)

	pm := metrics.NewPipelineMetrics(cfg.Collector.Mode)

	// 4. Catalog and events
	store, closeStore, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open catalog", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	publisher, closePublisher := openPublisher(cfg, logger)
	defer closePublisher()

	// 5. History writer
	history := make(chan storage.Record, 100)
	var writerWg sync.WaitGroup
	writer := &storage.WriterService{FilePath: cfg.HistoryFile, Logger: logger}
	writerWg.Add(1)
	go writer.Start(&writerWg, history)

	refresher := &pipeline.Refresher{
		Collector: client,
		Assembler: &pipeline.Assembler{Parser: parser, Workers: cfg.Workers, Metrics: pm},
		Timeout:   cfg.Collector.Timeout,
		History:   history,
		Metrics:   pm,
		Logger:    logger,
	}
	session := review.NewSession()
	importer := &review.Importer{
		Session:   session,
		Store:     store,
		Publisher: publisher,
		Metrics:   pm,
		Logger:    logger,
	}

	// 6. Initial refresh; a failure leaves an empty review list
	if candidates, err := refresher.Refresh(ctx, cfg.FetchLimit); err != nil {
		logger.Error("Initial refresh failed", "err", err)
	} else {
		session.Load(candidates)
	}

	// 7. Serve until signalled
	srv := &dashboard.Server{
		HistoryFile: cfg.HistoryFile,
		FetchLimit:  cfg.FetchLimit,
		Refresher:   refresher,
		Session:     session,
		Importer:    importer,
		Catalog:     store,
		Metrics:     pm,
		Logger:      logger,
	}
	logger.Info("Starting Dashboard", "port", cfg.Port)
	if err := dashboard.StartServer(ctx, srv, cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Dashboard failed", "err", err)
	}

	// waits for handlers that outlived Shutdown, then closes history
	refresher.Close()
	writerWg.Wait()
	logger.Info("Shutdown complete")
}

func openCatalog(ctx context.Context, cfg config.Config, logger *slog.Logger) (catalog.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("Using JSON catalog", "file", cfg.CatalogFile)
		s, err := catalog.NewJSONStore(cfg.CatalogFile)
		return s, func() {}, err
	}

	db, err := catalog.OpenDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	s := catalog.NewPostgresStore(db)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("Using Postgres catalog")
	return s, func() { db.Close() }, nil
}

func openPublisher(cfg config.Config, logger *slog.Logger) (review.Publisher, func()) {
	if cfg.NATSURL == "" {
		return events.NopPublisher{}, func() {}
	}
	nc, err := events.Connect(cfg.NATSURL)
	if err != nil {
		logger.Warn("Import events disabled", "err", err)
		return events.NopPublisher{}, func() {}
	}
	return events.NewNATSPublisher(nc, cfg.NATSSubject), func() { nc.Drain() }
}
