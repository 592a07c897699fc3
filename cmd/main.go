package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/UnknownOlympus/ridefare/internal/config"
	"github.com/UnknownOlympus/ridefare/internal/export"
	"github.com/UnknownOlympus/ridefare/internal/fares"
	"github.com/UnknownOlympus/ridefare/internal/geocoding"
	"github.com/UnknownOlympus/ridefare/internal/logger"
	"github.com/UnknownOlympus/ridefare/internal/metrics"
	"github.com/UnknownOlympus/ridefare/internal/notify"
	"github.com/UnknownOlympus/ridefare/internal/pricing"
	"github.com/UnknownOlympus/ridefare/internal/repository"
	"github.com/UnknownOlympus/ridefare/internal/routes"
	"github.com/UnknownOlympus/ridefare/internal/service"
	"github.com/UnknownOlympus/ridefare/internal/session"
	"github.com/UnknownOlympus/ridefare/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Process exit codes.
const (
	exitComplete = 0
	exitFatal    = 1
	exitPartial  = 2
	exitNoData   = 3
)

const (
	serviceName     = "ridefare"
	shutdownTimeout = 5 * time.Second
	// Requests per second handed to the Google client, split between workers.
	geocodeRateLimit = 50
)

// main is the entry point of the application.
func main() {
	os.Exit(run())
}

// run executes one batch and returns the process exit code. Deferred cleanups
// run before main exits.
func run() int {
	// Create a context that will be canceled when an interrupt signal is received.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load configuration", "error", err)
		return exitFatal
	}

	log := logger.Setup(cfg.Env, os.Stdout)

	// Create a separate registry for metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)
	if cfg.PushgatewayURL != "" {
		defer func() {
			if pushErr := metrics.Push(cfg.PushgatewayURL, serviceName, reg); pushErr != nil {
				log.ErrorContext(ctx, "Failed to push metrics", "error", pushErr)
			}
		}()
	}

	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:    serviceName,
		Environment:    cfg.Env,
		JaegerEndpoint: cfg.JaegerEndpoint,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize tracing", "error", err)
		return exitFatal
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := shutdownTracer(shutdownCtx); shutdownErr != nil {
			log.ErrorContext(ctx, "Failed to flush traces", "error", shutdownErr)
		}
	}()

	bundle, err := session.Load(cfg.CookiesFile)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load session cookies", "path", cfg.CookiesFile, "error", err)
		return exitFatal
	}

	cache, err := geocoding.LoadCache(cfg.CacheFile)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load coordinate cache", "path", cfg.CacheFile, "error", err)
		return exitFatal
	}
	log.InfoContext(ctx, "Coordinate cache loaded", "entries", cache.Len())
	if dropped := cache.Dropped(); dropped > 0 {
		log.WarnContext(ctx, "Skipped unusable cache entries", "path", cfg.CacheFile, "dropped", dropped)
	}

	routeList, err := routes.Load(cfg.RoutesFile)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load routes", "path", cfg.RoutesFile, "error", err)
		return exitFatal
	}

	exporter, closeSink, err := newExporter(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to set up export", "error", err)
		return exitFatal
	}
	defer closeSink()

	// Create geocoding provider using factory pattern based on configuration.
	geoProvider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:       geocoding.ProviderType(cfg.Geocoder),
		APIKey:     cfg.GeocodeAPIKey,
		RateLimit:  geocodeRateLimit / cfg.Workers,
		HTTPClient: tracing.NewHTTPClient(cfg.PricingTimeout),
		Logger:     log,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to create geocoding provider", "error", err)
		return exitFatal
	}
	resolver := geocoding.NewResolver(log, geoProvider, cfg.Geocoder, cache, cfg.MemoSize, appMetrics)

	quoter := pricing.NewClient(
		tracing.NewHTTPClient(cfg.PricingTimeout), bundle.Cookies(), cfg.PricingTimeout, log,
	)

	pricingService := service.NewPricingService(
		log, resolver, quoter, fares.Mode(cfg.ExtractMode), appMetrics, cfg.Workers,
	)

	report, table := pricingService.Run(ctx, routeList)

	key, err := exporter.Export(ctx, table)
	switch {
	case errors.Is(err, export.ErrNoData):
		log.WarnContext(ctx, "No fare records collected, nothing exported", "run_id", report.RunID)
		return exitNoData
	case err != nil:
		log.ErrorContext(ctx, "Export failed", "run_id", report.RunID, "error", err)
		return exitFatal
	}

	archiveRun(ctx, log, cfg.ArchiveDSN, report, key)
	publishExport(ctx, log, cfg, report, key, len(table))

	if report.Status == service.StatusPartial {
		return exitPartial
	}

	return exitComplete
}

// newExporter builds the configured encoder and sink. The returned func releases
// the sink's client.
func newExporter(ctx context.Context, cfg *config.Config, log *slog.Logger) (*export.Exporter, func(), error) {
	encoder, err := export.NewEncoder(export.Format(cfg.ExportFormat))
	if err != nil {
		return nil, nil, err
	}

	if cfg.Sink == "file" {
		return export.NewExporter(encoder, export.NewFileSink(cfg.Destination), log), func() {}, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	closeClient := func() {
		if closeErr := client.Close(); closeErr != nil {
			log.ErrorContext(ctx, "Failed to close storage client", "error", closeErr)
		}
	}

	return export.NewExporter(encoder, export.NewGCSSink(client, cfg.Destination), log), closeClient, nil
}

// openArchive connects to the archive database and makes sure its tables exist.
func openArchive(ctx context.Context, log *slog.Logger, dsn string) (repository.Interface, func(), error) {
	pool, err := repository.NewDatabase(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewRepository(pool, log)
	if err = repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return repo, pool.Close, nil
}

// archiveRun stores the exported records in Postgres when an archive is configured.
// Archive failures do not change the outcome of the run.
func archiveRun(ctx context.Context, log *slog.Logger, dsn string, report *service.Report, key string) {
	if dsn == "" {
		return
	}

	archive, closeArchive, err := openArchive(ctx, log, dsn)
	if err != nil {
		log.ErrorContext(ctx, "Failed to open archive", "error", err)
		return
	}
	defer closeArchive()

	saved, err := archive.SaveRun(ctx, report, key)
	if err != nil {
		log.ErrorContext(ctx, "Failed to archive run", "run_id", report.RunID, "error", err)
		return
	}

	log.InfoContext(ctx, "Run archived", "run_id", report.RunID, "records", saved)
}

func newPublisher(cfg *config.Config) (notify.Publisher, error) {
	switch cfg.Notify {
	case "amqp":
		pub, err := notify.NewAMQPPublisher(cfg.AMQPURI)
		if err != nil {
			return nil, err
		}
		return pub, nil
	case "kafka":
		return notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return notify.Nop{}, nil
	}
}

// publishExport announces a finished export. Like the archive it is best effort.
func publishExport(
	ctx context.Context,
	log *slog.Logger,
	cfg *config.Config,
	report *service.Report,
	key string,
	rows int,
) {
	publisher, err := newPublisher(cfg)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create export publisher", "notify", cfg.Notify, "error", err)
		return
	}
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			log.ErrorContext(ctx, "Failed to close export publisher", "error", closeErr)
		}
	}()

	evt := notify.ExportCompleted{
		RunID:         report.RunID,
		Destination:   cfg.Destination,
		Key:           key,
		Rows:          rows,
		RoutesOK:      report.Accumulated(),
		RoutesSkipped: report.Skipped(),
		Status:        string(report.Status),
		CompletedAt:   time.Now().UTC(),
	}
	if err = publisher.Publish(ctx, evt); err != nil {
		log.ErrorContext(ctx, "Failed to publish export event", "notify", cfg.Notify, "error", err)
		return
	}

	log.DebugContext(ctx, "Export event published", "notify", cfg.Notify, "run_id", report.RunID)
}
