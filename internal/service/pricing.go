package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/ridefare/internal/fares"
	"github.com/UnknownOlympus/ridefare/internal/metrics"
	"github.com/UnknownOlympus/ridefare/internal/models"
	"github.com/UnknownOlympus/ridefare/internal/pricing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName       = "github.com/UnknownOlympus/ridefare/internal/service"
	geohashPrecision = 7
)

// Resolver turns an address into coordinates, reporting whether one was found.
type Resolver interface {
	Resolve(ctx context.Context, address string) (models.Coordinate, bool)
}

// PricingService walks a batch of routes through resolution, quoting and
// extraction, and collects the resulting fare records.
type PricingService struct {
	log        *slog.Logger     // Logger for route progress and failures
	resolver   Resolver         // Address to coordinate resolution, cache first
	quoter     pricing.Quoter   // Pricing API access
	mode       fares.Mode       // Projection applied to every payload
	metrics    *metrics.Metrics // Metrics for route outcomes and upstream latency
	numWorkers int              // Number of concurrent route workers, 1 means sequential
	tracer     trace.Tracer
}

// NewPricingService creates a PricingService. numWorkers below 1 is treated as 1.
func NewPricingService(
	log *slog.Logger,
	resolver Resolver,
	quoter pricing.Quoter,
	mode fares.Mode,
	metrics *metrics.Metrics,
	numWorkers int,
) *PricingService {
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &PricingService{
		log:        log,
		resolver:   resolver,
		quoter:     quoter,
		mode:       mode,
		metrics:    metrics,
		numWorkers: numWorkers,
		tracer:     otel.Tracer(tracerName),
	}
}

// Run processes every route and returns the run report together with the
// table of records, in route order. A failing route is skipped; Run itself
// does not fail.
func (ps *PricingService) Run(ctx context.Context, routes []models.Route) (*Report, models.ResultTable) {
	report := &Report{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		Outcomes:  make([]RouteOutcome, len(routes)),
	}

	ps.log.InfoContext(ctx, "Starting pricing run",
		"run_id", report.RunID, "routes", len(routes), "num_workers", ps.numWorkers, "mode", ps.mode)

	if ps.numWorkers == 1 || len(routes) <= 1 {
		for idx, route := range routes {
			report.Outcomes[idx] = ps.processRoute(ctx, idx, route)
		}
	} else {
		ps.runPool(ctx, routes, report.Outcomes)
	}

	var table models.ResultTable
	for _, outcome := range report.Outcomes {
		table = append(table, outcome.Records...)
	}

	report.FinishedAt = time.Now()
	report.Status = classify(report.Outcomes, len(table))

	ps.log.InfoContext(ctx, "Pricing run finished",
		"run_id", report.RunID,
		"status", report.Status,
		"accumulated", report.Accumulated(),
		"skipped", report.Skipped(),
		"records", len(table),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	return report, table
}

type job struct {
	idx   int
	route models.Route
}

// runPool fans routes out to a bounded set of workers. Each worker writes only
// the outcome slots of the routes it took, so results keep file order.
func (ps *PricingService) runPool(ctx context.Context, routes []models.Route, outcomes []RouteOutcome) {
	jobs := make(chan job, len(routes))
	var wgr sync.WaitGroup

	workers := min(ps.numWorkers, len(routes))
	for i := 1; i <= workers; i++ {
		wgr.Add(1)
		go ps.worker(ctx, i, &wgr, jobs, outcomes)
	}

	for idx, route := range routes {
		jobs <- job{idx: idx, route: route}
	}
	close(jobs)

	wgr.Wait()
}

func (ps *PricingService) worker(
	ctx context.Context,
	workerID int,
	wg *sync.WaitGroup,
	jobs <-chan job,
	outcomes []RouteOutcome,
) {
	defer wg.Done()
	for j := range jobs {
		ps.metrics.ActiveWorkers.Inc()
		ps.log.DebugContext(ctx, "Processing route", "worker", workerID, "route", j.idx)
		outcomes[j.idx] = ps.processRoute(ctx, j.idx, j.route)
		ps.metrics.ActiveWorkers.Dec()
	}
}

// processRoute moves one route through PENDING, ORIGIN_RESOLVED, BOTH_RESOLVED,
// QUOTED, EXTRACTED and ACCUMULATED, or stops at SKIPPED.
func (ps *PricingService) processRoute(ctx context.Context, idx int, route models.Route) RouteOutcome {
	ctx, span := ps.tracer.Start(ctx, "pricing.route", trace.WithAttributes(
		attribute.Int("route.index", idx),
		attribute.String("route.origin", route.Origin),
		attribute.String("route.destination", route.Destination),
	))
	defer span.End()

	outcome := RouteOutcome{Index: idx, Route: route, State: StatePending}
	log := ps.log.With("route", idx, "origin", route.Origin, "destination", route.Destination)

	if err := ctx.Err(); err != nil {
		return ps.skip(ctx, log, span, outcome, "run cancelled")
	}

	origin, ok := ps.resolver.Resolve(ctx, route.Origin)
	if !ok {
		return ps.skip(ctx, log, span, outcome, "origin address not found")
	}
	outcome.Origin, outcome.State = origin, StateOriginResolved

	destination, ok := ps.resolver.Resolve(ctx, route.Destination)
	if !ok {
		return ps.skip(ctx, log, span, outcome, "destination address not found")
	}
	outcome.Destination, outcome.State = destination, StateBothResolved

	log.DebugContext(ctx, "Route resolved",
		"origin_geohash", origin.Geohash(geohashPrecision),
		"destination_geohash", destination.Geohash(geohashPrecision),
		"distance_km", origin.DistanceKM(destination),
	)

	startTime := time.Now()
	payload, err := ps.quoter.Quote(ctx, origin, destination)
	ps.metrics.RequestSeconds.WithLabelValues(metrics.UpstreamPricing).Observe(time.Since(startTime).Seconds())
	if err != nil {
		span.RecordError(err)
		return ps.skip(ctx, log, span, outcome, err.Error())
	}
	outcome.QuotedAt, outcome.State = startTime, StateQuoted

	resp, err := fares.Decode(payload)
	if err != nil {
		span.RecordError(err)
		return ps.skip(ctx, log, span, outcome, err.Error())
	}
	if dropped := resp.Dropped(); dropped > 0 {
		log.WarnContext(ctx, "Dropped malformed entries from pricing payload", "dropped", dropped)
		ps.metrics.EntriesDropped.Add(float64(dropped))
	}

	records, err := fares.Extract(ps.mode, route.Origin, route.Destination, resp)
	if err != nil {
		return ps.skip(ctx, log, span, outcome, err.Error())
	}
	outcome.State = StateExtracted

	outcome.Records = records
	outcome.State = StateAccumulated
	ps.metrics.RecordsExtracted.Add(float64(len(records)))
	ps.metrics.RoutesProcessed.WithLabelValues(string(StateAccumulated)).Inc()
	span.SetAttributes(attribute.Int("route.records", len(records)))

	log.InfoContext(ctx, "Route priced", "records", len(records))

	return outcome
}

func (ps *PricingService) skip(
	ctx context.Context,
	log *slog.Logger,
	span trace.Span,
	outcome RouteOutcome,
	reason string,
) RouteOutcome {
	log.WarnContext(ctx, "Skipping route", "state", outcome.State, "reason", reason)
	span.SetStatus(codes.Error, reason)
	ps.metrics.RoutesProcessed.WithLabelValues(string(StateSkipped)).Inc()

	outcome.FailedAt = outcome.State
	outcome.Reason = reason
	outcome.State = StateSkipped

	return outcome
}
