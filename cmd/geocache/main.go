// Command geocache geocodes every address of the route list once and merges
// the successful answers into the coordinate cache file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/UnknownOlympus/ridefare/internal/config"
	"github.com/UnknownOlympus/ridefare/internal/geocoding"
	"github.com/UnknownOlympus/ridefare/internal/logger"
	"github.com/UnknownOlympus/ridefare/internal/models"
	"github.com/UnknownOlympus/ridefare/internal/routes"
	"github.com/UnknownOlympus/ridefare/internal/tracing"
	"golang.org/x/time/rate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoadGeocache()
	log := logger.Setup(cfg.Env, os.Stderr)

	routeList, err := routes.Load(cfg.RoutesFile)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load routes", "path", cfg.RoutesFile, "error", err)
		os.Exit(1)
	}

	provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:       geocoding.ProviderType(cfg.Geocoder),
		APIKey:     cfg.GeocodeAPIKey,
		HTTPClient: tracing.NewHTTPClient(cfg.PricingTimeout),
		Logger:     log,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to create geocoding provider", "error", err)
		os.Exit(1)
	}

	// The first lookup goes out immediately, the rest one per interval.
	limiter := rate.NewLimiter(rate.Every(cfg.GeocacheInterval), 1)
	warmer := geocoding.NewWarmer(log, provider, limiter)

	report, err := warmer.Run(ctx, routeList)
	if err != nil {
		log.WarnContext(ctx, "Warm-up stopped early, saving what was resolved", "error", err)
	}

	printSummary(os.Stdout, report)

	entries, err := geocoding.ReadCacheFile(cfg.CacheFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.ErrorContext(ctx, "Failed to read existing cache", "path", cfg.CacheFile, "error", err)
		os.Exit(1)
	}
	if entries == nil {
		entries = make(map[string]models.Coordinate, len(report.Resolved))
	}
	for addr, coord := range report.Resolved {
		entries[addr] = coord
	}

	if err = geocoding.WriteCacheFile(cfg.CacheFile, entries); err != nil {
		log.ErrorContext(ctx, "Failed to write cache", "path", cfg.CacheFile, "error", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "\nCache %s now holds %d addresses\n", cfg.CacheFile, len(entries))
}

func printSummary(out io.Writer, report *geocoding.WarmupReport) {
	fmt.Fprintf(out, "Addresses tested: %d\n", report.Tested)
	fmt.Fprintf(out, "Resolved:         %d\n", len(report.Resolved))
	fmt.Fprintf(out, "Failed:           %d\n", len(report.Failed))
	fmt.Fprintf(out, "Success rate:     %.1f%%\n", report.SuccessRate())

	if len(report.Failed) == 0 {
		return
	}

	failed := append([]geocoding.FailedAddress(nil), report.Failed...)
	sort.SliceStable(failed, func(i, j int) bool { return failed[i].Role > failed[j].Role })

	fmt.Fprintln(out, "\nFailed addresses:")
	for _, f := range failed {
		fmt.Fprintf(out, "  [%s] %s: %s\n", f.Role, f.Address, f.Reason)
	}
}
