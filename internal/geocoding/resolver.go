package geocoding

import (
	"context"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/ridefare/internal/address"
	"github.com/UnknownOlympus/ridefare/internal/metrics"
	"github.com/UnknownOlympus/ridefare/internal/models"
	"github.com/bluele/gcache"
)

// Lookup sources, used as metric labels.
const (
	sourceCache    = "cache"
	sourceMemo     = "memo"
	sourceProvider = "provider"
)

// Resolver turns raw addresses into coordinates. It consults the loaded cache,
// then the run-local memo of earlier live lookups, and only then the provider.
//
// Resolve never fails: every miss, transport problem or malformed answer is
// reported as "not found" and logged.
type Resolver struct {
	log          *slog.Logger
	provider     Provider
	providerName string
	cache        *Cache
	memo         gcache.Cache // nil when memoisation is disabled
	metrics      *metrics.Metrics
}

// NewResolver creates a resolver. memoSize <= 0 disables the memo of
// successful live lookups.
func NewResolver(
	log *slog.Logger,
	provider Provider,
	providerName string,
	cache *Cache,
	memoSize int,
	metrics *metrics.Metrics,
) *Resolver {
	res := &Resolver{
		log:          log,
		provider:     provider,
		providerName: providerName,
		cache:        cache,
		metrics:      metrics,
	}
	if memoSize > 0 {
		res.memo = gcache.New(memoSize).LRU().Build()
	}

	return res
}

// Resolve returns the coordinate of addr and whether one was found.
func (r *Resolver) Resolve(ctx context.Context, addr string) (models.Coordinate, bool) {
	if coord, ok := r.cache.Lookup(addr); ok {
		r.log.DebugContext(ctx, "Using cached coordinates", "address", addr)
		r.metrics.GeocodeLookups.WithLabelValues(sourceCache, "hit").Inc()
		return coord, true
	}

	normalized := address.Normalize(addr)
	if normalized == "" {
		r.log.WarnContext(ctx, "Address is empty after normalization", "address", addr)
		r.metrics.GeocodeLookups.WithLabelValues(sourceProvider, "skipped").Inc()
		return models.Coordinate{}, false
	}

	if r.memo != nil {
		if cached, err := r.memo.Get(addr); err == nil {
			if coord, ok := cached.(models.Coordinate); ok {
				r.log.DebugContext(ctx, "Using coordinates resolved earlier in this run", "address", addr)
				r.metrics.GeocodeLookups.WithLabelValues(sourceMemo, "hit").Inc()
				return coord, true
			}
		}
	}

	r.log.InfoContext(ctx, "Geocoding address", "address", addr, "normalized", normalized, "provider", r.providerName)

	startTime := time.Now()
	coords, err := r.provider.Geocode(ctx, normalized)
	r.metrics.RequestSeconds.WithLabelValues(metrics.UpstreamGeocoder).Observe(time.Since(startTime).Seconds())

	if err != nil {
		r.log.WarnContext(ctx, "Failed to geocode", "address", addr, "error", err)
		r.metrics.GeocodeLookups.WithLabelValues(sourceProvider, "failure").Inc()
		return models.Coordinate{}, false
	}
	if coords == nil || !coords.Valid() {
		r.log.WarnContext(ctx, "Geocoder returned coordinates out of range", "address", addr, "coords", coords)
		r.metrics.GeocodeLookups.WithLabelValues(sourceProvider, "failure").Inc()
		return models.Coordinate{}, false
	}

	r.metrics.GeocodeLookups.WithLabelValues(sourceProvider, "hit").Inc()
	if r.memo != nil {
		_ = r.memo.Set(addr, *coords)
	}

	return *coords, true
}
