package geocoding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/ridefare/internal/address"
	"github.com/UnknownOlympus/ridefare/internal/models"
	"golang.org/x/time/rate"
)

// Roles an address can play in a route.
const (
	RoleOrigin      = "origin"
	RoleDestination = "destination"
)

const geohashChars = 7

// FailedAddress is an address the provider could not resolve during warm-up.
type FailedAddress struct {
	Address string
	Role    string
	Reason  string
}

// WarmupReport summarises one warm-up pass.
type WarmupReport struct {
	Tested   int
	Resolved map[string]models.Coordinate // keyed by raw address
	Failed   []FailedAddress
}

// SuccessRate returns the resolved share of tested addresses in percent.
func (r *WarmupReport) SuccessRate() float64 {
	if r.Tested == 0 {
		return 0
	}
	return float64(len(r.Resolved)) / float64(r.Tested) * 100 //nolint:mnd // percent
}

// Warmer geocodes every distinct address of a route list once, paced by a limiter.
// It always asks the provider and ignores any cache, so its report reflects the
// provider's current answers.
type Warmer struct {
	log      *slog.Logger
	provider Provider
	limiter  *rate.Limiter
}

func NewWarmer(log *slog.Logger, provider Provider, limiter *rate.Limiter) *Warmer {
	return &Warmer{log: log, provider: provider, limiter: limiter}
}

// Run resolves the addresses in first-seen order. An address used both as an
// origin and a destination is tested once, under the role it appeared with first.
// Run stops early only when ctx is cancelled.
func (w *Warmer) Run(ctx context.Context, routes []models.Route) (*WarmupReport, error) {
	report := &WarmupReport{Resolved: make(map[string]models.Coordinate)}

	seen := make(map[string]struct{})
	for _, route := range routes {
		for _, item := range [...]struct{ addr, role string }{
			{route.Origin, RoleOrigin},
			{route.Destination, RoleDestination},
		} {
			if _, ok := seen[item.addr]; ok {
				continue
			}
			seen[item.addr] = struct{}{}

			if err := w.limiter.Wait(ctx); err != nil {
				return report, fmt.Errorf("warm-up interrupted: %w", err)
			}

			report.Tested++
			coord, reason := w.lookup(ctx, item.addr)
			if reason != "" {
				w.log.WarnContext(ctx, "Address not resolved", "address", item.addr, "role", item.role, "reason", reason)
				report.Failed = append(report.Failed, FailedAddress{Address: item.addr, Role: item.role, Reason: reason})
				continue
			}

			w.log.InfoContext(ctx, "Address resolved",
				"address", item.addr, "lat", coord.Latitude, "lon", coord.Longitude, "geohash", coord.Geohash(geohashChars))
			report.Resolved[item.addr] = coord
		}
	}

	return report, nil
}

func (w *Warmer) lookup(ctx context.Context, addr string) (models.Coordinate, string) {
	normalized := address.Normalize(addr)
	if normalized == "" {
		return models.Coordinate{}, "address is empty after normalization"
	}

	coord, err := w.provider.Geocode(ctx, normalized)
	if err != nil {
		return models.Coordinate{}, err.Error()
	}
	if coord == nil || !coord.Valid() {
		return models.Coordinate{}, ErrInvalidCoords.Error()
	}

	return *coord, ""
}
