package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/UnknownOlympus/ridefare/internal/models"
)

// searchResult is one element of the JSON array returned by OSM-style search
// endpoints (Nominatim and geocode.maps.co share the format).
type searchResult struct {
	Lat         string `json:"lat"`          // Latitude as string
	Lon         string `json:"lon"`          // Longitude as string
	DisplayName string `json:"display_name"` // Full label of the match
}

// Common errors for OSM-style providers.
var (
	ErrEmptySearchResult = errors.New("geocoder returned empty response")
	ErrInvalidCoords     = errors.New("geocoder returned invalid coordinates")
)

// doSearch executes a prepared search request and decodes the first result.
func doSearch(
	ctx context.Context,
	client HTTPClient,
	log *slog.Logger,
	provider string,
	req *http.Request,
) (*models.Coordinate, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.ErrorContext(ctx, "Geocoding API error", "provider", provider, "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%s API returned status %d: %s", provider, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	log.DebugContext(ctx, "Geocoding raw response", "provider", provider, "body", string(body))

	var results []searchResult
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", provider, err)
	}

	if len(results) == 0 {
		return nil, ErrEmptySearchResult
	}

	first := results[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrInvalidCoords, first.Lat)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrInvalidCoords, first.Lon)
	}

	return &models.Coordinate{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: first.DisplayName,
	}, nil
}
