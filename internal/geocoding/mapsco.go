package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/UnknownOlympus/ridefare/internal/models"
)

// MapsCoBaseURL is the geocode.maps.co forward search endpoint.
const MapsCoBaseURL = "https://geocode.maps.co/search"

// ErrMissingAPIKey is returned when a keyed provider is used without a key.
var ErrMissingAPIKey = errors.New("geocoding API key is not configured")

// MapsCoProvider implements the Provider interface on top of geocode.maps.co.
type MapsCoProvider struct {
	client  HTTPClient   // HTTP client for making requests
	baseURL string       // Base URL for the search API
	apiKey  string       // API key passed as a query parameter
	log     *slog.Logger // Logger for logging operations
}

// NewMapsCoProvider creates a geocode.maps.co provider with a default HTTP client.
func NewMapsCoProvider(apiKey string, log *slog.Logger) *MapsCoProvider {
	const timeout = 10
	return NewMapsCoProviderWithClient(&http.Client{Timeout: timeout * time.Second}, apiKey, log)
}

// NewMapsCoProviderWithClient allows injecting custom HTTP client.
func NewMapsCoProviderWithClient(client HTTPClient, apiKey string, log *slog.Logger) *MapsCoProvider {
	return &MapsCoProvider{
		client:  client,
		baseURL: MapsCoBaseURL,
		apiKey:  apiKey,
		log:     log,
	}
}

// Geocode issues a single search request for the address and returns the first match.
func (mp *MapsCoProvider) Geocode(ctx context.Context, address string) (*models.Coordinate, error) {
	if mp.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	mp.log.DebugContext(ctx, "Geocoding using geocode.maps.co", "address", address)

	reqURL, err := url.Parse(mp.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("api_key", mp.apiKey)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return doSearch(ctx, mp.client, mp.log, "maps.co", req)
}
