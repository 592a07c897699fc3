// Package pricing fetches raw fare quotes from the ride pricing GraphQL API.
package pricing

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/UnknownOlympus/ridefare/internal/models"
)

// GraphQLURL is the pricing endpoint.
const GraphQLURL = "https://m.uber.com/go/graphql"

// DefaultTimeout bounds one quote request.
const DefaultTimeout = 30 * time.Second

const (
	operationName = "Products"
	profileType   = "Personal"
	// maxErrorBody limits how much of a failed response ends up in the error.
	maxErrorBody = 500
)

//go:embed products.graphql
var productsQuery string

// ErrQuote marks a failed quote request: transport error, non-200 status or an unreadable body.
var ErrQuote = errors.New("price quote failed")

// HTTPClient is an interface for making HTTP requests, allowing for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Quoter returns the raw pricing payload for a pickup/destination pair.
type Quoter interface {
	Quote(ctx context.Context, pickup, destination models.Coordinate) ([]byte, error)
}

// Client calls the pricing API with a fixed session.
//
// Requests are serialised: the session cookies are shared by every call and
// the upstream has not been shown to accept concurrent use of one session.
type Client struct {
	httpClient HTTPClient
	endpoint   string
	cookies    []*http.Cookie
	timeout    time.Duration
	log        *slog.Logger

	mu sync.Mutex
}

// NewClient creates a pricing client. A non-positive timeout uses DefaultTimeout.
func NewClient(httpClient HTTPClient, cookies []*http.Cookie, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   GraphQLURL,
		cookies:    cookies,
		timeout:    timeout,
		log:        log,
	}
}

type coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type variables struct {
	IncludeRecommended bool         `json:"includeRecommended"`
	Destinations       []coordinate `json:"destinations"`
	Pickup             coordinate   `json:"pickup"`
	ProfileType        string       `json:"profileType"`
}

type request struct {
	OperationName string    `json:"operationName"`
	Variables     variables `json:"variables"`
	Query         string    `json:"query"`
}

// Quote performs one POST of the Products query. It makes a single attempt.
func (c *Client) Quote(ctx context.Context, pickup, destination models.Coordinate) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, err := json.Marshal(request{
		OperationName: operationName,
		Variables: variables{
			Destinations: []coordinate{{Latitude: destination.Latitude, Longitude: destination.Longitude}},
			Pickup:       coordinate{Latitude: pickup.Latitude, Longitude: pickup.Longitude},
			ProfileType:  profileType,
		},
		Query: productsQuery,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %w", ErrQuote, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrQuote, err)
	}
	setHeaders(req)
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %w", ErrQuote, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.ErrorContext(ctx, "Failed to close response body", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: API returned status %d: %s", ErrQuote, resp.StatusCode, string(snippet))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrQuote, err)
	}

	return payload, nil
}

func setHeaders(req *http.Request) {
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,pl-PL;q=0.8,pl;q=0.7")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://m.uber.com")
	req.Header.Set("Priority", "u=1, i")
	req.Header.Set("Sec-Ch-Ua", `"Google Chrome";v="135", "Not-A.Brand";v="8", "Chromium";v="135"`)
	req.Header.Set("Sec-Ch-Ua-Mobile", "?0")
	req.Header.Set("Sec-Ch-Ua-Platform", `"Windows"`)
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36")
	req.Header.Set("X-Csrf-Token", "x")
	req.Header.Set("X-Uber-Rv-Initial-Load-City-Id", "939")
	req.Header.Set("X-Uber-Rv-Session-Type", "desktop_session")
}
