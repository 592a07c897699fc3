package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// LoginURL is where the interactive login starts.
const LoginURL = "https://auth.uber.com/login"

// ErrLoginTimeout is returned when the browser never leaves the login page.
var ErrLoginTimeout = errors.New("timed out waiting for login")

// Collector opens a visible browser, waits for the user to log in and reads
// every cookie the browser holds afterwards.
type Collector struct {
	LoginURL     string
	ProfileDir   string
	PollInterval time.Duration
	MaxWait      time.Duration
	// Settle is how long to wait after login before cookies are read.
	Settle time.Duration

	log *slog.Logger
}

// NewCollector returns a collector with a 5 second poll and a 5 minute cap.
func NewCollector(profileDir string, log *slog.Logger) *Collector {
	return &Collector{
		LoginURL:     LoginURL,
		ProfileDir:   profileDir,
		PollInterval: 5 * time.Second, //nolint:mnd // poll period
		MaxWait:      5 * time.Minute, //nolint:mnd // login cap
		Settle:       5 * time.Second, //nolint:mnd // post-login settle
		log:          log,
	}
}

// Collect runs the login flow and returns the captured cookies.
func (c *Collector) Collect(ctx context.Context) (Bundle, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if c.ProfileDir != "" {
		opts = append(opts, chromedp.UserDataDir(c.ProfileDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var startURL string
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(c.LoginURL),
		chromedp.Location(&startURL),
	); err != nil {
		return nil, fmt.Errorf("failed to open login page: %w", err)
	}

	c.log.InfoContext(ctx, "Waiting for manual login in the browser window", "url", startURL, "max_wait", c.MaxWait)
	if err := c.waitForLogin(browserCtx, startURL); err != nil {
		return nil, err
	}
	c.log.InfoContext(ctx, "Login detected, collecting cookies")

	var bundle Bundle
	if err := chromedp.Run(browserCtx,
		chromedp.Sleep(c.Settle),
		chromedp.ActionFunc(func(ctx context.Context) error {
			cookies, err := storage.GetCookies().Do(ctx)
			if err != nil {
				return err
			}
			bundle = make(Bundle, len(cookies))
			for _, cookie := range cookies {
				bundle[cookie.Name] = cookie.Value
			}
			return nil
		}),
	); err != nil {
		return nil, fmt.Errorf("failed to read browser cookies: %w", err)
	}

	return bundle, nil
}

func (c *Collector) waitForLogin(ctx context.Context, startURL string) error {
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	deadline := time.Now().Add(c.MaxWait)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		var current string
		if err := chromedp.Run(ctx, chromedp.Location(&current)); err != nil {
			return fmt.Errorf("failed to read browser location: %w", err)
		}
		if current != startURL {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLoginTimeout
		}
		c.log.DebugContext(ctx, "Still waiting for login", "remaining", time.Until(deadline).Round(time.Second))
	}
}
