// Command cookies opens a browser window for a manual login and stores the
// session cookies the pricing client needs.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/UnknownOlympus/ridefare/internal/logger"
	"github.com/UnknownOlympus/ridefare/internal/session"
)

func main() {
	out := flag.String("out", "uber_cookies.json", "path of the cookie bundle to write")
	format := flag.String("format", string(session.FormatJSON), "bundle encoding: json or gob")
	profile := flag.String("profile", "", "browser profile directory, empty for a fresh profile")
	env := flag.String("env", logger.EnvLocal, "logging environment: local, development, production")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Setup(*env, os.Stderr)

	collector := session.NewCollector(*profile, log)
	bundle, err := collector.Collect(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to collect cookies", "error", err)
		stop()
		os.Exit(1)
	}

	if err = session.Save(*out, bundle, session.Format(*format)); err != nil {
		log.ErrorContext(ctx, "Failed to save cookies", "path", *out, "error", err)
		stop()
		os.Exit(1)
	}

	log.InfoContext(ctx, "Cookies saved", "path", *out, "count", len(bundle), "format", *format)
}
