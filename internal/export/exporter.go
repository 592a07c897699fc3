// Package export serialises result tables and writes them to object storage.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/ridefare/internal/models"
)

// Sink stores serialised tables under a key.
type Sink interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Destination() string
}

// Exporter encodes a table and hands it to a sink. It never retries.
type Exporter struct {
	encoder Encoder
	sink    Sink
	log     *slog.Logger
	now     func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithClock overrides the time used for object keys.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

func NewExporter(encoder Encoder, sink Sink, log *slog.Logger, opts ...Option) *Exporter {
	exp := &Exporter{
		encoder: encoder,
		sink:    sink,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(exp)
	}

	return exp
}

// ObjectKey builds "<year>/<unix>_<YYYYmmdd_HHMMSS>.<ext>".
func ObjectKey(t time.Time, ext string) string {
	return fmt.Sprintf("%d/%d_%s.%s", t.Year(), t.Unix(), t.Format("20060102_150405"), ext)
}

// Export writes the table and returns the key it was stored under. An empty
// table yields ErrNoData; sink failures are returned as *Error.
func (e *Exporter) Export(ctx context.Context, table models.ResultTable) (string, error) {
	if len(table) == 0 {
		return "", ErrNoData
	}

	data, err := e.encoder.Encode(table)
	if err != nil {
		return "", fmt.Errorf("failed to encode table: %w", err)
	}

	key := ObjectKey(e.now(), e.encoder.Extension())
	if err = e.sink.Put(ctx, key, data, e.encoder.ContentType()); err != nil {
		e.log.ErrorContext(ctx, "Failed to export table", "destination", e.sink.Destination(), "key", key, "error", err)
		return key, err
	}

	e.log.InfoContext(ctx, "Table exported",
		"destination", e.sink.Destination(), "key", key, "rows", len(table), "bytes", len(data))

	return key, nil
}
