// Package notify announces finished exports on a message broker.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// EventExportCompleted is the event type published after a successful export.
	EventExportCompleted = "ridefare.export.completed"
	eventSource          = "ridefare"
	specVersion          = "1.0"
)

// ExportCompleted describes a finished export.
type ExportCompleted struct {
	RunID         uuid.UUID `json:"run_id"`
	Destination   string    `json:"destination"`
	Key           string    `json:"key"`
	Rows          int       `json:"rows"`
	RoutesOK      int       `json:"routes_ok"`
	RoutesSkipped int       `json:"routes_skipped"`
	Status        string    `json:"status"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Envelope is a CloudEvents 1.0 structured-mode wrapper.
type Envelope struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
}

// Encode wraps the event in an envelope and marshals it.
func (e ExportCompleted) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	body, err := json.Marshal(Envelope{
		SpecVersion:     specVersion,
		ID:              uuid.NewString(),
		Source:          eventSource,
		Type:            EventExportCompleted,
		Time:            e.CompletedAt,
		DataContentType: "application/json",
		Data:            data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	return body, nil
}

// Publisher sends export events.
type Publisher interface {
	Publish(ctx context.Context, evt ExportCompleted) error
	Close() error
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, ExportCompleted) error { return nil }
func (Nop) Close() error                                   { return nil }
