package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/ridefare/internal/service"
	"github.com/jackc/pgx/v5"
)

const geohashPrecision = 7

const schemaQuery = `
	CREATE TABLE IF NOT EXISTS fare_runs (
		run_id      UUID PRIMARY KEY,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		status      TEXT NOT NULL,
		routes      INTEGER NOT NULL,
		accumulated INTEGER NOT NULL,
		export_key  TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS fare_quotes (
		id                     BIGSERIAL PRIMARY KEY,
		run_id                 UUID NOT NULL REFERENCES fare_runs (run_id) ON DELETE CASCADE,
		route_index            INTEGER NOT NULL,
		origin                 TEXT NOT NULL,
		destination            TEXT NOT NULL,
		origin_geohash         TEXT NOT NULL,
		destination_geohash    TEXT NOT NULL,
		tier                   TEXT NOT NULL,
		name                   TEXT NOT NULL,
		description            TEXT NOT NULL,
		currency               TEXT NOT NULL,
		fare                   DOUBLE PRECISION NOT NULL,
		original_fare          DOUBLE PRECISION NOT NULL,
		discount               TEXT NOT NULL,
		has_promo              BOOLEAN NOT NULL,
		capacity               INTEGER NOT NULL,
		eta                    TEXT NOT NULL,
		estimated_trip_minutes INTEGER NOT NULL,
		fetched_at             TIMESTAMPTZ NOT NULL
	);
`

const insertRunQuery = `
	INSERT INTO fare_runs (run_id, started_at, finished_at, status, routes, accumulated, export_key)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
`

var quoteColumns = []string{
	"run_id", "route_index", "origin", "destination", "origin_geohash", "destination_geohash",
	"tier", "name", "description", "currency", "fare", "original_fare", "discount",
	"has_promo", "capacity", "eta", "estimated_trip_minutes", "fetched_at",
}

// EnsureSchema creates the archive tables when they are missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaQuery); err != nil {
		return fmt.Errorf("failed to create archive schema: %w", err)
	}

	return nil
}

// SaveRun stores the run summary and every record of the accumulated routes in
// one transaction. It returns the number of archived records.
func (r *Repository) SaveRun(ctx context.Context, report *service.Report, exportKey string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.log.ErrorContext(ctx, "Failed to rollback archive transaction", "error", rbErr)
		}
	}()

	_, err = tx.Exec(ctx, insertRunQuery,
		report.RunID, report.StartedAt, report.FinishedAt, string(report.Status),
		len(report.Outcomes), report.Accumulated(), exportKey,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	rows := quoteRows(report)
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"fare_quotes"}, quoteColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy fare quotes: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit archive transaction: %w", err)
	}
	committed = true

	r.log.DebugContext(ctx, "Run archived", "run_id", report.RunID, "records", copied)

	return copied, nil
}

func quoteRows(report *service.Report) [][]any {
	var rows [][]any
	for _, outcome := range report.Outcomes {
		if outcome.State != service.StateAccumulated {
			continue
		}
		originHash := outcome.Origin.Geohash(geohashPrecision)
		destinationHash := outcome.Destination.Geohash(geohashPrecision)
		for _, rec := range outcome.Records {
			rows = append(rows, []any{
				report.RunID, outcome.Index, rec.Origin, rec.Destination, originHash, destinationHash,
				rec.Tier, rec.Name, rec.Description, rec.Currency, rec.Fare, rec.OriginalFare, rec.Discount,
				rec.HasPromo, rec.Capacity, rec.ETA, rec.EstimatedTripMinutes, outcome.QuotedAt,
			})
		}
	}

	return rows
}
