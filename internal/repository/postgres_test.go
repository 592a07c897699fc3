package repository_test

import (
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/UnknownOlympus/ridefare/internal/models"
	"github.com/UnknownOlympus/ridefare/internal/repository"
	"github.com/UnknownOlympus/ridefare/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const insertRunQuery = `
	INSERT INTO fare_runs (run_id, started_at, finished_at, status, routes, accumulated, export_key)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
`

var quoteColumns = []string{
	"run_id", "route_index", "origin", "destination", "origin_geohash", "destination_geohash",
	"tier", "name", "description", "currency", "fare", "original_fare", "discount",
	"has_promo", "capacity", "eta", "estimated_trip_minutes", "fetched_at",
}

func sampleReport() *service.Report {
	started := time.Date(2025, time.April, 17, 9, 30, 0, 0, time.UTC)

	return &service.Report{
		RunID:      uuid.MustParse("6f1c3e0a-5a43-4d7c-9a4b-3f3f2f1d0e11"),
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Status:     service.StatusPartial,
		Outcomes: []service.RouteOutcome{
			{
				Index:       0,
				State:       service.StateAccumulated,
				Origin:      models.Coordinate{Latitude: 50.0617, Longitude: 19.9373},
				Destination: models.Coordinate{Latitude: 50.0777, Longitude: 19.7848},
				QuotedAt:    started.Add(time.Second),
				Records: []models.FareRecord{
					{Origin: "Rynek", Destination: "Balice", Tier: "Economy", Name: "UberX", Fare: 55},
					{Origin: "Rynek", Destination: "Balice", Tier: "Premium", Name: "Comfort", Fare: 70},
				},
			},
			{Index: 1, State: service.StateSkipped, Reason: "origin address not found"},
		},
	}
}

func TestSaveRun(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	report := sampleReport()
	exportKey := "2025/1744882200_20250417_093000.csv"

	expectRun := func(mock pgxmock.PgxPoolIface) *pgxmock.ExpectedExec {
		return mock.ExpectExec(regexp.QuoteMeta(insertRunQuery)).
			WithArgs(report.RunID, report.StartedAt, report.FinishedAt, "partial", 2, 1, exportKey)
	}

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectBegin()
		expectRun(mock).WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCopyFrom(pgx.Identifier{"fare_quotes"}, quoteColumns).WillReturnResult(2)
		mock.ExpectCommit()

		copied, err := repo.SaveRun(ctx, report, exportKey)

		require.NoError(t, err)
		assert.Equal(t, int64(2), copied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - begin transaction", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectBegin().WillReturnError(assert.AnError)

		_, err = repo.SaveRun(ctx, report, exportKey)

		require.ErrorContains(t, err, "failed to begin transaction")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - insert run rolls back", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectBegin()
		expectRun(mock).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		_, err = repo.SaveRun(ctx, report, exportKey)

		require.ErrorContains(t, err, "failed to insert run")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - copy quotes rolls back", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectBegin()
		expectRun(mock).WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCopyFrom(pgx.Identifier{"fare_quotes"}, quoteColumns).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		_, err = repo.SaveRun(ctx, report, exportKey)

		require.ErrorContains(t, err, "failed to copy fare quotes")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - commit", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectBegin()
		expectRun(mock).WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCopyFrom(pgx.Identifier{"fare_quotes"}, quoteColumns).WillReturnResult(2)
		mock.ExpectCommit().WillReturnError(assert.AnError)
		mock.ExpectRollback()

		_, err = repo.SaveRun(ctx, report, exportKey)

		require.ErrorContains(t, err, "failed to commit")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := repository.NewRepository(mock, slog.Default())

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS fare_runs").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, repo.EnsureSchema(t.Context()))

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS fare_runs").WillReturnError(assert.AnError)
	require.ErrorContains(t, repo.EnsureSchema(t.Context()), "failed to create archive schema")

	assert.NoError(t, mock.ExpectationsWereMet())
}
