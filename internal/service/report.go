package service

import (
	"time"

	"github.com/UnknownOlympus/ridefare/internal/models"
	"github.com/google/uuid"
)

// RouteState is the position of a route in the processing pipeline.
type RouteState string

const (
	StatePending        RouteState = "pending"
	StateOriginResolved RouteState = "origin_resolved"
	StateBothResolved   RouteState = "both_resolved"
	StateQuoted         RouteState = "quoted"
	StateExtracted      RouteState = "extracted"
	StateAccumulated    RouteState = "accumulated"
	StateSkipped        RouteState = "skipped"
)

// Status classifies a whole run.
type Status string

const (
	// StatusComplete means every route contributed to the table.
	StatusComplete Status = "complete"
	// StatusPartial means some routes were skipped but the table is not empty.
	StatusPartial Status = "partial"
	// StatusNoData means the run produced no records at all.
	StatusNoData Status = "no_data"
)

// RouteOutcome is what happened to one route.
type RouteOutcome struct {
	Index       int
	Route       models.Route
	State       RouteState
	FailedAt    RouteState // last state reached before a skip
	Reason      string     // why the route was skipped
	Origin      models.Coordinate
	Destination models.Coordinate
	QuotedAt    time.Time
	Records     []models.FareRecord
}

// Report summarises one batch run.
type Report struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []RouteOutcome
	Status     Status
}

// Accumulated returns the number of routes that contributed to the table.
func (r *Report) Accumulated() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == StateAccumulated {
			n++
		}
	}

	return n
}

// Skipped returns the number of routes that were dropped.
func (r *Report) Skipped() int {
	return len(r.Outcomes) - r.Accumulated()
}

func classify(outcomes []RouteOutcome, rows int) Status {
	if rows == 0 {
		return StatusNoData
	}
	for _, o := range outcomes {
		if o.State != StateAccumulated {
			return StatusPartial
		}
	}

	return StatusComplete
}
