package engine

import (
	"fmt"
	"math"
	"slices"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/geo"
	"github.com/NERVsystems/mapmcp/pkg/maperr"
)

// RouteRequest describes a trip to split into legs no longer than MaxRangeKm.
type RouteRequest struct {
	Origin      geo.Location
	Destination geo.Location
	MaxRangeKm  float64
	// ReserveFraction is kept in hand on every leg once stops are needed,
	// e.g. 0.2 plans legs of at most 80% of MaxRangeKm.
	ReserveFraction float64
}

// Validate checks coordinates and numeric bounds.
func (r RouteRequest) Validate() error {
	if err := r.Origin.Validate(); err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	if err := r.Destination.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if math.IsNaN(r.MaxRangeKm) || math.IsInf(r.MaxRangeKm, 0) || r.MaxRangeKm <= 0 {
		return maperr.InvalidParameter("max_range_km", r.MaxRangeKm, "must be a positive number")
	}
	if math.IsNaN(r.ReserveFraction) || r.ReserveFraction < 0 || r.ReserveFraction >= 1 {
		return maperr.InvalidParameter("reserve_fraction", r.ReserveFraction, "must be in [0,1)")
	}
	return nil
}

// UsableRangeKm is the per-leg distance allowed once stops are needed.
func (r RouteRequest) UsableRangeKm() float64 {
	return r.MaxRangeKm * (1 - r.ReserveFraction)
}

// Leg is one straight-line hop of a planned route. FromID and ToID are empty
// for the origin and destination.
type Leg struct {
	From       geo.Location
	To         geo.Location
	FromID     string
	ToID       string
	DistanceKm float64
}

// RoutePlan is the outcome of PlanStops. An infeasible plan is a normal
// result: it carries the legs completed before the search got stuck.
type RoutePlan[T dataset.Record] struct {
	TotalDistanceKm      float64 // origin to destination, great circle
	Waypoints            []T
	Legs                 []Leg
	CumulativeDistanceKm float64 // sum of Legs
	UsableRangeKm        float64
	SafetyMarginKm       float64
	Direct               bool
	Feasible             bool
	Diagnostic           string
}

// PlanStops inserts waypoints from candidates between origin and destination
// so no leg exceeds the usable range. Each step takes the reachable candidate
// that brings the trip closest to the destination; equal progress goes to the
// lowest record ID. When the trip fits in MaxRangeKm it is returned as a
// single direct leg without applying the reserve.
//
// Distances are great-circle approximations with no elevation or road
// curvature.
func PlanStops[T dataset.Record](req RouteRequest, candidates []T) (RoutePlan[T], error) {
	if err := req.Validate(); err != nil {
		return RoutePlan[T]{}, err
	}

	total := req.Origin.DistanceTo(req.Destination)
	usable := req.UsableRangeKm()
	plan := RoutePlan[T]{
		TotalDistanceKm: total,
		UsableRangeKm:   usable,
		SafetyMarginKm:  req.MaxRangeKm - usable,
	}

	if total <= req.MaxRangeKm {
		plan.Direct = true
		plan.Feasible = true
		plan.addLeg(Leg{From: req.Origin, To: req.Destination, DistanceKm: total})
		return plan, nil
	}

	pool := slices.Clone(candidates)
	current, currentID := req.Origin, ""
	remaining := total

	for remaining > usable {
		best := -1
		var bestProgress, bestRemaining, bestHop float64
		for i, c := range pool {
			hop := current.DistanceTo(c.Point())
			if hop > usable {
				continue
			}
			left := c.Point().DistanceTo(req.Destination)
			if left >= remaining {
				continue
			}
			progress := remaining - left
			if best < 0 || progress > bestProgress ||
				(progress == bestProgress && c.RecordID() < pool[best].RecordID()) {
				best, bestProgress, bestRemaining, bestHop = i, progress, left, hop
			}
		}

		if best < 0 {
			plan.Diagnostic = stuckDiagnostic(current, currentID, remaining, usable, pool)
			return plan, nil
		}

		stop := pool[best]
		plan.addLeg(Leg{From: current, To: stop.Point(), FromID: currentID, ToID: stop.RecordID(), DistanceKm: bestHop})
		plan.Waypoints = append(plan.Waypoints, stop)
		pool = slices.Delete(pool, best, best+1)

		current, currentID = stop.Point(), stop.RecordID()
		remaining = bestRemaining
	}

	plan.addLeg(Leg{From: current, To: req.Destination, FromID: currentID, DistanceKm: remaining})
	plan.Feasible = true
	return plan, nil
}

func (p *RoutePlan[T]) addLeg(l Leg) {
	p.Legs = append(p.Legs, l)
	p.CumulativeDistanceKm += l.DistanceKm
}

func stuckDiagnostic[T dataset.Record](at geo.Location, atID string, remaining, usable float64, pool []T) string {
	where := "origin"
	if atID != "" {
		where = atID
	}
	msg := fmt.Sprintf("no stop within %.1f km of %s (%s) gets closer to the destination; %.1f km remaining",
		usable, where, at, remaining)

	if nearest, ok := Nearest(pool, at, nil); ok {
		msg += fmt.Sprintf("; nearest unused stop %s is %.1f km away", nearest.Record.RecordID(), nearest.DistanceKm)
	} else {
		msg += "; no candidate stops left"
	}
	return msg
}
