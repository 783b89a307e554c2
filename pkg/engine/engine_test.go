package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/geo"
	"github.com/NERVsystems/mapmcp/pkg/maperr"
)

// stop is a minimal dataset.Record for synthetic scenarios.
type stop struct {
	id  string
	loc geo.Location
}

func (s stop) RecordID() string    { return s.id }
func (s stop) Point() geo.Location { return s.loc }

// equator returns a stop on the equator at the given longitude; one degree
// is about 111.2 km.
func equator(id string, lon float64) stop {
	return stop{id: id, loc: geo.Location{Latitude: 0, Longitude: lon}}
}

var (
	beirut  = geo.Location{Latitude: 33.8938, Longitude: 35.5018}
	tripoli = geo.Location{Latitude: 34.4364, Longitude: 35.8211}
)

func ids[T dataset.Record](records []T) string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.RecordID()
	}
	return strings.Join(out, ",")
}

func TestNearby(t *testing.T) {
	candidates := []stop{
		equator("far", 0.5),
		equator("b", 0.02),
		equator("a", 0.02),
		equator("near", 0.01),
		equator("west", -0.03),
	}
	center := geo.Location{}

	tests := []struct {
		name   string
		radius float64
		match  func(stop) bool
		want   string
	}{
		{name: "sorted with stable ties", radius: 5, want: "near,b,a,west"},
		{name: "radius bound", radius: 1.5, want: "near"},
		{name: "predicate", radius: 100, match: func(s stop) bool { return s.id != "near" }, want: "b,a,west,far"},
		{name: "empty", radius: 0.5, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := Nearby(candidates, center, tt.radius, tt.match)
			if err != nil {
				t.Fatalf("Nearby() error: %v", err)
			}
			got := make([]stop, len(hits))
			for i, h := range hits {
				got[i] = h.Record
				if h.DistanceKm > tt.radius {
					t.Errorf("hit %s at %.2f km outside radius %.2f", h.Record.id, h.DistanceKm, tt.radius)
				}
				if i > 0 && h.DistanceKm < hits[i-1].DistanceKm {
					t.Errorf("hits not sorted at %d", i)
				}
			}
			if ids(got) != tt.want {
				t.Errorf("Nearby() = %s, want %s", ids(got), tt.want)
			}
		})
	}
}

func TestNearbyErrors(t *testing.T) {
	var paramErr *maperr.InvalidParameterError
	for _, r := range []float64{0, -1, math.NaN()} {
		if _, err := Nearby([]stop{}, geo.Location{}, r, nil); !errors.As(err, &paramErr) {
			t.Errorf("radius %v: expected InvalidParameterError, got %v", r, err)
		}
	}
	var coordErr *maperr.InvalidCoordinateError
	if _, err := Nearby([]stop{}, geo.Location{Latitude: 95}, 5, nil); !errors.As(err, &coordErr) {
		t.Errorf("expected InvalidCoordinateError, got %v", err)
	}
}

func TestNearest(t *testing.T) {
	candidates := []stop{equator("x", 0.5), equator("y", 0.1), equator("z", 0.1)}
	hit, ok := Nearest(candidates, geo.Location{}, nil)
	if !ok || hit.Record.id != "y" {
		t.Errorf("Nearest() = %v, %v; want y", hit.Record.id, ok)
	}
	if _, ok := Nearest(candidates, geo.Location{}, func(stop) bool { return false }); ok {
		t.Error("Nearest() with no match should report !ok")
	}
}

func TestPlanStopsSynthetic(t *testing.T) {
	origin := geo.Location{}
	dest := geo.Location{Latitude: 0, Longitude: 1} // ~111.2 km

	tests := []struct {
		name         string
		maxRange     float64
		reserve      float64
		candidates   []stop
		wantStops    string
		wantFeasible bool
		wantDirect   bool
	}{
		{
			name:         "direct when within range",
			maxRange:     120,
			reserve:      0.2,
			candidates:   []stop{equator("s1", 0.5)},
			wantFeasible: true,
			wantDirect:   true,
		},
		{
			name:         "reserve applied once stops are needed",
			maxRange:     100,
			reserve:      0.2,
			candidates:   []stop{equator("s1", 0.3), equator("s2", 0.6), equator("s3", 0.7)},
			wantStops:    "s3",
			wantFeasible: true,
		},
		{
			name:         "maximum progress wins",
			maxRange:     50,
			reserve:      0,
			candidates:   []stop{equator("s1", 0.2), equator("s2", 0.4), equator("s3", 0.8), equator("s4", 0.6)},
			wantStops:    "s2,s3",
			wantFeasible: true,
		},
		{
			name:         "equal progress goes to lowest id",
			maxRange:     70,
			reserve:      0,
			candidates:   []stop{equator("b", 0.5), equator("a", 0.5)},
			wantStops:    "a",
			wantFeasible: true,
		},
		{
			name:         "candidate behind origin never chosen",
			maxRange:     40,
			reserve:      0,
			candidates:   []stop{equator("back", -0.1), equator("s1", 0.3), equator("s2", 0.6), equator("s3", 0.9)},
			wantStops:    "s1,s2,s3",
			wantFeasible: true,
		},
		{
			name:       "stuck with partial legs",
			maxRange:   50,
			reserve:    0.2,
			candidates: []stop{equator("s1", 0.3), equator("far", 0.9)},
			wantStops:  "s1",
		},
		{
			name:       "no candidates",
			maxRange:   50,
			reserve:    0,
			candidates: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := RouteRequest{Origin: origin, Destination: dest, MaxRangeKm: tt.maxRange, ReserveFraction: tt.reserve}
			plan, err := PlanStops(req, tt.candidates)
			if err != nil {
				t.Fatalf("PlanStops() error: %v", err)
			}

			if got := ids(plan.Waypoints); got != tt.wantStops {
				t.Errorf("waypoints = %q, want %q", got, tt.wantStops)
			}
			if plan.Feasible != tt.wantFeasible {
				t.Errorf("feasible = %v, want %v (%s)", plan.Feasible, tt.wantFeasible, plan.Diagnostic)
			}
			if plan.Direct != tt.wantDirect {
				t.Errorf("direct = %v, want %v", plan.Direct, tt.wantDirect)
			}

			var sum float64
			for i, leg := range plan.Legs {
				sum += leg.DistanceKm
				if !plan.Direct && leg.DistanceKm > plan.UsableRangeKm+1e-9 {
					t.Errorf("leg %d is %.2f km, over usable range %.2f", i, leg.DistanceKm, plan.UsableRangeKm)
				}
			}
			if math.Abs(sum-plan.CumulativeDistanceKm) > 1e-9 {
				t.Errorf("cumulative %.3f != sum of legs %.3f", plan.CumulativeDistanceKm, sum)
			}

			if plan.Feasible {
				if len(plan.Legs) != len(plan.Waypoints)+1 {
					t.Errorf("feasible plan has %d legs for %d waypoints", len(plan.Legs), len(plan.Waypoints))
				}
				if plan.Diagnostic != "" {
					t.Errorf("feasible plan has diagnostic %q", plan.Diagnostic)
				}
			} else {
				if len(plan.Legs) != len(plan.Waypoints) {
					t.Errorf("infeasible plan has %d legs for %d waypoints", len(plan.Legs), len(plan.Waypoints))
				}
				if !strings.Contains(plan.Diagnostic, "remaining") {
					t.Errorf("diagnostic %q does not report remaining distance", plan.Diagnostic)
				}
			}
		})
	}
}

func TestPlanStopsDoesNotMutateCandidates(t *testing.T) {
	candidates := []stop{equator("s1", 0.3), equator("s2", 0.6), equator("s3", 0.9)}
	req := RouteRequest{Origin: geo.Location{}, Destination: geo.Location{Longitude: 1}, MaxRangeKm: 40}
	if _, err := PlanStops(req, candidates); err != nil {
		t.Fatal(err)
	}
	if ids(candidates) != "s1,s2,s3" {
		t.Errorf("candidates modified: %s", ids(candidates))
	}
}

func TestPlanStopsValidation(t *testing.T) {
	tests := []struct {
		name string
		req  RouteRequest
	}{
		{name: "zero range", req: RouteRequest{Origin: beirut, Destination: tripoli, MaxRangeKm: 0}},
		{name: "negative range", req: RouteRequest{Origin: beirut, Destination: tripoli, MaxRangeKm: -10}},
		{name: "reserve of one", req: RouteRequest{Origin: beirut, Destination: tripoli, MaxRangeKm: 10, ReserveFraction: 1}},
		{name: "invalid origin", req: RouteRequest{Origin: geo.Location{Latitude: 100}, Destination: tripoli, MaxRangeKm: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PlanStops[stop](tt.req, nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func operationalStations(t *testing.T) []dataset.ChargingStation {
	t.Helper()
	store, err := dataset.LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error: %v", err)
	}
	var out []dataset.ChargingStation
	for _, s := range store.Stations.All() {
		if s.IsOperational {
			out = append(out, s)
		}
	}
	return out
}

func TestPlanStopsBeirutTripoli(t *testing.T) {
	stations := operationalStations(t)

	tests := []struct {
		maxRange     float64
		wantStops    string
		wantFeasible bool
	}{
		{maxRange: 300, wantStops: "", wantFeasible: true},
		{maxRange: 100, wantStops: "", wantFeasible: true},
		{maxRange: 60, wantStops: "EV008", wantFeasible: true},
		{maxRange: 50, wantStops: "EV007", wantFeasible: true},
		{maxRange: 30, wantStops: "EV006,EV007,EV009", wantFeasible: true},
		{maxRange: 20, wantStops: "EV006", wantFeasible: false},
		{maxRange: 10, wantStops: "EV001", wantFeasible: false},
	}

	for _, tt := range tests {
		req := RouteRequest{Origin: beirut, Destination: tripoli, MaxRangeKm: tt.maxRange, ReserveFraction: 0.2}
		plan, err := PlanStops(req, stations)
		if err != nil {
			t.Fatalf("range %.0f: PlanStops() error: %v", tt.maxRange, err)
		}
		if got := ids(plan.Waypoints); got != tt.wantStops || plan.Feasible != tt.wantFeasible {
			t.Errorf("range %.0f: stops %q feasible %v, want %q feasible %v",
				tt.maxRange, got, plan.Feasible, tt.wantStops, tt.wantFeasible)
		}
		if math.Abs(plan.TotalDistanceKm-67.1) > 2 {
			t.Errorf("total distance %.2f, want 67.1 ± 2", plan.TotalDistanceKm)
		}
	}
}

func TestEstimates(t *testing.T) {
	t.Run("cost", func(t *testing.T) {
		for _, d := range []float64{0, 10, 67.1} {
			got, err := EstimateCost(d, 0.12)
			if err != nil {
				t.Fatalf("EstimateCost(%v) error: %v", d, err)
			}
			if math.Abs(got-d*0.12) > 1e-12 {
				t.Errorf("EstimateCost(%v, 0.12) = %v", d, got)
			}
		}
		if _, err := EstimateCost(-1, 0.12); err == nil {
			t.Error("expected error for negative distance")
		}
		if _, err := EstimateCost(10, 0); err == nil {
			t.Error("expected error for zero rate")
		}
	})

	t.Run("energy", func(t *testing.T) {
		got, err := EstimateEnergy(200, 15)
		if err != nil || got != 30 {
			t.Errorf("EstimateEnergy(200, 15) = %v, %v; want 30", got, err)
		}
		if _, err := EstimateEnergy(10, -1); err == nil {
			t.Error("expected error for negative consumption")
		}
	})

	t.Run("duration", func(t *testing.T) {
		tests := []struct {
			distance, speed, congestion, want float64
		}{
			{distance: 80, speed: 80, congestion: 1, want: 1},
			{distance: 80, speed: 80, congestion: 0, want: 1},
			{distance: 35, speed: 70, congestion: 1.5, want: 0.75},
			{distance: 0, speed: 50, congestion: 1, want: 0},
		}
		for _, tt := range tests {
			got, err := EstimateDuration(tt.distance, tt.speed, tt.congestion)
			if err != nil || math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("EstimateDuration(%v, %v, %v) = %v, %v; want %v", tt.distance, tt.speed, tt.congestion, got, err, tt.want)
			}
		}
		if _, err := EstimateDuration(10, 0, 1); err == nil {
			t.Error("expected error for zero speed")
		}
		if _, err := EstimateDuration(10, 50, 0.5); err == nil {
			t.Error("expected error for congestion below 1")
		}
	})
}

func TestRound(t *testing.T) {
	if got := Round(67.10621, 2); got != 67.11 {
		t.Errorf("Round(67.10621, 2) = %v", got)
	}
	if got := Round(1.005, 0); got != 1 {
		t.Errorf("Round(1.005, 0) = %v", got)
	}
}

// TestNearbyThroughCollection checks that prefiltering with Collection.Near
// never drops a record an exhaustive great-circle scan would return, near
// the poles and across the 180° meridian included.
func TestNearbyThroughCollection(t *testing.T) {
	centers := []geo.Location{
		beirut,
		{Latitude: 0, Longitude: 179.99},
		{Latitude: -16.5, Longitude: -179.95},
		{Latitude: 89.95, Longitude: 10},
		{Latitude: -89.9, Longitude: -120},
		{Latitude: 65, Longitude: 180},
	}

	var fixtures []stop
	add := func(lat, lon float64) {
		if lat > 90 || lat < -90 {
			return
		}
		if lon > 180 {
			lon -= 360
		}
		if lon < -180 {
			lon += 360
		}
		fixtures = append(fixtures, stop{
			id:  fmt.Sprintf("P%04d", len(fixtures)),
			loc: geo.Location{Latitude: lat, Longitude: lon},
		})
	}
	for _, c := range centers {
		for i := -6; i <= 6; i++ {
			for j := -6; j <= 6; j++ {
				add(c.Latitude+float64(i)*0.05, c.Longitude+float64(j)*0.05)
			}
		}
	}
	for lon := -180.0; lon < 180; lon += 30 {
		add(89.92, lon)
		add(-89.95, lon)
	}

	coll, err := dataset.NewCollection("fixtures", fixtures)
	if err != nil {
		t.Fatalf("NewCollection() error: %v", err)
	}

	for _, center := range centers {
		for _, radius := range []float64{1, 5, 20, 50} {
			t.Run(fmt.Sprintf("%s/%gkm", center, radius), func(t *testing.T) {
				want := 0
				for _, f := range fixtures {
					if geo.HaversineKm(center.Latitude, center.Longitude, f.loc.Latitude, f.loc.Longitude) <= radius {
						want++
					}
				}

				near, err := coll.Near(context.Background(), center, radius)
				if err != nil {
					t.Fatalf("Near() error: %v", err)
				}
				got, err := Nearby(near, center, radius, nil)
				if err != nil {
					t.Fatalf("Nearby() error: %v", err)
				}
				all, err := Nearby(fixtures, center, radius, nil)
				if err != nil {
					t.Fatalf("Nearby() error: %v", err)
				}

				if len(got) != want || len(all) != want {
					t.Fatalf("found %d via Near and %d by full scan, want %d", len(got), len(all), want)
				}
				for i := range got {
					if got[i].Record.id != all[i].Record.id {
						t.Fatalf("result %d = %s, want %s", i, got[i].Record.id, all[i].Record.id)
					}
				}
			})
		}
	}
}
