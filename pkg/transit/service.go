// Package transit plans public-transport trips and finds stops and points of
// interest around a location.
package transit

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/engine"
	"github.com/NERVsystems/mapmcp/pkg/geo"
	"github.com/NERVsystems/mapmcp/pkg/maperr"
)

// Segment types other than the transit modes.
const SegmentWalk = "walk"

// Config holds speed and planning assumptions.
type Config struct {
	WalkingSpeedKmh    float64
	BusSpeedKmh        float64
	RailSpeedKmh       float64 // metro and tram
	WaitMinutes        float64 // per transit segment
	MaxSegmentKm       float64 // longest hop between consecutive stops
	StopSearchRadiusKm float64 // how far to look for a boarding stop
}

// DefaultConfig returns the stock assumptions.
func DefaultConfig() Config {
	return Config{
		WalkingSpeedKmh:    5,
		BusSpeedKmh:        30,
		RailSpeedKmh:       50,
		WaitMinutes:        10,
		MaxSegmentKm:       30,
		StopSearchRadiusKm: 25,
	}
}

// Service answers transit and POI queries.
type Service struct {
	stops  dataset.Provider[dataset.TransitStop]
	pois   dataset.Provider[dataset.POI]
	cfg    Config
	logger *slog.Logger
}

// NewService creates a transit service.
func NewService(stops dataset.Provider[dataset.TransitStop], pois dataset.Provider[dataset.POI], cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{stops: stops, pois: pois, cfg: cfg, logger: logger.With("service", "transit")}
}

// StopResult is a stop annotated with its distance from the search point.
type StopResult struct {
	dataset.TransitStop
	DistanceKm float64 `json:"distance_km"`
}

// NearbyStopsResult is the answer to NearbyStops.
type NearbyStopsResult struct {
	SearchLocation    geo.Location `json:"search_location"`
	RadiusKm          float64      `json:"radius_km"`
	TransitTypeFilter string       `json:"transit_type_filter,omitempty"`
	StopsFound        int          `json:"stops_found"`
	Stops             []StopResult `json:"stops"`
}

// NearbyStops lists stops within the radius, nearest first.
func (s *Service) NearbyStops(ctx context.Context, opts NearbyStopsOptions) (*NearbyStopsResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	candidates, err := s.stops.Near(ctx, opts.Location, opts.RadiusKm)
	if err != nil {
		return nil, fmt.Errorf("search stops: %w", err)
	}
	hits, err := engine.Nearby(candidates, opts.Location, opts.RadiusKm, ofTypes(opts.TransitType))
	if err != nil {
		return nil, err
	}

	result := &NearbyStopsResult{
		SearchLocation:    opts.Location,
		RadiusKm:          opts.RadiusKm,
		TransitTypeFilter: opts.TransitType,
		StopsFound:        len(hits),
		Stops:             make([]StopResult, 0, len(hits)),
	}
	for _, h := range hits {
		result.Stops = append(result.Stops, StopResult{TransitStop: h.Record, DistanceKm: engine.Round(h.DistanceKm, 2)})
	}
	return result, nil
}

// Segment is one walk or ride of a planned trip.
type Segment struct {
	Segment              int      `json:"segment"`
	Type                 string   `json:"type"`
	From                 string   `json:"from"`
	To                   string   `json:"to"`
	DistanceKm           float64  `json:"distance_km"`
	Route                string   `json:"route,omitempty"`
	Stops                []string `json:"stops,omitempty"`
	WaitTimeMinutes      float64  `json:"wait_time_minutes,omitempty"`
	TravelTimeMinutes    float64  `json:"travel_time_minutes,omitempty"`
	EstimatedTimeMinutes float64  `json:"estimated_time_minutes"`
	Instructions         string   `json:"instructions"`
}

// Summary counts the segments of a trip.
type Summary struct {
	TotalSegments          int     `json:"total_segments"`
	WalkingSegments        int     `json:"walking_segments"`
	TransitSegments        int     `json:"transit_segments"`
	TotalWalkingDistanceKm float64 `json:"total_walking_distance_km"`
}

// PlanRouteResult is the answer to PlanRoute. When Feasible is false the
// segments end at the last reachable stop and Diagnostic says why.
type PlanRouteResult struct {
	Origin                    geo.Location `json:"origin"`
	Destination               geo.Location `json:"destination"`
	TotalDistanceKm           float64      `json:"total_distance_km"`
	PreferredTransitTypes     []string     `json:"preferred_transit_types,omitempty"`
	RouteSegments             []Segment    `json:"route_segments"`
	EstimatedTotalTimeMinutes float64      `json:"estimated_total_time_minutes"`
	Transfers                 int          `json:"transfers"`
	Summary                   Summary      `json:"summary"`
	Feasible                  bool         `json:"feasible"`
	Polyline                  string       `json:"polyline"`
	Diagnostic                string       `json:"diagnostic,omitempty"`
}

// PlanRoute walks to the stop nearest the origin, rides through transfer
// stops no more than MaxSegmentKm apart and walks from the stop nearest the
// destination. Consecutive hops on the same route and mode are merged into
// one segment.
func (s *Service) PlanRoute(ctx context.Context, opts PlanRouteOptions) (*PlanRouteResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	match := ofTypes(opts.PreferredTypes...)

	board, err := s.nearestStop(ctx, opts.Origin, match, "origin")
	if err != nil {
		return nil, err
	}
	alight, err := s.nearestStop(ctx, opts.Destination, match, "destination")
	if err != nil {
		return nil, err
	}

	result := &PlanRouteResult{
		Origin:                opts.Origin,
		Destination:           opts.Destination,
		TotalDistanceKm:       engine.Round(opts.Origin.DistanceTo(opts.Destination), 2),
		PreferredTransitTypes: opts.PreferredTypes,
		Feasible:              true,
	}
	b := newTripBuilder(s.cfg)
	b.walk("Origin", board.Record.Name, board.DistanceKm, "Walk to "+board.Record.Name)

	chain := []dataset.TransitStop{board.Record}
	if board.Record.ID != alight.Record.ID {
		plan, err := s.planHops(ctx, board.Record, alight.Record, match)
		if err != nil {
			return nil, err
		}
		chain = append(chain, plan.Waypoints...)
		if plan.Feasible {
			chain = append(chain, alight.Record)
		} else {
			result.Feasible = false
			result.Diagnostic = plan.Diagnostic
		}
		for i := 1; i < len(chain); i++ {
			if err := b.ride(chain[i-1], chain[i]); err != nil {
				return nil, err
			}
		}
	}

	if result.Feasible {
		b.walk(alight.Record.Name, "Destination", alight.DistanceKm, "Walk to destination from "+alight.Record.Name)
	}
	if err := b.err; err != nil {
		return nil, err
	}

	result.RouteSegments = b.segments
	result.EstimatedTotalTimeMinutes = engine.Round(b.minutes, 1)
	result.Summary = b.summary()
	result.Transfers = max(0, result.Summary.TransitSegments-1)

	points := []geo.Location{opts.Origin}
	for _, st := range chain {
		points = append(points, st.Location)
	}
	if result.Feasible {
		points = append(points, opts.Destination)
	}
	result.Polyline = geo.EncodePolyline(points)

	s.logger.Debug("planned transit route",
		"board", board.Record.ID,
		"alight", alight.Record.ID,
		"segments", len(result.RouteSegments),
		"feasible", result.Feasible)
	return result, nil
}

func (s *Service) nearestStop(ctx context.Context, p geo.Location, match func(dataset.TransitStop) bool, label string) (engine.Hit[dataset.TransitStop], error) {
	candidates, err := s.stops.Near(ctx, p, s.cfg.StopSearchRadiusKm)
	if err != nil {
		return engine.Hit[dataset.TransitStop]{}, fmt.Errorf("search stops near %s: %w", label, err)
	}
	hit, ok := engine.Nearest(candidates, p, match)
	if !ok {
		return hit, &maperr.NoResultError{
			Reason: fmt.Sprintf("no matching transit stop within %.0f km of the %s", s.cfg.StopSearchRadiusKm, label),
		}
	}
	return hit, nil
}

// planHops chooses transfer stops between board and alight.
func (s *Service) planHops(ctx context.Context, board, alight dataset.TransitStop, match func(dataset.TransitStop) bool) (engine.RoutePlan[dataset.TransitStop], error) {
	span := board.Location.DistanceTo(alight.Location)

	var candidates []dataset.TransitStop
	if span > s.cfg.MaxSegmentKm {
		near, err := s.stops.Near(ctx, alight.Location, span)
		if err != nil {
			return engine.RoutePlan[dataset.TransitStop]{}, fmt.Errorf("search transfer stops: %w", err)
		}
		for _, st := range near {
			if st.ID != board.ID && st.ID != alight.ID && match(st) {
				candidates = append(candidates, st)
			}
		}
	}

	return engine.PlanStops(engine.RouteRequest{
		Origin:      board.Location,
		Destination: alight.Location,
		MaxRangeKm:  s.cfg.MaxSegmentKm,
	}, candidates)
}

// ofTypes matches stops of any of the given modes; no modes matches all.
func ofTypes(types ...string) func(dataset.TransitStop) bool {
	var want []string
	for _, t := range types {
		if t != "" {
			want = append(want, t)
		}
	}
	return func(st dataset.TransitStop) bool {
		return len(want) == 0 || slices.Contains(want, st.Type)
	}
}
