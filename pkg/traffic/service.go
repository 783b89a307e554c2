// Package traffic reports traffic conditions, alternate routes and road
// closures from the traffic and closure datasets.
package traffic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/engine"
	"github.com/NERVsystems/mapmcp/pkg/geo"
)

// LevelUnknown is reported when no segment covers a route.
const LevelUnknown = "unknown"

// Config holds traffic assumptions.
type Config struct {
	TypicalSpeedKmh float64
	// CorridorFactor bounds how far, relative to the trip length, a segment
	// may start from the origin and end from the destination.
	CorridorFactor float64
}

// DefaultConfig returns the stock assumptions.
func DefaultConfig() Config {
	return Config{TypicalSpeedKmh: 70, CorridorFactor: 1.5}
}

// Service answers traffic queries.
type Service struct {
	segments dataset.Provider[dataset.TrafficSegment]
	closures dataset.Provider[dataset.RoadClosure]
	cfg      Config
	logger   *slog.Logger
}

// NewService creates a traffic service.
func NewService(segments dataset.Provider[dataset.TrafficSegment], closures dataset.Provider[dataset.RoadClosure], cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{segments: segments, closures: closures, cfg: cfg, logger: logger.With("service", "traffic")}
}

// SegmentReport is the traffic on one road segment along a route.
type SegmentReport struct {
	ID              string             `json:"id"`
	RoadName        string             `json:"road_name"`
	Segment         string             `json:"segment"`
	DistanceKm      float64            `json:"distance_km"`
	TrafficLevel    string             `json:"traffic_level"`
	AverageSpeedKmh float64            `json:"average_speed_kmh"`
	TypicalSpeedKmh float64            `json:"typical_speed_kmh"`
	DelayMinutes    float64            `json:"delay_minutes"`
	IncidentCount   int                `json:"incident_count"`
	Incidents       []dataset.Incident `json:"incidents,omitempty"`
}

// RouteIncident is an incident tagged with the road it happened on.
type RouteIncident struct {
	Road    string `json:"road"`
	Segment string `json:"segment"`
	dataset.Incident
}

// RouteReport is the answer to CheckRoute.
type RouteReport struct {
	Origin                   geo.Location    `json:"origin"`
	Destination              geo.Location    `json:"destination"`
	TotalDistanceKm          float64         `json:"total_distance_km"`
	OverallTrafficLevel      string          `json:"overall_traffic_level"`
	EstimatedDurationMinutes float64         `json:"estimated_duration_minutes"`
	TypicalDurationMinutes   float64         `json:"typical_duration_minutes"`
	DelayMinutes             float64         `json:"delay_minutes"`
	CongestionFactor         float64         `json:"congestion_factor"`
	AverageSpeedKmh          float64         `json:"average_speed_kmh,omitempty"`
	RouteSegments            []SegmentReport `json:"route_segments"`
	IncidentsCount           int             `json:"incidents_count"`
	Incidents                []RouteIncident `json:"incidents,omitempty"`
	Recommendation           string          `json:"recommendation"`

	// unrounded, for AlternateRoutes
	typicalMinutes   float64
	estimatedMinutes float64
}

// CheckRoute reports traffic on the segments that roughly lie along the
// straight line from origin to destination.
func (s *Service) CheckRoute(ctx context.Context, opts CheckRouteOptions) (*RouteReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	total := opts.Origin.DistanceTo(opts.Destination)
	segments, err := s.routeSegments(ctx, opts.Origin, opts.Destination, total)
	if err != nil {
		return nil, err
	}

	typicalHours, err := engine.EstimateDuration(total, s.cfg.TypicalSpeedKmh, 1)
	if err != nil {
		return nil, err
	}
	typical := typicalHours * 60

	report := &RouteReport{
		Origin:              opts.Origin,
		Destination:         opts.Destination,
		TotalDistanceKm:     engine.Round(total, 2),
		OverallTrafficLevel: LevelUnknown,
		RouteSegments:       make([]SegmentReport, 0, len(segments)),
		CongestionFactor:    1,
	}

	var delay, speedSum float64
	worst := 0
	for _, seg := range segments {
		delay += seg.DelayMinutes
		speedSum += seg.AverageSpeedKmh
		if r := dataset.TrafficLevelRank(seg.TrafficLevel); r > worst {
			worst = r
			report.OverallTrafficLevel = seg.TrafficLevel
		}

		sr := SegmentReport{
			ID:              seg.ID,
			RoadName:        seg.RoadName,
			Segment:         seg.Segment,
			DistanceKm:      engine.Round(seg.StartLocation.DistanceTo(seg.EndLocation), 2),
			TrafficLevel:    seg.TrafficLevel,
			AverageSpeedKmh: seg.AverageSpeedKmh,
			TypicalSpeedKmh: seg.TypicalSpeedKmh,
			DelayMinutes:    seg.DelayMinutes,
			IncidentCount:   len(seg.Incidents),
		}
		report.IncidentsCount += len(seg.Incidents)
		if opts.IncludeIncidents {
			sr.Incidents = seg.Incidents
			for _, inc := range seg.Incidents {
				report.Incidents = append(report.Incidents, RouteIncident{Road: seg.RoadName, Segment: seg.Segment, Incident: inc})
			}
		}
		report.RouteSegments = append(report.RouteSegments, sr)
	}

	report.typicalMinutes = typical
	report.estimatedMinutes = typical + delay
	report.TypicalDurationMinutes = engine.Round(typical, 1)
	report.EstimatedDurationMinutes = engine.Round(typical+delay, 1)
	report.DelayMinutes = delay
	if typical > 0 {
		report.CongestionFactor = engine.Round((typical+delay)/typical, 2)
	}
	if len(segments) > 0 {
		report.AverageSpeedKmh = engine.Round(speedSum/float64(len(segments)), 1)
		report.Recommendation = recommendation(report.OverallTrafficLevel, delay)
	} else {
		report.Recommendation = "No real-time traffic data available for this route"
	}

	s.logger.Debug("checked route traffic",
		"segments", len(segments),
		"level", report.OverallTrafficLevel,
		"delay_minutes", delay)
	return report, nil
}

func (s *Service) routeSegments(ctx context.Context, origin, dest geo.Location, total float64) ([]dataset.TrafficSegment, error) {
	reach := total * s.cfg.CorridorFactor
	if reach <= 0 {
		return nil, nil
	}
	near, err := s.segments.Near(ctx, origin, reach)
	if err != nil {
		return nil, fmt.Errorf("search traffic segments: %w", err)
	}
	var out []dataset.TrafficSegment
	for _, seg := range near {
		if origin.DistanceTo(seg.StartLocation) < reach && seg.EndLocation.DistanceTo(dest) < reach {
			out = append(out, seg)
		}
	}
	return out, nil
}

func recommendation(level string, delayMinutes float64) string {
	switch {
	case level == dataset.TrafficHeavy || delayMinutes > 15:
		return "Heavy traffic expected. Consider alternate route or delay departure."
	case level == dataset.TrafficModerate || delayMinutes > 5:
		return "Moderate traffic conditions. Allow extra time for your journey."
	default:
		return "Good conditions. Route is clear with minimal delays."
	}
}
