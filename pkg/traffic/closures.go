package traffic

import (
	"context"
	"fmt"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/engine"
	"github.com/NERVsystems/mapmcp/pkg/geo"
)

// ClosureResult is an active closure annotated with its distance.
type ClosureResult struct {
	dataset.RoadClosure
	DistanceKm float64 `json:"distance_km"`
}

// RoadClosuresResult is the answer to RoadClosures.
type RoadClosuresResult struct {
	SearchLocation  geo.Location    `json:"search_location"`
	RadiusKm        float64         `json:"radius_km"`
	SeverityFilter  string          `json:"severity_filter,omitempty"`
	ClosuresFound   int             `json:"closures_found"`
	ActiveClosures  []ClosureResult `json:"active_closures"`
	SeveritySummary map[string]int  `json:"severity_summary"`
	Alerts          []string        `json:"alerts"`
}

// RoadClosures lists active closures within the radius, nearest first, with
// alerts for high-severity closures close by.
func (s *Service) RoadClosures(ctx context.Context, opts RoadClosuresOptions) (*RoadClosuresResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	candidates, err := s.closures.Near(ctx, opts.Location, opts.RadiusKm)
	if err != nil {
		return nil, fmt.Errorf("search road closures: %w", err)
	}
	hits, err := engine.Nearby(candidates, opts.Location, opts.RadiusKm, func(c dataset.RoadClosure) bool {
		return c.IsActive && (opts.Severity == "" || c.Severity == opts.Severity)
	})
	if err != nil {
		return nil, err
	}

	result := &RoadClosuresResult{
		SearchLocation:  opts.Location,
		RadiusKm:        opts.RadiusKm,
		SeverityFilter:  opts.Severity,
		ClosuresFound:   len(hits),
		ActiveClosures:  make([]ClosureResult, 0, len(hits)),
		SeveritySummary: make(map[string]int, len(dataset.Severities)),
		Alerts:          []string{},
	}
	for _, sev := range dataset.Severities {
		result.SeveritySummary[sev] = 0
	}
	for _, h := range hits {
		result.ActiveClosures = append(result.ActiveClosures, ClosureResult{RoadClosure: h.Record, DistanceKm: engine.Round(h.DistanceKm, 2)})
		result.SeveritySummary[h.Record.Severity]++
	}

	if n := result.SeveritySummary["high"]; n > 0 {
		result.Alerts = append(result.Alerts, fmt.Sprintf("WARNING: %d high-severity road closure(s) in your area", n))
	}
	for i, c := range result.ActiveClosures {
		if i == 3 {
			break
		}
		if c.Severity == "high" {
			result.Alerts = append(result.Alerts, fmt.Sprintf("ALERT: %s - %s", c.RoadName, c.Description))
		}
	}
	return result, nil
}
