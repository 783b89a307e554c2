package traffic

import (
	"context"
	"fmt"
	"math"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/engine"
	"github.com/NERVsystems/mapmcp/pkg/geo"
)

// PrimaryRouteName names the direct highway route.
const PrimaryRouteName = "Primary Highway Route"

// RouteOption is one candidate route in an AlternateRoutes answer.
type RouteOption struct {
	RouteName                string  `json:"route_name"`
	Description              string  `json:"description,omitempty"`
	DistanceKm               float64 `json:"distance_km"`
	EstimatedDurationMinutes float64 `json:"estimated_duration_minutes"`
	TrafficLevel             string  `json:"traffic_level"`
	DelayMinutes             float64 `json:"delay_minutes"`
	Advantage                string  `json:"advantage,omitempty"`
	// ExceedsAvoidLevel marks routes at or above the level to avoid.
	ExceedsAvoidLevel bool `json:"exceeds_avoid_level"`

	minutes float64
}

// AlternateRoutesResult is the answer to AlternateRoutes.
type AlternateRoutesResult struct {
	Origin            geo.Location  `json:"origin"`
	Destination       geo.Location  `json:"destination"`
	AvoidTrafficLevel string        `json:"avoid_traffic_level"`
	PrimaryRoute      RouteOption   `json:"primary_route"`
	AlternateRoutes   []RouteOption `json:"alternate_routes"`
	RoutesCompared    int           `json:"routes_compared"`
	Recommendation    string        `json:"recommendation"`
	BestRoute         string        `json:"best_route"`
}

// alternate derives a route from the primary by scaling distance, typical
// duration and delay.
type alternate struct {
	name, description string
	distanceFactor    float64
	durationFactor    float64
	delayFactor       float64
	level             func(primary string) string
	advantage         func(primary string) string
}

var alternates = []alternate{
	{
		name:           "Coastal Route",
		description:    "Take scenic coastal highway",
		distanceFactor: 1.1, durationFactor: 1.1, delayFactor: 0.7,
		level: func(p string) string {
			if p == dataset.TrafficHeavy {
				return dataset.TrafficLight
			}
			return dataset.TrafficModerate
		},
		advantage: func(p string) string {
			if p == dataset.TrafficHeavy {
				return "Less traffic, more scenic"
			}
			return "Alternative option"
		},
	},
	{
		name:           "Mountain Route",
		description:    "Take mountain highway through elevated areas",
		distanceFactor: 1.15, durationFactor: 1.2, delayFactor: 0.5,
		level:          func(string) string { return dataset.TrafficLight },
		advantage: func(p string) string {
			if p == dataset.TrafficHeavy || p == dataset.TrafficModerate {
				return "Minimal traffic"
			}
			return "Scenic route"
		},
	},
	{
		name:           "Secondary Roads",
		description:    "Use local roads and bypass highways",
		distanceFactor: 1.05, durationFactor: 1.15, delayFactor: 0.4,
		level: func(p string) string {
			if p == dataset.TrafficHeavy {
				return dataset.TrafficModerate
			}
			return dataset.TrafficLight
		},
		advantage: func(string) string { return "Avoid highway congestion" },
	},
}

// AlternateRoutes compares the primary route with coastal, mountain and
// secondary-road alternatives. Routes at or above the avoid level are left
// out of the recommendation unless every alternate is.
func (s *Service) AlternateRoutes(ctx context.Context, opts AlternateRoutesOptions) (*AlternateRoutesResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	primary, err := s.CheckRoute(ctx, CheckRouteOptions{Origin: opts.Origin, Destination: opts.Destination})
	if err != nil {
		return nil, err
	}
	avoidRank := dataset.TrafficLevelRank(opts.AvoidLevel)
	exceeds := func(level string) bool {
		r := dataset.TrafficLevelRank(level)
		return r > 0 && r >= avoidRank
	}

	result := &AlternateRoutesResult{
		Origin:            opts.Origin,
		Destination:       opts.Destination,
		AvoidTrafficLevel: opts.AvoidLevel,
		PrimaryRoute: RouteOption{
			RouteName:                PrimaryRouteName,
			DistanceKm:               primary.TotalDistanceKm,
			EstimatedDurationMinutes: primary.EstimatedDurationMinutes,
			TrafficLevel:             primary.OverallTrafficLevel,
			DelayMinutes:             primary.DelayMinutes,
			ExceedsAvoidLevel:        exceeds(primary.OverallTrafficLevel),
			minutes:                  primary.estimatedMinutes,
		},
		RoutesCompared: len(alternates) + 1,
	}

	total := opts.Origin.DistanceTo(opts.Destination)
	for _, alt := range alternates {
		hours, err := engine.EstimateDuration(total, s.cfg.TypicalSpeedKmh, alt.durationFactor)
		if err != nil {
			return nil, err
		}
		delay := primary.DelayMinutes * alt.delayFactor
		minutes := hours*60 + delay
		level := alt.level(primary.OverallTrafficLevel)
		result.AlternateRoutes = append(result.AlternateRoutes, RouteOption{
			RouteName:                alt.name,
			Description:              alt.description,
			DistanceKm:               engine.Round(total*alt.distanceFactor, 2),
			EstimatedDurationMinutes: engine.Round(minutes, 1),
			TrafficLevel:             level,
			DelayMinutes:             engine.Round(delay, 1),
			Advantage:                alt.advantage(primary.OverallTrafficLevel),
			ExceedsAvoidLevel:        exceeds(level),
			minutes:                  minutes,
		})
	}

	best := bestAlternate(result.AlternateRoutes)
	primaryMinutes := result.PrimaryRoute.minutes
	switch {
	case best.minutes < primaryMinutes*0.9:
		result.Recommendation = fmt.Sprintf("Recommended: Take %s - saves approximately %.0f minutes",
			best.RouteName, math.Round(primaryMinutes-best.minutes))
		result.BestRoute = best.RouteName
	case result.PrimaryRoute.ExceedsAvoidLevel:
		result.Recommendation = fmt.Sprintf("Consider %s to avoid %s traffic, though slightly longer",
			best.RouteName, primary.OverallTrafficLevel)
		result.BestRoute = best.RouteName
	default:
		result.Recommendation = "Primary route is optimal - stick to main highway"
		result.BestRoute = PrimaryRouteName
		if best.minutes < primaryMinutes {
			result.BestRoute = best.RouteName
		}
	}
	return result, nil
}

// bestAlternate returns the fastest route below the avoid level, or the
// fastest overall when none qualifies.
func bestAlternate(routes []RouteOption) RouteOption {
	pick := func(allowAvoided bool) (RouteOption, bool) {
		var best RouteOption
		found := false
		for _, r := range routes {
			if r.ExceedsAvoidLevel && !allowAvoided {
				continue
			}
			if !found || r.minutes < best.minutes {
				best, found = r, true
			}
		}
		return best, found
	}
	if best, ok := pick(false); ok {
		return best
	}
	best, _ := pick(true)
	return best
}
