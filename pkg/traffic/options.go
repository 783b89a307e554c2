package traffic

import (
	"math"
	"slices"
	"strings"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/geo"
	"github.com/NERVsystems/mapmcp/pkg/maperr"
)

// DefaultClosureRadiusKm is the closure search radius when none is given.
const DefaultClosureRadiusKm = 10.0

// CheckRouteOptions are the parameters of CheckRoute.
type CheckRouteOptions struct {
	Origin           geo.Location
	Destination      geo.Location
	IncludeIncidents bool
}

func (o *CheckRouteOptions) Validate() error {
	if err := o.Origin.Validate(); err != nil {
		return err
	}
	return o.Destination.Validate()
}

// AlternateRoutesOptions are the parameters of AlternateRoutes.
type AlternateRoutesOptions struct {
	Origin      geo.Location
	Destination geo.Location
	// AvoidLevel is the lowest traffic level to steer away from; empty
	// means heavy.
	AvoidLevel string
}

func (o *AlternateRoutesOptions) Validate() error {
	if err := o.Origin.Validate(); err != nil {
		return err
	}
	if err := o.Destination.Validate(); err != nil {
		return err
	}
	if o.AvoidLevel == "" {
		o.AvoidLevel = dataset.TrafficHeavy
	}
	level := strings.ToLower(strings.TrimSpace(o.AvoidLevel))
	if dataset.TrafficLevelRank(level) == 0 {
		return maperr.InvalidParameter("avoid_traffic_level", o.AvoidLevel,
			"must be one of %s", strings.Join(dataset.TrafficLevels, ", "))
	}
	o.AvoidLevel = level
	return nil
}

// RoadClosuresOptions are the parameters of RoadClosures.
type RoadClosuresOptions struct {
	Location geo.Location
	RadiusKm float64
	Severity string // optional; high, medium or low
}

func (o *RoadClosuresOptions) Validate() error {
	if err := o.Location.Validate(); err != nil {
		return err
	}
	if o.RadiusKm == 0 {
		o.RadiusKm = DefaultClosureRadiusKm
	}
	if math.IsNaN(o.RadiusKm) || math.IsInf(o.RadiusKm, 0) || o.RadiusKm <= 0 {
		return maperr.InvalidParameter("radius_km", o.RadiusKm, "must be greater than 0")
	}
	if o.Severity != "" {
		sev := strings.ToLower(strings.TrimSpace(o.Severity))
		if !slices.Contains(dataset.Severities, sev) {
			return maperr.InvalidParameter("severity_filter", o.Severity,
				"must be one of %s", strings.Join(dataset.Severities, ", "))
		}
		o.Severity = sev
	}
	return nil
}
