package transit

import (
	"math"
	"slices"
	"strings"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/geo"
	"github.com/NERVsystems/mapmcp/pkg/maperr"
)

// Default search radii.
const (
	DefaultStopRadiusKm = 2.0
	DefaultPOIRadiusKm  = 3.0
)

// NearbyStopsOptions are the parameters of NearbyStops.
type NearbyStopsOptions struct {
	Location    geo.Location
	RadiusKm    float64
	TransitType string // optional; bus, metro or tram
}

func (o *NearbyStopsOptions) Validate() error {
	if err := o.Location.Validate(); err != nil {
		return err
	}
	if o.RadiusKm == 0 {
		o.RadiusKm = DefaultStopRadiusKm
	}
	if err := positive("radius_km", o.RadiusKm); err != nil {
		return err
	}
	if o.TransitType != "" {
		tt, err := transitType("transit_type", o.TransitType)
		if err != nil {
			return err
		}
		o.TransitType = tt
	}
	return nil
}

// PlanRouteOptions are the parameters of PlanRoute.
type PlanRouteOptions struct {
	Origin      geo.Location
	Destination geo.Location
	// PreferredTypes restricts boarding, transfer and alighting stops.
	// Empty allows every mode.
	PreferredTypes []string
}

func (o *PlanRouteOptions) Validate() error {
	if err := o.Origin.Validate(); err != nil {
		return err
	}
	if err := o.Destination.Validate(); err != nil {
		return err
	}
	types := make([]string, 0, len(o.PreferredTypes))
	for _, t := range o.PreferredTypes {
		tt, err := transitType("preferred_transit_types", t)
		if err != nil {
			return err
		}
		if !slices.Contains(types, tt) {
			types = append(types, tt)
		}
	}
	o.PreferredTypes = types
	return nil
}

// NearbyPOIsOptions are the parameters of NearbyPOIs.
type NearbyPOIsOptions struct {
	Location  geo.Location
	RadiusKm  float64
	Category  string   // optional; a category or one of its aliases
	MinRating *float64 // optional; 0 to 5
}

func (o *NearbyPOIsOptions) Validate() error {
	if err := o.Location.Validate(); err != nil {
		return err
	}
	if o.RadiusKm == 0 {
		o.RadiusKm = DefaultPOIRadiusKm
	}
	if err := positive("radius_km", o.RadiusKm); err != nil {
		return err
	}
	if o.Category != "" {
		c, ok := CanonicalCategory(o.Category)
		if !ok {
			return maperr.InvalidParameter("category", o.Category,
				"must be one of %s", strings.Join(dataset.POICategories, ", "))
		}
		o.Category = c
	}
	if o.MinRating != nil {
		r := *o.MinRating
		if math.IsNaN(r) || r < 0 || r > 5 {
			return maperr.InvalidParameter("min_rating", r, "must be between 0 and 5")
		}
	}
	return nil
}

func transitType(param, s string) (string, error) {
	tt := strings.ToLower(strings.TrimSpace(s))
	if !slices.Contains(dataset.TransitTypes, tt) {
		return "", maperr.InvalidParameter(param, s, "must be one of %s", strings.Join(dataset.TransitTypes, ", "))
	}
	return tt, nil
}

func positive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return maperr.InvalidParameter(name, v, "must be greater than 0")
	}
	return nil
}
