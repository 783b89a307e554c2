package charging

import (
	"math"
	"strings"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/geo"
	"github.com/NERVsystems/mapmcp/pkg/maperr"
)

// Vehicle types accepted by CompareEnergyCosts.
const (
	VehicleEV  = "ev"
	VehicleGas = "gas"
)

// DefaultStationRadiusKm is the search radius when none is given.
const DefaultStationRadiusKm = 5.0

// NearbyStationsOptions are the parameters of NearbyStations.
type NearbyStationsOptions struct {
	Location      geo.Location
	RadiusKm      float64
	ConnectorType string // optional; Type2, CCS or CHAdeMO
	AvailableOnly bool
}

// Validate checks the options and canonicalizes the connector type.
func (o *NearbyStationsOptions) Validate() error {
	if err := o.Location.Validate(); err != nil {
		return err
	}
	if o.RadiusKm == 0 {
		o.RadiusKm = DefaultStationRadiusKm
	}
	if err := positive("radius_km", o.RadiusKm); err != nil {
		return err
	}
	if o.ConnectorType != "" {
		ct, ok := canonicalConnector(o.ConnectorType)
		if !ok {
			return maperr.InvalidParameter("connector_type", o.ConnectorType,
				"must be one of %s", strings.Join(dataset.ConnectorTypes, ", "))
		}
		o.ConnectorType = ct
	}
	return nil
}

// PlanRouteOptions are the parameters of PlanRoute.
type PlanRouteOptions struct {
	Origin         geo.Location
	Destination    geo.Location
	BatteryRangeKm float64
}

func (o *PlanRouteOptions) Validate() error {
	if err := o.Origin.Validate(); err != nil {
		return err
	}
	if err := o.Destination.Validate(); err != nil {
		return err
	}
	return positive("battery_range_km", o.BatteryRangeKm)
}

// CompareCostsOptions are the parameters of CompareEnergyCosts.
type CompareCostsOptions struct {
	Origin      geo.Location
	Destination geo.Location
	VehicleType string // ev or gas
	// ConsumptionPer100Km is kWh for an EV, liters for a gas car.
	ConsumptionPer100Km float64
}

func (o *CompareCostsOptions) Validate() error {
	if err := o.Origin.Validate(); err != nil {
		return err
	}
	if err := o.Destination.Validate(); err != nil {
		return err
	}
	vt := strings.ToLower(strings.TrimSpace(o.VehicleType))
	if vt != VehicleEV && vt != VehicleGas {
		return maperr.InvalidParameter("vehicle_type", o.VehicleType, "must be %q or %q", VehicleEV, VehicleGas)
	}
	o.VehicleType = vt
	return positive("consumption_per_100km", o.ConsumptionPer100Km)
}

func canonicalConnector(s string) (string, bool) {
	for _, ct := range dataset.ConnectorTypes {
		if strings.EqualFold(ct, strings.TrimSpace(s)) {
			return ct, true
		}
	}
	return "", false
}

func positive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return maperr.InvalidParameter(name, v, "must be greater than 0")
	}
	return nil
}
