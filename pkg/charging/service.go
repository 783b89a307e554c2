// Package charging answers EV questions over the charging-station dataset:
// nearby stations, charging-stop route plans and EV versus gas trip costs.
package charging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/engine"
	"github.com/NERVsystems/mapmcp/pkg/geo"
)

// Config holds pricing and vehicle assumptions.
type Config struct {
	ElectricityPerKWh        float64 // USD
	GasPerLiter              float64 // USD
	TypicalEVKWhPer100Km     float64 // alternative vehicle in comparisons
	TypicalGasLitersPer100Km float64 // alternative vehicle in comparisons
	DrivingSpeedKmh          float64
	ReserveFraction          float64
	ChargeKWhPerKm           float64 // energy restored per km of range
}

// DefaultConfig returns the stock assumptions.
func DefaultConfig() Config {
	return Config{
		ElectricityPerKWh:        0.15,
		GasPerLiter:              1.20,
		TypicalEVKWhPer100Km:     15,
		TypicalGasLitersPer100Km: 7,
		DrivingSpeedKmh:          80,
		ReserveFraction:          0.2,
		ChargeKWhPerKm:           0.15,
	}
}

// Service answers charging queries against a station provider.
type Service struct {
	stations dataset.Provider[dataset.ChargingStation]
	cfg      Config
	logger   *slog.Logger
}

// NewService creates a charging service.
func NewService(stations dataset.Provider[dataset.ChargingStation], cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{stations: stations, cfg: cfg, logger: logger.With("service", "charging")}
}

// StationResult is a station annotated with its distance from the search point.
type StationResult struct {
	dataset.ChargingStation
	DistanceKm float64 `json:"distance_km"`
}

// NearbyStationsResult is the answer to NearbyStations.
type NearbyStationsResult struct {
	SearchLocation  geo.Location    `json:"search_location"`
	RadiusKm        float64         `json:"radius_km"`
	ConnectorFilter string          `json:"connector_filter,omitempty"`
	AvailableOnly   bool            `json:"available_only"`
	StationsFound   int             `json:"stations_found"`
	Stations        []StationResult `json:"stations"`
}

// NearbyStations lists stations within the radius, nearest first.
func (s *Service) NearbyStations(ctx context.Context, opts NearbyStationsOptions) (*NearbyStationsResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	candidates, err := s.stations.Near(ctx, opts.Location, opts.RadiusKm)
	if err != nil {
		return nil, fmt.Errorf("search stations: %w", err)
	}

	hits, err := engine.Nearby(candidates, opts.Location, opts.RadiusKm, func(st dataset.ChargingStation) bool {
		if opts.ConnectorType != "" && !st.HasConnector(opts.ConnectorType) {
			return false
		}
		return !opts.AvailableOnly || st.Available()
	})
	if err != nil {
		return nil, err
	}

	result := &NearbyStationsResult{
		SearchLocation:  opts.Location,
		RadiusKm:        opts.RadiusKm,
		ConnectorFilter: opts.ConnectorType,
		AvailableOnly:   opts.AvailableOnly,
		StationsFound:   len(hits),
		Stations:        make([]StationResult, 0, len(hits)),
	}
	for _, h := range hits {
		result.Stations = append(result.Stations, StationResult{
			ChargingStation: h.Record,
			DistanceKm:      engine.Round(h.DistanceKm, 2),
		})
	}

	s.logger.Debug("nearby stations", "location", opts.Location, "radius_km", opts.RadiusKm, "found", len(hits))
	return result, nil
}

// ChargingStop describes a station where the vehicle recharges.
type ChargingStop struct {
	StationID                  string       `json:"station_id"`
	StationName                string       `json:"station_name"`
	Address                    string       `json:"address"`
	Location                   geo.Location `json:"location"`
	EstimatedChargingTimeHours float64      `json:"estimated_charging_time_hours"`
	ConnectorTypes             []string     `json:"connector_types"`
	AvailableConnectors        int          `json:"available_connectors"`
	MaxPowerKW                 float64      `json:"max_power_kw"`
	PricingPerKWh              float64      `json:"pricing_per_kwh"`
}

// RouteLeg is one drive between origin, charging stops and destination.
type RouteLeg struct {
	Leg                       int           `json:"leg"`
	From                      string        `json:"from"`
	To                        string        `json:"to"`
	DistanceKm                float64       `json:"distance_km"`
	ChargingStop              *ChargingStop `json:"charging_stop"`
	EstimatedDrivingTimeHours float64       `json:"estimated_driving_time_hours"`
}

// PlanRouteResult is the answer to PlanRoute. When Feasible is false the
// legs stop where no station could be reached and Diagnostic says why.
type PlanRouteResult struct {
	Origin                  geo.Location `json:"origin"`
	Destination             geo.Location `json:"destination"`
	TotalDistanceKm         float64      `json:"total_distance_km"`
	BatteryRangeKm          float64      `json:"battery_range_km"`
	UsableRangeKm           float64      `json:"usable_range_km"`
	SafetyMarginKm          float64      `json:"safety_margin_km"`
	ChargingStopsNeeded     int          `json:"charging_stops_needed"`
	RoutePlan               []RouteLeg   `json:"route_plan"`
	EstimatedTotalTimeHours float64      `json:"estimated_total_time_hours"`
	Feasible                bool         `json:"feasible"`
	Polyline                string       `json:"polyline"`
	Diagnostic              string       `json:"diagnostic,omitempty"`
}

// PlanRoute splits a trip into legs the battery can cover, inserting
// operational stations as charging stops.
func (s *Service) PlanRoute(ctx context.Context, opts PlanRouteOptions) (*PlanRouteResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	total := opts.Origin.DistanceTo(opts.Destination)

	// any useful stop is closer to the destination than the origin is
	var candidates []dataset.ChargingStation
	if total > opts.BatteryRangeKm {
		near, err := s.stations.Near(ctx, opts.Destination, total)
		if err != nil {
			return nil, fmt.Errorf("search stations: %w", err)
		}
		for _, st := range near {
			if st.IsOperational {
				candidates = append(candidates, st)
			}
		}
	}

	plan, err := engine.PlanStops(engine.RouteRequest{
		Origin:          opts.Origin,
		Destination:     opts.Destination,
		MaxRangeKm:      opts.BatteryRangeKm,
		ReserveFraction: s.cfg.ReserveFraction,
	}, candidates)
	if err != nil {
		return nil, err
	}

	result := &PlanRouteResult{
		Origin:              opts.Origin,
		Destination:         opts.Destination,
		TotalDistanceKm:     engine.Round(plan.TotalDistanceKm, 2),
		BatteryRangeKm:      opts.BatteryRangeKm,
		UsableRangeKm:       engine.Round(plan.UsableRangeKm, 2),
		SafetyMarginKm:      engine.Round(plan.SafetyMarginKm, 2),
		ChargingStopsNeeded: len(plan.Waypoints),
		RoutePlan:           make([]RouteLeg, 0, len(plan.Legs)),
		Feasible:            plan.Feasible,
		Diagnostic:          plan.Diagnostic,
	}

	points := []geo.Location{opts.Origin}
	var totalHours float64
	from := "Origin"
	for i, leg := range plan.Legs {
		driving, err := engine.EstimateDuration(leg.DistanceKm, s.cfg.DrivingSpeedKmh, 1)
		if err != nil {
			return nil, err
		}
		totalHours += driving

		rl := RouteLeg{
			Leg:                       i + 1,
			From:                      from,
			To:                        "Destination",
			DistanceKm:                engine.Round(leg.DistanceKm, 2),
			EstimatedDrivingTimeHours: engine.Round(driving, 2),
		}
		if i < len(plan.Waypoints) {
			st := plan.Waypoints[i]
			stop := s.chargingStop(st, opts.BatteryRangeKm)
			totalHours += stop.EstimatedChargingTimeHours
			stop.EstimatedChargingTimeHours = engine.Round(stop.EstimatedChargingTimeHours, 2)
			rl.To = st.Name
			rl.ChargingStop = &stop
			from = st.Name
		}
		result.RoutePlan = append(result.RoutePlan, rl)
		points = append(points, leg.To)
	}
	result.EstimatedTotalTimeHours = engine.Round(totalHours, 2)
	result.Polyline = geo.EncodePolyline(points)

	s.logger.Debug("planned charging route",
		"total_km", result.TotalDistanceKm,
		"stops", result.ChargingStopsNeeded,
		"feasible", result.Feasible)
	return result, nil
}

func (s *Service) chargingStop(st dataset.ChargingStation, rangeKm float64) ChargingStop {
	maxKW := st.MaxPowerKW()
	return ChargingStop{
		StationID:                  st.ID,
		StationName:                st.Name,
		Address:                    st.Address,
		Location:                   st.Location,
		EstimatedChargingTimeHours: rangeKm * s.cfg.ChargeKWhPerKm / maxKW,
		ConnectorTypes:             st.ConnectorTypes,
		AvailableConnectors:        st.AvailableConnectors,
		MaxPowerKW:                 maxKW,
		PricingPerKWh:              st.PricingPerKWh,
	}
}

// CostBreakdown spells out the cost arithmetic.
type CostBreakdown struct {
	DistanceKm      float64 `json:"distance_km"`
	ConsumptionRate string  `json:"consumption_rate"`
	TotalEnergy     string  `json:"total_energy"`
	UnitPrice       string  `json:"unit_price"`
	TotalCost       string  `json:"total_cost"`
}

// Comparison prices the same trip with the other vehicle type. Savings are
// reported for an EV, extra cost for a gas car.
type Comparison struct {
	AlternativeVehicle             string   `json:"alternative_vehicle"`
	AlternativeConsumptionPer100Km float64  `json:"alternative_consumption_per_100km"`
	AlternativeUnit                string   `json:"alternative_unit"`
	AlternativeEnergyRequired      float64  `json:"alternative_energy_required"`
	AlternativeCostUSD             float64  `json:"alternative_cost_usd"`
	SavingsUSD                     *float64 `json:"savings_usd,omitempty"`
	SavingsPercentage              *float64 `json:"savings_percentage,omitempty"`
	ExtraCostUSD                   *float64 `json:"extra_cost_usd,omitempty"`
	ExtraCostPercentage            *float64 `json:"extra_cost_percentage,omitempty"`
}

// CompareCostsResult is the answer to CompareEnergyCosts.
type CompareCostsResult struct {
	Origin              geo.Location  `json:"origin"`
	Destination         geo.Location  `json:"destination"`
	TotalDistanceKm     float64       `json:"total_distance_km"`
	VehicleType         string        `json:"vehicle_type"`
	ConsumptionPer100Km float64       `json:"consumption_per_100km"`
	Unit                string        `json:"unit"`
	EnergyRequired      float64       `json:"energy_required"`
	PricePerUnitUSD     float64       `json:"price_per_unit_usd"`
	CostEstimateUSD     float64       `json:"cost_estimate_usd"`
	CostBreakdown       CostBreakdown `json:"cost_breakdown"`
	Comparison          Comparison    `json:"comparison"`
}

// CompareEnergyCosts prices a trip for the given vehicle and compares it with
// a typical vehicle of the other type.
func (s *Service) CompareEnergyCosts(ctx context.Context, opts CompareCostsOptions) (*CompareCostsResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	distance := opts.Origin.DistanceTo(opts.Destination)

	unit, price := "liters", s.cfg.GasPerLiter
	altVehicle, altUnit, altPrice, altConsumption := VehicleEV, "kWh", s.cfg.ElectricityPerKWh, s.cfg.TypicalEVKWhPer100Km
	if opts.VehicleType == VehicleEV {
		unit, price = "kWh", s.cfg.ElectricityPerKWh
		altVehicle, altUnit, altPrice, altConsumption = VehicleGas, "liters", s.cfg.GasPerLiter, s.cfg.TypicalGasLitersPer100Km
	}

	energy, err := engine.EstimateEnergy(distance, opts.ConsumptionPer100Km)
	if err != nil {
		return nil, err
	}
	cost, err := engine.EstimateCost(energy, price)
	if err != nil {
		return nil, err
	}
	altEnergy, err := engine.EstimateEnergy(distance, altConsumption)
	if err != nil {
		return nil, err
	}
	altCost, err := engine.EstimateCost(altEnergy, altPrice)
	if err != nil {
		return nil, err
	}

	cmp := Comparison{
		AlternativeVehicle:             altVehicle,
		AlternativeConsumptionPer100Km: altConsumption,
		AlternativeUnit:                altUnit,
		AlternativeEnergyRequired:      engine.Round(altEnergy, 2),
		AlternativeCostUSD:             engine.Round(altCost, 2),
	}
	if opts.VehicleType == VehicleEV {
		savings := engine.Round(altCost-cost, 2)
		pct := percentOf(altCost-cost, altCost)
		cmp.SavingsUSD, cmp.SavingsPercentage = &savings, &pct
	} else {
		extra := engine.Round(cost-altCost, 2)
		pct := percentOf(cost-altCost, altCost)
		cmp.ExtraCostUSD, cmp.ExtraCostPercentage = &extra, &pct
	}

	return &CompareCostsResult{
		Origin:              opts.Origin,
		Destination:         opts.Destination,
		TotalDistanceKm:     engine.Round(distance, 2),
		VehicleType:         opts.VehicleType,
		ConsumptionPer100Km: opts.ConsumptionPer100Km,
		Unit:                unit,
		EnergyRequired:      engine.Round(energy, 2),
		PricePerUnitUSD:     price,
		CostEstimateUSD:     engine.Round(cost, 2),
		CostBreakdown: CostBreakdown{
			DistanceKm:      engine.Round(distance, 2),
			ConsumptionRate: fmt.Sprintf("%g %s/100km", opts.ConsumptionPer100Km, unit),
			TotalEnergy:     fmt.Sprintf("%.2f %s", energy, unit),
			UnitPrice:       fmt.Sprintf("$%g per %s", price, unit),
			TotalCost:       fmt.Sprintf("$%.2f", cost),
		},
		Comparison: cmp,
	}, nil
}

// percentOf returns part/whole as a percentage with one decimal, 0 when
// whole is 0.
func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return engine.Round(part/whole*100, 1)
}
