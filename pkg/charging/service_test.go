package charging

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/geo"
	"github.com/NERVsystems/mapmcp/pkg/maperr"
	"github.com/NERVsystems/mapmcp/pkg/testutil"
)

var (
	beirut  = geo.Location{Latitude: 33.8938, Longitude: 35.5018}
	tripoli = geo.Location{Latitude: 34.4364, Longitude: 35.8211}
	sidon   = geo.Location{Latitude: 33.5631, Longitude: 35.3708}
)

func newService(t *testing.T) *Service {
	t.Helper()
	store := testutil.Store(t)
	return NewService(store.Stations, DefaultConfig(), testutil.DiscardLogger())
}

func stationIDs(stations []StationResult) string {
	ids := make([]string, len(stations))
	for i, s := range stations {
		ids[i] = s.ID
	}
	return strings.Join(ids, ",")
}

func TestNearbyStations(t *testing.T) {
	svc := newService(t)

	tests := []struct {
		name      string
		opts      NearbyStationsOptions
		want      string
		wantCodes string
	}{
		{
			name: "default radius sorted by distance",
			opts: NearbyStationsOptions{Location: beirut},
			want: "EV001,EV003,EV002,EV004",
		},
		{
			name: "connector filter is case-insensitive",
			opts: NearbyStationsOptions{Location: beirut, ConnectorType: "ccs"},
			want: "EV001,EV003,EV004",
		},
		{
			name: "available only skips full stations",
			opts: NearbyStationsOptions{Location: beirut, AvailableOnly: true},
			want: "EV001,EV002,EV004",
		},
		{
			name: "small radius",
			opts: NearbyStationsOptions{Location: beirut, RadiusKm: 0.5},
			want: "EV001",
		},
		{
			name: "nothing in range",
			opts: NearbyStationsOptions{Location: geo.Location{Latitude: 0, Longitude: 0}, RadiusKm: 50},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.NearbyStations(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("NearbyStations() error: %v", err)
			}
			if got := stationIDs(result.Stations); got != tt.want {
				t.Errorf("stations = %q, want %q", got, tt.want)
			}
			if result.StationsFound != len(result.Stations) {
				t.Errorf("stations_found %d != %d", result.StationsFound, len(result.Stations))
			}
			for _, s := range result.Stations {
				if s.DistanceKm > result.RadiusKm {
					t.Errorf("%s at %.2f km outside radius %.2f", s.ID, s.DistanceKm, result.RadiusKm)
				}
			}
		})
	}
}

func TestNearbyStationsValidation(t *testing.T) {
	svc := newService(t)

	_, err := svc.NearbyStations(context.Background(), NearbyStationsOptions{Location: beirut, ConnectorType: "Tesla"})
	var paramErr *maperr.InvalidParameterError
	if !errors.As(err, &paramErr) || paramErr.Param != "connector_type" {
		t.Errorf("expected connector_type InvalidParameterError, got %v", err)
	}

	_, err = svc.NearbyStations(context.Background(), NearbyStationsOptions{Location: beirut, RadiusKm: -2})
	if !errors.As(err, &paramErr) || paramErr.Param != "radius_km" {
		t.Errorf("expected radius_km InvalidParameterError, got %v", err)
	}

	_, err = svc.NearbyStations(context.Background(), NearbyStationsOptions{Location: geo.Location{Latitude: 91}})
	var coordErr *maperr.InvalidCoordinateError
	if !errors.As(err, &coordErr) {
		t.Errorf("expected InvalidCoordinateError, got %v", err)
	}
}

func TestPlanRoute(t *testing.T) {
	svc := newService(t)

	t.Run("direct within range", func(t *testing.T) {
		result, err := svc.PlanRoute(context.Background(), PlanRouteOptions{Origin: beirut, Destination: tripoli, BatteryRangeKm: 300})
		if err != nil {
			t.Fatalf("PlanRoute() error: %v", err)
		}
		if !result.Feasible || result.ChargingStopsNeeded != 0 || len(result.RoutePlan) != 1 {
			t.Fatalf("expected a single direct leg, got %+v", result)
		}
		leg := result.RoutePlan[0]
		if leg.From != "Origin" || leg.To != "Destination" || leg.ChargingStop != nil {
			t.Errorf("unexpected direct leg %+v", leg)
		}
		if math.Abs(result.TotalDistanceKm-67.1) > 2 {
			t.Errorf("total distance %.2f, want 67.1 ± 2", result.TotalDistanceKm)
		}
		if math.Abs(result.EstimatedTotalTimeHours-0.84) > 0.01 {
			t.Errorf("total time %.2f h, want 0.84", result.EstimatedTotalTimeHours)
		}
	})

	t.Run("charging stops", func(t *testing.T) {
		result, err := svc.PlanRoute(context.Background(), PlanRouteOptions{Origin: beirut, Destination: tripoli, BatteryRangeKm: 30})
		if err != nil {
			t.Fatalf("PlanRoute() error: %v", err)
		}
		if !result.Feasible {
			t.Fatalf("expected feasible plan: %s", result.Diagnostic)
		}

		var stops []string
		for _, leg := range result.RoutePlan {
			if leg.ChargingStop != nil {
				stops = append(stops, leg.ChargingStop.StationID)
			}
			if leg.DistanceKm > result.UsableRangeKm {
				t.Errorf("leg %d is %.2f km, over usable range %.2f", leg.Leg, leg.DistanceKm, result.UsableRangeKm)
			}
		}
		if got := strings.Join(stops, ","); got != "EV006,EV007,EV009" {
			t.Errorf("charging stops = %s, want EV006,EV007,EV009", got)
		}
		if result.ChargingStopsNeeded != 3 || len(result.RoutePlan) != 4 {
			t.Errorf("got %d stops over %d legs", result.ChargingStopsNeeded, len(result.RoutePlan))
		}
		if result.RoutePlan[1].From != result.RoutePlan[0].To {
			t.Errorf("leg 2 starts at %q, want %q", result.RoutePlan[1].From, result.RoutePlan[0].To)
		}
		if result.UsableRangeKm != 24 || result.SafetyMarginKm != 6 {
			t.Errorf("usable %.2f margin %.2f, want 24 and 6", result.UsableRangeKm, result.SafetyMarginKm)
		}
		// 69.14 km at 80 km/h plus three charges of 4.5 kWh
		if math.Abs(result.EstimatedTotalTimeHours-1.02) > 0.02 {
			t.Errorf("total time %.2f h, want about 1.02", result.EstimatedTotalTimeHours)
		}

		points, err := geo.DecodePolyline(result.Polyline)
		if err != nil {
			t.Fatalf("polyline does not decode: %v", err)
		}
		if len(points) != 5 {
			t.Errorf("polyline has %d points, want 5", len(points))
		}
	})

	t.Run("stuck after partial legs", func(t *testing.T) {
		result, err := svc.PlanRoute(context.Background(), PlanRouteOptions{Origin: beirut, Destination: sidon, BatteryRangeKm: 20})
		if err != nil {
			t.Fatalf("PlanRoute() returned error for an unreachable destination: %v", err)
		}
		if result.Feasible {
			t.Fatal("expected infeasible plan")
		}
		if len(result.RoutePlan) != 1 || result.RoutePlan[0].ChargingStop.StationID != "EV002" {
			t.Errorf("unexpected partial plan %+v", result.RoutePlan)
		}
		if result.Diagnostic == "" {
			t.Error("infeasible plan has no diagnostic")
		}
	})

	t.Run("out of service stations are skipped", func(t *testing.T) {
		// EV012 at Damour sits on the Sidon road but is out of service
		result, err := svc.PlanRoute(context.Background(), PlanRouteOptions{Origin: beirut, Destination: sidon, BatteryRangeKm: 30})
		if err != nil {
			t.Fatal(err)
		}
		for _, leg := range result.RoutePlan {
			if leg.ChargingStop != nil && leg.ChargingStop.StationID == "EV012" {
				t.Error("planned a stop at an out-of-service station")
			}
		}
	})

	t.Run("invalid range", func(t *testing.T) {
		for _, r := range []float64{0, -50} {
			_, err := svc.PlanRoute(context.Background(), PlanRouteOptions{Origin: beirut, Destination: tripoli, BatteryRangeKm: r})
			var paramErr *maperr.InvalidParameterError
			if !errors.As(err, &paramErr) {
				t.Errorf("range %v: expected InvalidParameterError, got %v", r, err)
			}
		}
	})
}

// fixedStations is a provider over a fixed slice, for synthetic corridors.
type fixedStations []dataset.ChargingStation

func (f fixedStations) Near(_ context.Context, center geo.Location, radiusKm float64) ([]dataset.ChargingStation, error) {
	var out []dataset.ChargingStation
	for _, s := range f {
		if center.DistanceTo(s.Location) <= radiusKm {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestPlanRouteSyntheticCorridor(t *testing.T) {
	station := func(id string, lon float64) dataset.ChargingStation {
		return dataset.ChargingStation{
			ID:             id,
			Name:           "Station " + id,
			Location:       geo.Location{Latitude: 0, Longitude: lon},
			ConnectorTypes: []string{dataset.ConnectorCCS},
			PowerRatingsKW: map[string]float64{dataset.ConnectorCCS: 75},
			IsOperational:  true,
		}
	}
	svc := NewService(fixedStations{station("A", 0.3), station("B", 0.6), station("C", 0.9)}, DefaultConfig(), testutil.DiscardLogger())

	result, err := svc.PlanRoute(context.Background(), PlanRouteOptions{
		Origin:         geo.Location{},
		Destination:    geo.Location{Longitude: 1},
		BatteryRangeKm: 50, // 40 km usable, stations every 33 km
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Feasible || result.ChargingStopsNeeded != 3 {
		t.Errorf("expected 3 stops, got %d (feasible %v)", result.ChargingStopsNeeded, result.Feasible)
	}
	stop := result.RoutePlan[0].ChargingStop
	// 50 km x 0.15 kWh/km at 75 kW
	if stop == nil || stop.EstimatedChargingTimeHours != 0.1 {
		t.Errorf("unexpected first stop %+v", stop)
	}
}

func TestCompareEnergyCosts(t *testing.T) {
	svc := newService(t)

	t.Run("ev against gas", func(t *testing.T) {
		result, err := svc.CompareEnergyCosts(context.Background(), CompareCostsOptions{
			Origin: beirut, Destination: tripoli, VehicleType: "EV", ConsumptionPer100Km: 15,
		})
		if err != nil {
			t.Fatalf("CompareEnergyCosts() error: %v", err)
		}
		if result.VehicleType != VehicleEV || result.Unit != "kWh" {
			t.Errorf("vehicle %q unit %q", result.VehicleType, result.Unit)
		}
		if result.EnergyRequired != 10.07 || result.CostEstimateUSD != 1.51 {
			t.Errorf("energy %.2f cost %.2f, want 10.07 and 1.51", result.EnergyRequired, result.CostEstimateUSD)
		}
		cmp := result.Comparison
		if cmp.AlternativeVehicle != VehicleGas || cmp.AlternativeCostUSD != 5.64 {
			t.Errorf("unexpected comparison %+v", cmp)
		}
		if cmp.SavingsUSD == nil || *cmp.SavingsUSD != 4.13 || *cmp.SavingsPercentage != 73.2 {
			t.Errorf("unexpected savings in %+v", cmp)
		}
		if cmp.ExtraCostUSD != nil {
			t.Error("ev comparison should not report extra cost")
		}
		if result.CostBreakdown.TotalCost != "$1.51" {
			t.Errorf("total cost text %q", result.CostBreakdown.TotalCost)
		}
	})

	t.Run("gas against ev", func(t *testing.T) {
		result, err := svc.CompareEnergyCosts(context.Background(), CompareCostsOptions{
			Origin: beirut, Destination: tripoli, VehicleType: "gas", ConsumptionPer100Km: 8,
		})
		if err != nil {
			t.Fatalf("CompareEnergyCosts() error: %v", err)
		}
		if result.EnergyRequired != 5.37 || result.CostEstimateUSD != 6.44 {
			t.Errorf("energy %.2f cost %.2f, want 5.37 and 6.44", result.EnergyRequired, result.CostEstimateUSD)
		}
		if result.Comparison.ExtraCostUSD == nil || *result.Comparison.ExtraCostUSD != 4.93 {
			t.Errorf("unexpected comparison %+v", result.Comparison)
		}
	})

	t.Run("same point costs nothing", func(t *testing.T) {
		result, err := svc.CompareEnergyCosts(context.Background(), CompareCostsOptions{
			Origin: beirut, Destination: beirut, VehicleType: "ev", ConsumptionPer100Km: 15,
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.CostEstimateUSD != 0 || *result.Comparison.SavingsPercentage != 0 {
			t.Errorf("expected zero cost, got %+v", result)
		}
	})

	t.Run("validation", func(t *testing.T) {
		bad := []CompareCostsOptions{
			{Origin: beirut, Destination: tripoli, VehicleType: "hybrid", ConsumptionPer100Km: 5},
			{Origin: beirut, Destination: tripoli, VehicleType: "ev", ConsumptionPer100Km: 0},
			{Origin: beirut, Destination: tripoli, VehicleType: "gas", ConsumptionPer100Km: -3},
		}
		for _, opts := range bad {
			_, err := svc.CompareEnergyCosts(context.Background(), opts)
			var paramErr *maperr.InvalidParameterError
			if !errors.As(err, &paramErr) {
				t.Errorf("%+v: expected InvalidParameterError, got %v", opts, err)
			}
		}
	})
}
