package tools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/mapmcp/pkg/charging"
	"github.com/NERVsystems/mapmcp/pkg/dataset"
)

const locationFormat = "in 'lat,lon' format (e.g., '33.8938,35.5018')"

// NearbyChargingStationsTool returns a tool definition for finding charging stations
func NearbyChargingStationsTool() mcp.Tool {
	return mcp.NewTool("nearby_charging_stations",
		mcp.WithDescription("Find EV charging stations near a location with optional filtering by connector type"),
		mcp.WithString("location",
			mcp.Required(),
			mcp.Description("Location coordinates "+locationFormat),
		),
		mcp.WithString("connector_type",
			mcp.Description("Optional filter for connector type: Type2, CCS, or CHAdeMO"),
			mcp.Enum(dataset.ConnectorTypes...),
		),
		mcp.WithNumber("radius_km",
			mcp.Description("Search radius in kilometers (default: 5)"),
			mcp.DefaultNumber(charging.DefaultStationRadiusKm),
		),
		mcp.WithBoolean("available_only",
			mcp.Description("Only return operational stations with at least one free connector"),
			mcp.DefaultBool(false),
		),
	)
}

// HandleNearbyChargingStations lists charging stations near a location.
func (r *Registry) HandleNearbyChargingStations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "nearby_charging_stations")

	a := parseArgs(NearbyChargingStationsTool(), req)
	opts := charging.NearbyStationsOptions{
		Location:      a.location("location"),
		RadiusKm:      a.radius("radius_km", charging.DefaultStationRadiusKm),
		ConnectorType: a.str("connector_type"),
		AvailableOnly: a.boolean("available_only", false),
	}
	if err := a.Err(); err != nil {
		logger.Debug("invalid arguments", "error", err)
		return ErrorResponse(err), nil
	}

	result, err := r.charging.NearbyStations(ctx, opts)
	if err != nil {
		return r.failure(logger, err), nil
	}
	logger.Debug("found stations", "count", result.StationsFound)
	return OKResponse(result), nil
}

// PlanChargingRouteTool returns a tool definition for planning charging stops
func PlanChargingRouteTool() mcp.Tool {
	return mcp.NewTool("plan_charging_route",
		mcp.WithDescription("Plan a route with necessary EV charging stops for long-distance travel"),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Starting location "+locationFormat),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination location "+locationFormat),
		),
		mcp.WithNumber("battery_range_km",
			mcp.Required(),
			mcp.Description("Current vehicle range on existing charge in kilometers"),
		),
	)
}

// HandlePlanChargingRoute plans charging stops between two locations.
func (r *Registry) HandlePlanChargingRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "plan_charging_route")

	a := parseArgs(PlanChargingRouteTool(), req)
	opts := charging.PlanRouteOptions{
		Origin:         a.location("origin"),
		Destination:    a.location("destination"),
		BatteryRangeKm: a.number("battery_range_km", 0),
	}
	if err := a.Err(); err != nil {
		logger.Debug("invalid arguments", "error", err)
		return ErrorResponse(err), nil
	}

	plan, err := r.charging.PlanRoute(ctx, opts)
	if err != nil {
		return r.failure(logger, err), nil
	}
	if !plan.Feasible {
		logger.Info("no feasible charging plan", "diagnostic", plan.Diagnostic)
		return NoResultResponse(plan, plan.Diagnostic, GuidanceChargingRange), nil
	}
	return OKResponse(plan), nil
}

// CompareEnergyCostsTool returns a tool definition for comparing trip energy costs
func CompareEnergyCostsTool() mcp.Tool {
	return mcp.NewTool("compare_energy_costs",
		mcp.WithDescription("Compare energy costs between electric and gas vehicles for a trip"),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Starting location "+locationFormat),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination location "+locationFormat),
		),
		mcp.WithString("vehicle_type",
			mcp.Required(),
			mcp.Description("Type of vehicle: 'ev' for electric or 'gas' for gasoline"),
			mcp.Enum(charging.VehicleEV, charging.VehicleGas),
		),
		mcp.WithNumber("consumption_per_100km",
			mcp.Required(),
			mcp.Description("Energy consumption per 100km (kWh for EV, liters for gas)"),
		),
	)
}

// HandleCompareEnergyCosts prices a trip for an EV or a gas car.
func (r *Registry) HandleCompareEnergyCosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "compare_energy_costs")

	a := parseArgs(CompareEnergyCostsTool(), req)
	opts := charging.CompareCostsOptions{
		Origin:              a.location("origin"),
		Destination:         a.location("destination"),
		VehicleType:         a.str("vehicle_type"),
		ConsumptionPer100Km: a.number("consumption_per_100km", 0),
	}
	if err := a.Err(); err != nil {
		logger.Debug("invalid arguments", "error", err)
		return ErrorResponse(err), nil
	}

	result, err := r.charging.CompareEnergyCosts(ctx, opts)
	if err != nil {
		return r.failure(logger, err), nil
	}
	return OKResponse(result), nil
}
