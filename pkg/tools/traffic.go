package tools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/traffic"
)

// CheckRouteTrafficTool returns a tool definition for checking traffic on a route
func CheckRouteTrafficTool() mcp.Tool {
	return mcp.NewTool("check_route_traffic",
		mcp.WithDescription("Check real-time traffic conditions on a route between two locations"),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Starting location "+locationFormat),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination location "+locationFormat),
		),
		mcp.WithBoolean("include_incidents",
			mcp.Description("Whether to include detailed incident information (default: true)"),
			mcp.DefaultBool(true),
		),
	)
}

// HandleCheckRouteTraffic reports traffic along a route.
func (r *Registry) HandleCheckRouteTraffic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "check_route_traffic")

	a := parseArgs(CheckRouteTrafficTool(), req)
	opts := traffic.CheckRouteOptions{
		Origin:           a.location("origin"),
		Destination:      a.location("destination"),
		IncludeIncidents: a.boolean("include_incidents", true),
	}
	if err := a.Err(); err != nil {
		logger.Debug("invalid arguments", "error", err)
		return ErrorResponse(err), nil
	}

	report, err := r.traffic.CheckRoute(ctx, opts)
	if err != nil {
		return r.failure(logger, err), nil
	}
	return OKResponse(report), nil
}

// FindAlternateRoutesTool returns a tool definition for comparing alternate routes
func FindAlternateRoutesTool() mcp.Tool {
	return mcp.NewTool("find_alternate_routes",
		mcp.WithDescription("Find alternate routes to avoid traffic congestion and save time"),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Starting location "+locationFormat),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination location "+locationFormat),
		),
		mcp.WithString("avoid_traffic_level",
			mcp.Description("Traffic level to avoid (default: heavy)"),
			mcp.Enum(dataset.TrafficLevels...),
		),
	)
}

// HandleFindAlternateRoutes compares the primary route with its alternates.
func (r *Registry) HandleFindAlternateRoutes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "find_alternate_routes")

	a := parseArgs(FindAlternateRoutesTool(), req)
	opts := traffic.AlternateRoutesOptions{
		Origin:      a.location("origin"),
		Destination: a.location("destination"),
		AvoidLevel:  a.str("avoid_traffic_level"),
	}
	if err := a.Err(); err != nil {
		logger.Debug("invalid arguments", "error", err)
		return ErrorResponse(err), nil
	}

	result, err := r.traffic.AlternateRoutes(ctx, opts)
	if err != nil {
		return r.failure(logger, err), nil
	}
	logger.Debug("compared routes", "best", result.BestRoute)
	return OKResponse(result), nil
}

// GetRoadClosuresTool returns a tool definition for listing road closures
func GetRoadClosuresTool() mcp.Tool {
	return mcp.NewTool("get_road_closures",
		mcp.WithDescription("Get information about road closures and construction in an area"),
		mcp.WithString("location",
			mcp.Required(),
			mcp.Description("Location coordinates "+locationFormat),
		),
		mcp.WithNumber("radius_km",
			mcp.Description("Search radius in kilometers (default: 10)"),
			mcp.DefaultNumber(traffic.DefaultClosureRadiusKm),
		),
		mcp.WithString("severity_filter",
			mcp.Description("Filter by severity level"),
			mcp.Enum(dataset.Severities...),
		),
	)
}

// HandleGetRoadClosures lists active road closures near a location.
func (r *Registry) HandleGetRoadClosures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "get_road_closures")

	a := parseArgs(GetRoadClosuresTool(), req)
	opts := traffic.RoadClosuresOptions{
		Location: a.location("location"),
		RadiusKm: a.radius("radius_km", traffic.DefaultClosureRadiusKm),
		Severity: a.str("severity_filter"),
	}
	if err := a.Err(); err != nil {
		logger.Debug("invalid arguments", "error", err)
		return ErrorResponse(err), nil
	}

	result, err := r.traffic.RoadClosures(ctx, opts)
	if err != nil {
		return r.failure(logger, err), nil
	}
	return OKResponse(result), nil
}
