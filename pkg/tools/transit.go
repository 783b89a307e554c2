package tools

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/maperr"
	"github.com/NERVsystems/mapmcp/pkg/transit"
)

// NearbyTransitStopsTool returns a tool definition for finding transit stops
func NearbyTransitStopsTool() mcp.Tool {
	return mcp.NewTool("nearby_transit_stops",
		mcp.WithDescription("Find public transportation stops (bus, metro, tram) near a location"),
		mcp.WithString("location",
			mcp.Required(),
			mcp.Description("Location coordinates "+locationFormat),
		),
		mcp.WithString("transit_type",
			mcp.Description("Optional filter for transit type"),
			mcp.Enum(dataset.TransitTypes...),
		),
		mcp.WithNumber("radius_km",
			mcp.Description("Search radius in kilometers (default: 2)"),
			mcp.DefaultNumber(transit.DefaultStopRadiusKm),
		),
	)
}

// HandleNearbyTransitStops lists transit stops near a location.
func (r *Registry) HandleNearbyTransitStops(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "nearby_transit_stops")

	a := parseArgs(NearbyTransitStopsTool(), req)
	opts := transit.NearbyStopsOptions{
		Location:    a.location("location"),
		RadiusKm:    a.radius("radius_km", transit.DefaultStopRadiusKm),
		TransitType: a.str("transit_type"),
	}
	if err := a.Err(); err != nil {
		logger.Debug("invalid arguments", "error", err)
		return ErrorResponse(err), nil
	}

	result, err := r.transit.NearbyStops(ctx, opts)
	if err != nil {
		return r.failure(logger, err), nil
	}
	return OKResponse(result), nil
}

// PlanTransitRouteTool returns a tool definition for planning transit trips
func PlanTransitRouteTool() mcp.Tool {
	return mcp.NewTool("plan_transit_route",
		mcp.WithDescription("Plan a multi-modal public transportation route between two locations"),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Starting location "+locationFormat),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination location "+locationFormat),
		),
		mcp.WithArray("preferred_transit_types",
			mcp.Description("Optional list of preferred transit types"),
			mcp.Items(map[string]any{
				"type": "string",
				"enum": dataset.TransitTypes,
			}),
		),
	)
}

// HandlePlanTransitRoute plans a walk, ride and walk trip between two locations.
func (r *Registry) HandlePlanTransitRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "plan_transit_route")

	a := parseArgs(PlanTransitRouteTool(), req)
	opts := transit.PlanRouteOptions{
		Origin:         a.location("origin"),
		Destination:    a.location("destination"),
		PreferredTypes: a.stringList("preferred_transit_types"),
	}
	if err := a.Err(); err != nil {
		logger.Debug("invalid arguments", "error", err)
		return ErrorResponse(err), nil
	}

	plan, err := r.transit.PlanRoute(ctx, opts)
	var noResult *maperr.NoResultError
	switch {
	case errors.As(err, &noResult):
		logger.Info("no transit coverage", "reason", noResult.Reason)
		return ErrorWithGuidance(err, GuidanceTransitCoverage), nil
	case err != nil:
		return r.failure(logger, err), nil
	case !plan.Feasible:
		logger.Info("no feasible transit plan", "diagnostic", plan.Diagnostic)
		return NoResultResponse(plan, plan.Diagnostic, GuidanceTransitCoverage), nil
	}
	return OKResponse(plan), nil
}

// FindNearbyPOIsTool returns a tool definition for finding points of interest
func FindNearbyPOIsTool() mcp.Tool {
	return mcp.NewTool("find_nearby_pois",
		mcp.WithDescription("Find points of interest (restaurants, hospitals, hotels, schools, etc.) near a location"),
		mcp.WithString("location",
			mcp.Required(),
			mcp.Description("Location coordinates "+locationFormat),
		),
		mcp.WithString("category",
			mcp.Description("Optional category filter"),
			mcp.Enum(dataset.POICategories...),
		),
		mcp.WithNumber("radius_km",
			mcp.Description("Search radius in kilometers (default: 3)"),
			mcp.DefaultNumber(transit.DefaultPOIRadiusKm),
		),
		mcp.WithNumber("min_rating",
			mcp.Description("Optional minimum rating filter (0-5)"),
			mcp.Min(0),
			mcp.Max(5),
		),
	)
}

// HandleFindNearbyPOIs lists points of interest near a location.
func (r *Registry) HandleFindNearbyPOIs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "find_nearby_pois")

	a := parseArgs(FindNearbyPOIsTool(), req)
	opts := transit.NearbyPOIsOptions{
		Location:  a.location("location"),
		RadiusKm:  a.radius("radius_km", transit.DefaultPOIRadiusKm),
		Category:  a.str("category"),
		MinRating: a.optionalNumber("min_rating"),
	}
	if err := a.Err(); err != nil {
		logger.Debug("invalid arguments", "error", err)
		return ErrorResponse(err), nil
	}

	result, err := r.transit.NearbyPOIs(ctx, opts)
	if err != nil {
		return r.failure(logger, err), nil
	}
	return OKResponse(result), nil
}
