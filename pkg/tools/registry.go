package tools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/NERVsystems/mapmcp/pkg/charging"
	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/maperr"
	"github.com/NERVsystems/mapmcp/pkg/traffic"
	"github.com/NERVsystems/mapmcp/pkg/transit"
)

// ServiceConfig groups the assumptions of each service.
type ServiceConfig struct {
	Charging charging.Config
	Transit  transit.Config
	Traffic  traffic.Config
}

// DefaultServiceConfig returns the stock assumptions of every service.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Charging: charging.DefaultConfig(),
		Transit:  transit.DefaultConfig(),
		Traffic:  traffic.DefaultConfig(),
	}
}

// Registry holds all MCP tool registrations for the map services.
type Registry struct {
	logger   *slog.Logger
	charging *charging.Service
	transit  *transit.Service
	traffic  *traffic.Service
}

// NewRegistry creates the services over the store and a registry for their
// tools.
func NewRegistry(logger *slog.Logger, store *dataset.Store, cfg ServiceConfig) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:   logger,
		charging: charging.NewService(store.Stations, cfg.Charging, logger),
		transit:  transit.NewService(store.Stops, store.POIs, cfg.Transit, logger),
		traffic:  traffic.NewService(store.Traffic, store.Closures, cfg.Traffic, logger),
	}
}

// ToolDefinition represents a map MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     server.ToolHandlerFunc
}

// Middleware wraps the handler of one tool.
type Middleware func(def ToolDefinition, next server.ToolHandlerFunc) server.ToolHandlerFunc

// GetToolDefinitions returns all map MCP tool definitions.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	defs := []ToolDefinition{
		// EV Charging Tools
		{Tool: NearbyChargingStationsTool(), Handler: r.HandleNearbyChargingStations},
		{Tool: PlanChargingRouteTool(), Handler: r.HandlePlanChargingRoute},
		{Tool: CompareEnergyCostsTool(), Handler: r.HandleCompareEnergyCosts},

		// Transit & POI Tools
		{Tool: NearbyTransitStopsTool(), Handler: r.HandleNearbyTransitStops},
		{Tool: PlanTransitRouteTool(), Handler: r.HandlePlanTransitRoute},
		{Tool: FindNearbyPOIsTool(), Handler: r.HandleFindNearbyPOIs},

		// Traffic Tools
		{Tool: CheckRouteTrafficTool(), Handler: r.HandleCheckRouteTraffic},
		{Tool: FindAlternateRoutesTool(), Handler: r.HandleFindAlternateRoutes},
		{Tool: GetRoadClosuresTool(), Handler: r.HandleGetRoadClosures},
	}
	for i := range defs {
		defs[i].Name = defs[i].Tool.Name
		defs[i].Description = defs[i].Tool.Description
	}
	return defs
}

// RegisterTools registers all tools with the MCP server. The first
// middleware is the outermost.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer, mw ...Middleware) {
	for _, def := range r.GetToolDefinitions() {
		handler := def.Handler
		for i := len(mw) - 1; i >= 0; i-- {
			handler = mw[i](def, handler)
		}
		r.logger.Info("registering tool", "name", def.Name)
		mcpServer.AddTool(def.Tool, handler)
	}
}

// failure converts a service error into a tool result. Unexpected errors
// are logged; caller mistakes only at debug level.
func (r *Registry) failure(logger *slog.Logger, err error) *mcp.CallToolResult {
	if code := maperr.Code(err); code == maperr.CodeInternal || code == maperr.CodeDataUnavailable {
		logger.Error("tool call failed", "error", err)
	} else {
		logger.Debug("tool call rejected", "code", code, "error", err)
	}
	return ErrorResponse(err)
}

// Call invokes a tool by name without going through an MCP transport.
func (r *Registry) Call(ctx context.Context, name string, arguments map[string]any) (*mcp.CallToolResult, error) {
	for _, def := range r.GetToolDefinitions() {
		if def.Name == name {
			req := mcp.CallToolRequest{}
			req.Params.Name = name
			req.Params.Arguments = arguments
			return def.Handler(ctx, req)
		}
	}
	return ErrorResponse(maperr.InvalidParameter("tool", name, "unknown tool")), nil
}
