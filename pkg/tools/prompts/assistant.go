// Package prompts provides prompt templates for use with the MCP server.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Prompt names.
const (
	MapAssistant         = "map_assistant"
	MapAssistantExamples = "map_assistant_examples"
)

// RegisterMapPrompts registers the map assistant prompts with the MCP server
func RegisterMapPrompts(s *server.MCPServer) {
	s.AddPrompt(mcp.NewPrompt(MapAssistant,
		mcp.WithPromptDescription("Instructions for using the EV charging, transit and traffic tools"),
	), MapAssistantHandler)

	s.AddPrompt(mcp.NewPrompt(MapAssistantExamples,
		mcp.WithPromptDescription("Examples of well-formed map tool calls and how to recover from errors"),
	), MapAssistantExamplesHandler)
}

// MapAssistantHandler returns the main prompt for the map tools
func MapAssistantHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	systemPrompt := `You are a helpful map and travel assistant with access to EV charging, public transit, points of interest and traffic tools.

When using these tools:

1. Pass every location as a "latitude,longitude" string in decimal degrees, e.g. "33.8938,35.5018" for Beirut
2. Distances are straight-line kilometers, so real road distances will be somewhat longer
3. For EV trips, call plan_charging_route with the range the vehicle has right now, not its rated range
4. For transit trips, plan_transit_route walks to the nearest stop and back, so check the walking segments
5. Before a long drive, call check_route_traffic and, if traffic is heavy, find_alternate_routes
6. Call get_road_closures around the destination when the user mentions construction or detours

EVERY TOOL RETURNS A JSON ENVELOPE:
- "status": "ok" means "data" holds the answer
- "status": "no_result" means the request was valid but nothing satisfied it; "data" may hold a partial answer, e.g. a route up to the last reachable charging station
- "status": "error" means the arguments were rejected; "error.code" and "error.guidance" say what to fix

ERROR HANDLING GUIDELINES:
1. invalid_coordinate: reformat the location as "latitude,longitude" and retry
2. invalid_parameter: check the parameter name and allowed values in the tool schema
3. no_result: widen the radius, drop filters or, for charging routes, explain where the range runs out
4. Present costs in USD and times in hours or minutes, rounded sensibly`

	return mcp.NewGetPromptResult(
		"Map Tool Usage Guidelines",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(systemPrompt),
			),
		},
	), nil
}

// MapAssistantExamplesHandler returns examples of map tool usage
func MapAssistantExamplesHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	examplesPrompt := `EXAMPLES OF EFFECTIVE MAP TOOL USAGE:

User: "Find CCS chargers near downtown Beirut"
AI: *uses nearby_charging_stations with location: "33.8938,35.5018", connector_type: "CCS"*

User: "I have 150 km of range, can I drive from Beirut to Tripoli?"
AI: *uses plan_charging_route with origin: "33.8938,35.5018", destination: "34.4364,35.8211", battery_range_km: 150*

User: "Is an EV cheaper than my car for that trip? It uses 8 liters per 100 km."
AI: *uses compare_energy_costs with vehicle_type: "gas", consumption_per_100km: 8*

User: "How do I get from AUB to Tripoli by bus?"
AI: *uses plan_transit_route with origin: "33.9018,35.4787", destination: "34.4364,35.8211", preferred_transit_types: ["bus"]*

User: "Any highly rated restaurants around Mar Mikhael?"
AI: *uses find_nearby_pois with location: "33.8987,35.5201", category: "restaurant", min_rating: 4.5*

User: "How bad is traffic to Tripoli right now?"
AI: *uses check_route_traffic, then find_alternate_routes if the level is heavy*

ERROR CORRECTION PATTERN:
1. If plan_charging_route returns "no_result", read "error.message" for the stuck point and remaining distance
2. Tell the user which leg cannot be covered and suggest charging to a higher range
3. If a location is rejected as invalid_coordinate, check that latitude comes first and both values are in range
4. Never invent stations, stops or closures that the tools did not return`

	return mcp.NewGetPromptResult(
		"Map Tool Examples",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(examplesPrompt),
			),
		},
	), nil
}
