// Command mapdemo runs sample tool calls against the map providers and
// prints their results, without an MCP client.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/geo"
	"github.com/NERVsystems/mapmcp/pkg/logging"
	"github.com/NERVsystems/mapmcp/pkg/tools"
)

type scenario struct {
	name string
	tool string
	args map[string]any
}

var scenarios = []scenario{
	{"chargers", "nearby_charging_stations", map[string]any{"location": "33.8938,35.5018", "radius_km": 5, "connector_type": "CCS"}},
	{"charging-trip", "plan_charging_route", map[string]any{"origin": "33.8938,35.5018", "destination": "34.4364,35.8211", "battery_range_km": 30}},
	{"energy-costs", "compare_energy_costs", map[string]any{"origin": "33.8938,35.5018", "destination": "34.4364,35.8211", "vehicle_type": "ev", "consumption_per_100km": 18}},
	{"stops", "nearby_transit_stops", map[string]any{"location": "33.8938,35.5018"}},
	{"transit-trip", "plan_transit_route", map[string]any{"origin": "33.8938,35.5018", "destination": "34.4364,35.8211"}},
	{"pois", "find_nearby_pois", map[string]any{"location": "33.8987,35.5201", "category": "restaurant", "min_rating": 4.5}},
	{"traffic", "check_route_traffic", map[string]any{"origin": "33.8938,35.5018", "destination": "34.4364,35.8211"}},
	{"alternates", "find_alternate_routes", map[string]any{"origin": "33.8938,35.5018", "destination": "34.4364,35.8211"}},
	{"closures", "get_road_closures", map[string]any{"location": "33.8987,35.5201", "severity_filter": "high"}},
}

func main() {
	var (
		only     string
		dataDir  string
		decode   bool
		logLevel string
	)
	flag.StringVar(&only, "scenario", "", "Run only this scenario (default: all)")
	flag.StringVar(&dataDir, "data", "", "Dataset directory (default: bundled datasets)")
	flag.BoolVar(&decode, "decode", false, "Print the points of any polyline in the result")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level")
	flag.Parse()

	logger := logging.Setup(logLevel, "text", os.Stderr)

	store, err := dataset.Load(dataDir)
	if err != nil {
		logger.Error("failed to load datasets", "error", err)
		os.Exit(1)
	}
	registry := tools.NewRegistry(logger, store, tools.DefaultServiceConfig())

	ran := 0
	for _, sc := range scenarios {
		if only != "" && sc.name != only {
			continue
		}
		ran++
		if err := run(registry, sc, decode); err != nil {
			logger.Error("scenario failed", "scenario", sc.name, "error", err)
			os.Exit(1)
		}
	}
	if ran == 0 {
		names := make([]string, len(scenarios))
		for i, sc := range scenarios {
			names[i] = sc.name
		}
		fmt.Fprintf(os.Stderr, "unknown scenario %q, choose one of: %s\n", only, strings.Join(names, ", "))
		os.Exit(2)
	}
}

func run(registry *tools.Registry, sc scenario, decode bool) error {
	result, err := registry.Call(context.Background(), sc.tool, sc.args)
	if err != nil {
		return err
	}
	var text string
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			text = tc.Text
			break
		}
	}

	var out bytes.Buffer
	if err := json.Indent(&out, []byte(text), "", "  "); err != nil {
		return fmt.Errorf("%s returned invalid JSON: %w", sc.tool, err)
	}
	fmt.Printf("== %s (%s)\n%s\n", sc.name, sc.tool, out.String())

	if decode {
		return printPolyline(text)
	}
	return nil
}

func printPolyline(text string) error {
	var env struct {
		Data struct {
			Polyline string `json:"polyline"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(text), &env); err != nil || env.Data.Polyline == "" {
		return nil
	}
	points, err := geo.DecodePolyline(env.Data.Polyline)
	if err != nil {
		return fmt.Errorf("decode polyline: %w", err)
	}
	for i, pt := range points {
		fmt.Printf("point %d: %.5f,%.5f\n", i, pt.Latitude, pt.Longitude)
	}
	return nil
}
