package tools

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/NERVsystems/mapmcp/pkg/geo"
	"github.com/NERVsystems/mapmcp/pkg/maperr"
)

// ErrorResponse is used for consistent error reporting. NoResultError
// becomes a no_result envelope, everything else an error envelope with the
// MCP error flag set.
func ErrorResponse(err error) *mcp.CallToolResult {
	return errorWithGuidance(NewToolError(err, ""))
}

// ErrorWithGuidance is ErrorResponse with caller-chosen guidance.
func ErrorWithGuidance(err error, guidance string) *mcp.CallToolResult {
	return errorWithGuidance(NewToolError(err, guidance))
}

func errorWithGuidance(te *ToolError) *mcp.CallToolResult {
	body := &ErrorBody{Code: te.Code, Message: te.Message, Recoverable: te.Recoverable, Guidance: te.Guidance}
	if te.Code == maperr.CodeNoResult {
		return envelopeResult(Envelope{Status: StatusNoResult, Error: body}, false)
	}
	return envelopeResult(Envelope{Status: StatusError, Error: body}, true)
}

// OKResponse wraps data in an ok envelope.
func OKResponse(data any) *mcp.CallToolResult {
	return envelopeResult(Envelope{Status: StatusOK, Data: data}, false)
}

// NoResultResponse wraps partial data in a no_result envelope.
func NoResultResponse(data any, reason, guidance string) *mcp.CallToolResult {
	return envelopeResult(Envelope{
		Status: StatusNoResult,
		Data:   data,
		Error:  &ErrorBody{Code: maperr.CodeNoResult, Message: reason, Recoverable: true, Guidance: guidance},
	}, false)
}

func envelopeResult(env Envelope, isError bool) *mcp.CallToolResult {
	data, err := json.Marshal(env)
	if err != nil {
		slog.Default().Error("failed to marshal tool result", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf(`{"status":"error","error":{"code":%q,"message":"failed to encode result"}}`, maperr.CodeInternal))
	}
	if isError {
		return mcp.NewToolResultError(string(data))
	}
	return mcp.NewToolResultText(string(data))
}

// args decodes the arguments of one tool call against the tool's input
// schema. The first decoding error sticks; later accessors return zero
// values and Err reports it.
type args struct {
	tool mcp.Tool
	raw  map[string]any
	err  error
}

// parseArgs rejects parameters the tool does not declare and required
// parameters that are missing.
func parseArgs(tool mcp.Tool, req mcp.CallToolRequest) *args {
	a := &args{tool: tool, raw: req.Params.Arguments}

	var unknown []string
	for name := range a.raw {
		if _, ok := tool.InputSchema.Properties[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		a.err = maperr.InvalidParameter(unknown[0], nil,
			"not recognized by %s; accepted parameters are %s", tool.Name, strings.Join(a.names(), ", "))
		return a
	}

	for _, name := range tool.InputSchema.Required {
		if a.present(name) {
			continue
		}
		if a.isLocation(name) {
			a.err = maperr.InvalidCoordinate("", "%s is required", name)
		} else {
			a.err = maperr.InvalidParameter(name, nil, "is required")
		}
		return a
	}
	return a
}

// Err returns the first decoding error.
func (a *args) Err() error { return a.err }

func (a *args) names() []string {
	names := make([]string, 0, len(a.tool.InputSchema.Properties))
	for name := range a.tool.InputSchema.Properties {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (a *args) present(name string) bool {
	v, ok := a.raw[name]
	return ok && v != nil
}

func (a *args) isLocation(name string) bool {
	return name == "location" || name == "origin" || name == "destination"
}

// location decodes a "latitude,longitude" string.
func (a *args) location(name string) geo.Location {
	if a.err != nil {
		return geo.Location{}
	}
	if !a.present(name) {
		a.err = maperr.InvalidCoordinate("", "%s is required", name)
		return geo.Location{}
	}
	s, ok := a.raw[name].(string)
	if !ok {
		a.err = maperr.InvalidCoordinate(fmt.Sprint(a.raw[name]), "%s must be a \"latitude,longitude\" string", name)
		return geo.Location{}
	}
	loc, err := geo.ParseLocation(s)
	if err != nil {
		a.err = fmt.Errorf("%s: %w", name, err)
		return geo.Location{}
	}
	return loc
}

func (a *args) number(name string, def float64) float64 {
	if a.err != nil || !a.present(name) {
		return def
	}
	raw := a.raw[name]
	if _, isBool := raw.(bool); isBool {
		a.err = maperr.InvalidParameter(name, raw, "must be a number")
		return def
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		a.err = maperr.InvalidParameter(name, raw, "must be a number")
		return def
	}
	return v
}

// radius is number for search radii, where an explicit zero is an error
// rather than a request for the default.
func (a *args) radius(name string, def float64) float64 {
	v := a.number(name, def)
	if a.err == nil && a.present(name) && v <= 0 {
		a.err = maperr.InvalidParameter(name, v, "must be greater than 0")
	}
	return v
}

// optionalNumber returns nil when the parameter is absent.
func (a *args) optionalNumber(name string) *float64 {
	if a.err != nil || !a.present(name) {
		return nil
	}
	v := a.number(name, 0)
	if a.err != nil {
		return nil
	}
	return &v
}

func (a *args) str(name string) string {
	if a.err != nil || !a.present(name) {
		return ""
	}
	switch a.raw[name].(type) {
	case map[string]any, []any:
		a.err = maperr.InvalidParameter(name, a.raw[name], "must be a string")
		return ""
	}
	s, err := cast.ToStringE(a.raw[name])
	if err != nil {
		a.err = maperr.InvalidParameter(name, a.raw[name], "must be a string")
		return ""
	}
	return s
}

func (a *args) boolean(name string, def bool) bool {
	if a.err != nil || !a.present(name) {
		return def
	}
	v, err := cast.ToBoolE(a.raw[name])
	if err != nil {
		a.err = maperr.InvalidParameter(name, a.raw[name], "must be true or false")
		return def
	}
	return v
}

func (a *args) stringList(name string) []string {
	if a.err != nil || !a.present(name) {
		return nil
	}
	if _, ok := a.raw[name].([]any); !ok {
		if _, ok := a.raw[name].([]string); !ok {
			a.err = maperr.InvalidParameter(name, a.raw[name], "must be a list of strings")
			return nil
		}
	}
	v, err := cast.ToStringSliceE(a.raw[name])
	if err != nil {
		a.err = maperr.InvalidParameter(name, a.raw[name], "must be a list of strings")
		return nil
	}
	return v
}
