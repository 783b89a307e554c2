package tools

import (
	"errors"
	"fmt"

	"github.com/NERVsystems/mapmcp/pkg/maperr"
)

// ToolError is a failure reported back to the agent, with information to
// help it recover.
type ToolError struct {
	Code        string // one of the maperr codes
	Message     string // human-readable reason
	Recoverable bool   // whether retrying with different arguments can help
	Guidance    string // what to change before retrying
}

// Error implements the error interface and provides a formatted error message.
func (e *ToolError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeRateLimited reports a call refused because the tool is called too often.
const CodeRateLimited = "rate_limited"

// Common error guidance messages
const (
	// Argument guidance
	GuidanceCoordinateFormat = `Pass coordinates as "latitude,longitude" in decimal degrees, e.g. "33.8938,35.5018". Latitude must be within [-90, 90] and longitude within [-180, 180].`
	GuidanceParameter        = "Check the parameter against the tool's input schema and try again."
	GuidanceRadius           = "Use a search radius greater than 0 kilometers."

	// Result guidance
	GuidanceNoResult        = "Try a larger search radius or fewer filters."
	GuidanceChargingRange   = "The battery range is too short for the gaps between charging stations. Try a larger battery_range_km or a closer destination."
	GuidanceTransitCoverage = "No transit stop serves one end of the trip. Try removing preferred_transit_types or pick locations closer to a city."

	// Generic guidance
	GuidanceData      = "The map datasets are not available. Ask the operator to check the data directory."
	GuidanceRateLimit = "This tool is being called too often. Please try again in a few seconds."
	GuidanceGeneral   = "Please try again later or modify your request parameters."
)

// NewToolError classifies err and attaches guidance. An explicit guidance
// string overrides the default for the error's code.
func NewToolError(err error, guidance string) *ToolError {
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}

	code := maperr.Code(err)
	if guidance == "" {
		guidance = defaultGuidance(err, code)
	}
	return &ToolError{
		Code:        code,
		Message:     err.Error(),
		Recoverable: code != maperr.CodeDataUnavailable && code != maperr.CodeInternal,
		Guidance:    guidance,
	}
}

func defaultGuidance(err error, code string) string {
	switch code {
	case maperr.CodeInvalidCoordinate:
		return GuidanceCoordinateFormat
	case maperr.CodeInvalidParameter:
		var paramErr *maperr.InvalidParameterError
		if errors.As(err, &paramErr) && paramErr.Param == "radius_km" {
			return GuidanceRadius
		}
		return GuidanceParameter
	case maperr.CodeNoResult:
		return GuidanceNoResult
	case maperr.CodeDataUnavailable:
		return GuidanceData
	default:
		return GuidanceGeneral
	}
}
