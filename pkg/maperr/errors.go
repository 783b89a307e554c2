// Package maperr defines the error taxonomy shared by the geo engine, the
// datasets and the tool surface.
package maperr

import (
	"errors"
	"fmt"
)

// Stable error codes reported to tool callers.
const (
	CodeInvalidCoordinate = "invalid_coordinate"
	CodeInvalidParameter  = "invalid_parameter"
	CodeNoResult          = "no_result"
	CodeDataUnavailable   = "data_unavailable"
	CodeInternal          = "internal_error"
)

// InvalidCoordinateError reports a missing, malformed or out-of-range
// latitude/longitude.
type InvalidCoordinateError struct {
	Input  string // raw input as supplied by the caller
	Reason string
}

func (e *InvalidCoordinateError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("invalid coordinate: %s", e.Reason)
	}
	return fmt.Sprintf("invalid coordinate %q: %s", e.Input, e.Reason)
}

// InvalidParameterError reports an out-of-range numeric parameter or an
// unrecognized option value.
type InvalidParameterError struct {
	Param  string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
	}
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Param, e.Value, e.Reason)
}

// NoResultError reports a valid request that produced no usable answer.
// Callers usually surface it alongside partial data rather than as a failure.
type NoResultError struct {
	Reason string
}

func (e *NoResultError) Error() string {
	return "no result: " + e.Reason
}

// DataUnavailableError reports a dataset that is missing or corrupt at load
// time. It is fatal at startup.
type DataUnavailableError struct {
	Dataset string
	Path    string
	Err     error
}

func (e *DataUnavailableError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("dataset %s unavailable (%s): %v", e.Dataset, e.Path, e.Err)
	}
	return fmt.Sprintf("dataset %s unavailable: %v", e.Dataset, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// InvalidCoordinate builds an InvalidCoordinateError.
func InvalidCoordinate(input, format string, args ...any) error {
	return &InvalidCoordinateError{Input: input, Reason: fmt.Sprintf(format, args...)}
}

// InvalidParameter builds an InvalidParameterError.
func InvalidParameter(param string, value any, format string, args ...any) error {
	return &InvalidParameterError{Param: param, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// Code classifies err into one of the stable error codes.
func Code(err error) string {
	var (
		coordErr *InvalidCoordinateError
		paramErr *InvalidParameterError
		noResErr *NoResultError
		dataErr  *DataUnavailableError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &coordErr):
		return CodeInvalidCoordinate
	case errors.As(err, &paramErr):
		return CodeInvalidParameter
	case errors.As(err, &noResErr):
		return CodeNoResult
	case errors.As(err, &dataErr):
		return CodeDataUnavailable
	default:
		return CodeInternal
	}
}
