package maperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "coordinate", err: InvalidCoordinate("abc,35.5", "latitude is not a number"), want: CodeInvalidCoordinate},
		{name: "parameter", err: InvalidParameter("radius_km", -1.0, "must be greater than 0"), want: CodeInvalidParameter},
		{name: "no result", err: &NoResultError{Reason: "nothing nearby"}, want: CodeNoResult},
		{name: "data", err: &DataUnavailableError{Dataset: "pois", Err: errors.New("boom")}, want: CodeDataUnavailable},
		{name: "wrapped", err: fmt.Errorf("origin: %w", InvalidCoordinate("", "missing")), want: CodeInvalidCoordinate},
		{name: "other", err: errors.New("unexpected"), want: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestDataUnavailableUnwrap(t *testing.T) {
	inner := errors.New("file not found")
	err := &DataUnavailableError{Dataset: "pois", Path: "data/pois.json", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("DataUnavailableError does not unwrap to the underlying error")
	}
	if got := err.Error(); got != `dataset pois unavailable (data/pois.json): file not found` {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorMessages(t *testing.T) {
	if got := InvalidCoordinate("abc", "expected \"lat,lon\"").Error(); got != `invalid coordinate "abc": expected "lat,lon"` {
		t.Errorf("InvalidCoordinate message = %q", got)
	}
	if got := (&InvalidParameterError{Param: "connector_type", Reason: "required"}).Error(); got != "invalid parameter connector_type: required" {
		t.Errorf("InvalidParameterError message = %q", got)
	}
}
