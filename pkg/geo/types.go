// Package geo provides the geographic primitives used by every map provider:
// validated coordinates, great-circle distance, bounding boxes and encoded
// polylines.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/NERVsystems/mapmcp/pkg/maperr"
)

// EarthRadiusKm is the mean radius of Earth in kilometers.
const EarthRadiusKm = 6371.0

// kmPerDegreeLat is the length of one degree of latitude on the mean sphere.
const kmPerDegreeLat = EarthRadiusKm * math.Pi / 180.0

// boxSlackDegrees pads buffered boxes so points exactly on the circle survive
// floating-point rounding.
const boxSlackDegrees = 1e-9

// Location represents a geographic coordinate (latitude and longitude)
// with standardized JSON field names.
//
// Example:
//
//	beirut := geo.Location{Latitude: 33.8938, Longitude: 35.5018}
//	km, err := geo.Distance(beirut, geo.Location{Latitude: 34.4364, Longitude: 35.8211})
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports whether the location lies within the valid latitude and
// longitude ranges.
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || math.IsInf(l.Latitude, 0) {
		return maperr.InvalidCoordinate(l.String(), "latitude is not a finite number")
	}
	if math.IsNaN(l.Longitude) || math.IsInf(l.Longitude, 0) {
		return maperr.InvalidCoordinate(l.String(), "longitude is not a finite number")
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return maperr.InvalidCoordinate(l.String(), "latitude must be between -90 and 90")
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return maperr.InvalidCoordinate(l.String(), "longitude must be between -180 and 180")
	}
	return nil
}

// String formats the location as "lat,lon".
func (l Location) String() string {
	return strconv.FormatFloat(l.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(l.Longitude, 'f', -1, 64)
}

// ParseLocation parses a "latitude,longitude" string. Whitespace around either
// part is ignored.
func ParseLocation(s string) (Location, error) {
	if strings.TrimSpace(s) == "" {
		return Location{}, maperr.InvalidCoordinate(s, "location is empty, expected \"latitude,longitude\"")
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Location{}, maperr.InvalidCoordinate(s, "expected \"latitude,longitude\", got %d parts", len(parts))
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Location{}, maperr.InvalidCoordinate(s, "latitude %q is not a number", strings.TrimSpace(parts[0]))
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Location{}, maperr.InvalidCoordinate(s, "longitude %q is not a number", strings.TrimSpace(parts[1]))
	}

	loc := Location{Latitude: lat, Longitude: lon}
	if err := loc.Validate(); err != nil {
		// report the caller's text, not the reformatted value
		return Location{}, maperr.InvalidCoordinate(s, "%s", err.(*maperr.InvalidCoordinateError).Reason)
	}
	return loc, nil
}

// HaversineKm calculates the great-circle distance between two points
// on the Earth's surface given their latitude and longitude in degrees.
// The result is returned in kilometers. Inputs are not validated.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dlon/2)*math.Sin(dlon/2)
	// guard against rounding pushing a past 1 for antipodal points
	if a > 1 {
		a = 1
	}
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusKm * c
}

// Distance returns the great-circle distance in kilometers between a and b.
func Distance(a, b Location) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	return HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude), nil
}

// DistanceTo is the unchecked form of Distance for locations that have
// already been validated.
func (l Location) DistanceTo(other Location) float64 {
	return HaversineKm(l.Latitude, l.Longitude, other.Latitude, other.Longitude)
}

// BoundingBox represents a geographic bounding box with southwest and northeast corners
type BoundingBox struct {
	MinLat float64 // Southern edge (minimum latitude)
	MinLon float64 // Western edge (minimum longitude)
	MaxLat float64 // Northern edge (maximum latitude)
	MaxLon float64 // Eastern edge (maximum longitude)
}

// NewBoundingBox creates a new empty bounding box
func NewBoundingBox() *BoundingBox {
	return &BoundingBox{
		MinLat: 90.0, // Start with inverted min/max so any point extends correctly
		MinLon: 180.0,
		MaxLat: -90.0,
		MaxLon: -180.0,
	}
}

// BoundingBoxAround returns the box enclosing the circle of radiusKm around center.
func BoundingBoxAround(center Location, radiusKm float64) *BoundingBox {
	bb := NewBoundingBox()
	bb.ExtendWithPoint(center.Latitude, center.Longitude)
	bb.Buffer(radiusKm)
	return bb
}

// ExtendWithPoint extends the bounding box to include the specified point
func (bb *BoundingBox) ExtendWithPoint(lat, lon float64) {
	if lat < bb.MinLat {
		bb.MinLat = lat
	}
	if lat > bb.MaxLat {
		bb.MaxLat = lat
	}
	if lon < bb.MinLon {
		bb.MinLon = lon
	}
	if lon > bb.MaxLon {
		bb.MaxLon = lon
	}
}

// Buffer grows the bounding box by bufferKm on every side. The longitude
// margin is the widest longitude offset a great circle of that radius reaches
// from the box's most poleward latitude, so the box never undercuts the
// circle. A box that reaches a pole or crosses the 180° meridian spans every
// longitude.
func (bb *BoundingBox) Buffer(bufferKm float64) {
	angle := bufferKm / EarthRadiusKm
	latDegrees := bufferKm/kmPerDegreeLat + boxSlackDegrees
	maxAbsLat := math.Max(math.Abs(bb.MinLat), math.Abs(bb.MaxLat))

	bb.MinLat = math.Max(bb.MinLat-latDegrees, -90)
	bb.MaxLat = math.Min(bb.MaxLat+latDegrees, 90)

	cosLat := math.Cos(maxAbsLat * math.Pi / 180.0)
	if angle >= math.Pi/2 || cosLat <= 0 || math.Sin(angle) >= cosLat {
		bb.MinLon, bb.MaxLon = -180, 180
		return
	}
	lonDegrees := math.Asin(math.Sin(angle)/cosLat)*180.0/math.Pi + boxSlackDegrees

	bb.MinLon -= lonDegrees
	bb.MaxLon += lonDegrees
	if bb.MinLon < -180 || bb.MaxLon > 180 {
		bb.MinLon, bb.MaxLon = -180, 180
	}
}

// Contains reports whether loc lies inside the box, edges included.
func (bb *BoundingBox) Contains(loc Location) bool {
	return loc.Latitude >= bb.MinLat && loc.Latitude <= bb.MaxLat &&
		loc.Longitude >= bb.MinLon && loc.Longitude <= bb.MaxLon
}

// String returns a string representation of the bounding box for logging.
func (bb *BoundingBox) String() string {
	return fmt.Sprintf("(%f,%f,%f,%f)", bb.MinLat, bb.MinLon, bb.MaxLat, bb.MaxLon)
}
