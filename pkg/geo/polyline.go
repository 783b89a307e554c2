package geo

import (
	"fmt"
	"math"
)

// polylinePrecision is the Polyline5 scale factor (5 decimal places).
const polylinePrecision = 1e5

// EncodePolyline encodes a slice of locations into a Polyline5 string
// (Google's Polyline Algorithm Format). Planned routes carry their waypoint
// chain in this form so clients can draw them directly.
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
func EncodePolyline(points []Location) string {
	if len(points) == 0 {
		return ""
	}

	// 6 bytes per point is common
	result := make([]byte, 0, len(points)*6)

	prevLat, prevLng := 0, 0
	for _, point := range points {
		lat := int(math.Round(point.Latitude * polylinePrecision))
		lng := int(math.Round(point.Longitude * polylinePrecision))

		result = appendSigned(result, lat-prevLat)
		result = appendSigned(result, lng-prevLng)

		prevLat, prevLng = lat, lng
	}

	return string(result)
}

// DecodePolyline decodes a Polyline5 string. A string that ends in the middle
// of a coordinate is rejected.
func DecodePolyline(encoded string) ([]Location, error) {
	points := make([]Location, 0, len(encoded)/4)

	index, lat, lng := 0, 0, 0
	for index < len(encoded) {
		deltaLat, next, err := decodeSigned(encoded, index)
		if err != nil {
			return nil, err
		}
		deltaLng, next, err := decodeSigned(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next

		lat += deltaLat
		lng += deltaLng
		points = append(points, Location{
			Latitude:  float64(lat) / polylinePrecision,
			Longitude: float64(lng) / polylinePrecision,
		})
	}

	return points, nil
}

// appendSigned appends the zigzag varint encoding of value to buf.
func appendSigned(buf []byte, value int) []byte {
	s := value << 1
	if value < 0 {
		s = ^s
	}
	for s >= 0x20 {
		buf = append(buf, byte((0x20|(s&0x1f))+63))
		s >>= 5
	}
	return append(buf, byte(s+63))
}

// decodeSigned reads one value starting at index and returns it together
// with the index of the next unread byte.
func decodeSigned(encoded string, index int) (int, int, error) {
	result, shift := 0, 0
	for {
		if index >= len(encoded) {
			return 0, index, fmt.Errorf("polyline truncated at byte %d", index)
		}
		b := int(encoded[index]) - 63
		if b < 0 || b > 0x3f {
			return 0, index, fmt.Errorf("polyline has invalid byte %q at %d", encoded[index], index)
		}
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	return (result >> 1) ^ (-(result & 1)), index, nil
}
