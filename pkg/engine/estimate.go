package engine

import (
	"math"

	"github.com/NERVsystems/mapmcp/pkg/maperr"
)

func checkDistance(distanceKm float64) error {
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm < 0 {
		return maperr.InvalidParameter("distance_km", distanceKm, "must be a non-negative number")
	}
	return nil
}

func checkPositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return maperr.InvalidParameter(name, v, "must be greater than 0")
	}
	return nil
}

// EstimateCost returns distanceKm x ratePerKm.
func EstimateCost(distanceKm, ratePerKm float64) (float64, error) {
	if err := checkDistance(distanceKm); err != nil {
		return 0, err
	}
	if err := checkPositive("rate_per_km", ratePerKm); err != nil {
		return 0, err
	}
	return distanceKm * ratePerKm, nil
}

// EstimateEnergy returns the energy (kWh or liters) used over distanceKm at
// the given consumption per 100 km.
func EstimateEnergy(distanceKm, consumptionPer100Km float64) (float64, error) {
	if err := checkDistance(distanceKm); err != nil {
		return 0, err
	}
	if err := checkPositive("consumption_per_100km", consumptionPer100Km); err != nil {
		return 0, err
	}
	return distanceKm / 100 * consumptionPer100Km, nil
}

// EstimateDuration returns travel time in hours. congestion scales the time;
// 0 means no congestion and is treated as 1.
func EstimateDuration(distanceKm, speedKmh, congestion float64) (float64, error) {
	if err := checkDistance(distanceKm); err != nil {
		return 0, err
	}
	if err := checkPositive("speed_kmh", speedKmh); err != nil {
		return 0, err
	}
	if congestion == 0 {
		congestion = 1
	}
	if math.IsNaN(congestion) || math.IsInf(congestion, 0) || congestion < 1 {
		return 0, maperr.InvalidParameter("congestion", congestion, "must be at least 1")
	}
	return distanceKm / speedKmh * congestion, nil
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
