// Package engine implements the geo-query and route-estimation core shared by
// the charging, transit and traffic providers: nearby search, the greedy
// stop planner and cost/time estimates.
package engine

import (
	"math"
	"sort"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/geo"
	"github.com/NERVsystems/mapmcp/pkg/maperr"
)

// Hit is a record matched by a search together with its distance from the
// search center.
type Hit[T dataset.Record] struct {
	Record     T
	DistanceKm float64
}

// Nearby returns the candidates within radiusKm of center that satisfy match,
// nearest first. Records at equal distance keep their input order. A nil
// match accepts every candidate.
func Nearby[T dataset.Record](candidates []T, center geo.Location, radiusKm float64, match func(T) bool) ([]Hit[T], error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(radiusKm) || radiusKm <= 0 {
		return nil, maperr.InvalidParameter("radius_km", radiusKm, "must be greater than 0")
	}

	hits := make([]Hit[T], 0, len(candidates))
	for _, c := range candidates {
		if match != nil && !match(c) {
			continue
		}
		d := center.DistanceTo(c.Point())
		if d <= radiusKm {
			hits = append(hits, Hit[T]{Record: c, DistanceKm: d})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].DistanceKm < hits[j].DistanceKm
	})
	return hits, nil
}

// Nearest returns the candidate closest to p that satisfies match. Ties go to
// the earlier candidate. ok is false when nothing matches.
func Nearest[T dataset.Record](candidates []T, p geo.Location, match func(T) bool) (hit Hit[T], ok bool) {
	for _, c := range candidates {
		if match != nil && !match(c) {
			continue
		}
		d := p.DistanceTo(c.Point())
		if !ok || d < hit.DistanceKm {
			hit, ok = Hit[T]{Record: c, DistanceKm: d}, true
		}
	}
	return hit, ok
}
