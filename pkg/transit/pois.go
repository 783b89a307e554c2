package transit

import (
	"context"
	"fmt"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/engine"
	"github.com/NERVsystems/mapmcp/pkg/geo"
)

// POIResult is a point of interest annotated with its distance.
type POIResult struct {
	dataset.POI
	DistanceKm float64 `json:"distance_km"`
}

// NearbyPOIsResult is the answer to NearbyPOIs.
type NearbyPOIsResult struct {
	SearchLocation    geo.Location   `json:"search_location"`
	RadiusKm          float64        `json:"radius_km"`
	CategoryFilter    string         `json:"category_filter,omitempty"`
	MinRatingFilter   *float64       `json:"min_rating_filter,omitempty"`
	POIsFound         int            `json:"pois_found"`
	POIs              []POIResult    `json:"pois"`
	CategoriesSummary map[string]int `json:"categories_summary"`
}

// NearbyPOIs lists points of interest within the radius, nearest first.
func (s *Service) NearbyPOIs(ctx context.Context, opts NearbyPOIsOptions) (*NearbyPOIsResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	candidates, err := s.pois.Near(ctx, opts.Location, opts.RadiusKm)
	if err != nil {
		return nil, fmt.Errorf("search points of interest: %w", err)
	}
	hits, err := engine.Nearby(candidates, opts.Location, opts.RadiusKm, func(p dataset.POI) bool {
		if opts.Category != "" && p.Category != opts.Category {
			return false
		}
		return opts.MinRating == nil || p.Rating >= *opts.MinRating
	})
	if err != nil {
		return nil, err
	}

	result := &NearbyPOIsResult{
		SearchLocation:    opts.Location,
		RadiusKm:          opts.RadiusKm,
		CategoryFilter:    opts.Category,
		MinRatingFilter:   opts.MinRating,
		POIsFound:         len(hits),
		POIs:              make([]POIResult, 0, len(hits)),
		CategoriesSummary: make(map[string]int),
	}
	for _, h := range hits {
		result.POIs = append(result.POIs, POIResult{POI: h.Record, DistanceKm: engine.Round(h.DistanceKm, 2)})
		result.CategoriesSummary[h.Record.Category]++
	}
	return result, nil
}
