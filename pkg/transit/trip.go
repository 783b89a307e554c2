package transit

import (
	"fmt"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/engine"
)

// tripBuilder accumulates segments and running totals for PlanRoute.
type tripBuilder struct {
	cfg      Config
	segments []Segment
	minutes  float64
	err      error

	// unrounded distance and time of the last transit segment
	rideKm      float64
	rideMinutes float64
}

func newTripBuilder(cfg Config) *tripBuilder {
	return &tripBuilder{cfg: cfg}
}

func (b *tripBuilder) walk(from, to string, km float64, instructions string) {
	hours, err := engine.EstimateDuration(km, b.cfg.WalkingSpeedKmh, 1)
	if err != nil {
		b.err = err
		return
	}
	b.minutes += hours * 60
	b.segments = append(b.segments, Segment{
		Segment:              len(b.segments) + 1,
		Type:                 SegmentWalk,
		From:                 from,
		To:                   to,
		DistanceKm:           engine.Round(km, 2),
		EstimatedTimeMinutes: engine.Round(hours*60, 1),
		Instructions:         instructions,
	})
}

// ride adds the hop from one stop to the next, extending the previous segment
// when it continues on the same route and mode.
func (b *tripBuilder) ride(from, to dataset.TransitStop) error {
	route := from.CommonRoute(to)
	if route == "" {
		route = from.Routes[0]
	}
	km := from.Location.DistanceTo(to.Location)

	if n := len(b.segments); n > 0 {
		last := &b.segments[n-1]
		if last.Type == from.Type && last.Route == route {
			b.minutes -= b.rideMinutes
			b.rideKm += km
			last.To = to.Name
			last.Stops = append(last.Stops, to.ID)
			return b.price(last)
		}
	}

	b.rideKm = km
	b.segments = append(b.segments, Segment{
		Segment: len(b.segments) + 1,
		Type:    from.Type,
		From:    from.Name,
		To:      to.Name,
		Route:   route,
		Stops:   []string{from.ID, to.ID},
	})
	return b.price(&b.segments[len(b.segments)-1])
}

// price sets the distance and times of an open transit segment and adds them
// to the running total.
func (b *tripBuilder) price(seg *Segment) error {
	speed := b.cfg.BusSpeedKmh
	if seg.Type != dataset.TransitBus {
		speed = b.cfg.RailSpeedKmh
	}
	hours, err := engine.EstimateDuration(b.rideKm, speed, 1)
	if err != nil {
		return err
	}
	travel := hours * 60
	total := b.cfg.WaitMinutes + travel

	seg.DistanceKm = engine.Round(b.rideKm, 2)
	seg.WaitTimeMinutes = b.cfg.WaitMinutes
	seg.TravelTimeMinutes = engine.Round(travel, 1)
	seg.EstimatedTimeMinutes = engine.Round(total, 1)
	seg.Instructions = fmt.Sprintf("Take %s from %s to %s", seg.Route, seg.From, seg.To)
	b.rideMinutes = total
	b.minutes += total
	return nil
}

func (b *tripBuilder) summary() Summary {
	var s Summary
	var walkKm float64
	for _, seg := range b.segments {
		if seg.Type == SegmentWalk {
			s.WalkingSegments++
			walkKm += seg.DistanceKm
		} else {
			s.TransitSegments++
		}
	}
	s.TotalSegments = len(b.segments)
	s.TotalWalkingDistanceKm = engine.Round(walkKm, 2)
	return s
}
