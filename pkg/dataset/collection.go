package dataset

import (
	"context"
	"fmt"
	"slices"

	"github.com/NERVsystems/mapmcp/pkg/geo"
	"github.com/NERVsystems/mapmcp/pkg/maperr"
)

// Provider supplies candidate records around a point. Facades depend on this
// capability rather than on a concrete store, so tests can substitute
// synthetic datasets.
type Provider[T Record] interface {
	// Near returns the records whose point lies within radiusKm of center,
	// in dataset order.
	Near(ctx context.Context, center geo.Location, radiusKm float64) ([]T, error)
}

// Collection is an immutable set of records with unique IDs. It is safe for
// concurrent reads.
type Collection[T Record] struct {
	name  string
	items []T
}

// NewCollection validates items and indexes them by ID. Empty or duplicate
// IDs and invalid coordinates are rejected.
func NewCollection[T Record](name string, items []T) (*Collection[T], error) {
	c := &Collection[T]{
		name:  name,
		items: slices.Clone(items),
	}
	seen := make(map[string]bool, len(items))
	for i, item := range c.items {
		id := item.RecordID()
		if id == "" {
			return nil, fmt.Errorf("record %d has no id", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate id %q", id)
		}
		if err := item.Point().Validate(); err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		if v, ok := any(item).(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return nil, fmt.Errorf("record %s: %w", id, err)
			}
		}
		seen[id] = true
	}
	return c, nil
}

// Name returns the dataset name.
func (c *Collection[T]) Name() string { return c.name }

// Len returns the number of records.
func (c *Collection[T]) Len() int { return len(c.items) }

// All returns a copy of every record in dataset order.
func (c *Collection[T]) All() []T { return slices.Clone(c.items) }

// Near implements Provider. A bounding box rejects far records before the
// exact great-circle check.
func (c *Collection[T]) Near(ctx context.Context, center geo.Location, radiusKm float64) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if !(radiusKm > 0) {
		return nil, maperr.InvalidParameter("radius_km", radiusKm, "must be greater than 0")
	}

	bbox := geo.BoundingBoxAround(center, radiusKm)
	var out []T
	for _, item := range c.items {
		p := item.Point()
		if !bbox.Contains(p) {
			continue
		}
		if center.DistanceTo(p) <= radiusKm {
			out = append(out, item)
		}
	}
	return out, nil
}
