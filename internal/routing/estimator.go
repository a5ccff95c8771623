package routing

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const defaultMaxInFlight = 4

// Estimator fans one directions lookup out per destination and joins
// every result before returning. A failed lookup degrades to the
// UnknownCost sentinel instead of aborting the batch, so the returned
// map always has one entry per destination.
type Estimator struct {
	source      RouteSource
	maxInFlight int
}

// NewEstimator creates an Estimator with bounded lookup concurrency.
func NewEstimator(source RouteSource, maxInFlight int) *Estimator {
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}
	return &Estimator{source: source, maxInFlight: maxInFlight}
}

// Estimate returns the travel cost from origin to each destination.
// Entries for failed lookups hold UnknownCost; a total provider outage
// yields an all-sentinel map.
func (e *Estimator) Estimate(ctx context.Context, origin Point, dests []Destination) map[int]Cost {
	results := make([]Cost, len(dests))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxInFlight)

	for i, d := range dests {
		i, d := i, d
		g.Go(func() error {
			cost, err := e.source.Route(ctx, origin, Point{Lat: d.Lat, Lng: d.Lng})
			if err != nil {
				cost = UnknownCost
			}
			results[i] = cost
			// Lookup failures never abort the batch.
			return nil
		})
	}

	// Goroutines only ever return nil.
	_ = g.Wait()

	costs := make(map[int]Cost, len(dests))
	for i, d := range dests {
		costs[d.ID] = results[i]
	}

	return costs
}
