package routing

import (
	"context"
	"math"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// Destination is a point tagged with the caller's identifier.
type Destination struct {
	ID  int
	Lat float64
	Lng float64
}

// Cost is the travel distance and duration between two points.
type Cost struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// UnknownCost is the sentinel recorded when a lookup fails. It sorts
// after every real measurement.
var UnknownCost = Cost{DistanceMeters: math.MaxFloat64, DurationSeconds: math.MaxFloat64}

// Unknown reports whether the cost is the failure sentinel.
func (c Cost) Unknown() bool {
	return c.DistanceMeters == math.MaxFloat64
}

// RouteSource resolves the travel cost between two points.
type RouteSource interface {
	Route(ctx context.Context, origin, dest Point) (Cost, error)
}
