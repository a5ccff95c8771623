package redis

import "context"

// GeoIndex defines the interface for the area proximity index.
type GeoIndex interface {
	Upsert(ctx context.Context, areaID int, lat, lng float64) error
	Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]int, error)
	Remove(ctx context.Context, areaID int) error
}

// Ensure concrete types implement interfaces.
var _ GeoIndex = (*GeoStore)(nil)
