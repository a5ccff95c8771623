package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const areaLocationKey = "areas:locations"

// GeoStore maintains the parking-area geo index in Redis.
type GeoStore struct {
	client *redis.Client
}

// NewGeoStore creates a new GeoStore.
func NewGeoStore(client *redis.Client) *GeoStore {
	return &GeoStore{client: client}
}

// Upsert stores an area's position using GEOADD.
func (s *GeoStore) Upsert(ctx context.Context, areaID int, lat, lng float64) error {
	return s.client.GeoAdd(ctx, areaLocationKey, &redis.GeoLocation{
		Name:      strconv.Itoa(areaID),
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// Nearby returns area IDs within the given radius (in kilometers),
// sorted ascending by distance.
func (s *GeoStore) Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]int, error) {
	results, err := s.client.GeoRadius(ctx, areaLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius: radiusKm,
		Unit:   "km",
		Sort:   "ASC",
		Count:  limit,
	}).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(results))
	for _, r := range results {
		id, err := strconv.Atoi(r.Name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// Remove deletes an area from the geo index.
func (s *GeoStore) Remove(ctx context.Context, areaID int) error {
	return s.client.ZRem(ctx, areaLocationKey, strconv.Itoa(areaID)).Err()
}
