package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"parkwise/internal/domain"
	internalRedis "parkwise/internal/redis"
	"parkwise/internal/repository"
	"parkwise/internal/routing"
)

const geoSearchRadiusKm = 50.0

// AreaDistance is a catalog entry ranked by travel cost.
type AreaDistance struct {
	Area            domain.ParkingArea
	DistanceMeters  float64
	DurationSeconds float64
	// ByRoute is true only when a road-routing lookup produced the
	// distance and duration. Straight-line rankings and failed route
	// lookups leave it false; failed lookups carry zero costs.
	ByRoute bool
}

// AreaCatalog holds the parking-area snapshot and answers nearest-N
// queries. The snapshot is replaced wholesale on refresh; readers always
// see a consistent collection.
type AreaCatalog struct {
	mu    sync.RWMutex
	areas []domain.ParkingArea
	byID  map[int]domain.ParkingArea

	areaRepo  repository.AreaRepository
	geo       internalRedis.GeoIndex
	estimator *routing.Estimator
}

// NewAreaCatalog creates a new AreaCatalog. geo and estimator are
// optional; without geo, proximity falls back to an in-memory haversine
// scan, and without estimator route-aware ranking degrades to
// straight-line ranking.
func NewAreaCatalog(areaRepo repository.AreaRepository, geo internalRedis.GeoIndex, estimator *routing.Estimator) *AreaCatalog {
	return &AreaCatalog{
		byID:      make(map[int]domain.ParkingArea),
		areaRepo:  areaRepo,
		geo:       geo,
		estimator: estimator,
	}
}

// Load atomically replaces the area snapshot. Snapshot invariants are
// validated before the swap; a bad snapshot leaves the previous one in
// place.
func (c *AreaCatalog) Load(ctx context.Context, areas []domain.ParkingArea) error {
	for _, area := range areas {
		if area.AvailableSlots != area.TotalSlots-area.OccupiedSlots {
			return fmt.Errorf("area %d: available (%d) != total (%d) - occupied (%d)",
				area.ID, area.AvailableSlots, area.TotalSlots, area.OccupiedSlots)
		}
		if area.OccupiedEVSlots > area.EVSlots || area.EVSlots > area.TotalSlots {
			return fmt.Errorf("area %d: ev slot counts out of range (occupiedEv=%d, ev=%d, total=%d)",
				area.ID, area.OccupiedEVSlots, area.EVSlots, area.TotalSlots)
		}
		if area.PricePerHour < 0 {
			return fmt.Errorf("area %d: negative price per hour (%f)", area.ID, area.PricePerHour)
		}
	}

	byID := make(map[int]domain.ParkingArea, len(areas))
	for _, area := range areas {
		byID[area.ID] = area
	}

	c.mu.Lock()
	c.areas = areas
	c.byID = byID
	c.mu.Unlock()

	// Best-effort geo index refresh; proximity falls back to the
	// in-memory scan when the index is stale or missing.
	if c.geo != nil {
		for _, area := range areas {
			if err := c.geo.Upsert(ctx, area.ID, area.Latitude, area.Longitude); err != nil {
				log.Printf("catalog: geo index upsert failed for area %d: %v", area.ID, err)
				break
			}
		}
	}

	return nil
}

// Refresh pulls the full area collection from the repository and swaps
// it in.
func (c *AreaCatalog) Refresh(ctx context.Context) error {
	if c.areaRepo == nil {
		return nil
	}
	areas, err := c.areaRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	return c.Load(ctx, areas)
}

// Get retrieves an area from the current snapshot.
func (c *AreaCatalog) Get(id int) (domain.ParkingArea, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	area, ok := c.byID[id]
	if !ok {
		return domain.ParkingArea{}, repository.ErrNotFound
	}
	return area, nil
}

// All returns the current snapshot in catalog order.
func (c *AreaCatalog) All() []domain.ParkingArea {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.ParkingArea, len(c.areas))
	copy(out, c.areas)
	return out
}

// Nearest returns up to limit areas ordered ascending by straight-line
// distance from the origin. Fails with ErrEmptyCatalog when no snapshot
// is loaded; a valid query with no results returns an empty slice.
func (c *AreaCatalog) Nearest(ctx context.Context, lat, lng float64, limit int) ([]AreaDistance, error) {
	snapshot := c.All()
	if len(snapshot) == 0 {
		return nil, ErrEmptyCatalog
	}

	if c.geo != nil {
		if ranked, err := c.nearestFromGeo(ctx, snapshot, lat, lng, limit); err == nil {
			return ranked, nil
		} else {
			log.Printf("catalog: geo index query failed, falling back to scan: %v", err)
		}
	}

	ranked := make([]AreaDistance, 0, len(snapshot))
	for _, area := range snapshot {
		ranked = append(ranked, AreaDistance{
			Area:           area,
			DistanceMeters: haversineMeters(lat, lng, area.Latitude, area.Longitude),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceMeters < ranked[j].DistanceMeters
	})

	return truncate(ranked, limit), nil
}

// NearestByRoute ranks areas by road travel cost. Entries whose lookup
// failed sort after every measured entry, preserving catalog order
// among themselves, and carry no costs.
func (c *AreaCatalog) NearestByRoute(ctx context.Context, lat, lng float64, limit int) ([]AreaDistance, error) {
	snapshot := c.All()
	if len(snapshot) == 0 {
		return nil, ErrEmptyCatalog
	}

	if c.estimator == nil {
		return c.Nearest(ctx, lat, lng, limit)
	}

	dests := make([]routing.Destination, len(snapshot))
	for i, area := range snapshot {
		dests[i] = routing.Destination{ID: area.ID, Lat: area.Latitude, Lng: area.Longitude}
	}

	costs := c.estimator.Estimate(ctx, routing.Point{Lat: lat, Lng: lng}, dests)

	ranked := make([]AreaDistance, 0, len(snapshot))
	for _, area := range snapshot {
		cost := costs[area.ID]
		entry := AreaDistance{Area: area}
		if !cost.Unknown() {
			entry.DistanceMeters = cost.DistanceMeters
			entry.DurationSeconds = cost.DurationSeconds
			entry.ByRoute = true
		}
		ranked = append(ranked, entry)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ByRoute != ranked[j].ByRoute {
			return ranked[i].ByRoute
		}
		return ranked[i].DistanceMeters < ranked[j].DistanceMeters
	})

	return truncate(ranked, limit), nil
}

// nearestFromGeo ranks via the Redis geo index, filling distances from
// the snapshot coordinates.
func (c *AreaCatalog) nearestFromGeo(ctx context.Context, snapshot []domain.ParkingArea, lat, lng float64, limit int) ([]AreaDistance, error) {
	byID := make(map[int]domain.ParkingArea, len(snapshot))
	for _, area := range snapshot {
		byID[area.ID] = area
	}

	ids, err := c.geo.Nearby(ctx, lat, lng, geoSearchRadiusKm, limit)
	if err != nil {
		return nil, err
	}

	ranked := make([]AreaDistance, 0, len(ids))
	for _, id := range ids {
		area, ok := byID[id]
		if !ok {
			// Stale index entry; the snapshot is authoritative.
			continue
		}
		ranked = append(ranked, AreaDistance{
			Area:           area,
			DistanceMeters: haversineMeters(lat, lng, area.Latitude, area.Longitude),
		})
	}

	return truncate(ranked, limit), nil
}

func truncate(ranked []AreaDistance, limit int) []AreaDistance {
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}

const earthRadiusMeters = 6371000.0

func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
