package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"parkwise/internal/domain"
)

// AreaRepository is a PostgreSQL implementation of repository.AreaRepository.
type AreaRepository struct {
	q Querier
}

// NewAreaRepository creates a new PostgreSQL area repository.
func NewAreaRepository(db *sql.DB) *AreaRepository {
	return &AreaRepository{q: db}
}

// ListAll retrieves the full area collection for a catalog snapshot.
func (r *AreaRepository) ListAll(ctx context.Context) ([]domain.ParkingArea, error) {
	query := `
		SELECT id, name, address, latitude, longitude, total_slots, occupied_slots, available_slots, ev_slots, occupied_ev_slots, price_per_hour, rating, hours, amenities
		FROM parking_areas ORDER BY id
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []domain.ParkingArea
	for rows.Next() {
		var area domain.ParkingArea
		if err := rows.Scan(
			&area.ID,
			&area.Name,
			&area.Address,
			&area.Latitude,
			&area.Longitude,
			&area.TotalSlots,
			&area.OccupiedSlots,
			&area.AvailableSlots,
			&area.EVSlots,
			&area.OccupiedEVSlots,
			&area.PricePerHour,
			&area.Rating,
			&area.Hours,
			pq.Array(&area.Amenities),
		); err != nil {
			return nil, err
		}
		areas = append(areas, area)
	}

	return areas, rows.Err()
}
