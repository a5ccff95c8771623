package postgres

import (
	"context"
	"database/sql"

	"parkwise/internal/domain"
	"parkwise/internal/repository"
)

// SlotRepository is a PostgreSQL implementation of repository.SlotRepository.
type SlotRepository struct {
	q Querier
}

// NewSlotRepository creates a new PostgreSQL slot repository.
func NewSlotRepository(db *sql.DB) *SlotRepository {
	return &SlotRepository{q: db}
}

// NewSlotRepositoryWithTx creates a slot repository using a transaction.
func NewSlotRepositoryWithTx(tx *sql.Tx) *SlotRepository {
	return &SlotRepository{q: tx}
}

// ListByArea retrieves all slots belonging to an area.
func (r *SlotRepository) ListByArea(ctx context.Context, areaID int) ([]domain.ParkingSlot, error) {
	query := `
		SELECT id, area_id, number, has_charger, charger_type, charging_speed_kw, status
		FROM parking_slots WHERE area_id = $1 ORDER BY id
	`

	rows, err := r.q.QueryContext(ctx, query, areaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []domain.ParkingSlot
	for rows.Next() {
		var slot domain.ParkingSlot
		var chargerType sql.NullString
		var chargingSpeed sql.NullFloat64
		if err := rows.Scan(
			&slot.ID,
			&slot.AreaID,
			&slot.Number,
			&slot.HasCharger,
			&chargerType,
			&chargingSpeed,
			&slot.Status,
		); err != nil {
			return nil, err
		}
		if chargerType.Valid {
			slot.ChargerType = chargerType.String
		}
		if chargingSpeed.Valid {
			slot.ChargingSpeedKW = chargingSpeed.Float64
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// UpdateStatus persists a slot status transition.
func (r *SlotRepository) UpdateStatus(ctx context.Context, slotID int, status domain.SlotStatus) error {
	query := `UPDATE parking_slots SET status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, slotID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
