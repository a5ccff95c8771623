package repository

import (
	"context"

	"parkwise/internal/domain"
)

// SlotRepository defines the persistence operations for parking slots.
type SlotRepository interface {
	// ListByArea retrieves all slots belonging to an area.
	ListByArea(ctx context.Context, areaID int) ([]domain.ParkingSlot, error)

	// UpdateStatus persists a slot status transition.
	UpdateStatus(ctx context.Context, slotID int, status domain.SlotStatus) error
}
