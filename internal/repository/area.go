package repository

import (
	"context"

	"parkwise/internal/domain"
)

// AreaRepository defines the persistence operations for parking areas.
type AreaRepository interface {
	// ListAll retrieves the full area collection for a catalog snapshot.
	ListAll(ctx context.Context) ([]domain.ParkingArea, error)
}
