package repository

import (
	"context"
	"time"

	"parkwise/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// Update updates an existing booking.
	Update(ctx context.Context, booking *domain.Booking) error

	// ListByUser retrieves a user's bookings, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error)

	// ListOverdue retrieves IDs of non-terminal bookings whose
	// reservation deadline passed before the cutoff.
	ListOverdue(ctx context.Context, cutoff time.Time) ([]string, error)
}
