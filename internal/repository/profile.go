package repository

import (
	"context"

	"parkwise/internal/domain"
)

// ProfileRepository defines the persistence operations for user profiles.
type ProfileRepository interface {
	// GetByID retrieves a profile by user ID.
	GetByID(ctx context.Context, userID string) (*domain.UserProfile, error)

	// Create persists a new profile. It must be a no-op when a profile
	// already exists for the user, so concurrent default creation can
	// never overwrite a live profile.
	Create(ctx context.Context, profile *domain.UserProfile) error

	// Replace overwrites the whole profile (no partial merge).
	Replace(ctx context.Context, profile *domain.UserProfile) error
}
