package postgres

import (
	"context"
	"database/sql"
	"errors"

	"parkwise/internal/domain"
	"parkwise/internal/repository"
)

// ProfileRepository is a PostgreSQL implementation of repository.ProfileRepository.
type ProfileRepository struct {
	q Querier
}

// NewProfileRepository creates a new PostgreSQL profile repository.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{q: db}
}

const profileColumns = `user_id, name, email, phone, vehicle, wallet_balance, prefers_ev, profile_image_url, status, language, car_name, car_type, fuel_type, car_number_plate, date_of_birth, gender, completion_percent`

// GetByID retrieves a profile by user ID.
func (r *ProfileRepository) GetByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = $1`

	var p domain.UserProfile
	err := r.q.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.Vehicle,
		&p.WalletBalance,
		&p.PrefersEV,
		&p.ProfileImageURL,
		&p.Status,
		&p.Language,
		&p.CarName,
		&p.CarType,
		&p.FuelType,
		&p.CarNumberPlate,
		&p.DateOfBirth,
		&p.Gender,
		&p.CompletionPercent,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &p, nil
}

// Create persists a new profile. ON CONFLICT DO NOTHING keeps the
// operation a no-op when a profile already exists, so a racing default
// creation can never clobber a live profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *domain.UserProfile) error {
	query := `
		INSERT INTO user_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := r.q.ExecContext(ctx, query, profileArgs(profile)...)
	return err
}

// Replace overwrites the whole profile row (no partial merge).
func (r *ProfileRepository) Replace(ctx context.Context, profile *domain.UserProfile) error {
	query := `
		UPDATE user_profiles
		SET name = $2, email = $3, phone = $4, vehicle = $5, wallet_balance = $6, prefers_ev = $7, profile_image_url = $8, status = $9, language = $10, car_name = $11, car_type = $12, fuel_type = $13, car_number_plate = $14, date_of_birth = $15, gender = $16, completion_percent = $17
		WHERE user_id = $1
	`

	result, err := r.q.ExecContext(ctx, query, profileArgs(profile)...)
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

func profileArgs(p *domain.UserProfile) []any {
	return []any{
		p.UserID,
		p.Name,
		p.Email,
		p.Phone,
		p.Vehicle,
		p.WalletBalance,
		p.PrefersEV,
		p.ProfileImageURL,
		p.Status,
		p.Language,
		p.CarName,
		p.CarType,
		p.FuelType,
		p.CarNumberPlate,
		p.DateOfBirth,
		p.Gender,
		p.CompletionPercent,
	}
}
