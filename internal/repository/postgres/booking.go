package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"parkwise/internal/domain"
	"parkwise/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `id, user_id, area_id, slot_id, duration_hours, quoted_price, status, reservation_token, reservation_deadline, payment_handle_id, payment_url, provider_payment_id, rating, favorite, created_at, confirmed_at, cancelled_at`

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.AreaID,
		booking.SlotID,
		booking.DurationHours,
		booking.QuotedPrice,
		booking.Status,
		booking.ReservationToken,
		booking.ReservationDeadline,
		nullString(booking.PaymentHandleID),
		nullString(booking.PaymentURL),
		nullString(booking.ProviderPaymentID),
		nullFloat(booking.Rating),
		booking.Favorite,
		booking.CreatedAt,
		nullTime(booking.ConfirmedAt),
		nullTime(booking.CancelledAt),
	)

	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return booking, nil
}

// Update updates an existing booking.
func (r *BookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, payment_handle_id = $2, payment_url = $3, provider_payment_id = $4, rating = $5, favorite = $6, confirmed_at = $7, cancelled_at = $8
		WHERE id = $9
	`

	result, err := r.q.ExecContext(ctx, query,
		booking.Status,
		nullString(booking.PaymentHandleID),
		nullString(booking.PaymentURL),
		nullString(booking.ProviderPaymentID),
		nullFloat(booking.Rating),
		booking.Favorite,
		nullTime(booking.ConfirmedAt),
		nullTime(booking.CancelledAt),
		booking.ID,
	)
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

// ListByUser retrieves a user's bookings, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

// ListOverdue retrieves IDs of non-terminal bookings whose reservation
// deadline passed before the cutoff.
func (r *BookingRepository) ListOverdue(ctx context.Context, cutoff time.Time) ([]string, error) {
	query := `
		SELECT id FROM bookings
		WHERE status IN ($1, $2) AND reservation_deadline < $3
	`

	rows, err := r.q.QueryContext(ctx, query, domain.BookingStatusReserved, domain.BookingStatusAwaitingPayment, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for scanBooking.
type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner) (*domain.Booking, error) {
	var booking domain.Booking
	var paymentHandleID, paymentURL, providerPaymentID sql.NullString
	var rating sql.NullFloat64
	var confirmedAt, cancelledAt sql.NullTime

	if err := s.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.AreaID,
		&booking.SlotID,
		&booking.DurationHours,
		&booking.QuotedPrice,
		&booking.Status,
		&booking.ReservationToken,
		&booking.ReservationDeadline,
		&paymentHandleID,
		&paymentURL,
		&providerPaymentID,
		&rating,
		&booking.Favorite,
		&booking.CreatedAt,
		&confirmedAt,
		&cancelledAt,
	); err != nil {
		return nil, err
	}

	if paymentHandleID.Valid {
		booking.PaymentHandleID = paymentHandleID.String
	}
	if paymentURL.Valid {
		booking.PaymentURL = paymentURL.String
	}
	if providerPaymentID.Valid {
		booking.ProviderPaymentID = providerPaymentID.String
	}
	if rating.Valid {
		booking.Rating = rating.Float64
	}
	if confirmedAt.Valid {
		booking.ConfirmedAt = confirmedAt.Time
	}
	if cancelledAt.Valid {
		booking.CancelledAt = cancelledAt.Time
	}

	return &booking, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
