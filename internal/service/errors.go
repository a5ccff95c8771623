package service

import "errors"

var (
	// ErrEmptyCatalog is returned when a proximity query runs before any
	// areas have been loaded. A zero-result query is not an error.
	ErrEmptyCatalog = errors.New("no parking areas loaded")

	// ErrInvalidDuration is returned when a quote or booking duration is
	// zero or negative.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidUserID is returned when a user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidBookingID is returned when a booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrSlotUnavailable is returned when a slot is not available at the
	// time of a reserve attempt. Exactly one concurrent caller wins a
	// reservation race; all others observe this error.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrInvalidTransition is returned when a booking or slot operation
	// is attempted from a state that does not permit it.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrAlreadyConfirmed is returned when a confirmed booking is
	// confirmed again with a different provider payment ID. An exact
	// repeat is an idempotent success, not an error.
	ErrAlreadyConfirmed = errors.New("booking already confirmed")

	// ErrPaymentMismatch is returned when no awaiting-payment booking
	// matches a confirmation attempt.
	ErrPaymentMismatch = errors.New("no awaiting-payment booking matches")

	// ErrProviderUnavailable is returned when an external provider
	// (payment, routing) cannot be reached. Recoverable by retrying.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInvalidRating is returned when a rating is outside [0, 5].
	ErrInvalidRating = errors.New("invalid rating")
)
