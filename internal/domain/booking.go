package domain

import "time"

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusQuoted          BookingStatus = "QUOTED"
	BookingStatusReserved        BookingStatus = "RESERVED"
	BookingStatusAwaitingPayment BookingStatus = "AWAITING_PAYMENT"
	BookingStatusConfirmed       BookingStatus = "CONFIRMED"
	BookingStatusCancelled       BookingStatus = "CANCELLED"
	BookingStatusExpired         BookingStatus = "EXPIRED"
)

// Terminal reports whether the status admits no further lifecycle
// transitions. Display fields (rating, favorite) may still change.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCancelled || s == BookingStatusExpired
}

// Booking represents a slot booking moving through quote, reservation,
// payment and confirmation.
type Booking struct {
	ID                  string
	UserID              string
	AreaID              int
	SlotID              int
	DurationHours       float64
	QuotedPrice         float64
	Status              BookingStatus
	ReservationToken    string
	ReservationDeadline time.Time
	PaymentHandleID     string
	PaymentURL          string
	ProviderPaymentID   string
	Rating              float64
	Favorite            bool
	CreatedAt           time.Time
	ConfirmedAt         time.Time
	CancelledAt         time.Time
}
