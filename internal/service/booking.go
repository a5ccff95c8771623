package service

import (
	"context"
	"errors"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"parkwise/internal/domain"
	"parkwise/internal/repository"
)

const bookingLockStripes = 64

// BookingNotifier is told about bookings that reached a final state.
type BookingNotifier interface {
	BookingConfirmed(ctx context.Context, booking *domain.Booking)
	BookingExpired(ctx context.Context, booking *domain.Booking)
}

// BookingService drives bookings through quote, reservation, payment
// and confirmation. All transitions on one booking are serialized
// through a striped lock keyed by booking ID.
type BookingService struct {
	bookingRepo repository.BookingRepository
	catalog     *AreaCatalog
	ledger      *SlotLedger
	psp         PSP
	notifier    BookingNotifier

	locks [bookingLockStripes]sync.Mutex
}

// NewBookingService creates a BookingService. psp and notifier are
// optional; without a psp, payment initiation fails with
// ErrProviderUnavailable.
func NewBookingService(bookingRepo repository.BookingRepository, catalog *AreaCatalog, ledger *SlotLedger, psp PSP, notifier BookingNotifier) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		catalog:     catalog,
		ledger:      ledger,
		psp:         psp,
		notifier:    notifier,
	}
}

func (s *BookingService) lock(bookingID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(bookingID))
	return &s.locks[h.Sum32()%bookingLockStripes]
}

// Quote prices a stay of durationHours at an area. Pure: no state is
// created or reserved.
func (s *BookingService) Quote(ctx context.Context, areaID int, durationHours float64) (float64, error) {
	if durationHours <= 0 {
		return 0, ErrInvalidDuration
	}
	area, err := s.catalog.Get(areaID)
	if err != nil {
		return 0, err
	}
	return area.PricePerHour * durationHours, nil
}

// Book reserves a slot and creates a RESERVED booking carrying the
// quoted price and the reservation deadline. Of any set of concurrent
// bookings on one slot, exactly one succeeds.
func (s *BookingService) Book(ctx context.Context, userID string, areaID, slotID int, durationHours float64) (*domain.Booking, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	price, err := s.Quote(ctx, areaID, durationHours)
	if err != nil {
		return nil, err
	}

	token, err := s.ledger.Reserve(ctx, slotID)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:                  uuid.New().String(),
		UserID:              userID,
		AreaID:              areaID,
		SlotID:              slotID,
		DurationHours:       durationHours,
		QuotedPrice:         price,
		Status:              domain.BookingStatusReserved,
		ReservationToken:    token.Token,
		ReservationDeadline: token.Deadline,
		CreatedAt:           time.Now(),
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		// Give the slot back; the booking never existed.
		if relErr := s.ledger.Release(ctx, token); relErr != nil {
			log.Printf("booking: release after failed create for slot %d: %v", slotID, relErr)
		}
		return nil, err
	}

	return booking, nil
}

// InitiatePayment opens a payment session for a reserved booking and
// moves it to AWAITING_PAYMENT. Repeat calls on an awaiting booking
// return the existing session instead of opening another.
func (s *BookingService) InitiatePayment(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	mu := s.lock(bookingID)
	mu.Lock()
	defer mu.Unlock()

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case domain.BookingStatusAwaitingPayment:
		return booking, nil
	case domain.BookingStatusReserved:
	default:
		return nil, ErrInvalidTransition
	}

	if s.psp == nil {
		return nil, ErrProviderUnavailable
	}

	handle, err := s.psp.CreatePayment(ctx, booking)
	if err != nil {
		return nil, err
	}

	booking.Status = domain.BookingStatusAwaitingPayment
	booking.PaymentHandleID = handle.ID
	booking.PaymentURL = handle.URL

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

// Confirm settles an awaiting-payment booking with the provider's
// payment ID and marks its slot occupied. Confirming an already
// confirmed booking with the same provider payment ID is an idempotent
// success; a different ID is rejected.
func (s *BookingService) Confirm(ctx context.Context, bookingID, providerPaymentID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	mu := s.lock(bookingID)
	mu.Lock()
	defer mu.Unlock()

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case domain.BookingStatusConfirmed:
		if booking.ProviderPaymentID == providerPaymentID {
			return booking, nil
		}
		return nil, ErrAlreadyConfirmed
	case domain.BookingStatusReserved:
		// Payment was never initiated for this booking.
		return nil, ErrPaymentMismatch
	case domain.BookingStatusAwaitingPayment:
	default:
		return nil, ErrInvalidTransition
	}

	token := &ReservationToken{Token: booking.ReservationToken, SlotID: booking.SlotID, Deadline: booking.ReservationDeadline}
	if err := s.ledger.Confirm(ctx, token); err != nil {
		return nil, err
	}

	booking.Status = domain.BookingStatusConfirmed
	booking.ProviderPaymentID = providerPaymentID
	booking.ConfirmedAt = time.Now()

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.BookingConfirmed(ctx, booking)
	}

	return booking, nil
}

// Cancel voids a booking that has not been confirmed, releasing its
// slot. Only RESERVED and AWAITING_PAYMENT bookings can be cancelled;
// anything terminal, a repeated cancel included, is rejected.
func (s *BookingService) Cancel(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	mu := s.lock(bookingID)
	mu.Lock()
	defer mu.Unlock()

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case domain.BookingStatusReserved, domain.BookingStatusAwaitingPayment:
	default:
		return nil, ErrInvalidTransition
	}

	token := &ReservationToken{Token: booking.ReservationToken, SlotID: booking.SlotID, Deadline: booking.ReservationDeadline}
	if err := s.ledger.Release(ctx, token); err != nil && !errors.Is(err, ErrInvalidTransition) {
		// An already-expired hold is fine; the slot is free either way.
		return nil, err
	}

	booking.Status = domain.BookingStatusCancelled
	booking.CancelledAt = time.Now()

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

// ExpireOverdue sweeps bookings whose reservation deadline passed
// without payment and marks them EXPIRED, releasing their slots.
// Returns the number of bookings expired.
func (s *BookingService) ExpireOverdue(ctx context.Context) int {
	s.ledger.ExpireDue(ctx)

	ids, err := s.bookingRepo.ListOverdue(ctx, time.Now())
	if err != nil {
		log.Printf("booking: overdue sweep query failed: %v", err)
		return 0
	}

	expired := 0
	for _, id := range ids {
		if s.expireOne(ctx, id) {
			expired++
		}
	}
	return expired
}

func (s *BookingService) expireOne(ctx context.Context, bookingID string) bool {
	mu := s.lock(bookingID)
	mu.Lock()
	defer mu.Unlock()

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		log.Printf("booking: overdue sweep load %s: %v", bookingID, err)
		return false
	}

	// The booking may have settled between the query and the lock.
	if booking.Status.Terminal() || time.Now().Before(booking.ReservationDeadline) {
		return false
	}

	token := &ReservationToken{Token: booking.ReservationToken, SlotID: booking.SlotID, Deadline: booking.ReservationDeadline}
	if err := s.ledger.Release(ctx, token); err != nil && !errors.Is(err, ErrInvalidTransition) {
		log.Printf("booking: overdue sweep release slot %d: %v", booking.SlotID, err)
		return false
	}

	booking.Status = domain.BookingStatusExpired
	booking.CancelledAt = time.Now()

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		log.Printf("booking: overdue sweep update %s: %v", bookingID, err)
		return false
	}

	if s.notifier != nil {
		s.notifier.BookingExpired(ctx, booking)
	}

	return true
}

// Get retrieves one booking.
func (s *BookingService) Get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	return s.bookingRepo.GetByID(ctx, bookingID)
}

// History returns a user's bookings, newest first.
func (s *BookingService) History(ctx context.Context, userID string) ([]*domain.Booking, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.bookingRepo.ListByUser(ctx, userID)
}

// Rate records a rating on a finished booking. Ratings outside [0, 5]
// are rejected; only terminal bookings can be rated.
func (s *BookingService) Rate(ctx context.Context, bookingID string, rating float64) (*domain.Booking, error) {
	if rating < 0 || rating > 5 {
		return nil, ErrInvalidRating
	}
	return s.updateDisplay(ctx, bookingID, func(b *domain.Booking) error {
		if !b.Status.Terminal() {
			return ErrInvalidTransition
		}
		b.Rating = rating
		return nil
	})
}

// SetFavorite flags or unflags a booking in the user's history.
func (s *BookingService) SetFavorite(ctx context.Context, bookingID string, favorite bool) (*domain.Booking, error) {
	return s.updateDisplay(ctx, bookingID, func(b *domain.Booking) error {
		b.Favorite = favorite
		return nil
	})
}

func (s *BookingService) updateDisplay(ctx context.Context, bookingID string, apply func(*domain.Booking) error) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	mu := s.lock(bookingID)
	mu.Lock()
	defer mu.Unlock()

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := apply(booking); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}
