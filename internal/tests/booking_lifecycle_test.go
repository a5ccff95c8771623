package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"parkwise/internal/domain"
	"parkwise/internal/service"
)

// ──────────────────────────────────────────────
// 3. BOOKING LIFECYCLE EDGE CASES
// ──────────────────────────────────────────────

type bookingFixture struct {
	bookingRepo *MockBookingRepository
	slotRepo    *MockSlotRepository
	ledger      *service.SlotLedger
	psp         *MockPSP
	svc         *service.BookingService
}

func newBookingFixture(t *testing.T, holdTTL time.Duration) *bookingFixture {
	t.Helper()

	catalog := service.NewAreaCatalog(nil, nil, nil)
	if err := catalog.Load(context.Background(), []domain.ParkingArea{testArea(10, "Lot", 12.9, 77.6)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slotRepo := NewMockSlotRepository()
	slotRepo.AddSlot(domain.ParkingSlot{ID: 1, AreaID: 10, Number: "A-01", Status: domain.SlotStatusAvailable})
	slotRepo.AddSlot(domain.ParkingSlot{ID: 2, AreaID: 10, Number: "A-02", Status: domain.SlotStatusAvailable})

	ledger := service.NewSlotLedger(slotRepo, nil, holdTTL)
	if err := ledger.LoadArea(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bookingRepo := NewMockBookingRepository()
	psp := NewMockPSP()

	return &bookingFixture{
		bookingRepo: bookingRepo,
		slotRepo:    slotRepo,
		ledger:      ledger,
		psp:         psp,
		svc:         service.NewBookingService(bookingRepo, catalog, ledger, psp, nil),
	}
}

func (f *bookingFixture) bookAndPay(t *testing.T) *domain.Booking {
	t.Helper()
	booking, err := f.svc.Book(context.Background(), "user-1", 10, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	booking, err = f.svc.InitiatePayment(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return booking
}

func TestBooking_QuoteIsPureAndPriced(t *testing.T) {
	t.Parallel()

	f := newBookingFixture(t, time.Minute)

	price, err := f.svc.Quote(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 7.0 { // 3.5/hour * 2h
		t.Errorf("expected price 7.0, got %f", price)
	}

	// Quoting reserves nothing.
	slot, err := f.ledger.Slot(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.Status != domain.SlotStatusAvailable {
		t.Errorf("expected AVAILABLE after quote, got %s", slot.Status)
	}
	if f.bookingRepo.CreateCallCount != 0 {
		t.Error("expected no booking rows from a quote")
	}
}

func TestBooking_QuoteRejectsNonPositiveDuration(t *testing.T) {
	t.Parallel()

	f := newBookingFixture(t, time.Minute)

	for _, duration := range []float64{0, -1} {
		if _, err := f.svc.Quote(context.Background(), 10, duration); !errors.Is(err, service.ErrInvalidDuration) {
			t.Errorf("duration %f: expected ErrInvalidDuration, got %v", duration, err)
		}
	}
}

func TestBooking_BookReservesSlotAndSnapshotsPrice(t *testing.T) {
	t.Parallel()

	f := newBookingFixture(t, time.Minute)

	booking, err := f.svc.Book(context.Background(), "user-1", 10, 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != domain.BookingStatusReserved {
		t.Errorf("expected RESERVED, got %s", booking.Status)
	}
	if booking.QuotedPrice != 10.5 {
		t.Errorf("expected quoted price 10.5, got %f", booking.QuotedPrice)
	}
	if booking.ReservationDeadline.IsZero() {
		t.Error("expected a reservation deadline")
	}

	slot, err := f.ledger.Slot(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.Status != domain.SlotStatusReserved {
		t.Errorf("expected slot RESERVED, got %s", slot.Status)
	}
}

func TestBooking_ConcurrentBookingsOnOneSlot_OneWinner(t *testing.T) {
	t.Parallel()

	f := newBookingFixture(t, time.Minute)

	const attempts = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), "user-1", 10, 1, 1)
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			} else if !errors.Is(err, service.ErrSlotUnavailable) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("expected exactly 1 winner, got %d", winners)
	}
	if f.bookingRepo.CreateCallCount != 1 {
		t.Errorf("expected 1 booking row, got %d", f.bookingRepo.CreateCallCount)
	}
}

func TestBooking_InitiatePaymentIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newBookingFixture(t, time.Minute)
	booking := f.bookAndPay(t)

	if booking.Status != domain.BookingStatusAwaitingPayment {
		t.Errorf("expected AWAITING_PAYMENT, got %s", booking.Status)
	}
	if booking.PaymentURL == "" {
		t.Error("expected a payment URL")
	}

	// Repeat returns the existing session without hitting the provider.
	again, err := f.svc.InitiatePayment(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.PaymentURL != booking.PaymentURL {
		t.Error("expected the same payment session")
	}
	if f.psp.CallCount != 1 {
		t.Errorf("expected 1 provider call, got %d", f.psp.CallCount)
	}
}

func TestBooking_ConfirmSettlesSlotAndBooking(t *testing.T) {
	t.Parallel()

	f := newBookingFixture(t, time.Minute)
	booking := f.bookAndPay(t)

	confirmed, err := f.svc.Confirm(context.Background(), booking.ID, "pay_"+booking.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirmed.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", confirmed.Status)
	}
	if confirmed.ConfirmedAt.IsZero() {
		t.Error("expected ConfirmedAt to be set")
	}

	slot, err := f.ledger.Slot(booking.SlotID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.Status != domain.SlotStatusOccupied {
		t.Errorf("expected slot OCCUPIED, got %s", slot.Status)
	}
}

func TestBooking_ConfirmRepeatAndMismatchSemantics(t *testing.T) {
	t.Parallel()

	f := newBookingFixture(t, time.Minute)
	booking := f.bookAndPay(t)

	paymentID := "pay_" + booking.ID
	if _, err := f.svc.Confirm(context.Background(), booking.ID, paymentID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same provider payment ID again: idempotent success.
	if _, err := f.svc.Confirm(context.Background(), booking.ID, paymentID); err != nil {
		t.Errorf("expected idempotent confirm, got %v", err)
	}

	// Different provider payment ID: rejected.
	if _, err := f.svc.Confirm(context.Background(), booking.ID, "pay_other"); !errors.Is(err, service.ErrAlreadyConfirmed) {
		t.Errorf("expected ErrAlreadyConfirmed, got %v", err)
	}
}

func TestBooking_ConfirmWithoutPaymentInitiation(t *testing.T) {
	t.Parallel()

	f := newBookingFixture(t, time.Minute)

	booking, err := f.svc.Book(context.Background(), "user-1", 10, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.Confirm(context.Background(), booking.ID, "pay_x"); !errors.Is(err, service.ErrPaymentMismatch) {
		t.Errorf("expected ErrPaymentMismatch, got %v", err)
	}
}

func TestBooking_CancelReleasesSlot(t *testing.T) {
	t.Parallel()

	f := newBookingFixture(t, time.Minute)
	booking := f.bookAndPay(t)

	cancelled, err := f.svc.Cancel(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != domain.BookingStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}

	slot, err := f.ledger.Slot(booking.SlotID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.Status != domain.SlotStatusAvailable {
		t.Errorf("expected slot AVAILABLE, got %s", slot.Status)
	}

	// A cancelled booking is terminal: a repeated cancel is rejected.
	if _, err := f.svc.Cancel(context.Background(), booking.ID); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on repeat cancel, got %v", err)
	}

	// A cancelled booking cannot be confirmed.
	if _, err := f.svc.Confirm(context.Background(), booking.ID, "pay_x"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestBooking_CancelAfterConfirmRejected(t *testing.T) {
	t.Parallel()

	f := newBookingFixture(t, time.Minute)
	booking := f.bookAndPay(t)

	if _, err := f.svc.Confirm(context.Background(), booking.ID, "pay_"+booking.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.Cancel(context.Background(), booking.ID); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestBooking_ExpireOverdueReleasesUnpaidHolds(t *testing.T) {
	t.Parallel()

	f := newBookingFixture(t, 20*time.Millisecond)

	booking, err := f.svc.Book(context.Background(), "user-1", 10, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	if n := f.svc.ExpireOverdue(context.Background()); n != 1 {
		t.Errorf("expected 1 expiry, got %d", n)
	}

	stored := f.bookingRepo.GetBooking(booking.ID)
	if stored.Status != domain.BookingStatusExpired {
		t.Errorf("expected EXPIRED, got %s", stored.Status)
	}

	slot, err := f.ledger.Slot(booking.SlotID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.Status != domain.SlotStatusAvailable {
		t.Errorf("expected slot AVAILABLE, got %s", slot.Status)
	}

	// The expired booking admits no further lifecycle transitions.
	if _, err := f.svc.Confirm(context.Background(), booking.ID, "pay_x"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestBooking_RatingOnlyOnFinishedBookings(t *testing.T) {
	t.Parallel()

	f := newBookingFixture(t, time.Minute)
	booking := f.bookAndPay(t)

	// Not terminal yet.
	if _, err := f.svc.Rate(context.Background(), booking.ID, 4.5); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	if _, err := f.svc.Confirm(context.Background(), booking.ID, "pay_"+booking.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.Rate(context.Background(), booking.ID, 5.5); !errors.Is(err, service.ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}

	rated, err := f.svc.Rate(context.Background(), booking.ID, 4.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rated.Rating != 4.5 {
		t.Errorf("expected rating 4.5, got %f", rated.Rating)
	}

	flagged, err := f.svc.SetFavorite(context.Background(), booking.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !flagged.Favorite {
		t.Error("expected favorite flag set")
	}
}

func TestBooking_HistoryNewestFirst(t *testing.T) {
	t.Parallel()

	f := newBookingFixture(t, time.Minute)

	first, err := f.svc.Book(context.Background(), "user-1", 10, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := f.svc.Book(context.Background(), "user-1", 10, 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history, err := f.svc.History(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(history))
	}
	if history[0].ID != second.ID || history[1].ID != first.ID {
		t.Error("expected newest booking first")
	}
}
