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
// 2. SLOT LEDGER EDGE CASES
// ──────────────────────────────────────────────

func newLedgerWithSlot(t *testing.T, holdTTL time.Duration) (*service.SlotLedger, *MockSlotRepository) {
	t.Helper()
	slotRepo := NewMockSlotRepository()
	slotRepo.AddSlot(domain.ParkingSlot{ID: 1, AreaID: 10, Number: "A-01", Status: domain.SlotStatusAvailable})

	ledger := service.NewSlotLedger(slotRepo, nil, holdTTL)
	if err := ledger.LoadArea(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ledger, slotRepo
}

func TestLedger_ConcurrentReserves_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	ledger, _ := newLedgerWithSlot(t, time.Minute)

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	losers := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Reserve(context.Background(), 1)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
			} else if errors.Is(err, service.ErrSlotUnavailable) {
				losers++
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("expected exactly 1 winner, got %d", winners)
	}
	if losers != attempts-1 {
		t.Errorf("expected %d losers, got %d", attempts-1, losers)
	}
}

func TestLedger_ReleaseThenReserveAgain(t *testing.T) {
	t.Parallel()

	ledger, slotRepo := newLedgerWithSlot(t, time.Minute)

	token, err := ledger.Reserve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ledger.Release(context.Background(), token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if slotRepo.SlotStatus(1) != domain.SlotStatusAvailable {
		t.Errorf("expected persisted AVAILABLE, got %s", slotRepo.SlotStatus(1))
	}

	// A released slot can be reserved again with a fresh token.
	again, err := ledger.Reserve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Token == token.Token {
		t.Error("expected a fresh reservation token")
	}
}

func TestLedger_ConfirmMakesSlotOccupied(t *testing.T) {
	t.Parallel()

	ledger, slotRepo := newLedgerWithSlot(t, time.Minute)

	token, err := ledger.Reserve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ledger.Confirm(context.Background(), token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slot, err := ledger.Slot(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.Status != domain.SlotStatusOccupied {
		t.Errorf("expected OCCUPIED, got %s", slot.Status)
	}
	if slotRepo.SlotStatus(1) != domain.SlotStatusOccupied {
		t.Errorf("expected persisted OCCUPIED, got %s", slotRepo.SlotStatus(1))
	}

	// The spent token cannot settle the slot again.
	if err := ledger.Release(context.Background(), token); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestLedger_ExpiredHoldIsReleasedLazily(t *testing.T) {
	t.Parallel()

	ledger, _ := newLedgerWithSlot(t, 20*time.Millisecond)

	token, err := ledger.Reserve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	// A confirm after the deadline loses the hold.
	if err := ledger.Confirm(context.Background(), token); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	slot, err := ledger.Slot(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.Status != domain.SlotStatusAvailable {
		t.Errorf("expected AVAILABLE after expiry, got %s", slot.Status)
	}
}

func TestLedger_ExpireDueSweepsOverdueHolds(t *testing.T) {
	t.Parallel()

	ledger, _ := newLedgerWithSlot(t, 20*time.Millisecond)

	if _, err := ledger.Reserve(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	expired := ledger.ExpireDue(context.Background())
	if len(expired) != 1 || expired[0] != 1 {
		t.Errorf("expected slot 1 expired, got %v", expired)
	}

	// Sweeping again finds nothing.
	if expired := ledger.ExpireDue(context.Background()); len(expired) != 0 {
		t.Errorf("expected no further expiries, got %v", expired)
	}
}

func TestLedger_ExternalPushRejectedDuringActiveReservation(t *testing.T) {
	t.Parallel()

	ledger, _ := newLedgerWithSlot(t, time.Minute)

	token, err := ledger.Reserve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A sensor observation must not clobber the active hold.
	err = ledger.ApplyExternal(context.Background(), 1, domain.SlotStatusOccupied)
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	// The hold still settles normally afterwards.
	if err := ledger.Confirm(context.Background(), token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLedger_VacateReturnsOccupiedSlot(t *testing.T) {
	t.Parallel()

	ledger, _ := newLedgerWithSlot(t, time.Minute)

	if err := ledger.ApplyExternal(context.Background(), 1, domain.SlotStatusOccupied); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ledger.Vacate(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slot, err := ledger.Slot(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.Status != domain.SlotStatusAvailable {
		t.Errorf("expected AVAILABLE, got %s", slot.Status)
	}

	// Vacating an already available slot is a harmless repeat.
	if err := ledger.Vacate(context.Background(), 1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLedger_TransitionsReachEventSink(t *testing.T) {
	t.Parallel()

	slotRepo := NewMockSlotRepository()
	slotRepo.AddSlot(domain.ParkingSlot{ID: 5, AreaID: 20, Number: "B-05", Status: domain.SlotStatusAvailable})

	sink := NewRecordingSlotSink()
	ledger := service.NewSlotLedger(slotRepo, sink, time.Minute)
	if err := ledger.LoadArea(context.Background(), 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := ledger.Reserve(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ledger.Confirm(context.Background(), token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Status != domain.SlotStatusReserved || events[1].Status != domain.SlotStatusOccupied {
		t.Errorf("unexpected event sequence: %s then %s", events[0].Status, events[1].Status)
	}
}
