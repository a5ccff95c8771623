package tests

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"parkwise/internal/domain"
	"parkwise/internal/repository"
	"parkwise/internal/routing"
)

// ──────────────────────────────────────────────
// MOCK AREA REPOSITORY
// ──────────────────────────────────────────────

// MockAreaRepository is a mock implementation of AreaRepository.
type MockAreaRepository struct {
	mu    sync.RWMutex
	areas []domain.ParkingArea

	// Error injection
	ListAllError error
}

// NewMockAreaRepository creates a new mock area repository.
func NewMockAreaRepository() *MockAreaRepository {
	return &MockAreaRepository{}
}

// SetAreas replaces the stored collection.
func (m *MockAreaRepository) SetAreas(areas []domain.ParkingArea) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.areas = areas
}

func (m *MockAreaRepository) ListAll(ctx context.Context) ([]domain.ParkingArea, error) {
	if m.ListAllError != nil {
		return nil, m.ListAllError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ParkingArea, len(m.areas))
	copy(out, m.areas)
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK SLOT REPOSITORY
// ──────────────────────────────────────────────

// MockSlotRepository is a mock implementation of SlotRepository.
type MockSlotRepository struct {
	mu    sync.RWMutex
	slots map[int]*domain.ParkingSlot

	// Counters for verification
	UpdateStatusCallCount int32

	// Error injection
	UpdateStatusError error
}

// NewMockSlotRepository creates a new mock slot repository.
func NewMockSlotRepository() *MockSlotRepository {
	return &MockSlotRepository{slots: make(map[int]*domain.ParkingSlot)}
}

// AddSlot adds a slot to the mock repository.
func (m *MockSlotRepository) AddSlot(slot domain.ParkingSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := slot
	m.slots[slot.ID] = &s
}

func (m *MockSlotRepository) ListByArea(ctx context.Context, areaID int) ([]domain.ParkingSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ParkingSlot, 0)
	for _, s := range m.slots {
		if s.AreaID == areaID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockSlotRepository) UpdateStatus(ctx context.Context, slotID int, status domain.SlotStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[slotID]
	if !ok {
		return repository.ErrNotFound
	}
	slot.Status = status
	return nil
}

// SlotStatus returns a slot's persisted status for test assertions.
func (m *MockSlotRepository) SlotStatus(slotID int) domain.SlotStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if slot, ok := m.slots[slotID]; ok {
		return slot.Status
	}
	return ""
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{bookings: make(map[string]*domain.Booking)}
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := *booking
	m.bookings[booking.ID] = &b
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[booking.ID]; !ok {
		return repository.ErrNotFound
	}
	b := *booking
	m.bookings[booking.ID] = &b
	return nil
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Booking, 0)
	for _, b := range m.bookings {
		if b.UserID == userID {
			copy := *b
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockBookingRepository) ListOverdue(ctx context.Context, cutoff time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0)
	for _, b := range m.bookings {
		if b.Status.Terminal() {
			continue
		}
		if !b.ReservationDeadline.IsZero() && b.ReservationDeadline.Before(cutoff) {
			ids = append(ids, b.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// GetBooking returns a booking for test assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

// ──────────────────────────────────────────────
// MOCK PROFILE REPOSITORY
// ──────────────────────────────────────────────

// MockProfileRepository is a mock implementation of ProfileRepository.
type MockProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*domain.UserProfile

	// Counters for verification
	CreateCallCount  int32
	ReplaceCallCount int32

	// Error injection
	CreateError  error
	ReplaceError error
}

// NewMockProfileRepository creates a new mock profile repository.
func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{profiles: make(map[string]*domain.UserProfile)}
}

func (m *MockProfileRepository) GetByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *profile
	return &copy, nil
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *domain.UserProfile) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Existing rows win, matching the ON CONFLICT DO NOTHING insert.
	if _, ok := m.profiles[profile.UserID]; ok {
		return nil
	}
	p := *profile
	m.profiles[profile.UserID] = &p
	return nil
}

func (m *MockProfileRepository) Replace(ctx context.Context, profile *domain.UserProfile) error {
	atomic.AddInt32(&m.ReplaceCallCount, 1)
	if m.ReplaceError != nil {
		return m.ReplaceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := *profile
	m.profiles[profile.UserID] = &p
	return nil
}

// ──────────────────────────────────────────────
// STUB ROUTE SOURCE
// ──────────────────────────────────────────────

// StubRouteSource is a scripted implementation of routing.RouteSource.
// Costs are keyed by destination coordinates; missing entries fail the
// lookup.
type StubRouteSource struct {
	mu    sync.Mutex
	costs map[routing.Point]routing.Cost

	CallCount int32
}

// NewStubRouteSource creates a new stub route source.
func NewStubRouteSource() *StubRouteSource {
	return &StubRouteSource{costs: make(map[routing.Point]routing.Cost)}
}

// SetCost scripts the cost for a destination.
func (s *StubRouteSource) SetCost(dest routing.Point, cost routing.Cost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costs[dest] = cost
}

func (s *StubRouteSource) Route(ctx context.Context, origin, dest routing.Point) (routing.Cost, error) {
	atomic.AddInt32(&s.CallCount, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	cost, ok := s.costs[dest]
	if !ok {
		return routing.Cost{}, fmt.Errorf("no route to %v", dest)
	}
	return cost, nil
}

// ──────────────────────────────────────────────
// MOCK PSP
// ──────────────────────────────────────────────

// MockPSP is a deterministic payment provider.
type MockPSP struct {
	CallCount int32

	// Error injection
	CreateError error
}

// NewMockPSP creates a new mock PSP.
func NewMockPSP() *MockPSP {
	return &MockPSP{}
}

func (p *MockPSP) CreatePayment(ctx context.Context, booking *domain.Booking) (*domain.PaymentHandle, error) {
	atomic.AddInt32(&p.CallCount, 1)
	if p.CreateError != nil {
		return nil, p.CreateError
	}
	return &domain.PaymentHandle{
		ID:     "pay_" + booking.ID,
		URL:    "https://psp.test/checkout/" + booking.ID,
		Amount: booking.QuotedPrice,
	}, nil
}

// ──────────────────────────────────────────────
// RECORDING SLOT EVENT SINK
// ──────────────────────────────────────────────

// RecordingSlotSink records slot transitions for assertions.
type RecordingSlotSink struct {
	mu     sync.Mutex
	events []domain.ParkingSlot
}

// NewRecordingSlotSink creates a new recording sink.
func NewRecordingSlotSink() *RecordingSlotSink {
	return &RecordingSlotSink{}
}

func (s *RecordingSlotSink) SlotChanged(slot domain.ParkingSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, slot)
}

// Events returns the recorded transitions.
func (s *RecordingSlotSink) Events() []domain.ParkingSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ParkingSlot, len(s.events))
	copy(out, s.events)
	return out
}
