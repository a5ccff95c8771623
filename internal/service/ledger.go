package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"parkwise/internal/domain"
	"parkwise/internal/repository"
)

// Slot state machine events. States are the domain slot statuses.
const (
	slotEventReserve = "reserve"
	slotEventConfirm = "confirm"
	slotEventRelease = "release"
	slotEventOccupy  = "occupy"
	slotEventVacate  = "vacate"
)

// ReservationToken is proof of a successful, time-bounded slot hold.
type ReservationToken struct {
	Token    string
	SlotID   int
	Deadline time.Time
}

// SlotEventSink receives slot status transitions for real-time fan-out.
type SlotEventSink interface {
	SlotChanged(slot domain.ParkingSlot)
}

// slotState is the in-memory authority for one slot. The mutex
// serializes all transitions on the slot; different slots proceed in
// parallel.
type slotState struct {
	mu       sync.Mutex
	slot     domain.ParkingSlot
	machine  *fsm.FSM
	token    string
	deadline time.Time
}

func newSlotMachine(initial domain.SlotStatus) *fsm.FSM {
	return fsm.NewFSM(
		string(initial),
		fsm.Events{
			{Name: slotEventReserve, Src: []string{string(domain.SlotStatusAvailable)}, Dst: string(domain.SlotStatusReserved)},
			{Name: slotEventConfirm, Src: []string{string(domain.SlotStatusReserved)}, Dst: string(domain.SlotStatusOccupied)},
			{Name: slotEventRelease, Src: []string{string(domain.SlotStatusReserved)}, Dst: string(domain.SlotStatusAvailable)},
			{Name: slotEventOccupy, Src: []string{string(domain.SlotStatusAvailable)}, Dst: string(domain.SlotStatusOccupied)},
			{Name: slotEventVacate, Src: []string{string(domain.SlotStatusOccupied)}, Dst: string(domain.SlotStatusAvailable)},
		},
		fsm.Callbacks{},
	)
}

// SlotLedger owns per-slot occupancy state and serializes transitions.
// Reserve is linearizable: of any set of concurrent reserve calls on
// one slot, exactly one wins.
type SlotLedger struct {
	mu    sync.RWMutex
	slots map[int]*slotState

	slotRepo repository.SlotRepository
	events   SlotEventSink
	holdTTL  time.Duration
}

// NewSlotLedger creates a SlotLedger. slotRepo and events are optional;
// without a repository, transitions are memory-only.
func NewSlotLedger(slotRepo repository.SlotRepository, events SlotEventSink, holdTTL time.Duration) *SlotLedger {
	if holdTTL <= 0 {
		holdTTL = 10 * time.Minute
	}
	return &SlotLedger{
		slots:    make(map[int]*slotState),
		slotRepo: slotRepo,
		events:   events,
		holdTTL:  holdTTL,
	}
}

// LoadArea loads (or reloads) an area's slots from the repository.
func (l *SlotLedger) LoadArea(ctx context.Context, areaID int) error {
	slots, err := l.slotRepo.ListByArea(ctx, areaID)
	if err != nil {
		return err
	}
	l.Register(slots...)
	return nil
}

// Register installs slots into the ledger, replacing any previous state
// for the same IDs.
func (l *SlotLedger) Register(slots ...domain.ParkingSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, slot := range slots {
		l.slots[slot.ID] = &slotState{
			slot:    slot,
			machine: newSlotMachine(slot.Status),
		}
	}
}

// Slot returns a snapshot of one slot.
func (l *SlotLedger) Slot(slotID int) (domain.ParkingSlot, error) {
	st, err := l.state(slotID)
	if err != nil {
		return domain.ParkingSlot{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	l.expireLocked(context.Background(), st)
	return st.slot, nil
}

// SlotsByArea returns snapshots of an area's slots in ID order.
func (l *SlotLedger) SlotsByArea(areaID int) []domain.ParkingSlot {
	l.mu.RLock()
	states := make([]*slotState, 0)
	for _, st := range l.slots {
		if st.slot.AreaID == areaID {
			states = append(states, st)
		}
	}
	l.mu.RUnlock()

	slots := make([]domain.ParkingSlot, 0, len(states))
	for _, st := range states {
		st.mu.Lock()
		l.expireLocked(context.Background(), st)
		slots = append(slots, st.slot)
		st.mu.Unlock()
	}

	sortSlots(slots)
	return slots
}

// Reserve atomically transitions an available slot to reserved and
// returns a token bound to the slot and a deadline. Concurrent calls on
// the same slot are mutually exclusive; losers get ErrSlotUnavailable.
func (l *SlotLedger) Reserve(ctx context.Context, slotID int) (*ReservationToken, error) {
	st, err := l.state(slotID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	l.expireLocked(ctx, st)

	if err := st.machine.Event(ctx, slotEventReserve); err != nil {
		return nil, ErrSlotUnavailable
	}

	st.slot.Status = domain.SlotStatusReserved
	st.token = uuid.New().String()
	st.deadline = time.Now().Add(l.holdTTL)

	if err := l.persistLocked(ctx, st); err != nil {
		// Roll the hold back; the caller sees the write failure.
		_ = st.machine.Event(ctx, slotEventRelease)
		st.slot.Status = domain.SlotStatusAvailable
		st.token = ""
		return nil, err
	}

	l.emit(st.slot)

	return &ReservationToken{Token: st.token, SlotID: slotID, Deadline: st.deadline}, nil
}

// Confirm transitions a reserved slot to occupied. The token must match
// the outstanding reservation and its deadline must not have passed.
func (l *SlotLedger) Confirm(ctx context.Context, token *ReservationToken) error {
	return l.settle(ctx, token, slotEventConfirm, domain.SlotStatusOccupied)
}

// Release reverts a reserved slot to available. Only valid before
// confirmation.
func (l *SlotLedger) Release(ctx context.Context, token *ReservationToken) error {
	return l.settle(ctx, token, slotEventRelease, domain.SlotStatusAvailable)
}

func (l *SlotLedger) settle(ctx context.Context, token *ReservationToken, event string, next domain.SlotStatus) error {
	if token == nil || token.Token == "" {
		return ErrInvalidTransition
	}

	st, err := l.state(token.SlotID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	l.expireLocked(ctx, st)

	if st.token != token.Token {
		// Hold expired or was never granted; the caller lost the race.
		return ErrInvalidTransition
	}

	if err := st.machine.Event(ctx, event); err != nil {
		return ErrInvalidTransition
	}

	prev := st.slot.Status
	st.slot.Status = next
	st.token = ""
	st.deadline = time.Time{}

	if err := l.persistLocked(ctx, st); err != nil {
		st.slot.Status = prev
		st.machine.SetState(string(prev))
		st.token = token.Token
		st.deadline = token.Deadline
		return err
	}

	l.emit(st.slot)
	return nil
}

// Vacate returns an occupied slot to available. Triggered by an
// external signal (sensor event); accepted only from OCCUPIED.
func (l *SlotLedger) Vacate(ctx context.Context, slotID int) error {
	return l.ApplyExternal(ctx, slotID, domain.SlotStatusAvailable)
}

// ApplyExternal applies a sensor-originated occupancy observation.
// Pushes against a slot with an active reservation are rejected with
// ErrInvalidTransition; the reservation owns the slot until it settles
// or expires.
func (l *SlotLedger) ApplyExternal(ctx context.Context, slotID int, observed domain.SlotStatus) error {
	st, err := l.state(slotID)
	if err != nil {
		return err
	}

	var event string
	switch observed {
	case domain.SlotStatusOccupied:
		event = slotEventOccupy
	case domain.SlotStatusAvailable:
		event = slotEventVacate
	default:
		return ErrInvalidTransition
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	l.expireLocked(ctx, st)

	if st.slot.Status == observed {
		return nil
	}

	if err := st.machine.Event(ctx, event); err != nil {
		return ErrInvalidTransition
	}

	prev := st.slot.Status
	st.slot.Status = observed

	if err := l.persistLocked(ctx, st); err != nil {
		st.slot.Status = prev
		st.machine.SetState(string(prev))
		return err
	}

	l.emit(st.slot)
	return nil
}

// ExpireDue releases every reservation whose deadline has passed and
// returns the affected slot IDs.
func (l *SlotLedger) ExpireDue(ctx context.Context) []int {
	l.mu.RLock()
	states := make([]*slotState, 0, len(l.slots))
	for _, st := range l.slots {
		states = append(states, st)
	}
	l.mu.RUnlock()

	var expired []int
	for _, st := range states {
		st.mu.Lock()
		if l.expireLocked(ctx, st) {
			expired = append(expired, st.slot.ID)
		}
		st.mu.Unlock()
	}
	return expired
}

// expireLocked auto-releases an overdue reservation. Caller holds st.mu.
func (l *SlotLedger) expireLocked(ctx context.Context, st *slotState) bool {
	if st.slot.Status != domain.SlotStatusReserved || st.deadline.IsZero() || time.Now().Before(st.deadline) {
		return false
	}

	if err := st.machine.Event(ctx, slotEventRelease); err != nil {
		return false
	}

	st.slot.Status = domain.SlotStatusAvailable
	st.token = ""
	st.deadline = time.Time{}

	// Expiry must not get stuck on a write failure; the sweeper will
	// reconcile persistence on the next pass.
	_ = l.persistLocked(ctx, st)
	l.emit(st.slot)
	return true
}

func (l *SlotLedger) state(slotID int) (*slotState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st, ok := l.slots[slotID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return st, nil
}

func (l *SlotLedger) persistLocked(ctx context.Context, st *slotState) error {
	if l.slotRepo == nil {
		return nil
	}
	return l.slotRepo.UpdateStatus(ctx, st.slot.ID, st.slot.Status)
}

func (l *SlotLedger) emit(slot domain.ParkingSlot) {
	if l.events != nil {
		l.events.SlotChanged(slot)
	}
}

func sortSlots(slots []domain.ParkingSlot) {
	for i := 1; i < len(slots); i++ {
		for j := i; j > 0 && slots[j].ID < slots[j-1].ID; j-- {
			slots[j], slots[j-1] = slots[j-1], slots[j]
		}
	}
}
