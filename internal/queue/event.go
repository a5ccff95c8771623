package queue

// SlotStatusEvent is one sensor observation published by the parking
// hardware. Status carries the observed occupancy, never a
// reservation state.
type SlotStatusEvent struct {
	SlotID int    `json:"slot_id"`
	Status string `json:"status"`
}
