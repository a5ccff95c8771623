package domain

// SlotStatus represents the occupancy state of a parking slot.
type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "AVAILABLE"
	SlotStatusReserved  SlotStatus = "RESERVED"
	SlotStatusOccupied  SlotStatus = "OCCUPIED"
)

// ParkingSlot represents one physical parking space within an area.
// Status is owned by the slot ledger; nothing else mutates it.
type ParkingSlot struct {
	ID              int
	AreaID          int
	Number          string
	HasCharger      bool
	ChargerType     string
	ChargingSpeedKW float64
	Status          SlotStatus
}
