package domain

// ParkingArea represents a physical parking facility with multiple slots.
// Areas are immutable snapshots: a catalog refresh replaces the whole
// collection, individual fields are never mutated in place.
type ParkingArea struct {
	ID              int
	Name            string
	Address         string
	Latitude        float64
	Longitude       float64
	TotalSlots      int
	OccupiedSlots   int
	AvailableSlots  int
	EVSlots         int
	OccupiedEVSlots int
	PricePerHour    float64
	Rating          float64
	Hours           string
	Amenities       []string
}

// HasEV reports whether the area offers EV charging slots.
func (a ParkingArea) HasEV() bool {
	return a.EVSlots > 0
}
