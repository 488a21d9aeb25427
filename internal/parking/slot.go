package parking

type SlotState int

const (
	SlotFree SlotState = iota
	SlotOccupied
)

func (s SlotState) String() string {
	switch s {
	case SlotFree:
		return "free"
	case SlotOccupied:
		return "occupied"
	default:
		return "unknown"
	}
}

// Slot is a point-in-time view of one parking space.
type Slot struct {
	Number int       `json:"slot_number"`
	Class  string    `json:"class"`
	State  SlotState `json:"-"`
}

func (s Slot) IsOccupied() bool {
	return s.State == SlotOccupied
}

// ClassCount summarises one class of a registry.
type ClassCount struct {
	Class    string `json:"class"`
	Total    int    `json:"total"`
	Free     int    `json:"free"`
	Occupied int    `json:"occupied"`
}
