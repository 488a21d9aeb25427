package parking

import (
	"errors"
	"fmt"
	"maps"
	"sync"
)

var (
	ErrNoSlotAvailable  = errors.New("no slot available")
	ErrSlotNotAllocated = errors.New("slot not allocated")
	ErrUnknownSlot      = errors.New("unknown slot")
	ErrSlotOccupied     = errors.New("slot already occupied")
	ErrInvalidLayout    = errors.New("invalid layout")
)

// Registry tracks which slots of each class are free and which are occupied.
// Every identifier of the layout lives either in its class's free set or in
// the occupied map, never both. All methods are safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	layout   Layout
	free     map[string]*freeSet
	occupied map[int]string
}

func NewRegistry(layout Layout) (*Registry, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	free := make(map[string]*freeSet, len(layout))
	for _, r := range layout {
		free[r.Class] = newFreeSet(r)
	}

	return &Registry{
		layout:   append(Layout(nil), layout...),
		free:     free,
		occupied: make(map[int]string),
	}, nil
}

// freeSetFor returns an empty set for classes the layout does not know.
func (r *Registry) freeSetFor(class string) *freeSet {
	if fs, ok := r.free[class]; ok {
		return fs
	}
	return &freeSet{}
}

func (r *Registry) IsAvailable(class string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.freeSetFor(class).len() > 0
}

// Allocate takes the lowest free slot of class.
func (r *Registry) Allocate(class string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.freeSetFor(class).popMin()
	if !ok {
		return 0, fmt.Errorf("allocate %s: %w", class, ErrNoSlotAvailable)
	}
	r.occupied[id] = class
	return id, nil
}

// Release returns an occupied slot to its class. Releasing a slot that is
// not occupied fails with ErrSlotNotAllocated, including a second release.
func (r *Registry) Release(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	class, ok := r.occupied[id]
	if !ok {
		return fmt.Errorf("release slot %d: %w", id, ErrSlotNotAllocated)
	}
	delete(r.occupied, id)
	r.free[class].insert(id)
	return nil
}

// SuggestBest returns the slot Allocate would hand out without taking it.
func (r *Registry) SuggestBest(class string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.freeSetFor(class).min()
	if !ok {
		return 0, fmt.Errorf("suggest %s: %w", class, ErrNoSlotAvailable)
	}
	return id, nil
}

// Occupy marks a specific free slot as taken. It exists to rebuild state
// from the booking journal and is not part of the allocation path.
func (r *Registry) Occupy(id int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	class, ok := r.classOf(id)
	if !ok {
		return "", fmt.Errorf("occupy slot %d: %w", id, ErrUnknownSlot)
	}
	if !r.free[class].remove(id) {
		return "", fmt.Errorf("occupy slot %d: %w", id, ErrSlotOccupied)
	}
	r.occupied[id] = class
	return class, nil
}

func (r *Registry) classOf(id int) (string, bool) {
	for _, cr := range r.layout {
		if cr.Contains(id) {
			return cr.Class, true
		}
	}
	return "", false
}

func (r *Registry) ClassOf(id int) (string, bool) {
	// layout is immutable, no lock needed
	return r.classOf(id)
}

func (r *Registry) Classes() []string {
	classes := make([]string, len(r.layout))
	for i, cr := range r.layout {
		classes[i] = cr.Class
	}
	return classes
}

func (r *Registry) Capacity() int {
	return r.layout.Capacity()
}

// FreeSlots returns the free identifiers of class in ascending order.
func (r *Registry) FreeSlots(class string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.freeSetFor(class).snapshot()
}

func (r *Registry) Occupied() map[int]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return maps.Clone(r.occupied)
}

func (r *Registry) Counts() []ClassCount {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make([]ClassCount, len(r.layout))
	for i, cr := range r.layout {
		free := r.free[cr.Class].len()
		counts[i] = ClassCount{
			Class:    cr.Class,
			Total:    cr.Size(),
			Free:     free,
			Occupied: cr.Size() - free,
		}
	}
	return counts
}

// Status lists every slot of the layout in ascending identifier order.
func (r *Registry) Status() []Slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	ranges := append(Layout(nil), r.layout...)
	sortByFirst(ranges)

	slots := make([]Slot, 0, ranges.Capacity())
	for _, cr := range ranges {
		for id := cr.First; !cr.Empty() && id <= cr.Last; id++ {
			state := SlotFree
			if _, ok := r.occupied[id]; ok {
				state = SlotOccupied
			}
			slots = append(slots, Slot{Number: id, Class: cr.Class, State: state})
		}
	}
	return slots
}
