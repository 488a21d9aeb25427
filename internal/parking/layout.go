package parking

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MaxSlotNumber bounds slot identifiers so every free set can be built up front.
const MaxSlotNumber = 1 << 20

// ClassRange assigns the contiguous identifiers First..Last to a slot class.
// A zero range (First == 0 && Last == 0) declares a class with no slots.
type ClassRange struct {
	Class string `json:"class"`
	First int    `json:"first"`
	Last  int    `json:"last"`
}

func (r ClassRange) Empty() bool {
	return r.First == 0 && r.Last == 0
}

func (r ClassRange) Size() int {
	if r.Empty() {
		return 0
	}
	return r.Last - r.First + 1
}

func (r ClassRange) Contains(id int) bool {
	return !r.Empty() && id >= r.First && id <= r.Last
}

func (r ClassRange) String() string {
	if r.Empty() {
		return r.Class + "="
	}
	return fmt.Sprintf("%s=%d-%d", r.Class, r.First, r.Last)
}

// Layout is the fixed partition of slot identifiers a Registry is built from.
type Layout []ClassRange

func DefaultLayout() Layout {
	return Layout{
		{Class: "small", First: 1, Last: 50},
		{Class: "medium", First: 51, Last: 80},
		{Class: "large", First: 81, Last: 100},
	}
}

// ParseLayout reads the compact form "small=1-50,medium=51-80,large=".
func ParseLayout(s string) (Layout, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalidLayout)
	}

	var layout Layout
	for _, part := range strings.Split(s, ",") {
		name, bounds, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q has no '='", ErrInvalidLayout, part)
		}

		r := ClassRange{Class: strings.TrimSpace(name)}
		bounds = strings.TrimSpace(bounds)
		if bounds != "" {
			lo, hi, found := strings.Cut(bounds, "-")
			if !found {
				hi = lo
			}
			first, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("%w: class %s: bad first slot %q", ErrInvalidLayout, r.Class, lo)
			}
			last, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("%w: class %s: bad last slot %q", ErrInvalidLayout, r.Class, hi)
			}
			if first == 0 && last == 0 {
				return nil, fmt.Errorf("%w: class %s: slot numbers start at 1", ErrInvalidLayout, r.Class)
			}
			r.First, r.Last = first, last
		}
		layout = append(layout, r)
	}

	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

// Validate checks class names are unique and ranges are positive, disjoint
// and within MaxSlotNumber.
func (l Layout) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidLayout)
	}

	seen := make(map[string]bool, len(l))
	var ranges []ClassRange
	for _, r := range l {
		if r.Class == "" {
			return fmt.Errorf("%w: empty class name", ErrInvalidLayout)
		}
		if seen[r.Class] {
			return fmt.Errorf("%w: duplicate class %s", ErrInvalidLayout, r.Class)
		}
		seen[r.Class] = true

		if r.Empty() {
			continue
		}
		if r.First < 1 {
			return fmt.Errorf("%w: class %s: slot numbers start at 1", ErrInvalidLayout, r.Class)
		}
		if r.Last < r.First {
			return fmt.Errorf("%w: class %s: range %d-%d is reversed", ErrInvalidLayout, r.Class, r.First, r.Last)
		}
		if r.Last > MaxSlotNumber {
			return fmt.Errorf("%w: class %s: slot %d exceeds maximum %d", ErrInvalidLayout, r.Class, r.Last, MaxSlotNumber)
		}
		ranges = append(ranges, r)
	}

	sortByFirst(ranges)
	for i := 1; i < len(ranges); i++ {
		if ranges[i].First <= ranges[i-1].Last {
			return fmt.Errorf("%w: classes %s and %s overlap", ErrInvalidLayout, ranges[i-1].Class, ranges[i].Class)
		}
	}
	return nil
}

func (l Layout) Capacity() int {
	total := 0
	for _, r := range l {
		total += r.Size()
	}
	return total
}

func (l Layout) String() string {
	parts := make([]string, len(l))
	for i, r := range l {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}

func sortByFirst(ranges []ClassRange) {
	slices.SortFunc(ranges, func(a, b ClassRange) int { return a.First - b.First })
}
