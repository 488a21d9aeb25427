package parking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayout(t *testing.T) {
	layout, err := ParseLayout("small=1-50, medium=51-80,large=81-100")
	require.NoError(t, err)

	assert.Equal(t, DefaultLayout(), layout)
	assert.Equal(t, 100, layout.Capacity())
	assert.Equal(t, "small=1-50,medium=51-80,large=81-100", layout.String())
}

func TestParseLayoutEmptyAndSingleSlotClasses(t *testing.T) {
	layout, err := ParseLayout("small=1-3,medium=,vip=7")
	require.NoError(t, err)

	require.Len(t, layout, 3)
	assert.True(t, layout[1].Empty())
	assert.Equal(t, 0, layout[1].Size())
	assert.Equal(t, ClassRange{Class: "vip", First: 7, Last: 7}, layout[2])
	assert.Equal(t, 4, layout.Capacity())
	assert.Equal(t, "small=1-3,medium=,vip=7-7", layout.String())
}

func TestParseLayoutErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"no equals":      "small",
		"bad number":     "small=a-3",
		"zero start":     "small=0-3",
		"zero range":     "small=0-0",
		"reversed":       "small=5-1",
		"overlap":        "small=1-10,large=10-20",
		"duplicate":      "small=1-3,small=4-6",
		"missing name":   "=1-3",
		"negative start": "small=-1-3",
		"past maximum":   "small=1-1048577",
		"huge":           "small=1-9223372036854775807",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLayout(input)
			assert.ErrorIs(t, err, ErrInvalidLayout)
		})
	}
}

func TestParseLayoutAtMaximum(t *testing.T) {
	layout, err := ParseLayout("small=1-10,large=1048570-1048576")
	require.NoError(t, err)
	assert.Equal(t, 17, layout.Capacity())

	r, err := NewRegistry(layout)
	require.NoError(t, err)
	assert.Equal(t, []int{1048570, 1048571, 1048572, 1048573, 1048574, 1048575, 1048576}, r.FreeSlots("large"))
}

func TestValidateRejectsUnparsedOversizeRange(t *testing.T) {
	_, err := NewRegistry(Layout{{Class: "small", First: 1, Last: MaxSlotNumber + 1}})
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestClassRangeContains(t *testing.T) {
	r := ClassRange{Class: "medium", First: 51, Last: 80}
	assert.True(t, r.Contains(51))
	assert.True(t, r.Contains(80))
	assert.False(t, r.Contains(50))
	assert.False(t, r.Contains(81))

	empty := ClassRange{Class: "medium"}
	assert.False(t, empty.Contains(0))
}

func TestSlotState(t *testing.T) {
	assert.Equal(t, "free", SlotFree.String())
	assert.Equal(t, "occupied", SlotOccupied.String())
	assert.Equal(t, "unknown", SlotState(7).String())

	s := Slot{Number: 1, Class: "small", State: SlotOccupied}
	assert.True(t, s.IsOccupied())
}
