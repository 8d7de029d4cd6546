package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusBooked, StatusCompleted, true},
		{StatusBooked, StatusCancelled, true},
		{StatusBooked, StatusBooked, false},
		{StatusCancelled, StatusBooked, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCompleted, StatusCancelled, false},
		{Status("pending"), StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.False(t, StatusBooked.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, Status("bogus").IsTerminal())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("cancelled")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, s)

	_, err = ParseStatus("Pending")
	assert.Error(t, err)
}

func TestParseSlot(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		s, err := ParseSlot("Wed 02:00 PM")
		require.NoError(t, err)
		assert.Equal(t, time.Wednesday, s.Weekday)
		assert.Equal(t, 14, s.Hour)
		assert.Equal(t, 0, s.Minute)
	})

	t.Run("Midnight", func(t *testing.T) {
		s, err := ParseSlot("sun 12:30 am")
		require.NoError(t, err)
		assert.Equal(t, time.Sunday, s.Weekday)
		assert.Equal(t, 0, s.Hour)
		assert.Equal(t, 30, s.Minute)
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, label := range []string{"", "Mon", "Mon 10:00", "Xyz 10:00 AM", "Mon 25:00 PM"} {
			_, err := ParseSlot(label)
			assert.Error(t, err, label)
		}
	})
}

func TestSlotNext(t *testing.T) {
	slot, err := ParseSlot("Mon 10:00 AM")
	require.NoError(t, err)

	// Saturday -> following Monday
	sat := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC), slot.Next(sat))

	// Monday before the slot -> same day
	monEarly := time.Date(2026, 10, 19, 9, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC), slot.Next(monEarly))

	// Monday at or after the slot -> next week
	monLate := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 26, 10, 0, 0, 0, time.UTC), slot.Next(monLate))
}

func TestSlotOn(t *testing.T) {
	slot, err := ParseSlot("Mon 10:00 AM")
	require.NoError(t, err)

	start, err := slot.On(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC), start)

	_, err = slot.On(time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestBookingStartsAt(t *testing.T) {
	b := &Booking{SessionDate: "2025-12-01", TimeSlot: "Mon 04:15 PM"}
	start, err := b.StartsAt(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 1, 16, 15, 0, 0, time.UTC), start)

	b.SessionDate = "01.12.2025"
	_, err = b.StartsAt(time.UTC)
	assert.Error(t, err)
}

func TestMentorHasSlot(t *testing.T) {
	m := &Mentor{Availability: []string{"Mon 10:00 AM", "Wed 02:00 PM"}}
	assert.True(t, m.HasSlot("Wed 02:00 PM"))
	assert.True(t, m.HasSlot("wed 02:00 pm"))
	assert.True(t, m.HasSlot("Wednesday 2:00 PM"))
	assert.False(t, m.HasSlot("Wed 3:00 PM"))
	assert.False(t, m.HasSlot("garbage"))
}

func TestCanonicalSlot(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Wed 2:00 PM", "Wed 2:00 PM"},
		{"Wed 02:00 PM", "Wed 2:00 PM"},
		{"wed 2:00 pm", "Wed 2:00 PM"},
		{"WEDNESDAY 02:00 pm", "Wed 2:00 PM"},
		{"  Mon   10:00  AM ", "Mon 10:00 AM"},
		{"sun 12:30 am", "Sun 12:30 AM"},
	}
	for _, tt := range tests {
		got, err := CanonicalSlot(tt.label)
		require.NoError(t, err, tt.label)
		assert.Equal(t, tt.want, got, tt.label)
	}

	_, err := CanonicalSlot("Mon 25:00 PM")
	assert.Error(t, err)
}

func TestCanonicalSlots(t *testing.T) {
	slots, err := CanonicalSlots([]string{"Mon 10:00 AM", "Wed 02:00 PM"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mon 10:00 AM", "Wed 2:00 PM"}, slots)

	_, err = CanonicalSlots([]string{"Mon 10:00 AM", "mon 10:00 am"})
	assert.ErrorContains(t, err, "duplicate slot")

	_, err = CanonicalSlots([]string{"Wed 2:00 PM", "Wed 02:00 PM"})
	assert.ErrorContains(t, err, "duplicate slot")

	slots, err = CanonicalSlots(nil)
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}
