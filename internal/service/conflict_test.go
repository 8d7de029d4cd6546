package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mentorship/internal/config"
	"mentorship/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMockResolver(ledger *mockLedger, slots []string) *ConflictResolver {
	logger := zerolog.Nop()
	store := new(mockStore)
	store.On("GetMentor", mock.Anything, int64(5)).Return(&models.Mentor{ID: 5, Name: "Arjun Mehta", Availability: slots}, nil)
	catalog := NewAvailabilityCatalog(store, nil, &logger)
	r := NewConflictResolver(catalog, ledger, time.UTC, &logger)
	r.now = func() time.Time { return testNow }
	return r
}

func TestConflictResolver_ListOpenSlots(t *testing.T) {
	ctx := context.Background()
	slots := []string{"Mon 10:00 AM", "Mon 3:00 PM", "Sat 8:00 AM", "broken"}

	t.Run("NextOccurrences", func(t *testing.T) {
		ledger := new(mockLedger)
		ledger.On("GetBookedSessions", ctx, int64(5), "2026-10-17", "2026-10-24").Return([]models.SessionKey{
			{Date: "2026-10-19", Slot: "Mon 3:00 PM"},
			// Saturday 8:00 has already passed today, so next week's occurrence counts.
			{Date: "2026-10-17", Slot: "Sat 8:00 AM"},
		}, nil)

		open, err := newMockResolver(ledger, slots).ListOpenSlots(ctx, 5, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mon 10:00 AM", "Sat 8:00 AM"}, open)
	})

	t.Run("SpecificDate", func(t *testing.T) {
		ledger := new(mockLedger)
		ledger.On("GetBookedSessions", ctx, int64(5), "2026-10-26", "2026-10-26").Return([]models.SessionKey{
			{Date: "2026-10-26", Slot: "Mon 10:00 AM"},
		}, nil)

		day := time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC)
		open, err := newMockResolver(ledger, slots).ListOpenSlots(ctx, 5, &day)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mon 3:00 PM"}, open)
	})

	t.Run("TodayHidesStartedSlots", func(t *testing.T) {
		ledger := new(mockLedger)
		ledger.On("GetBookedSessions", ctx, int64(5), "2026-10-17", "2026-10-17").Return(nil, nil)

		day := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
		open, err := newMockResolver(ledger, []string{"Sat 8:00 AM", "Sat 11:00 AM"}).ListOpenSlots(ctx, 5, &day)
		require.NoError(t, err)
		assert.Equal(t, []string{"Sat 11:00 AM"}, open)
	})

	t.Run("CanonicalLabels", func(t *testing.T) {
		ledger := new(mockLedger)
		ledger.On("GetBookedSessions", ctx, int64(5), "2026-10-17", "2026-10-24").Return([]models.SessionKey{
			{Date: "2026-10-19", Slot: "Mon 10:00 AM"},
		}, nil)

		open, err := newMockResolver(ledger, []string{"mon 10:00 am", "Mon 03:00 PM"}).ListOpenSlots(ctx, 5, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mon 3:00 PM"}, open)
	})

	t.Run("LedgerError", func(t *testing.T) {
		ledger := new(mockLedger)
		ledger.On("GetBookedSessions", ctx, int64(5), mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		_, err := newMockResolver(ledger, slots).ListOpenSlots(ctx, 5, nil)
		assert.Error(t, err)
	})
}

func TestConflictResolver_Predicates(t *testing.T) {
	ctx := context.Background()
	ledger := new(mockLedger)
	ledger.On("IsSlotBooked", ctx, int64(5), "2026-10-19", "Mon 10:00 AM").Return(true, nil)
	ledger.On("HasStudentBooking", ctx, int64(31), "2026-10-19", "Mon 10:00 AM").Return(false, nil)

	r := newMockResolver(ledger, nil)
	free, err := r.IsFree(ctx, 5, "2026-10-19", "Mon 10:00 AM")
	require.NoError(t, err)
	assert.False(t, free)

	busy, err := r.HasStudentConflict(ctx, 31, "2026-10-19", "Mon 10:00 AM")
	require.NoError(t, err)
	assert.False(t, busy)
}

// A failing pre-check must not block the authoritative insert.
func TestRequestBooking_PrecheckErrorFallsThrough(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	ledger := new(mockLedger)
	r := newMockResolver(ledger, []string{"Mon 10:00 AM"})

	ledger.On("IsSlotBooked", ctx, int64(5), "2026-10-19", "Mon 10:00 AM").Return(false, errors.New("replica lag"))
	ledger.On("CreateBooking", ctx, mock.MatchedBy(func(b *models.Booking) bool {
		return b.StudentID == 31 && b.SessionDate == "2026-10-19"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Booking).ID = 77
	}).Return(nil).Once()

	svc := NewBookingService(r.catalog, r, nil, ledger, nil, nil, config.BookingConfig{}, time.UTC, &logger)
	svc.now = func() time.Time { return testNow }

	b, err := svc.RequestBooking(ctx, request(31, 5, "Mon 10:00 AM"))
	require.NoError(t, err)
	assert.Equal(t, int64(77), b.ID)
	ledger.AssertExpectations(t)
}
