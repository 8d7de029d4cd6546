package database

import (
	"context"
	"testing"

	"mentorship/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDate = "2026-10-19" // Monday
	testSlot = "Mon 10:00 AM"
)

func newBooking(student, mentor int64, date, slot string) *models.Booking {
	return &models.Booking{
		StudentID:   student,
		MentorID:    mentor,
		SessionDate: date,
		TimeSlot:    slot,
		Topic:       "Career advice",
	}
}

func TestCreateBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := newBooking(31, 5, testDate, testSlot)
	require.NoError(t, db.CreateBooking(ctx, b))
	assert.NotZero(t, b.ID)
	assert.Equal(t, models.StatusBooked, b.Status)

	stored, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(31), stored.StudentID)
	assert.Equal(t, int64(5), stored.MentorID)
	assert.Equal(t, testDate, stored.SessionDate)
	assert.Equal(t, testSlot, stored.TimeSlot)
	assert.Equal(t, "Career advice", stored.Topic)
	assert.Equal(t, models.StatusBooked, stored.Status)
	assert.Nil(t, stored.TransitionedBy)
	assert.False(t, stored.CreatedAt.IsZero())

	t.Run("StoresCanonicalSlot", func(t *testing.T) {
		wed := newBooking(33, 5, "2026-10-21", "wed 02:00 pm")
		require.NoError(t, db.CreateBooking(ctx, wed))
		assert.Equal(t, "Wed 2:00 PM", wed.TimeSlot)

		stored, err := db.GetBooking(ctx, wed.ID)
		require.NoError(t, err)
		assert.Equal(t, "Wed 2:00 PM", stored.TimeSlot)
	})

	t.Run("IdsAreUnique", func(t *testing.T) {
		other := newBooking(32, 7, testDate, testSlot)
		require.NoError(t, db.CreateBooking(ctx, other))
		assert.NotEqual(t, b.ID, other.ID)
	})
}

func TestCreateBooking_Conflicts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBooking(ctx, newBooking(31, 5, testDate, testSlot)))

	t.Run("MentorSlotTaken", func(t *testing.T) {
		err := db.CreateBooking(ctx, newBooking(40, 5, testDate, testSlot))
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, ConflictMentorSlot, conflict.Kind)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("StudentAlreadyBusy", func(t *testing.T) {
		err := db.CreateBooking(ctx, newBooking(31, 7, testDate, testSlot))
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, ConflictStudentSlot, conflict.Kind)
	})

	t.Run("EquivalentLabelTakesMentorSlot", func(t *testing.T) {
		err := db.CreateBooking(ctx, newBooking(40, 5, testDate, "mon 10:00 am"))
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, ConflictMentorSlot, conflict.Kind)
	})

	t.Run("EquivalentLabelKeepsStudentBusy", func(t *testing.T) {
		err := db.CreateBooking(ctx, newBooking(31, 7, testDate, "Monday 10:00 am"))
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, ConflictStudentSlot, conflict.Kind)
	})

	t.Run("UnparseableSlot", func(t *testing.T) {
		err := db.CreateBooking(ctx, newBooking(40, 7, testDate, "whenever"))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrConflict)
	})

	t.Run("SameSlotOtherWeek", func(t *testing.T) {
		err := db.CreateBooking(ctx, newBooking(40, 5, "2026-10-26", testSlot))
		assert.NoError(t, err)
	})

	t.Run("UnknownMentor", func(t *testing.T) {
		err := db.CreateBooking(ctx, newBooking(40, 999, testDate, testSlot))
		assert.ErrorIs(t, err, ErrMentorNotFound)
	})
}

func TestUpdateBookingStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := newBooking(31, 5, testDate, testSlot)
	require.NoError(t, db.CreateBooking(ctx, b))

	updated, err := db.UpdateBookingStatus(ctx, b.ID, models.StatusCancelled, 31)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	require.NotNil(t, updated.TransitionedBy)
	assert.Equal(t, int64(31), *updated.TransitionedBy)

	t.Run("TerminalIsFinal", func(t *testing.T) {
		_, err := db.UpdateBookingStatus(ctx, b.ID, models.StatusCompleted, 1)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		_, err = db.UpdateBookingStatus(ctx, b.ID, models.StatusCancelled, 31)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		stored, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, stored.Status)
	})

	t.Run("BackToBookedRejected", func(t *testing.T) {
		_, err := db.UpdateBookingStatus(ctx, b.ID, models.StatusBooked, 31)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := db.UpdateBookingStatus(ctx, 12345, models.StatusCancelled, 31)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("CancelledSlotIsReusable", func(t *testing.T) {
		again := newBooking(31, 5, testDate, testSlot)
		require.NoError(t, db.CreateBooking(ctx, again))
		assert.NotEqual(t, b.ID, again.ID)
	})
}

func TestBookingQueries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := newBooking(31, 5, testDate, testSlot)
	second := newBooking(31, 5, "2026-10-21", "Wed 2:00 PM")
	third := newBooking(44, 7, testDate, testSlot)
	for _, b := range []*models.Booking{first, second, third} {
		require.NoError(t, db.CreateBooking(ctx, b))
	}
	_, err := db.UpdateBookingStatus(ctx, second.ID, models.StatusCompleted, 0)
	require.NoError(t, err)

	t.Run("IsSlotBooked", func(t *testing.T) {
		booked, err := db.IsSlotBooked(ctx, 5, testDate, testSlot)
		require.NoError(t, err)
		assert.True(t, booked)

		booked, err = db.IsSlotBooked(ctx, 5, "2026-10-21", "Wed 2:00 PM")
		require.NoError(t, err)
		assert.False(t, booked, "completed bookings do not hold the slot")
	})

	t.Run("HasStudentBooking", func(t *testing.T) {
		busy, err := db.HasStudentBooking(ctx, 44, testDate, testSlot)
		require.NoError(t, err)
		assert.True(t, busy)

		busy, err = db.HasStudentBooking(ctx, 44, "2026-10-26", testSlot)
		require.NoError(t, err)
		assert.False(t, busy)
	})

	t.Run("GetBookedSessions", func(t *testing.T) {
		keys, err := db.GetBookedSessions(ctx, 5, "2026-10-17", "2026-10-24")
		require.NoError(t, err)
		assert.Equal(t, []models.SessionKey{{Date: testDate, Slot: testSlot}}, keys)
	})

	t.Run("GetStudentBookings", func(t *testing.T) {
		bookings, err := db.GetStudentBookings(ctx, 31)
		require.NoError(t, err)
		require.Len(t, bookings, 2)
		assert.Equal(t, second.ID, bookings[0].ID)
		assert.Equal(t, models.StatusCompleted, bookings[0].Status)
	})

	t.Run("GetMentorBookings", func(t *testing.T) {
		bookings, err := db.GetMentorBookings(ctx, 7)
		require.NoError(t, err)
		require.Len(t, bookings, 1)
		assert.Equal(t, third.ID, bookings[0].ID)
	})

	t.Run("GetBookingsBySessionRange", func(t *testing.T) {
		bookings, err := db.GetBookingsBySessionRange(ctx, testDate, testDate)
		require.NoError(t, err)
		assert.Len(t, bookings, 2)
	})

	t.Run("GetActiveBookingsUntil", func(t *testing.T) {
		bookings, err := db.GetActiveBookingsUntil(ctx, "2026-10-30")
		require.NoError(t, err)
		assert.Len(t, bookings, 2)
		for _, b := range bookings {
			assert.Equal(t, models.StatusBooked, b.Status)
		}
	})

	t.Run("GetBookingNotFound", func(t *testing.T) {
		_, err := db.GetBooking(ctx, 9999)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}
