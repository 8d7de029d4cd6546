package service

import (
	"context"
	"errors"
	"testing"

	"mentorship/internal/database"
	"mentorship/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func bookedBooking() *models.Booking {
	return &models.Booking{
		ID:          10,
		StudentID:   31,
		MentorID:    5,
		SessionDate: "2026-10-19",
		TimeSlot:    "Mon 10:00 AM",
		Status:      models.StatusBooked,
	}
}

func TestLifecycleManager_PreCheckSkipsStorage(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	ledger := new(mockLedger)
	lm := NewLifecycleManager(ledger, nil, nil, &logger)

	completed := bookedBooking()
	completed.Status = models.StatusCompleted
	ledger.On("GetBooking", ctx, int64(10)).Return(completed, nil)

	_, err := lm.Cancel(ctx, 10, student31)
	assert.ErrorIs(t, err, database.ErrInvalidTransition)
	ledger.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleManager_LostRace(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	ledger := new(mockLedger)
	lm := NewLifecycleManager(ledger, nil, nil, &logger)

	ledger.On("GetBooking", ctx, int64(10)).Return(bookedBooking(), nil)
	ledger.On("UpdateBookingStatus", ctx, int64(10), models.StatusCancelled, int64(31)).
		Return(nil, database.ErrInvalidTransition).Once()

	_, err := lm.Cancel(ctx, 10, student31)
	assert.ErrorIs(t, err, database.ErrInvalidTransition)
	ledger.AssertExpectations(t)
}

func TestLifecycleManager_StorageFailure(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	ledger := new(mockLedger)
	lm := NewLifecycleManager(ledger, nil, nil, &logger)

	ledger.On("GetBooking", ctx, int64(10)).Return(bookedBooking(), nil)
	ledger.On("UpdateBookingStatus", ctx, int64(10), models.StatusCompleted, int64(0)).
		Return(nil, errors.New("database is locked")).Once()

	_, err := lm.Complete(ctx, 10, models.SystemActor)
	require.Error(t, err)
	assert.NotErrorIs(t, err, database.ErrInvalidTransition)
}

func TestLifecycleManager_Authorization(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	ledger := new(mockLedger)
	lm := NewLifecycleManager(ledger, nil, nil, &logger)
	ledger.On("GetBooking", ctx, int64(10)).Return(bookedBooking(), nil)

	mentorActor := models.Actor{ID: 5, Role: models.RoleMentor}
	_, err := lm.Cancel(ctx, 10, mentorActor)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = lm.Complete(ctx, 10, student31)
	assert.ErrorIs(t, err, ErrForbidden)

	ledger.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
