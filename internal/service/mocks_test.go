package service

import (
	"context"
	"time"

	"mentorship/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockLedger) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockLedger) UpdateBookingStatus(ctx context.Context, id int64, to models.Status, actorID int64) (*models.Booking, error) {
	args := m.Called(ctx, id, to, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockLedger) IsSlotBooked(ctx context.Context, mentorID int64, date, slot string) (bool, error) {
	args := m.Called(ctx, mentorID, date, slot)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedger) HasStudentBooking(ctx context.Context, studentID int64, date, slot string) (bool, error) {
	args := m.Called(ctx, studentID, date, slot)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedger) GetBookedSessions(ctx context.Context, mentorID int64, from, to string) ([]models.SessionKey, error) {
	args := m.Called(ctx, mentorID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SessionKey), args.Error(1)
}

func (m *mockLedger) bookings(args mock.Arguments) ([]*models.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockLedger) GetStudentBookings(ctx context.Context, studentID int64) ([]*models.Booking, error) {
	return m.bookings(m.Called(ctx, studentID))
}

func (m *mockLedger) GetMentorBookings(ctx context.Context, mentorID int64) ([]*models.Booking, error) {
	return m.bookings(m.Called(ctx, mentorID))
}

func (m *mockLedger) GetBookingsBySessionRange(ctx context.Context, from, to string) ([]*models.Booking, error) {
	return m.bookings(m.Called(ctx, from, to))
}

func (m *mockLedger) GetActiveBookingsUntil(ctx context.Context, date string) ([]*models.Booking, error) {
	return m.bookings(m.Called(ctx, date))
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetMentor(ctx context.Context, id int64) (*models.Mentor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mentor), args.Error(1)
}

func (m *mockStore) ListMentors(ctx context.Context) ([]*models.Mentor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Mentor), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetMentorSlots(ctx context.Context, mentorID int64) ([]string, bool, error) {
	args := m.Called(ctx, mentorID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]string), args.Bool(1), args.Error(2)
}

func (m *mockCache) SetMentorSlots(ctx context.Context, mentorID int64, slots []string) error {
	return m.Called(ctx, mentorID, slots).Error(0)
}

func (m *mockCache) InvalidateMentorSlots(ctx context.Context, mentorID int64) error {
	return m.Called(ctx, mentorID).Error(0)
}

func (m *mockCache) CheckRateLimit(ctx context.Context, studentID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, studentID, limit, window)
	return args.Bool(0), args.Error(1)
}
