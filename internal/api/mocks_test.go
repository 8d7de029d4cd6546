package api

import (
	"context"

	"mentorship/internal/models"
	"mentorship/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockBookingAPI struct {
	mock.Mock
}

func (m *MockBookingAPI) RequestBooking(ctx context.Context, req service.BookingRequest) (*models.Booking, error) {
	args := m.Called(ctx, req)
	return bookingArg(args, 0), args.Error(1)
}

func (m *MockBookingAPI) CancelBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, actor)
	return bookingArg(args, 0), args.Error(1)
}

func (m *MockBookingAPI) CompleteBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, actor)
	return bookingArg(args, 0), args.Error(1)
}

func (m *MockBookingAPI) GetBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, actor)
	return bookingArg(args, 0), args.Error(1)
}

func (m *MockBookingAPI) ListMentorBookings(ctx context.Context, mentorID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, mentorID)
	if v := args.Get(0); v != nil {
		return v.([]*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingAPI) ListStudentBookings(ctx context.Context, studentID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, studentID)
	if v := args.Get(0); v != nil {
		return v.([]*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingAPI) ListOpenSlots(ctx context.Context, mentorID int64, date string) ([]string, error) {
	args := m.Called(ctx, mentorID, date)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingAPI) ListMentors(ctx context.Context) ([]*models.Mentor, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*models.Mentor), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingAPI) GetMentor(ctx context.Context, mentorID int64) (*models.Mentor, error) {
	args := m.Called(ctx, mentorID)
	if v := args.Get(0); v != nil {
		return v.(*models.Mentor), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingAPI) BookingsInRange(ctx context.Context, from, to string) ([]*models.Booking, error) {
	args := m.Called(ctx, from, to)
	if v := args.Get(0); v != nil {
		return v.([]*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func bookingArg(args mock.Arguments, i int) *models.Booking {
	if v := args.Get(i); v != nil {
		return v.(*models.Booking)
	}
	return nil
}
