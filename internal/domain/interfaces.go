package domain

import (
	"context"
	"time"

	"mentorship/internal/events"
	"mentorship/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/segmentio/kafka-go"
)

// BookingLedger is the authoritative booking store. Implemented by database.DB.
type BookingLedger interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, to models.Status, actorID int64) (*models.Booking, error)
	IsSlotBooked(ctx context.Context, mentorID int64, date, slot string) (bool, error)
	HasStudentBooking(ctx context.Context, studentID int64, date, slot string) (bool, error)
	GetBookedSessions(ctx context.Context, mentorID int64, from, to string) ([]models.SessionKey, error)
	GetStudentBookings(ctx context.Context, studentID int64) ([]*models.Booking, error)
	GetMentorBookings(ctx context.Context, mentorID int64) ([]*models.Booking, error)
	GetBookingsBySessionRange(ctx context.Context, from, to string) ([]*models.Booking, error)
	GetActiveBookingsUntil(ctx context.Context, date string) ([]*models.Booking, error)
}

// MentorStore is the read-only view of mentor data.
type MentorStore interface {
	GetMentor(ctx context.Context, id int64) (*models.Mentor, error)
	ListMentors(ctx context.Context) ([]*models.Mentor, error)
}

// CacheRepository holds advisory, expiring state: mentor slot lists and
// per-student booking counters.
type CacheRepository interface {
	GetMentorSlots(ctx context.Context, mentorID int64) ([]string, bool, error)
	SetMentorSlots(ctx context.Context, mentorID int64, slots []string) error
	InvalidateMentorSlots(ctx context.Context, mentorID int64) error
	CheckRateLimit(ctx context.Context, studentID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// NotificationSink delivers one booking notification. Implementations must be
// safe for use by a single worker goroutine.
type NotificationSink interface {
	Name() string
	Deliver(ctx context.Context, n events.BookingEventPayload) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
