package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"mentorship/internal/config"
	"mentorship/internal/domain"
	"mentorship/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger *zerolog.Logger
}

func NewLogSink(logger *zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, n events.BookingEventPayload) error {
	s.logger.Info().
		Str("event", n.Event).
		Int64("booking_id", n.BookingID).
		Int64("student_id", n.StudentID).
		Int64("mentor_id", n.MentorID).
		Str("session_date", n.SessionDate).
		Str("time_slot", n.TimeSlot).
		Int64("actor_id", n.ActorID).
		Msg("booking notification")
	return nil
}

// TelegramSink posts a short message to a staff chat.
type TelegramSink struct {
	bot    domain.TelegramSender
	chatID int64
}

func NewTelegramSink(bot domain.TelegramSender, chatID int64) *TelegramSink {
	return &TelegramSink{bot: bot, chatID: chatID}
}

// NewTelegramBot connects to the Bot API; it performs a getMe round trip.
func NewTelegramBot(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return bot, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Deliver(_ context.Context, n events.BookingEventPayload) error {
	msg := tgbotapi.NewMessage(s.chatID, FormatNotification(n))
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// FormatNotification renders a human readable summary of n.
func FormatNotification(n events.BookingEventPayload) string {
	var title string
	switch n.Event {
	case events.EventBookingCreated:
		title = "New mentorship session booked"
	case events.EventBookingCancelled:
		title = "Mentorship session cancelled"
	case events.EventBookingCompleted:
		title = "Mentorship session completed"
	default:
		title = "Mentorship booking update"
	}

	mentor := "#" + strconv.FormatInt(n.MentorID, 10)
	if n.MentorName != "" {
		mentor = n.MentorName + " (" + mentor + ")"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "Booking: #%d\n", n.BookingID)
	fmt.Fprintf(&b, "Student: #%d\n", n.StudentID)
	fmt.Fprintf(&b, "Mentor: %s\n", mentor)
	fmt.Fprintf(&b, "Session: %s, %s", n.SessionDate, n.TimeSlot)
	if n.Topic != "" {
		fmt.Fprintf(&b, "\nTopic: %s", n.Topic)
	}
	return b.String()
}

// KafkaSink publishes notifications as JSON keyed by booking id, so every
// event of one booking lands in the same partition.
type KafkaSink struct {
	writer domain.KafkaWriter
}

func NewKafkaSink(writer domain.KafkaWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

// NewKafkaWriter builds a kafka-go writer for cfg.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  1,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
	}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Deliver(ctx context.Context, n events.BookingEventPayload) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(n.BookingID, 10)),
		Value: value,
		Time:  n.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(n.Event)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
