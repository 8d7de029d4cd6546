package service

import (
	"context"
	"errors"
	"fmt"

	"mentorship/internal/database"
	"mentorship/internal/domain"
	"mentorship/internal/events"
	"mentorship/internal/metrics"
	"mentorship/internal/models"

	"github.com/rs/zerolog"
)

// LifecycleManager applies booked -> completed|cancelled transitions. It
// rejects transitions it can already see are invalid; the guarded ledger
// update settles races between concurrent callers.
type LifecycleManager struct {
	ledger   domain.BookingLedger
	catalog  *AvailabilityCatalog
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewLifecycleManager(ledger domain.BookingLedger, catalog *AvailabilityCatalog, eventBus domain.EventPublisher, logger *zerolog.Logger) *LifecycleManager {
	return &LifecycleManager{
		ledger:   ledger,
		catalog:  catalog,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Cancel is allowed for the booking's student or an admin.
func (m *LifecycleManager) Cancel(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error) {
	return m.transition(ctx, bookingID, models.StatusCancelled, actor, events.EventBookingCancelled, func(b *models.Booking) bool {
		return canAccess(actor, b)
	})
}

// Complete is allowed for admins and the completion sweeper.
func (m *LifecycleManager) Complete(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error) {
	return m.transition(ctx, bookingID, models.StatusCompleted, actor, events.EventBookingCompleted, func(*models.Booking) bool {
		return actor.IsAdmin()
	})
}

func (m *LifecycleManager) transition(
	ctx context.Context,
	bookingID int64,
	to models.Status,
	actor models.Actor,
	eventType string,
	allowed func(*models.Booking) bool,
) (*models.Booking, error) {
	current, err := m.ledger.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !allowed(current) {
		metrics.IncTransition(string(to), "forbidden")
		return nil, ErrForbidden
	}
	if !current.Status.CanTransitionTo(to) {
		metrics.IncTransition(string(to), "rejected")
		return nil, fmt.Errorf("%w: %s -> %s", database.ErrInvalidTransition, current.Status, to)
	}

	updated, err := m.ledger.UpdateBookingStatus(ctx, bookingID, to, actor.ID)
	if err != nil {
		if errors.Is(err, database.ErrInvalidTransition) {
			metrics.IncTransition(string(to), "rejected")
		} else {
			metrics.IncTransition(string(to), "error")
		}
		return nil, err
	}
	metrics.IncTransition(string(to), "ok")

	m.logger.Info().
		Int64("booking_id", bookingID).
		Str("status", string(to)).
		Int64("actor_id", actor.ID).
		Str("actor_role", string(actor.Role)).
		Msg("booking status changed")

	m.publish(ctx, eventType, updated, actor.ID)
	return updated, nil
}

func (m *LifecycleManager) publish(ctx context.Context, eventType string, b *models.Booking, actorID int64) {
	if m.eventBus == nil {
		return
	}
	mentorName := ""
	if m.catalog != nil {
		if mentor, err := m.catalog.GetMentor(ctx, b.MentorID); err == nil {
			mentorName = mentor.Name
		}
	}
	payload := events.NewBookingPayload(eventType, b, mentorName, actorID)
	if err := m.eventBus.PublishJSON(eventType, payload); err != nil {
		m.logger.Warn().Err(err).Str("event", eventType).Int64("booking_id", b.ID).Msg("publish event failed")
	}
}

// canAccess is the owner-or-admin rule shared by reads and cancellation.
func canAccess(actor models.Actor, b *models.Booking) bool {
	return actor.IsAdmin() || actor.ID == b.StudentID
}
