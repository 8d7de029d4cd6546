package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"mentorship/internal/config"
	"mentorship/internal/database"
	"mentorship/internal/domain"
	"mentorship/internal/events"
	"mentorship/internal/metrics"
	"mentorship/internal/models"

	"github.com/rs/zerolog"
)

// BookingRequest is a student's request for one mentor session. SessionDate
// is optional; when empty the next occurrence of TimeSlot is booked.
type BookingRequest struct {
	StudentID   int64
	MentorID    int64
	TimeSlot    string
	Topic       string
	SessionDate string
}

type BookingService struct {
	catalog   *AvailabilityCatalog
	resolver  *ConflictResolver
	lifecycle *LifecycleManager
	ledger    domain.BookingLedger
	limiter   domain.CacheRepository
	eventBus  domain.EventPublisher
	cfg       config.BookingConfig
	loc       *time.Location
	now       func() time.Time
	logger    *zerolog.Logger
}

func NewBookingService(
	catalog *AvailabilityCatalog,
	resolver *ConflictResolver,
	lifecycle *LifecycleManager,
	ledger domain.BookingLedger,
	limiter domain.CacheRepository,
	eventBus domain.EventPublisher,
	cfg config.BookingConfig,
	loc *time.Location,
	logger *zerolog.Logger,
) *BookingService {
	if cfg.MaxWeeksAhead <= 0 {
		cfg.MaxWeeksAhead = models.DefaultMaxWeeksAhead
	}
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		catalog:   catalog,
		resolver:  resolver,
		lifecycle: lifecycle,
		ledger:    ledger,
		limiter:   limiter,
		eventBus:  eventBus,
		cfg:       cfg,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// RequestBooking validates the request, runs the advisory pre-check and then
// performs the atomic ledger insert, which is the authoritative decision.
func (s *BookingService) RequestBooking(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	booking, err := s.requestBooking(ctx, req)
	metrics.IncBookingRequest(outcome(err))
	return booking, err
}

func (s *BookingService) requestBooking(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	req.TimeSlot = strings.TrimSpace(req.TimeSlot)
	req.Topic = strings.TrimSpace(req.Topic)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	slot, err := models.CanonicalSlot(req.TimeSlot)
	if err != nil {
		return nil, invalid("timeSlot", "%v", err)
	}
	req.TimeSlot = slot

	if err := s.checkRateLimit(ctx, req.StudentID); err != nil {
		return nil, err
	}

	mentor, err := s.catalog.GetMentor(ctx, req.MentorID)
	if err != nil {
		return nil, err
	}
	if !mentor.HasSlot(req.TimeSlot) {
		return nil, invalid("timeSlot", "%q is not in the mentor's availability", req.TimeSlot)
	}

	sessionDate, err := s.resolveSessionDate(req.TimeSlot, req.SessionDate)
	if err != nil {
		return nil, err
	}

	if err := s.precheck(ctx, req, sessionDate); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		StudentID:   req.StudentID,
		MentorID:    req.MentorID,
		SessionDate: sessionDate,
		TimeSlot:    req.TimeSlot,
		Topic:       req.Topic,
	}
	if err := s.ledger.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("student_id", booking.StudentID).
		Int64("mentor_id", booking.MentorID).
		Str("session_date", booking.SessionDate).
		Str("time_slot", booking.TimeSlot).
		Msg("booking created")

	s.publish(events.EventBookingCreated, booking, mentor.Name, req.StudentID)
	return booking, nil
}

func validateRequest(req BookingRequest) error {
	switch {
	case req.StudentID <= 0:
		return invalid("studentId", "must be a positive id")
	case req.MentorID <= 0:
		return invalid("mentorId", "must be a positive id")
	case req.TimeSlot == "":
		return invalid("timeSlot", "is required")
	case len([]rune(req.Topic)) > models.MaxTopicLength:
		return invalid("topic", "must be at most %d characters", models.MaxTopicLength)
	}
	return nil
}

// checkRateLimit fails open: a broken counter never blocks bookings.
func (s *BookingService) checkRateLimit(ctx context.Context, studentID int64) error {
	if s.limiter == nil || s.cfg.StudentRateLimit <= 0 {
		return nil
	}
	window := s.cfg.StudentRateWindow
	if window <= 0 {
		window = models.StudentRateWindow
	}
	allowed, err := s.limiter.CheckRateLimit(ctx, studentID, s.cfg.StudentRateLimit, window)
	if err != nil {
		s.logger.Warn().Err(err).Int64("student_id", studentID).Msg("rate limit check failed")
		return nil
	}
	if !allowed {
		return ErrRateLimited
	}
	return nil
}

// resolveSessionDate picks the concrete week a weekly slot label refers to.
func (s *BookingService) resolveSessionDate(label, raw string) (string, error) {
	slot, err := models.ParseSlot(label)
	if err != nil {
		return "", invalid("timeSlot", "%v", err)
	}

	now := s.now().In(s.loc)
	if raw == "" {
		return slot.Next(now).Format(models.DateLayout), nil
	}

	day, err := models.ParseDate(raw, s.loc)
	if err != nil {
		return "", invalid("sessionDate", "must be a YYYY-MM-DD date")
	}
	start, err := slot.On(day)
	if err != nil {
		return "", invalid("sessionDate", "%s is not a %s", raw, slot.Weekday)
	}
	if !start.After(now) {
		return "", invalid("sessionDate", "session start is in the past")
	}
	if start.After(now.AddDate(0, 0, 7*s.cfg.MaxWeeksAhead)) {
		return "", invalid("sessionDate", "sessions can be booked at most %d weeks ahead", s.cfg.MaxWeeksAhead)
	}
	return day.Format(models.DateLayout), nil
}

// precheck fails fast on a conflict it can already see. Lookup errors are
// ignored here; the ledger insert still decides.
func (s *BookingService) precheck(ctx context.Context, req BookingRequest, date string) error {
	free, err := s.resolver.IsFree(ctx, req.MentorID, date, req.TimeSlot)
	if err != nil {
		s.logger.Warn().Err(err).Msg("mentor slot pre-check failed")
		return nil
	}
	if !free {
		return &database.ConflictError{Kind: database.ConflictMentorSlot}
	}

	busy, err := s.resolver.HasStudentConflict(ctx, req.StudentID, date, req.TimeSlot)
	if err != nil {
		s.logger.Warn().Err(err).Msg("student slot pre-check failed")
		return nil
	}
	if busy {
		return &database.ConflictError{Kind: database.ConflictStudentSlot}
	}
	return nil
}

func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error) {
	return s.lifecycle.Cancel(ctx, bookingID, actor)
}

func (s *BookingService) CompleteBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error) {
	return s.lifecycle.Complete(ctx, bookingID, actor)
}

// ListOpenSlots accepts an optional YYYY-MM-DD date.
func (s *BookingService) ListOpenSlots(ctx context.Context, mentorID int64, date string) ([]string, error) {
	if date == "" {
		return s.resolver.ListOpenSlots(ctx, mentorID, nil)
	}
	day, err := models.ParseDate(date, s.loc)
	if err != nil {
		return nil, invalid("date", "must be a YYYY-MM-DD date")
	}
	if day.Before(startOfDay(s.now().In(s.loc))) {
		return nil, invalid("date", "must not be in the past")
	}
	return s.resolver.ListOpenSlots(ctx, mentorID, &day)
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error) {
	b, err := s.ledger.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, b) {
		return nil, ErrForbidden
	}
	return b, nil
}

// ListMentorBookings returns every booking held with the mentor, newest session first.
func (s *BookingService) ListMentorBookings(ctx context.Context, mentorID int64) ([]*models.Booking, error) {
	if _, err := s.catalog.GetMentor(ctx, mentorID); err != nil {
		return nil, err
	}
	return s.ledger.GetMentorBookings(ctx, mentorID)
}

func (s *BookingService) ListStudentBookings(ctx context.Context, studentID int64) ([]*models.Booking, error) {
	return s.ledger.GetStudentBookings(ctx, studentID)
}

func (s *BookingService) ListMentors(ctx context.Context) ([]*models.Mentor, error) {
	return s.catalog.ListMentors(ctx)
}

func (s *BookingService) GetMentor(ctx context.Context, mentorID int64) (*models.Mentor, error) {
	return s.catalog.GetMentor(ctx, mentorID)
}

// BookingsInRange returns every booking with a session date in [from, to].
func (s *BookingService) BookingsInRange(ctx context.Context, from, to string) ([]*models.Booking, error) {
	fromDay, err := models.ParseDate(from, s.loc)
	if err != nil {
		return nil, invalid("from", "must be a YYYY-MM-DD date")
	}
	toDay, err := models.ParseDate(to, s.loc)
	if err != nil {
		return nil, invalid("to", "must be a YYYY-MM-DD date")
	}
	if toDay.Before(fromDay) {
		return nil, invalid("to", "must not be before from")
	}
	if toDay.Sub(fromDay) > 366*24*time.Hour {
		return nil, invalid("to", "range must not exceed one year")
	}
	return s.ledger.GetBookingsBySessionRange(ctx, from, to)
}

func (s *BookingService) publish(eventType string, b *models.Booking, mentorName string, actorID int64) {
	if s.eventBus == nil {
		return
	}
	payload := events.NewBookingPayload(eventType, b, mentorName, actorID)
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Int64("booking_id", b.ID).Msg("publish event failed")
	}
}

func outcome(err error) string {
	var conflict *database.ConflictError
	switch {
	case err == nil:
		return metrics.ResultCreated
	case errors.As(err, &conflict) && conflict.Kind == database.ConflictStudentSlot:
		return metrics.ResultStudentConflict
	case errors.As(err, &conflict):
		return metrics.ResultMentorConflict
	case errors.Is(err, ErrValidation), errors.Is(err, database.ErrMentorNotFound):
		return metrics.ResultInvalid
	case errors.Is(err, ErrRateLimited):
		return metrics.ResultRateLimited
	default:
		return metrics.ResultError
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
