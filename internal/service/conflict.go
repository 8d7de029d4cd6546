package service

import (
	"context"
	"time"

	"mentorship/internal/domain"
	"mentorship/internal/models"

	"github.com/rs/zerolog"
)

// ConflictResolver answers availability questions from a snapshot of the
// ledger. Its answers may be stale by the time a booking is written; the
// ledger insert is what actually enforces exclusivity.
type ConflictResolver struct {
	catalog *AvailabilityCatalog
	ledger  domain.BookingLedger
	loc     *time.Location
	now     func() time.Time
	logger  *zerolog.Logger
}

func NewConflictResolver(catalog *AvailabilityCatalog, ledger domain.BookingLedger, loc *time.Location, logger *zerolog.Logger) *ConflictResolver {
	if loc == nil {
		loc = time.UTC
	}
	return &ConflictResolver{
		catalog: catalog,
		ledger:  ledger,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// IsFree reports whether the mentor has no active booking for the session.
func (r *ConflictResolver) IsFree(ctx context.Context, mentorID int64, date, slot string) (bool, error) {
	booked, err := r.ledger.IsSlotBooked(ctx, mentorID, date, slot)
	if err != nil {
		return false, err
	}
	return !booked, nil
}

// HasStudentConflict reports whether the student already holds that session slot.
func (r *ConflictResolver) HasStudentConflict(ctx context.Context, studentID int64, date, slot string) (bool, error) {
	return r.ledger.HasStudentBooking(ctx, studentID, date, slot)
}

// ListOpenSlots returns the mentor's slots without an active booking.
// With a date, only that day's slots are considered; without one, each slot
// is checked at its next occurrence.
func (r *ConflictResolver) ListOpenSlots(ctx context.Context, mentorID int64, date *time.Time) ([]string, error) {
	labels, err := r.catalog.GetSlots(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	now := r.now().In(r.loc)
	var from, to string
	if date != nil {
		from = date.Format(models.DateLayout)
		to = from
	} else {
		from = now.Format(models.DateLayout)
		to = now.AddDate(0, 0, 7).Format(models.DateLayout)
	}

	keys, err := r.ledger.GetBookedSessions(ctx, mentorID, from, to)
	if err != nil {
		return nil, err
	}
	booked := make(map[models.SessionKey]struct{}, len(keys))
	for _, k := range keys {
		booked[k] = struct{}{}
	}

	open := make([]string, 0, len(labels))
	for _, label := range labels {
		slot, err := models.ParseSlot(label)
		if err != nil {
			r.logger.Warn().Err(err).Int64("mentor_id", mentorID).Str("slot", label).Msg("skipping unparseable slot")
			continue
		}

		var day string
		if date != nil {
			start, err := slot.On(*date)
			if err != nil || !start.After(now) {
				continue
			}
			day = from
		} else {
			day = slot.Next(now).Format(models.DateLayout)
		}

		canonical := slot.Canonical()
		if _, taken := booked[models.SessionKey{Date: day, Slot: canonical}]; !taken {
			open = append(open, canonical)
		}
	}
	return open, nil
}
