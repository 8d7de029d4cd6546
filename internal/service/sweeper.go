package service

import (
	"context"
	"errors"
	"time"

	"mentorship/internal/database"
	"mentorship/internal/domain"
	"mentorship/internal/models"

	"github.com/rs/zerolog"
)

// CompletionSweeper completes booked sessions whose end time has passed.
type CompletionSweeper struct {
	ledger        domain.BookingLedger
	lifecycle     *LifecycleManager
	sessionLength time.Duration
	interval      time.Duration
	loc           *time.Location
	now           func() time.Time
	logger        *zerolog.Logger
}

func NewCompletionSweeper(
	ledger domain.BookingLedger,
	lifecycle *LifecycleManager,
	sessionLength, interval time.Duration,
	loc *time.Location,
	logger *zerolog.Logger,
) *CompletionSweeper {
	if sessionLength <= 0 {
		sessionLength = models.DefaultSessionLength
	}
	if interval <= 0 {
		interval = models.DefaultSweepInterval
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CompletionSweeper{
		ledger:        ledger,
		lifecycle:     lifecycle,
		sessionLength: sessionLength,
		interval:      interval,
		loc:           loc,
		now:           time.Now,
		logger:        logger,
	}
}

// Start blocks until ctx is done.
func (s *CompletionSweeper) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Dur("session_length", s.sessionLength).Msg("completion sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("completion sweep failed")
		}
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("completion sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce completes every due session and returns how many it completed.
func (s *CompletionSweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now().In(s.loc)
	due, err := s.ledger.GetActiveBookingsUntil(ctx, now.Format(models.DateLayout))
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, b := range due {
		start, err := b.StartsAt(s.loc)
		if err != nil {
			s.logger.Warn().Err(err).Int64("booking_id", b.ID).Msg("cannot resolve session start")
			continue
		}
		if now.Before(start.Add(s.sessionLength)) {
			continue
		}

		_, err = s.lifecycle.Complete(ctx, b.ID, models.SystemActor)
		switch {
		case err == nil:
			completed++
		case errors.Is(err, database.ErrInvalidTransition):
			s.logger.Debug().Int64("booking_id", b.ID).Msg("booking changed before completion")
		default:
			s.logger.Error().Err(err).Int64("booking_id", b.ID).Msg("auto-complete failed")
		}
	}

	if completed > 0 {
		s.logger.Info().Int("completed", completed).Msg("sessions auto-completed")
	}
	return completed, nil
}
