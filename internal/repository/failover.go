package repository

import (
	"context"
	"sync/atomic"
	"time"

	"mentorship/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverCacheRepository uses primary (Redis) until it errors, then serves
// from fallback (memory) and probes primary again once per recoveryInterval.
type FailoverCacheRepository struct {
	primary   domain.CacheRepository
	fallback  domain.CacheRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverCacheRepository(primary, fallback domain.CacheRepository, logger *zerolog.Logger) *FailoverCacheRepository {
	return &FailoverCacheRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should go to the primary.
func (r *FailoverCacheRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	last := time.Unix(0, r.lastCheck.Load())
	return r.now().Sub(last) > recoveryInterval
}

// observe records the outcome of a primary call.
func (r *FailoverCacheRepository) observe(op string, err error) bool {
	if err == nil {
		if r.isDown.Swap(false) {
			r.logger.Info().Str("op", op).Msg("primary cache repository recovered")
		}
		return true
	}
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Str("op", op).Msg("primary cache repository failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
	return false
}

func (r *FailoverCacheRepository) GetMentorSlots(ctx context.Context, mentorID int64) ([]string, bool, error) {
	if r.usePrimary() {
		slots, ok, err := r.primary.GetMentorSlots(ctx, mentorID)
		if r.observe("get_mentor_slots", err) {
			return slots, ok, nil
		}
	}
	return r.fallback.GetMentorSlots(ctx, mentorID)
}

func (r *FailoverCacheRepository) SetMentorSlots(ctx context.Context, mentorID int64, slots []string) error {
	if r.usePrimary() {
		if r.observe("set_mentor_slots", r.primary.SetMentorSlots(ctx, mentorID, slots)) {
			return nil
		}
	}
	return r.fallback.SetMentorSlots(ctx, mentorID, slots)
}

// InvalidateMentorSlots clears both tiers so a recovered primary never
// serves an entry the fallback already dropped.
func (r *FailoverCacheRepository) InvalidateMentorSlots(ctx context.Context, mentorID int64) error {
	_ = r.fallback.InvalidateMentorSlots(ctx, mentorID)
	if r.usePrimary() {
		r.observe("invalidate_mentor_slots", r.primary.InvalidateMentorSlots(ctx, mentorID))
	}
	return nil
}

func (r *FailoverCacheRepository) CheckRateLimit(ctx context.Context, studentID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, studentID, limit, window)
		if r.observe("check_rate_limit", err) {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, studentID, limit, window)
}
