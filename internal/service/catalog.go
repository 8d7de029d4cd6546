package service

import (
	"context"

	"mentorship/internal/domain"
	"mentorship/internal/models"

	"github.com/rs/zerolog"
)

// AvailabilityCatalog exposes the mentors' published weekly slots. It never
// writes mentor data; the cache is optional and advisory.
type AvailabilityCatalog struct {
	store  domain.MentorStore
	cache  domain.CacheRepository
	logger *zerolog.Logger
}

func NewAvailabilityCatalog(store domain.MentorStore, cache domain.CacheRepository, logger *zerolog.Logger) *AvailabilityCatalog {
	return &AvailabilityCatalog{store: store, cache: cache, logger: logger}
}

// GetSlots returns the mentor's slot labels in published order.
func (c *AvailabilityCatalog) GetSlots(ctx context.Context, mentorID int64) ([]string, error) {
	if c.cache != nil {
		slots, ok, err := c.cache.GetMentorSlots(ctx, mentorID)
		if err != nil {
			c.logger.Warn().Err(err).Int64("mentor_id", mentorID).Msg("slot cache read failed")
		} else if ok {
			return slots, nil
		}
	}

	mentor, err := c.store.GetMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetMentorSlots(ctx, mentorID, mentor.Availability); err != nil {
			c.logger.Warn().Err(err).Int64("mentor_id", mentorID).Msg("slot cache write failed")
		}
	}
	return append([]string(nil), mentor.Availability...), nil
}

// GetMentor always reads the store; booking validation relies on it.
func (c *AvailabilityCatalog) GetMentor(ctx context.Context, mentorID int64) (*models.Mentor, error) {
	return c.store.GetMentor(ctx, mentorID)
}

func (c *AvailabilityCatalog) ListMentors(ctx context.Context) ([]*models.Mentor, error) {
	return c.store.ListMentors(ctx)
}

// Invalidate drops cached slots after the mentor catalog changes.
func (c *AvailabilityCatalog) Invalidate(ctx context.Context, mentorIDs ...int64) {
	if c.cache == nil {
		return
	}
	for _, id := range mentorIDs {
		if err := c.cache.InvalidateMentorSlots(ctx, id); err != nil {
			c.logger.Warn().Err(err).Int64("mentor_id", id).Msg("slot cache invalidation failed")
		}
	}
}
