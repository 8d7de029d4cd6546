package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryCacheRepository is the in-process stand-in used when Redis is
// unavailable or not configured.
type MemoryCacheRepository struct {
	mu         sync.Mutex
	slots      map[int64]slotEntry
	rateLimits map[int64]*rateLimitEntry
	slotTTL    time.Duration
	now        func() time.Time
}

type slotEntry struct {
	slots     []string
	expiresAt time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryCacheRepository(slotTTL time.Duration) *MemoryCacheRepository {
	return &MemoryCacheRepository{
		slots:      make(map[int64]slotEntry),
		rateLimits: make(map[int64]*rateLimitEntry),
		slotTTL:    slotTTL,
		now:        time.Now,
	}
}

func (r *MemoryCacheRepository) GetMentorSlots(_ context.Context, mentorID int64) ([]string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.slots[mentorID]
	if !ok {
		return nil, false, nil
	}
	if r.slotTTL > 0 && r.now().After(entry.expiresAt) {
		delete(r.slots, mentorID)
		return nil, false, nil
	}
	return append([]string(nil), entry.slots...), true, nil
}

func (r *MemoryCacheRepository) SetMentorSlots(_ context.Context, mentorID int64, slots []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slots[mentorID] = slotEntry{
		slots:     append([]string(nil), slots...),
		expiresAt: r.now().Add(r.slotTTL),
	}
	return nil
}

func (r *MemoryCacheRepository) InvalidateMentorSlots(_ context.Context, mentorID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.slots, mentorID)
	return nil
}

func (r *MemoryCacheRepository) CheckRateLimit(_ context.Context, studentID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[studentID]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[studentID] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}
