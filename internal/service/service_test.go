package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mentorship/internal/config"
	"mentorship/internal/database"
	"mentorship/internal/events"
	"mentorship/internal/models"
	"mentorship/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// 2026-10-17 is a Saturday.
var testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

var (
	student31 = models.Actor{ID: 31, Role: models.RoleStudent}
	student44 = models.Actor{ID: 44, Role: models.RoleStudent}
	admin     = models.Actor{ID: 1, Role: models.RoleAdmin}
)

type recorder struct {
	mu     sync.Mutex
	events []events.BookingEventPayload
}

func (r *recorder) handle(e *events.Event) error {
	var p events.BookingEventPayload
	if err := e.Decode(&p); err != nil {
		return err
	}
	r.mu.Lock()
	r.events = append(r.events, p)
	r.mu.Unlock()
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Event)
	}
	return out
}

type testEnv struct {
	db        *database.DB
	cache     *repository.MemoryCacheRepository
	catalog   *AvailabilityCatalog
	resolver  *ConflictResolver
	lifecycle *LifecycleManager
	svc       *BookingService
	events    *recorder
}

func newTestEnv(t *testing.T, dbPath string, cfg config.BookingConfig) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(dbPath, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.UpsertMentors(context.Background(), []models.Mentor{
		{ID: 5, Name: "Arjun Mehta", Role: "Engineering Manager", Availability: []string{"Mon 10:00 AM", "Wed 2:00 PM"}},
		{ID: 7, Name: "Sarah Chen", Role: "Senior Engineer", Availability: []string{"Mon 10:00 AM", "Thu 4:00 PM"}},
	}))

	rec := &recorder{}
	bus := events.NewEventBus(&logger)
	bus.Subscribe(rec.handle, events.BookingEvents...)

	cache := repository.NewMemoryCacheRepository(time.Minute)
	catalog := NewAvailabilityCatalog(db, cache, &logger)
	resolver := NewConflictResolver(catalog, db, time.UTC, &logger)
	resolver.now = func() time.Time { return testNow }
	lifecycle := NewLifecycleManager(db, catalog, bus, &logger)
	svc := NewBookingService(catalog, resolver, lifecycle, db, cache, bus, cfg, time.UTC, &logger)
	svc.now = func() time.Time { return testNow }

	return &testEnv{
		db:        db,
		cache:     cache,
		catalog:   catalog,
		resolver:  resolver,
		lifecycle: lifecycle,
		svc:       svc,
		events:    rec,
	}
}

func newMemoryEnv(t *testing.T) *testEnv {
	return newTestEnv(t, ":memory:", config.BookingConfig{})
}

func newFileEnv(t *testing.T) *testEnv {
	return newTestEnv(t, filepath.Join(t.TempDir(), "service.db"), config.BookingConfig{})
}
