package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mentorship/internal/domain"
	"mentorship/internal/events"
	"mentorship/internal/metrics"
	"mentorship/internal/models"

	"github.com/rs/zerolog"
)

// NotificationWorker fans booking events out to the configured sinks on its
// own goroutine. Enqueue never blocks: when the queue is full the
// notification is dropped and logged.
type NotificationWorker struct {
	sinks  []domain.NotificationSink
	retry  RetryPolicy
	queue  chan events.BookingEventPayload
	logger *zerolog.Logger
	sleep  func(context.Context, time.Duration) error

	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

func NewNotificationWorker(sinks []domain.NotificationSink, retry RetryPolicy, queueSize int, logger *zerolog.Logger) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = models.NotificationQueueSize
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &NotificationWorker{
		sinks:  sinks,
		retry:  retry,
		queue:  make(chan events.BookingEventPayload, queueSize),
		logger: logger,
		sleep:  sleepContext,
	}
}

// Subscribe attaches the worker to every booking event on bus.
func (w *NotificationWorker) Subscribe(bus *events.EventBus) {
	bus.Subscribe(w.HandleEvent, events.BookingEvents...)
}

// HandleEvent is an events.EventHandler.
func (w *NotificationWorker) HandleEvent(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}
	if payload.Event == "" {
		payload.Event = event.Type
	}
	if !w.Enqueue(payload) {
		return fmt.Errorf("notification queue full, %s for booking %d dropped", payload.Event, payload.BookingID)
	}
	return nil
}

// Enqueue reports whether the notification was accepted.
func (w *NotificationWorker) Enqueue(n events.BookingEventPayload) bool {
	select {
	case w.queue <- n:
		metrics.SetNotificationQueueDepth(len(w.queue))
		return true
	default:
		metrics.IncNotification("queue", "dropped")
		return false
	}
}

// Start launches the delivery loop. It returns immediately.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true

	w.wg.Add(1)
	go w.run(ctx)
}

// Wait blocks until the delivery loop has exited.
func (w *NotificationWorker) Wait() {
	w.wg.Wait()
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer w.wg.Done()
	w.logger.Info().Int("sinks", len(w.sinks)).Msg("notification worker started")
	defer w.logger.Info().Msg("notification worker stopped")

	for {
		select {
		case <-ctx.Done():
			if pending := len(w.queue); pending > 0 {
				w.logger.Warn().Int("pending", pending).Msg("notifications discarded on shutdown")
			}
			return
		case n := <-w.queue:
			metrics.SetNotificationQueueDepth(len(w.queue))
			w.deliver(ctx, n)
		}
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, n events.BookingEventPayload) {
	for _, sink := range w.sinks {
		attempts, err := w.retry.Do(ctx, w.sleep, func() error {
			return sink.Deliver(ctx, n)
		})
		if err != nil {
			metrics.IncNotification(sink.Name(), "failed")
			w.logger.Error().Err(err).
				Str("sink", sink.Name()).
				Str("event", n.Event).
				Int64("booking_id", n.BookingID).
				Int("attempts", attempts).
				Msg("notification delivery failed")
			continue
		}
		metrics.IncNotification(sink.Name(), "delivered")
	}
}
