package api

import (
	"context"
	"fmt"
	"net/http"

	"mentorship/internal/config"
	"mentorship/internal/models"
	"mentorship/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// BookingAPI is the booking service surface exposed over HTTP.
type BookingAPI interface {
	RequestBooking(ctx context.Context, req service.BookingRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error)
	CompleteBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error)
	ListStudentBookings(ctx context.Context, studentID int64) ([]*models.Booking, error)
	ListMentorBookings(ctx context.Context, mentorID int64) ([]*models.Booking, error)
	ListOpenSlots(ctx context.Context, mentorID int64, date string) ([]string, error)
	ListMentors(ctx context.Context) ([]*models.Mentor, error)
	GetMentor(ctx context.Context, mentorID int64) (*models.Mentor, error)
	BookingsInRange(ctx context.Context, from, to string) ([]*models.Booking, error)
}

// ReadinessCheck reports whether storage is reachable.
type ReadinessCheck func(ctx context.Context) error

type HTTPServer struct {
	cfg      config.APIConfig
	svc      BookingAPI
	ready    ReadinessCheck
	auth     *HTTPAuth
	validate *validator.Validate
	logger   *zerolog.Logger
	server   *http.Server
}

func NewHTTPServer(cfg config.APIConfig, svc BookingAPI, ready ReadinessCheck, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	srv := &HTTPServer{
		cfg:      cfg,
		svc:      svc,
		ready:    ready,
		auth:     NewHTTPAuth(cfg),
		validate: validator.New(),
		logger:   logger,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	return srv
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Wrap)

		r.Get("/mentors", s.handleListMentors)
		r.Get("/mentors/{mentorId}", s.handleGetMentor)
		r.Get("/mentors/{mentorId}/slots", s.handleMentorSlots)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireActor)

			r.Post("/bookings", s.handleCreateBooking)
			r.Get("/bookings", s.handleListBookings)
			r.Get("/bookings/{bookingId}", s.handleGetBooking)
			r.Delete("/bookings/{bookingId}", s.handleCancelBooking)
			r.With(RequireAdmin).Post("/bookings/{bookingId}/complete", s.handleCompleteBooking)
			r.With(RequireAdmin).Get("/mentors/{mentorId}/bookings", s.handleMentorBookings)
			r.With(RequireAdmin).Get("/admin/bookings/export", s.handleExport)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
