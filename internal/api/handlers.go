package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"mentorship/internal/export"
	"mentorship/internal/models"
	"mentorship/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createBookingRequest struct {
	MentorID    int64  `json:"mentorId" validate:"required,gt=0"`
	TimeSlot    string `json:"timeSlot" validate:"required"`
	Topic       string `json:"topic" validate:"max=500"`
	SessionDate string `json:"sessionDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("readiness check failed")
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *HTTPServer) handleListMentors(w http.ResponseWriter, r *http.Request) {
	mentors, err := s.svc.ListMentors(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"mentors": mentors})
}

func (s *HTTPServer) handleGetMentor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "mentorId")
	if !ok {
		return
	}
	mentor, err := s.svc.GetMentor(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mentor)
}

// handleMentorSlots returns a bare array of open slot labels.
func (s *HTTPServer) handleMentorSlots(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "mentorId")
	if !ok {
		return
	}
	slots, err := s.svc.ListOpenSlots(r.Context(), id, strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, r, http.StatusOK, slots)
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var req createBookingRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid JSON body", Code: codeValidation})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, validationResponse(err))
		return
	}

	booking, err := s.svc.RequestBooking(r.Context(), service.BookingRequest{
		StudentID:   actor.ID,
		MentorID:    req.MentorID,
		TimeSlot:    req.TimeSlot,
		Topic:       req.Topic,
		SessionDate: req.SessionDate,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, booking)
}

// handleListBookings lists the caller's own bookings. Admins may pass
// studentId to look at another student.
func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	studentID := actor.ID

	if raw := strings.TrimSpace(r.URL.Query().Get("studentId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "must be a positive id", Code: codeValidation, Field: "studentId"})
			return
		}
		if id != actor.ID && !actor.IsAdmin() {
			s.fail(w, r, service.ErrForbidden)
			return
		}
		studentID = id
	}

	bookings, err := s.svc.ListStudentBookings(r.Context(), studentID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleMentorBookings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "mentorId")
	if !ok {
		return
	}
	bookings, err := s.svc.ListMentorBookings(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	s.withBooking(w, r, s.svc.GetBooking)
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	s.withBooking(w, r, s.svc.CancelBooking)
}

func (s *HTTPServer) handleCompleteBooking(w http.ResponseWriter, r *http.Request) {
	s.withBooking(w, r, s.svc.CompleteBooking)
}

func (s *HTTPServer) withBooking(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id int64, actor models.Actor) (*models.Booking, error),
) {
	id, ok := pathID(w, r, "bookingId")
	if !ok {
		return
	}
	actor, _ := ActorFromContext(r.Context())
	booking, err := op(r.Context(), id, actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, booking)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))

	bookings, err := s.svc.BookingsInRange(r.Context(), from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	mentors, err := s.svc.ListMentors(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	names := make(map[int64]string, len(mentors))
	for _, m := range mentors {
		names[m.ID] = m.Name
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, from, to, bookings, names); err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(from, to)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "must be a positive id", Code: codeValidation, Field: param})
		return 0, false
	}
	return id, true
}

func validationResponse(err error) errorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errorResponse{Error: "invalid request", Code: codeValidation}
	}
	fe := verrs[0]
	field := jsonFieldNames[fe.Field()]
	if field == "" {
		field = fe.Field()
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "gt":
		msg = "must be a positive id"
	case "max":
		msg = fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		msg = "must be a YYYY-MM-DD date"
	default:
		msg = "is invalid"
	}
	return errorResponse{Error: msg, Code: codeValidation, Field: field}
}

var jsonFieldNames = map[string]string{
	"MentorID":    "mentorId",
	"TimeSlot":    "timeSlot",
	"Topic":       "topic",
	"SessionDate": "sessionDate",
}
