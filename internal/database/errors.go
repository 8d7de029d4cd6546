package database

import "errors"

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrMentorNotFound    = errors.New("mentor not found")
	ErrConflict          = errors.New("slot conflict")
	ErrInvalidTransition = errors.New("invalid booking state transition")
)

type ConflictKind string

const (
	ConflictMentorSlot  ConflictKind = "mentor_slot"
	ConflictStudentSlot ConflictKind = "student_slot"
)

// ConflictError reports which exclusivity rule a booking would break.
// It carries no details of the existing booking.
type ConflictError struct {
	Kind ConflictKind
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case ConflictStudentSlot:
		return "student already holds a booking in this time slot"
	case ConflictMentorSlot:
		return "mentor time slot is already booked"
	default:
		return ErrConflict.Error()
	}
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
