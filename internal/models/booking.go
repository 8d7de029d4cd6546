package models

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusBooked    Status = "booked"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions lists every allowed move; anything absent is rejected.
var transitions = map[Status][]Status{
	StatusBooked: {StatusCompleted, StatusCancelled},
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown booking status %q", raw)
	}
	return s, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusBooked, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID             int64     `json:"bookingId"`
	StudentID      int64     `json:"studentId"`
	MentorID       int64     `json:"mentorId"`
	SessionDate    string    `json:"sessionDate"` // YYYY-MM-DD, see DateLayout
	TimeSlot       string    `json:"timeSlot"`
	Topic          string    `json:"topic"`
	Status         Status    `json:"status"`
	TransitionedBy *int64    `json:"transitionedBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (b *Booking) IsActive() bool {
	return b.Status == StatusBooked
}

// StartsAt resolves the session start in loc from SessionDate and TimeSlot.
func (b *Booking) StartsAt(loc *time.Location) (time.Time, error) {
	slot, err := ParseSlot(b.TimeSlot)
	if err != nil {
		return time.Time{}, err
	}
	date, err := ParseDate(b.SessionDate, loc)
	if err != nil {
		return time.Time{}, err
	}
	return slot.On(date)
}

// SessionKey identifies one concrete occurrence of a weekly slot.
type SessionKey struct {
	Date string
	Slot string
}
