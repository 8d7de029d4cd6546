package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mentorship/internal/models"
)

const bookingColumns = `booking_id, student_id, mentor_id, session_date, time_slot, topic, status,
        transitioned_by, created_at, updated_at`

// CreateBooking inserts an active booking. The partial unique indexes make
// the check-and-insert atomic: a concurrent duplicate fails with *ConflictError.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	slot, err := models.CanonicalSlot(b.TimeSlot)
	if err != nil {
		return fmt.Errorf("booking time slot: %w", err)
	}
	b.TimeSlot = slot

	now := time.Now().UTC()
	b.Status = models.StatusBooked
	b.TransitionedBy = nil
	b.CreatedAt = now
	b.UpdatedAt = now

	query := db.q(`
        INSERT INTO bookings (student_id, mentor_id, session_date, time_slot, topic, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING booking_id`)

	err = db.QueryRowContext(ctx, query,
		b.StudentID, b.MentorID, b.SessionDate, b.TimeSlot, b.Topic, b.Status, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		if classified := db.dialect.classify(err); classified != nil {
			return classified
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	if db.logger != nil {
		db.logger.Debug().
			Int64("booking_id", b.ID).
			Int64("student_id", b.StudentID).
			Int64("mentor_id", b.MentorID).
			Str("session_date", b.SessionDate).
			Str("time_slot", b.TimeSlot).
			Msg("booking stored")
	}
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, db.q(`SELECT `+bookingColumns+` FROM bookings WHERE booking_id = ?`), id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return b, nil
}

// UpdateBookingStatus moves an active booking to a terminal status. The
// status guard in the WHERE clause makes a lost race return ErrInvalidTransition.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, to models.Status, actorID int64) (*models.Booking, error) {
	if !models.StatusBooked.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: booked -> %s", ErrInvalidTransition, to)
	}

	res, err := db.ExecContext(ctx, db.q(`
        UPDATE bookings
        SET status = ?, transitioned_by = ?, updated_at = ?
        WHERE booking_id = ? AND status = ?`),
		to, actorID, time.Now().UTC(), id, models.StatusBooked,
	)
	if err != nil {
		return nil, fmt.Errorf("update booking %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		current, err := db.GetBooking(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}

	return db.GetBooking(ctx, id)
}

// IsSlotBooked reports whether the mentor already has an active booking.
func (db *DB) IsSlotBooked(ctx context.Context, mentorID int64, date, slot string) (bool, error) {
	return db.exists(ctx, `
        SELECT COUNT(*) FROM bookings
        WHERE mentor_id = ? AND session_date = ? AND time_slot = ? AND status = ?`,
		mentorID, date, slot, models.StatusBooked)
}

// HasStudentBooking reports whether the student is already busy in that slot.
func (db *DB) HasStudentBooking(ctx context.Context, studentID int64, date, slot string) (bool, error) {
	return db.exists(ctx, `
        SELECT COUNT(*) FROM bookings
        WHERE student_id = ? AND session_date = ? AND time_slot = ? AND status = ?`,
		studentID, date, slot, models.StatusBooked)
}

func (db *DB) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := db.QueryRowContext(ctx, db.q(query), args...).Scan(&count); err != nil {
		return false, fmt.Errorf("count bookings: %w", err)
	}
	return count > 0, nil
}

// GetBookedSessions lists the mentor's active sessions with from <= date <= to.
func (db *DB) GetBookedSessions(ctx context.Context, mentorID int64, from, to string) ([]models.SessionKey, error) {
	rows, err := db.QueryContext(ctx, db.q(`
        SELECT session_date, time_slot FROM bookings
        WHERE mentor_id = ? AND status = ? AND session_date >= ? AND session_date <= ?
        ORDER BY session_date, time_slot`),
		mentorID, models.StatusBooked, from, to)
	if err != nil {
		return nil, fmt.Errorf("query booked sessions: %w", err)
	}
	defer rows.Close()

	var keys []models.SessionKey
	for rows.Next() {
		var k models.SessionKey
		if err := rows.Scan(&k.Date, &k.Slot); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// GetStudentBookings returns every booking of a student, newest session first.
func (db *DB) GetStudentBookings(ctx context.Context, studentID int64) ([]*models.Booking, error) {
	return db.queryBookings(ctx, `
        SELECT `+bookingColumns+` FROM bookings
        WHERE student_id = ?
        ORDER BY session_date DESC, booking_id DESC`, studentID)
}

// GetMentorBookings returns every booking held with a mentor, newest session first.
func (db *DB) GetMentorBookings(ctx context.Context, mentorID int64) ([]*models.Booking, error) {
	return db.queryBookings(ctx, `
        SELECT `+bookingColumns+` FROM bookings
        WHERE mentor_id = ?
        ORDER BY session_date DESC, booking_id DESC`, mentorID)
}

// GetBookingsBySessionRange returns bookings of any status with from <= date <= to.
func (db *DB) GetBookingsBySessionRange(ctx context.Context, from, to string) ([]*models.Booking, error) {
	return db.queryBookings(ctx, `
        SELECT `+bookingColumns+` FROM bookings
        WHERE session_date >= ? AND session_date <= ?
        ORDER BY session_date, mentor_id, time_slot`, from, to)
}

// GetActiveBookingsUntil returns active bookings whose session date is on or before date.
func (db *DB) GetActiveBookingsUntil(ctx context.Context, date string) ([]*models.Booking, error) {
	return db.queryBookings(ctx, `
        SELECT `+bookingColumns+` FROM bookings
        WHERE status = ? AND session_date <= ?
        ORDER BY session_date, booking_id`, models.StatusBooked, date)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, db.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(s scanner) (*models.Booking, error) {
	var (
		b              models.Booking
		status         string
		transitionedBy sql.NullInt64
	)
	err := s.Scan(&b.ID, &b.StudentID, &b.MentorID, &b.SessionDate, &b.TimeSlot, &b.Topic, &status,
		&transitionedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = models.Status(status)
	if transitionedBy.Valid {
		actor := transitionedBy.Int64
		b.TransitionedBy = &actor
	}
	return &b, nil
}
