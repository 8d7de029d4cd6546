package database

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	indexMentorSlot  = "ux_bookings_mentor_slot"
	indexStudentSlot = "ux_bookings_student_slot"
)

type dialect struct {
	name   string
	schema []string
	rebind func(string) string
	// classify maps a driver error to a ledger error, or returns nil.
	classify func(error) error
}

// The two partial unique indexes are the conflict check: an INSERT that
// would create a second active booking for the same key fails atomically.
var activeIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + indexMentorSlot + `
        ON bookings(mentor_id, session_date, time_slot) WHERE status = 'booked'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + indexStudentSlot + `
        ON bookings(student_id, session_date, time_slot) WHERE status = 'booked'`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_student_id ON bookings(student_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_session_date ON bookings(session_date)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: append([]string{
		`CREATE TABLE IF NOT EXISTS mentors (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT '',
            company TEXT NOT NULL DEFAULT '',
            bio TEXT NOT NULL DEFAULT '',
            skills TEXT NOT NULL DEFAULT '[]',
            availability TEXT NOT NULL DEFAULT '[]',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            booking_id INTEGER PRIMARY KEY AUTOINCREMENT,
            student_id INTEGER NOT NULL,
            mentor_id INTEGER NOT NULL REFERENCES mentors(id),
            session_date TEXT NOT NULL,
            time_slot TEXT NOT NULL,
            topic TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'booked'
                CHECK (status IN ('booked', 'completed', 'cancelled')),
            transitioned_by INTEGER,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
	}, activeIndexes...),
	rebind:   func(q string) string { return q },
	classify: classifySQLite,
}

var postgresDialect = dialect{
	name: "postgres",
	schema: append([]string{
		`CREATE TABLE IF NOT EXISTS mentors (
            id BIGINT PRIMARY KEY,
            name TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT '',
            company TEXT NOT NULL DEFAULT '',
            bio TEXT NOT NULL DEFAULT '',
            skills TEXT NOT NULL DEFAULT '[]',
            availability TEXT NOT NULL DEFAULT '[]',
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            booking_id BIGSERIAL PRIMARY KEY,
            student_id BIGINT NOT NULL,
            mentor_id BIGINT NOT NULL REFERENCES mentors(id),
            session_date CHAR(10) NOT NULL,
            time_slot TEXT NOT NULL,
            topic TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'booked'
                CHECK (status IN ('booked', 'completed', 'cancelled')),
            transitioned_by BIGINT,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )`,
	}, activeIndexes...),
	rebind:   rebindDollar,
	classify: classifyPostgres,
}

// rebindDollar rewrites '?' placeholders into $1..$n.
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func classifySQLite(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique:
		// "UNIQUE constraint failed: bookings.student_id, bookings.session_date, ..."
		msg := sqliteErr.Error()
		if strings.Contains(msg, "bookings.student_id") || strings.Contains(msg, indexStudentSlot) {
			return &ConflictError{Kind: ConflictStudentSlot}
		}
		if strings.Contains(msg, "bookings.mentor_id") || strings.Contains(msg, indexMentorSlot) {
			return &ConflictError{Kind: ConflictMentorSlot}
		}
	case sqlite3.ErrConstraintForeignKey:
		return ErrMentorNotFound
	}
	return nil
}

func classifyPostgres(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case "23505":
		switch pqErr.Constraint {
		case indexStudentSlot:
			return &ConflictError{Kind: ConflictStudentSlot}
		case indexMentorSlot:
			return &ConflictError{Kind: ConflictMentorSlot}
		}
	case "23503":
		return ErrMentorNotFound
	}
	return nil
}
