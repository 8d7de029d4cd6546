package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mentorship/internal/models"
)

const mentorColumns = `id, name, role, company, bio, skills, availability, created_at, updated_at`

// UpsertMentors seeds or refreshes the mentor catalog in one transaction.
func (db *DB) UpsertMentors(ctx context.Context, mentors []models.Mentor) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := db.q(`
        INSERT INTO mentors (` + mentorColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            name = excluded.name,
            role = excluded.role,
            company = excluded.company,
            bio = excluded.bio,
            skills = excluded.skills,
            availability = excluded.availability,
            updated_at = excluded.updated_at`)

	now := time.Now().UTC()
	for i := range mentors {
		m := &mentors[i]
		skills, err := json.Marshal(nonNil(m.Skills))
		if err != nil {
			return fmt.Errorf("marshal skills for mentor %d: %w", m.ID, err)
		}
		slots, err := models.CanonicalSlots(m.Availability)
		if err != nil {
			return fmt.Errorf("availability for mentor %d: %w", m.ID, err)
		}
		availability, err := json.Marshal(slots)
		if err != nil {
			return fmt.Errorf("marshal availability for mentor %d: %w", m.ID, err)
		}

		if _, err := tx.ExecContext(ctx, query,
			m.ID, m.Name, m.Role, m.Company, m.Bio, string(skills), string(availability), now, now,
		); err != nil {
			return fmt.Errorf("upsert mentor %d: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mentors: %w", err)
	}

	if db.logger != nil {
		db.logger.Info().Int("count", len(mentors)).Msg("mentor catalog upserted")
	}
	return nil
}

func (db *DB) GetMentor(ctx context.Context, id int64) (*models.Mentor, error) {
	row := db.QueryRowContext(ctx, db.q(`SELECT `+mentorColumns+` FROM mentors WHERE id = ?`), id)
	m, err := scanMentor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMentorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mentor %d: %w", id, err)
	}
	return m, nil
}

func (db *DB) ListMentors(ctx context.Context) ([]*models.Mentor, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+mentorColumns+` FROM mentors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list mentors: %w", err)
	}
	defer rows.Close()

	var mentors []*models.Mentor
	for rows.Next() {
		m, err := scanMentor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mentor: %w", err)
		}
		mentors = append(mentors, m)
	}
	return mentors, rows.Err()
}

// GetMentorSlots returns the advertised weekly slot labels of a mentor.
func (db *DB) GetMentorSlots(ctx context.Context, id int64) ([]string, error) {
	m, err := db.GetMentor(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.Availability, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMentor(s scanner) (*models.Mentor, error) {
	var (
		m                    models.Mentor
		skills, availability string
	)
	if err := s.Scan(&m.ID, &m.Name, &m.Role, &m.Company, &m.Bio, &skills, &availability, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(skills), &m.Skills); err != nil {
		return nil, fmt.Errorf("decode skills of mentor %d: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(availability), &m.Availability); err != nil {
		return nil, fmt.Errorf("decode availability of mentor %d: %w", m.ID, err)
	}
	return &m, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
