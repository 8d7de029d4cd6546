package models

import "time"

type Mentor struct {
	ID           int64     `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Role         string    `json:"role" yaml:"role"`
	Company      string    `json:"company,omitempty" yaml:"company"`
	Bio          string    `json:"bio,omitempty" yaml:"bio"`
	Skills       []string  `json:"skills" yaml:"skills"`
	Availability []string  `json:"availability" yaml:"availability"`
	CreatedAt    time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time `json:"updatedAt" yaml:"-"`
}

// HasSlot matches labels by canonical form, so "wed 02:00 pm" finds "Wed 2:00 PM".
func (m *Mentor) HasSlot(label string) bool {
	want, err := CanonicalSlot(label)
	if err != nil {
		return false
	}
	for _, s := range m.Availability {
		if c, err := CanonicalSlot(s); err == nil && c == want {
			return true
		}
	}
	return false
}
