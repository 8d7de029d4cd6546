package models

import (
	"fmt"
	"strings"
	"time"
)

// Slot is a parsed weekly availability label such as "Mon 10:00 AM".
type Slot struct {
	Label   string
	Weekday time.Weekday
	Hour    int
	Minute  int
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func ParseSlot(label string) (Slot, error) {
	fields := strings.Fields(label)
	if len(fields) != 3 {
		return Slot{}, fmt.Errorf("slot %q: expected \"<day> <hh:mm> <AM|PM>\"", label)
	}

	day, ok := weekdays[strings.ToLower(fields[0])]
	if !ok {
		return Slot{}, fmt.Errorf("slot %q: unknown weekday %q", label, fields[0])
	}

	clock, err := time.Parse("3:04 PM", fields[1]+" "+strings.ToUpper(fields[2]))
	if err != nil {
		return Slot{}, fmt.Errorf("slot %q: invalid time: %w", label, err)
	}

	return Slot{Label: label, Weekday: day, Hour: clock.Hour(), Minute: clock.Minute()}, nil
}

// Canonical renders the slot as "Wed 2:00 PM". Labels naming the same weekly
// time share one canonical form.
func (s Slot) Canonical() string {
	clock := time.Date(2000, time.January, 1, s.Hour, s.Minute, 0, 0, time.UTC)
	return s.Weekday.String()[:3] + " " + clock.Format("3:04 PM")
}

func CanonicalSlot(label string) (string, error) {
	slot, err := ParseSlot(label)
	if err != nil {
		return "", err
	}
	return slot.Canonical(), nil
}

// CanonicalSlots canonicalizes an availability list and rejects two labels
// naming the same weekly time.
func CanonicalSlots(labels []string) ([]string, error) {
	out := make([]string, 0, len(labels))
	seen := make(map[string]string, len(labels))
	for _, label := range labels {
		canonical, err := CanonicalSlot(label)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[canonical]; dup {
			return nil, fmt.Errorf("duplicate slot %q (same time as %q)", label, prev)
		}
		seen[canonical] = label
		out = append(out, canonical)
	}
	return out, nil
}

// On returns the slot start on the given calendar day. The weekday must match.
func (s Slot) On(date time.Time) (time.Time, error) {
	if date.Weekday() != s.Weekday {
		return time.Time{}, fmt.Errorf("%s is a %s, slot %q is on %s",
			date.Format(DateLayout), date.Weekday(), s.Label, s.Weekday)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, s.Hour, s.Minute, 0, 0, date.Location()), nil
}

// Next returns the first start of the slot strictly after now.
func (s Slot) Next(now time.Time) time.Time {
	days := (int(s.Weekday) - int(now.Weekday()) + 7) % 7
	y, m, d := now.Date()
	start := time.Date(y, m, d+days, s.Hour, s.Minute, 0, 0, now.Location())
	if !start.After(now) {
		start = start.AddDate(0, 0, 7)
	}
	return start
}

func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(raw), loc)
}
