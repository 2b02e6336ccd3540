// Package booking implements conflict-aware field scheduling: slot overlap,
// recurrence expansion, reservation booking and waitlist promotion.
package booking

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	timeOfDayLayout = "15:04"
	minutesPerDay   = 24 * 60
)

// Date is a calendar date without a time-of-day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(raw string) (Date, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return DateOf(parsed), nil
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// Compare returns -1, 0 or 1 when d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	return d.Time().Compare(other.Time())
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

// DaysUntil returns the number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time().Sub(d.Time()) / (24 * time.Hour))
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
// 24:00 is allowed as an end-of-day bound.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hours and minutes.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS. Seconds are truncated.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	if raw == "24:00" || raw == "24:00:00" {
		return minutesPerDay, nil
	}
	for _, layout := range []string{timeOfDayLayout, "15:04:05"} {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			return NewTimeOfDay(parsed.Hour(), parsed.Minute()), nil
		}
	}
	return 0, fmt.Errorf("time must be HH:MM, got %q", raw)
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= minutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeSlot is a bookable interval on one calendar date. Start is inclusive,
// End is exclusive.
type TimeSlot struct {
	Date  Date      `json:"date"`
	Start TimeOfDay `json:"start_time"`
	End   TimeOfDay `json:"end_time"`
}

// NewTimeSlot validates and returns a slot.
func NewTimeSlot(date Date, start, end TimeOfDay) (TimeSlot, error) {
	slot := TimeSlot{Date: date, Start: start, End: end}
	if err := slot.Validate(); err != nil {
		return TimeSlot{}, err
	}
	return slot, nil
}

// Validate reports ErrInvalidSlot when the slot has no date, a time outside
// the day, or a start that is not before its end.
func (s TimeSlot) Validate() error {
	if s.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidSlot)
	}
	if !s.Start.Valid() || !s.End.Valid() {
		return fmt.Errorf("%w: times must be within the day", ErrInvalidSlot)
	}
	if s.Start >= s.End {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidSlot, s.Start, s.End)
	}
	return nil
}

// Overlaps reports whether both slots share a date and their half-open
// intervals intersect. Touching boundaries do not overlap.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	if s.Date != other.Date {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

// OnDate returns the same time window on another date.
func (s TimeSlot) OnDate(date Date) TimeSlot {
	return TimeSlot{Date: date, Start: s.Start, End: s.End}
}

// StartTime returns the slot start as an instant in loc.
func (s TimeSlot) StartTime(loc *time.Location) time.Time {
	return time.Date(s.Date.Year, s.Date.Month, s.Date.Day, 0, int(s.Start), 0, 0, loc)
}

// EndTime returns the slot end as an instant in loc.
func (s TimeSlot) EndTime(loc *time.Location) time.Time {
	return time.Date(s.Date.Year, s.Date.Month, s.Date.Day, 0, int(s.End), 0, 0, loc)
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Date, s.Start, s.End)
}
