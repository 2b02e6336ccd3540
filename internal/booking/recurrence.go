package booking

import (
	"fmt"
	"iter"
	"slices"
	"time"
)

// DefaultMaxOccurrences bounds every expansion.
const DefaultMaxOccurrences = 365

const (
	// MaxInterval bounds the step between occurrences.
	MaxInterval = 99
	// maxYear is the last year a Date can be written as YYYY-MM-DD.
	maxYear = 9999
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Pattern describes a recurring booking. Exactly one of Count and Until
// terminates it.
//
// Count is the number of occurrences produced. Monthly steps that land on a
// missing day-of-month and steps on an exception date are dropped and do not
// count, so the walk continues until Count dates are found.
type Pattern struct {
	Frequency  Frequency      `json:"frequency"`
	Interval   int            `json:"interval"`
	Count      int            `json:"count,omitempty"`
	Until      *Date          `json:"until,omitempty"`
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"`
	Exceptions []Date         `json:"exceptions,omitempty"`
	BaseSlot   TimeSlot       `json:"base_slot"`
}

func (p Pattern) validate() error {
	if err := p.BaseSlot.Validate(); err != nil {
		return err
	}
	switch p.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidPattern, p.Frequency)
	}
	if p.Interval < 1 || p.Interval > MaxInterval {
		return fmt.Errorf("%w: interval must be between 1 and %d", ErrInvalidPattern, MaxInterval)
	}
	hasCount := p.Count != 0
	hasUntil := p.Until != nil
	if hasCount == hasUntil {
		return fmt.Errorf("%w: exactly one of count or until is required", ErrInvalidPattern)
	}
	if hasCount && p.Count < 0 {
		return fmt.Errorf("%w: count must be positive", ErrInvalidPattern)
	}
	if hasUntil && p.Until.Before(p.BaseSlot.Date) {
		return fmt.Errorf("%w: until %s is before the first date %s", ErrInvalidPattern, p.Until, p.BaseSlot.Date)
	}
	if len(p.DaysOfWeek) > 0 {
		if p.Frequency != FrequencyWeekly {
			return fmt.Errorf("%w: days_of_week only applies to weekly patterns", ErrInvalidPattern)
		}
		for _, day := range p.DaysOfWeek {
			if day < time.Sunday || day > time.Saturday {
				return fmt.Errorf("%w: invalid weekday %d", ErrInvalidPattern, day)
			}
		}
	}
	return nil
}

// Expand returns the ordered occurrences of p using DefaultMaxOccurrences.
func Expand(p Pattern) ([]TimeSlot, error) {
	return ExpandWithLimit(p, DefaultMaxOccurrences)
}

// ExpandWithLimit returns the ordered occurrences of p. It fails with
// ErrRecurrenceTooLarge, before producing anything, when the terminator asks
// for more than limit occurrences, and with ErrInvalidPattern when an
// occurrence would fall after year 9999. A limit outside
// 1..DefaultMaxOccurrences falls back to DefaultMaxOccurrences.
func ExpandWithLimit(p Pattern, limit int) ([]TimeSlot, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultMaxOccurrences {
		limit = DefaultMaxOccurrences
	}

	if p.Count > limit {
		return nil, fmt.Errorf("%w: count %d exceeds %d", ErrRecurrenceTooLarge, p.Count, limit)
	}

	var slots []TimeSlot
	for date, err := range p.dates() {
		if err != nil {
			return nil, err
		}
		if len(slots) == limit {
			return nil, fmt.Errorf("%w: dates through %s exceed %d occurrences", ErrRecurrenceTooLarge, p.Until, limit)
		}
		slots = append(slots, p.BaseSlot.OnDate(date))
	}
	return slots, nil
}

// dates yields occurrence dates in order until the terminator is reached.
// It stops with an error on the first attempt past maxYear.
func (p Pattern) dates() iter.Seq2[Date, error] {
	return func(yield func(Date, error) bool) {
		excluded := make(map[Date]struct{}, len(p.Exceptions))
		for _, d := range p.Exceptions {
			excluded[d] = struct{}{}
		}

		// A Feb 29 base only lands every four years or so; bound the walk anyway.
		maxSteps := (DefaultMaxOccurrences+1)*48 + len(excluded)
		cur := newCursor(p)
		produced := 0
		for step := 0; step < maxSteps; step++ {
			a := cur.next()
			if p.Until != nil && !a.within(*p.Until) {
				return
			}
			if a.date.Year > maxYear {
				yield(Date{}, fmt.Errorf("%w: occurrence falls after year %d", ErrInvalidPattern, maxYear))
				return
			}
			if a.missing {
				continue
			}
			if _, skip := excluded[a.date]; skip {
				continue
			}
			if !yield(a.date, nil) {
				return
			}
			produced++
			if p.Count > 0 && produced == p.Count {
				return
			}
		}
	}
}

// attempt is one candidate step of a pattern. A missing attempt is a monthly
// step whose month lacks the base day-of-month; date then holds the last day
// of that month.
type attempt struct {
	date    Date
	missing bool
}

func (a attempt) within(until Date) bool {
	if a.missing {
		return a.date.Before(until)
	}
	return !a.date.After(until)
}

// cursor walks a pattern's attempts in chronological order.
type cursor struct {
	p     Pattern
	k     int
	days  []time.Weekday
	week  Date
	index int
}

func newCursor(p Pattern) *cursor {
	c := &cursor{p: p}
	if p.Frequency == FrequencyWeekly && len(p.DaysOfWeek) > 0 {
		days := slices.Clone(p.DaysOfWeek)
		slices.Sort(days)
		c.days = slices.Compact(days)
		c.week = p.BaseSlot.Date.AddDays(-int(p.BaseSlot.Date.Weekday()))
	}
	return c
}

func (c *cursor) next() attempt {
	base := c.p.BaseSlot.Date
	switch c.p.Frequency {
	case FrequencyDaily:
		a := attempt{date: base.AddDays(c.k * c.p.Interval)}
		c.k++
		return a
	case FrequencyWeekly:
		if len(c.days) == 0 {
			a := attempt{date: base.AddDays(c.k * 7 * c.p.Interval)}
			c.k++
			return a
		}
		return c.nextWeekday()
	default:
		a := addMonths(base, c.k*c.p.Interval)
		c.k++
		return a
	}
}

// nextWeekday returns the next listed weekday on or after the base date,
// jumping Interval weeks after each completed week.
func (c *cursor) nextWeekday() attempt {
	base := c.p.BaseSlot.Date
	for {
		if c.index >= len(c.days) {
			c.index = 0
			c.week = c.week.AddDays(7 * c.p.Interval)
		}
		date := c.week.AddDays(int(c.days[c.index]))
		c.index++
		if date.Before(base) {
			continue
		}
		return attempt{date: date}
	}
}

// addMonths moves d forward by months keeping its day-of-month.
func addMonths(d Date, months int) attempt {
	total := int(d.Month) - 1 + months
	year := d.Year + total/12
	month := time.Month(total%12 + 1)
	last := daysIn(year, month)
	if d.Day > last {
		return attempt{date: Date{Year: year, Month: month, Day: last}, missing: true}
	}
	return attempt{date: Date{Year: year, Month: month, Day: d.Day}}
}
