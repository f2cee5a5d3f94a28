// Package schedule holds the business calendar: which hours are bookable,
// which weekdays are closed, how loosely written hours become canonical
// "HH:MM" slots, and which slots are still open over a horizon of days.
//
// Everything in this package is pure. The current instant is always passed
// in by the caller so results are reproducible in tests.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for appointments.
const DateLayout = "2006-01-02"

// Validation errors returned by ParseDate and ValidateSlot.
var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrClosedDay    = errors.New("business is closed that day")
	ErrOutsideHours = errors.New("time is outside business hours")
	ErrSlotInPast   = errors.New("slot is in the past")
)

// Calendar describes opening hours. Hours are whole hours in [0,24].
// LunchHour < 0 disables the lunch break.
type Calendar struct {
	OpenHour   int
	CloseHour  int
	LunchHour  int
	ClosedDays []time.Weekday
	Location   *time.Location
}

// DefaultCalendar is open 08:00–20:00, closed for lunch at 12:00 and on
// Sundays, in UTC-4.
func DefaultCalendar() Calendar {
	return Calendar{
		OpenHour:   8,
		CloseHour:  20,
		LunchHour:  12,
		ClosedDays: []time.Weekday{time.Sunday},
		Location:   time.FixedZone("UTC-4", -4*60*60),
	}
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// In converts t to the calendar's timezone.
func (c Calendar) In(t time.Time) time.Time { return t.In(c.loc()) }

// Today returns the calendar date of now in the calendar's timezone.
func (c Calendar) Today(now time.Time) string { return c.In(now).Format(DateLayout) }

// InHours reports whether hour h is inside [OpenHour, CloseHour).
func (c Calendar) InHours(h int) bool { return h >= c.OpenHour && h < c.CloseHour }

// IsClosed reports whether the weekday of d is a closed day.
func (c Calendar) IsClosed(d time.Time) bool {
	wd := d.Weekday()
	for _, cd := range c.ClosedDays {
		if cd == wd {
			return true
		}
	}
	return false
}

// Slots returns the hourly grid between opening and closing, lunch excluded.
func (c Calendar) Slots() []string {
	out := make([]string, 0, c.CloseHour-c.OpenHour)
	for h := c.OpenHour; h < c.CloseHour; h++ {
		if h == c.LunchHour {
			continue
		}
		out = append(out, FormatHour(h))
	}
	return out
}

// IsSlot reports whether hhmm is on the bookable grid.
func (c Calendar) IsSlot(hhmm string) bool {
	for _, s := range c.Slots() {
		if s == hhmm {
			return true
		}
	}
	return false
}

// ParseDate parses a YYYY-MM-DD date at midnight in the calendar's timezone.
func (c Calendar) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), c.loc())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// ValidateSlot checks that (date, hhmm) is an open, future slot.
func (c Calendar) ValidateSlot(date, hhmm string, now time.Time) error {
	d, err := c.ParseDate(date)
	if err != nil {
		return err
	}
	if c.IsClosed(d) {
		return ErrClosedDay
	}
	if !c.IsSlot(hhmm) {
		return ErrOutsideHours
	}
	local := c.In(now)
	today := local.Format(DateLayout)
	switch {
	case date < today:
		return ErrSlotInPast
	case date == today:
		h, _ := hourOf(hhmm)
		if h <= local.Hour() {
			return ErrSlotInPast
		}
	}
	return nil
}

// FormatHour renders h as "HH:00".
func FormatHour(h int) string { return fmt.Sprintf("%02d:00", h) }

func hourOf(hhmm string) (int, bool) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0, false
	}
	return h, true
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "domingo": time.Sunday,
	"monday": time.Monday, "lunes": time.Monday,
	"tuesday": time.Tuesday, "martes": time.Tuesday,
	"wednesday": time.Wednesday, "miercoles": time.Wednesday, "miércoles": time.Wednesday,
	"thursday": time.Thursday, "jueves": time.Thursday,
	"friday": time.Friday, "viernes": time.Friday,
	"saturday": time.Saturday, "sabado": time.Saturday, "sábado": time.Saturday,
}

// ParseWeekday accepts English or Spanish weekday names, case-insensitive.
func ParseWeekday(s string) (time.Weekday, bool) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	return wd, ok
}

var spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

// SpanishWeekday returns the lowercase Spanish name of wd.
func SpanishWeekday(wd time.Weekday) string { return spanishWeekdays[wd] }
