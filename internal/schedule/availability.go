package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Day is the availability summary for one calendar date.
type Day struct {
	Date      string       `json:"date"`
	Weekday   time.Weekday `json:"-"`
	Today     bool         `json:"today"`
	Closed    bool         `json:"closed"`
	Open      []string     `json:"open"`
	Booked    []string     `json:"booked"`
	Exhausted bool         `json:"exhausted"`
}

// Compute returns per-day availability for horizon days starting at start.
// booked maps a date to the times already held by Confirmed appointments.
// The result is advisory; the booking path re-validates at commit time.
func Compute(cal Calendar, start time.Time, horizon int, now time.Time, booked map[string][]string) []Day {
	if horizon < 1 {
		horizon = 1
	}
	local := cal.In(now)
	today := local.Format(DateLayout)
	first := cal.In(start)
	first = time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, cal.loc())

	days := make([]Day, 0, horizon)
	for i := 0; i < horizon; i++ {
		d := first.AddDate(0, 0, i)
		day := Day{
			Date:    d.Format(DateLayout),
			Weekday: d.Weekday(),
			Open:    []string{},
			Booked:  []string{},
		}
		day.Today = day.Date == today
		if cal.IsClosed(d) {
			day.Closed = true
			days = append(days, day)
			continue
		}

		taken := make(map[string]struct{}, len(booked[day.Date]))
		for _, t := range booked[day.Date] {
			taken[t] = struct{}{}
			day.Booked = append(day.Booked, t)
		}
		sort.Strings(day.Booked)

		past := day.Date < today
		for _, slot := range cal.Slots() {
			if _, ok := taken[slot]; ok {
				continue
			}
			if past {
				continue
			}
			if day.Today {
				if h, _ := hourOf(slot); h <= local.Hour() {
					continue
				}
			}
			day.Open = append(day.Open, slot)
		}
		day.Exhausted = len(day.Open) == 0
		days = append(days, day)
	}
	return days
}

// Render formats days as the agenda block handed to the reply generator.
func Render(cal Calendar, days []Day) string {
	var b strings.Builder
	for i, d := range days {
		if i > 0 {
			b.WriteByte('\n')
		}
		name := strings.ToUpper(SpanishWeekday(d.Weekday))
		switch {
		case d.Closed:
			fmt.Fprintf(&b, "%s (%s): CERRADO. NO AGENDAR.", d.Date, name)
		case d.Exhausted:
			fmt.Fprintf(&b, "%s (%s): AGOTADO. Sin horarios libres.", d.Date, name)
		default:
			fmt.Fprintf(&b, "%s (%s): Libre %s", d.Date, name, strings.Join(d.Open, ", "))
			if cal.LunchHour >= 0 {
				fmt.Fprintf(&b, " (Almuerzo %s)", FormatHour(cal.LunchHour))
			}
		}
	}
	return b.String()
}
