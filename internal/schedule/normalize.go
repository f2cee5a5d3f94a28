package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTime is returned by Normalize when the input cannot be turned
// into an in-hours canonical time. Callers drop the field.
var ErrInvalidTime = errors.New("invalid time")

// Normalize converts a loosely written hour ("5", "5pm", "05:00", "17:30")
// into canonical "HH:MM".
//
// Hours 1–7 are read as afternoon (h+12), 8–11 as morning and 12–23 as
// already 24-hour. Genuine early-morning hours can therefore never be
// expressed; the business does not open then. The result must fall inside
// the calendar's opening window.
func Normalize(raw string, cal Calendar) (string, error) {
	h, m, err := parseClock(raw)
	if err != nil {
		return "", err
	}
	if h >= 1 && h <= 7 {
		h += 12
	}
	if !cal.InHours(h) {
		return "", fmt.Errorf("%w: %q is outside %02d:00-%02d:00", ErrInvalidTime, raw, cal.OpenHour, cal.CloseHour)
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// parseClock keeps digits and the first colon, then splits hour and minutes.
// Without a colon, three or four digits are read as HMM / HHMM.
func parseClock(raw string) (hour, minute int, err error) {
	var b strings.Builder
	colon := false
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ':' && !colon:
			colon = true
			b.WriteRune(r)
		}
	}
	s := b.String()

	hs, ms := s, ""
	if i := strings.IndexByte(s, ':'); i >= 0 {
		hs, ms = s[:i], s[i+1:]
	} else if len(s) == 3 || len(s) == 4 {
		hs, ms = s[:len(s)-2], s[len(s)-2:]
	}
	if hs == "" || len(hs) > 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	hour, err = strconv.Atoi(hs)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	switch len(ms) {
	case 0:
		return hour, 0, nil
	case 2:
		minute, err = strconv.Atoi(ms)
		if err != nil || minute > 59 {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
		}
		return hour, minute, nil
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
}

// PadClock turns "9:00" into "09:00" and leaves other inputs untouched.
func PadClock(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 4 && s[1] == ':' {
		return "0" + s
	}
	return s
}
