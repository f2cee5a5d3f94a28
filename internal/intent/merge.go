package intent

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-booking-backend/internal/schedule"
)

// DefaultNameBlacklist lists greetings and filler words that models and
// customers tend to put where a name should be.
var DefaultNameBlacklist = []string{
	"hola", "buenas", "buenos", "buen", "dia", "dias", "tardes", "noches",
	"cliente", "usuario", "amigo", "amiga", "senor", "senora", "nombre",
	"desconocido", "anonimo", "null", "none", "n/a", "na", "test", "user",
	"customer", "hello", "hi",
}

// Merger folds observations into collected fields.
type Merger struct {
	Calendar  schedule.Calendar
	blacklist map[string]struct{}
}

// NewMerger returns a Merger validating times against cal. With no extra
// words the default blacklist is used.
func NewMerger(cal schedule.Calendar, blacklist ...string) Merger {
	if len(blacklist) == 0 {
		blacklist = DefaultNameBlacklist
	}
	m := Merger{Calendar: cal, blacklist: make(map[string]struct{}, len(blacklist))}
	for _, w := range blacklist {
		m.blacklist[fold(w)] = struct{}{}
	}
	return m
}

// Merge applies obs to prev and returns the new fields. Applying the same
// observation twice yields the same result as applying it once.
func (m Merger) Merge(prev Collected, obs Observed) Collected {
	next := prev

	if name, ok := trimmed(obs.Name); ok && !m.Blacklisted(name) {
		next.Name = titleName(name)
	}

	if date, ok := trimmed(obs.Date); ok {
		next.DateIntent = date
	}

	if svc, ok := trimmed(obs.Service); ok {
		next.Service = mergeService(prev.Service, svc)
	}

	if raw, ok := trimmed(obs.Time); ok {
		if t, err := schedule.Normalize(raw, m.Calendar); err == nil {
			next.TimeIntent = t
		} else {
			next.TimeIntent = ""
		}
	}

	return next
}

// Blacklisted reports whether name is a filler word, ignoring case and accents.
func (m Merger) Blacklisted(name string) bool {
	_, hit := m.blacklist[fold(name)]
	return hit
}

func titleName(s string) string {
	return cases.Title(language.Spanish).String(strings.Join(strings.Fields(s), " "))
}

// fold lowercases and strips combining marks ("Señor" -> "senor").
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
