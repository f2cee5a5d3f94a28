// Package intent turns what a customer said (or what the reply generator
// extracted from it) into the structured booking fields kept in a session.
//
// Observations come from two places, the generator's side-channel JSON and
// local pattern matching over the raw text, and share one shape: Observed.
// Merger folds an observation into the collected fields with validation,
// normalization and a blacklist of filler names.
package intent

import "strings"

// Collected holds the booking fields gathered across a conversation.
// TimeIntent is always a canonical in-hours "HH:MM" or empty.
type Collected struct {
	Name       string `json:"name,omitempty"`
	DateIntent string `json:"date_intent,omitempty"`
	TimeIntent string `json:"time_intent,omitempty"`
	Service    string `json:"service,omitempty"`
}

// IsEmpty reports whether no field is known.
func (c Collected) IsEmpty() bool { return c == Collected{} }

// HasSlot reports whether both a date and a time are known.
func (c Collected) HasSlot() bool { return c.DateIntent != "" && c.TimeIntent != "" }

// Observed is one extraction result. Nil fields were not observed.
type Observed struct {
	Name    *string
	Date    *string
	Time    *string
	Service *string
	// Source names the extraction method ("side_channel", "text").
	Source string
}

// Empty reports whether the observation carries no field at all.
func (o Observed) Empty() bool {
	return o.Name == nil && o.Date == nil && o.Time == nil && o.Service == nil
}

// Extraction sources.
const (
	SourceSideChannel = "side_channel"
	SourceText        = "text"
)

func strptr(s string) *string { return &s }

func trimmed(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	s := strings.TrimSpace(*p)
	return s, s != ""
}
