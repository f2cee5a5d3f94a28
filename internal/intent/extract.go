package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/tbourn/go-booking-backend/internal/schedule"
)

// ErrMalformedPayload is returned when a side-channel block exists but its
// payload is not a valid observation. Callers log it and keep state.
var ErrMalformedPayload = errors.New("malformed side-channel payload")

const observationSchema = `{
  "type": "object",
  "properties": {
    "nombre":   {"type": ["string", "number", "null"]},
    "fecha":    {"type": ["string", "number", "null"]},
    "hora":     {"type": ["string", "number", "null"]},
    "servicio": {"type": ["string", "number", "null"]},
    "name":     {"type": ["string", "number", "null"]},
    "date":     {"type": ["string", "number", "null"]},
    "time":     {"type": ["string", "number", "null"]},
    "service":  {"type": ["string", "number", "null"]}
  }
}`

var (
	compiledSchema = mustSchema(observationSchema)

	memoryRE  = regexp.MustCompile(`(?s)\[MEMORIA\](.*?)\[/MEMORIA\]`)
	bookingRE = regexp.MustCompile(`(?s)\[CITA\](.*?)\[/CITA\]`)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(err)
	}
	return s
}

// FromSideChannel reads the [MEMORIA]{...}[/MEMORIA] block of a generated
// reply. found is false when the reply has no block.
func FromSideChannel(reply string) (obs Observed, found bool, err error) {
	obs.Source = SourceSideChannel
	m := memoryRE.FindStringSubmatch(reply)
	if m == nil {
		return obs, false, nil
	}
	raw := strings.TrimSpace(m[1])

	res, err := compiledSchema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return obs, true, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return obs, true, fmt.Errorf("%w: %s", ErrMalformedPayload, strings.Join(msgs, "; "))
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return obs, true, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	obs.Name = field(doc, "nombre", "name")
	obs.Date = field(doc, "fecha", "date")
	obs.Time = field(doc, "hora", "time")
	obs.Service = field(doc, "servicio", "service")
	return obs, true, nil
}

func field(doc map[string]any, keys ...string) *string {
	for _, k := range keys {
		switch v := doc[k].(type) {
		case string:
			return strptr(v)
		case float64:
			return strptr(strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return nil
}

var (
	nameRE  = regexp.MustCompile(`\b(?:soy|me llamo|mi nombre es)\s+(\p{L}+)`)
	hourRE  = regexp.MustCompile(`\blas?\s+(\d{1,2}(?::\d{2})?)`)
	isoRE   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	todayRE = regexp.MustCompile(`\bhoy\b`)
	tomorRE = regexp.MustCompile(`\bma(?:ñ|n)ana\b`)
	dayREs  = []struct {
		re    *regexp.Regexp
		label string
	}{
		{regexp.MustCompile(`\blunes\b`), "lunes"},
		{regexp.MustCompile(`\bmartes\b`), "martes"},
		{regexp.MustCompile(`\bmi(?:é|e)rcoles\b`), "miércoles"},
		{regexp.MustCompile(`\bjueves\b`), "jueves"},
		{regexp.MustCompile(`\bviernes\b`), "viernes"},
		{regexp.MustCompile(`\bs(?:á|a)bado`), "sábado"},
		{regexp.MustCompile(`\bdomingo\b`), "domingo"},
	}
)

// FromText extracts fields from the customer's raw text with simple
// patterns. It is the fallback when the generator returns no side channel.
func FromText(text string) Observed {
	obs := Observed{Source: SourceText}
	low := strings.ToLower(text)

	if m := nameRE.FindStringSubmatch(low); m != nil {
		obs.Name = strptr(m[1])
	}

	for _, d := range dayREs {
		if d.re.MatchString(low) {
			obs.Date = strptr(d.label)
		}
	}
	if todayRE.MatchString(low) {
		obs.Date = strptr("HOY")
	}
	if tomorRE.MatchString(low) {
		obs.Date = strptr("MAÑANA")
	}
	if iso := isoRE.FindString(low); iso != "" {
		obs.Date = strptr(iso)
	}

	if m := hourRE.FindStringSubmatch(low); m != nil {
		obs.Time = strptr(m[1])
	}

	if found := DetectServices(low); len(found) > 0 {
		obs.Service = strptr(ServiceLabel(found))
	}
	return obs
}

// Booking is the payload of a [CITA]Nombre|Servicio|YYYY-MM-DD|HH:MM[/CITA]
// marker emitted by the generator once the customer confirmed.
type Booking struct {
	Name    string
	Service string
	Date    string
	Time    string
}

// ParseBooking extracts the booking marker. ok is false when the reply has
// no marker or the marker does not carry four fields.
func ParseBooking(reply string) (b Booking, ok bool) {
	m := bookingRE.FindStringSubmatch(reply)
	if m == nil {
		return b, false
	}
	parts := strings.Split(m[1], "|")
	if len(parts) < 4 {
		return b, false
	}
	b = Booking{
		Name:    strings.TrimSpace(parts[0]),
		Service: strings.TrimSpace(parts[1]),
		Date:    strings.TrimSpace(parts[2]),
		Time:    schedule.PadClock(parts[3]),
	}
	return b, true
}

// HasBookingMarker reports whether the reply carries a [CITA] block.
func HasBookingMarker(reply string) bool { return bookingRE.MatchString(reply) }

// StripMarkers removes side-channel and booking blocks from a reply.
func StripMarkers(reply string) string {
	out := memoryRE.ReplaceAllString(reply, "")
	out = bookingRE.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}
