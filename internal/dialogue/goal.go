// Package dialogue decides what the next assistant turn should try to
// achieve, based only on which booking fields are already known.
package dialogue

import (
	"fmt"
	"strings"

	"github.com/tbourn/go-booking-backend/internal/intent"
)

// State is the conversation phase derived from collected fields.
type State string

const (
	StateEmpty      State = "EMPTY"
	StateCollecting State = "COLLECTING"
	StateReady      State = "READY"
	StateConfirmed  State = "CONFIRMED"
)

// Field names reported in Goal.Missing.
const (
	FieldName    = "name"
	FieldService = "service"
	FieldSlot    = "date_time"
)

// Goal is the target of the next turn. Missing is only set while collecting.
type Goal struct {
	State   State
	Missing []string
}

// Derive computes the goal from collected fields. confirmed is the
// external affirmative signal; it only counts when every field is present.
// The result is never stored.
func Derive(c intent.Collected, confirmed bool) Goal {
	var missing []string
	if c.Name == "" {
		missing = append(missing, FieldName)
	}
	if c.Service == "" {
		missing = append(missing, FieldService)
	}
	if !c.HasSlot() {
		missing = append(missing, FieldSlot)
	}

	switch {
	case len(missing) == 0 && confirmed:
		return Goal{State: StateConfirmed}
	case len(missing) == 0:
		return Goal{State: StateReady}
	case c.IsEmpty():
		return Goal{State: StateEmpty}
	default:
		return Goal{State: StateCollecting, Missing: missing}
	}
}

var fieldLabels = map[string]string{
	FieldName:    "nombre",
	FieldService: "servicio",
	FieldSlot:    "día y hora",
}

// Directive returns the instruction block for the reply generator.
func (g Goal) Directive(c intent.Collected) string {
	switch g.State {
	case StateEmpty:
		return "Saluda brevemente y muestra los horarios libres de la AGENDA. " +
			"Pide nombre, servicio y hora en un solo mensaje."
	case StateCollecting:
		labels := make([]string, 0, len(g.Missing))
		for _, f := range g.Missing {
			labels = append(labels, fieldLabels[f])
		}
		return fmt.Sprintf("Pide SOLO lo que falta: %s. "+
			"NO vuelvas a preguntar datos de la MEMORIA y NO repitas la lista de horarios.",
			strings.Join(labels, ", "))
	case StateReady:
		return fmt.Sprintf("Resume la cita (%s, %s, %s a las %s) y pide confirmación explícita: sí o no.",
			c.Name, c.Service, c.DateIntent, c.TimeIntent)
	case StateConfirmed:
		return "El cliente confirmó. Emite el comando de reserva con el formato indicado."
	default:
		return ""
	}
}

var affirmatives = []string{
	"si", "sí", "confirmo", "confirmado", "dale", "ok", "okay", "claro",
	"correcto", "de acuerdo", "perfecto", "listo", "agendala", "agéndala",
}

// IsAffirmative reports whether a customer message is a short yes. Longer
// messages that merely contain "si" are not confirmations.
func IsAffirmative(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.Trim(t, "¡!¿?.,;: ")
	if t == "" || len([]rune(t)) > 40 {
		return false
	}
	for _, a := range affirmatives {
		if t == a || strings.HasPrefix(t, a+" ") || strings.HasPrefix(t, a+",") {
			return true
		}
	}
	return false
}
