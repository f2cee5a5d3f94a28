package services

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-booking-backend/internal/dialogue"
	"github.com/tbourn/go-booking-backend/internal/intent"
	"github.com/tbourn/go-booking-backend/internal/schedule"
)

// promptInput is everything the system prompt shows the generator.
type promptInput struct {
	BusinessName string
	Instructions string
	Now          time.Time // business-local
	Collected    intent.Collected
	Agenda       string
	Goal         dialogue.Goal
}

func buildSystemPrompt(in promptInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Eres el asistente virtual de %s. Respondes por WhatsApp, en español, con mensajes cortos.\n\n", in.BusinessName)

	b.WriteString("=== CONTEXTO TEMPORAL ===\n")
	fmt.Fprintf(&b, "HOY ES: %s %s, %s\n\n",
		cases.Title(language.Spanish).String(schedule.SpanishWeekday(in.Now.Weekday())),
		in.Now.Format(schedule.DateLayout), in.Now.Format("15:04"))

	b.WriteString("=== MEMORIA DE ESTA CHARLA ===\n")
	b.WriteString(memoryBlock(in.Collected))
	b.WriteString("\n")

	b.WriteString("=== ESTADO DE LA AGENDA (REALIDAD) ===\n")
	b.WriteString(in.Agenda)
	b.WriteString("\n\n")

	if strings.TrimSpace(in.Instructions) != "" {
		b.WriteString("=== INSTRUCCIONES DEL NEGOCIO ===\n")
		b.WriteString(strings.TrimSpace(in.Instructions))
		b.WriteString("\n\n")
	}

	b.WriteString("=== OBJETIVO DE ESTE MENSAJE ===\n")
	b.WriteString(in.Goal.Directive(in.Collected))
	b.WriteString("\n\n")

	b.WriteString(`=== FORMATO ===
1. Si el cliente dio nombre, fecha, hora o servicio, agrega al final:
   [MEMORIA]{"nombre":"...","fecha":"YYYY-MM-DD","hora":"HH:MM","servicio":"..."}[/MEMORIA]
   Incluye solo los campos que conoces.
2. Solo cuando el cliente confirme explícitamente, agrega:
   [CITA]Nombre|Servicio|YYYY-MM-DD|HH:MM[/CITA]
3. Nunca ofrezcas horarios marcados como CERRADO, AGOTADO u ocupados.
4. Si en MEMORIA ya tienes datos, NO los preguntes de nuevo.
5. NO preguntes método de pago.
`)
	return b.String()
}

func memoryBlock(c intent.Collected) string {
	if c.IsEmpty() {
		return "- (sin datos todavía)\n"
	}
	var b strings.Builder
	if c.Name != "" {
		fmt.Fprintf(&b, "- NOMBRE: %s\n", c.Name)
	}
	if c.DateIntent != "" {
		fmt.Fprintf(&b, "- FECHA SOLICITADA: %s\n", c.DateIntent)
	}
	if c.TimeIntent != "" {
		fmt.Fprintf(&b, "- HORA SOLICITADA: %s\n", c.TimeIntent)
	}
	if c.Service != "" {
		fmt.Fprintf(&b, "- SERVICIO: %s\n", c.Service)
	}
	return b.String()
}
