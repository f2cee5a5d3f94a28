// Package services – ConversationService
//
// ConversationService runs one customer turn end to end: it loads the
// session, folds what the customer said into the collected fields, asks the
// reply generator for the next message with the agenda and the current goal
// in the system prompt, folds the generator's side-channel fields, books
// when the reply carries a booking command, and saves the session.
//
// Every failure inside a turn degrades to a customer-facing text; only
// storage errors while loading or saving the session are returned.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-booking-backend/internal/clock"
	"github.com/tbourn/go-booking-backend/internal/delivery"
	"github.com/tbourn/go-booking-backend/internal/dialogue"
	"github.com/tbourn/go-booking-backend/internal/domain"
	"github.com/tbourn/go-booking-backend/internal/generate"
	"github.com/tbourn/go-booking-backend/internal/intent"
	"github.com/tbourn/go-booking-backend/internal/observability"
	"github.com/tbourn/go-booking-backend/internal/repo"
	"github.com/tbourn/go-booking-backend/internal/schedule"
	"github.com/tbourn/go-booking-backend/internal/sysutil"
)

// Customer-facing fallback texts.
const (
	ReplyBusy      = "El sistema está ocupado."
	ReplyBooked    = "✅ ¡Listo! Tu cita ha sido agendada. ¡Te esperamos!"
	ReplyNoContent = "¿En qué te puedo ayudar?"
)

// webhookScope namespaces processed inbound message ids in the
// idempotency table.
const webhookScope = "webhook"

// Inbound is one message received from the messaging gateway.
type Inbound struct {
	MessageID string // gateway id, used to drop redeliveries; may be empty
	From      string // customer phone, normalized
	Name      string // push name, if the gateway sent one
	Text      string
}

// Reply is the outcome of a turn.
type Reply struct {
	Text      string              `json:"text"`
	Goal      dialogue.State      `json:"goal"`
	Collected intent.Collected    `json:"collected"`
	Booked    *domain.Appointment `json:"booked,omitempty"`
	// Skipped is set when the bot is disabled; no reply was produced.
	Skipped bool `json:"skipped,omitempty"`
	// Duplicate is set when the inbound message id was already handled.
	Duplicate bool `json:"duplicate,omitempty"`
	Delivered bool `json:"delivered,omitempty"`
}

// ConversationService orchestrates a customer turn.
type ConversationService struct {
	DB           *gorm.DB
	Sessions     *SessionService
	Availability *AvailabilityService
	Bookings     *BookingService
	Settings     *SettingsService
	Generator    generate.Generator
	Sender       delivery.Sender
	Merger       intent.Merger
	Calendar     schedule.Calendar
	Clock        clock.Clock
	DedupTTL     time.Duration
}

// Reply processes text from customerID and logs the assistant's answer as
// part of the history. It does not deliver anything.
func (s *ConversationService) Reply(ctx context.Context, customerID, customerName, text string) (Reply, error) {
	r, err := s.respond(ctx, customerID, customerName, text)
	if err != nil || r.Skipped {
		return r, err
	}
	if err := s.Sessions.AppendTurn(ctx, customerID, r.Collected.Name, domain.RoleAssistant, r.Text); err != nil {
		return r, err
	}
	return r, nil
}

// HandleInbound processes a gateway message: it drops redeliveries, runs
// the turn and sends the answer. The assistant turn is logged only when
// delivery succeeded.
func (s *ConversationService) HandleInbound(ctx context.Context, in Inbound) (Reply, error) {
	if id := strings.TrimSpace(in.MessageID); id != "" {
		_, err := repo.CreateIdempotency(ctx, s.DB, webhookScope, id, in.From, 0, s.dedupTTL())
		if errors.Is(err, repo.ErrDuplicate) {
			log.Info().Str("message_id", id).Msg("duplicate inbound message ignored")
			return Reply{Duplicate: true}, nil
		}
		if err != nil {
			return Reply{}, err
		}
	}

	r, err := s.respond(ctx, in.From, in.Name, in.Text)
	if err != nil || r.Skipped {
		return r, err
	}

	if err := s.Sender.Send(ctx, in.From, r.Text); err != nil {
		log.Error().Err(err).Str("customer", in.From).Msg("reply delivery failed")
		return r, nil
	}
	r.Delivered = true
	if err := s.Sessions.AppendTurn(ctx, in.From, r.Collected.Name, domain.RoleAssistant, r.Text); err != nil {
		return r, err
	}
	return r, nil
}

func (s *ConversationService) dedupTTL() time.Duration {
	if s.DedupTTL > 0 {
		return s.DedupTTL
	}
	return 24 * time.Hour
}

func (s *ConversationService) respond(ctx context.Context, customerID, customerName, text string) (Reply, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "Respond", trace.WithAttributes(attribute.String("customer.id", customerID)))
	defer span.End()

	customerID = strings.TrimSpace(customerID)
	text = strings.TrimSpace(text)
	if customerID == "" {
		return Reply{}, ErrCustomerRequired
	}
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}

	enabled, err := s.Settings.BotEnabled(ctx)
	if err != nil {
		return Reply{}, err
	}
	if !enabled {
		// Keep the log complete for the dashboard even when silent.
		if err := s.Sessions.AppendTurn(ctx, customerID, customerName, domain.RoleCustomer, text); err != nil {
			return Reply{}, err
		}
		return Reply{Skipped: true}, nil
	}

	sess, err := s.Sessions.Load(ctx, customerID)
	if err != nil {
		return Reply{}, err
	}
	collected := s.Merger.Merge(sess.Collected, intent.FromText(text))

	agenda, _, err := s.Availability.Agenda(ctx)
	if err != nil {
		return Reply{}, err
	}

	goal := dialogue.Derive(collected, dialogue.IsAffirmative(text))
	observability.ConversationTurns.WithLabelValues(string(goal.State)).Inc()
	span.SetAttributes(attribute.String("dialogue.goal", string(goal.State)))

	name := collected.Name
	if name == "" {
		name = customerName
	}
	if err := s.Sessions.AppendTurn(ctx, customerID, name, domain.RoleCustomer, text); err != nil {
		return Reply{}, err
	}

	messages, err := s.messages(ctx, sess, collected, agenda, goal, text)
	if err != nil {
		return Reply{}, err
	}

	out, err := s.Generator.Generate(ctx, messages)
	if err != nil {
		log.Error().Err(err).Str("customer", customerID).Msg("reply generation failed")
		if err := s.Sessions.Save(ctx, customerID, collected); err != nil {
			return Reply{}, err
		}
		return Reply{Text: ReplyBusy, Goal: goal.State, Collected: collected}, nil
	}

	if obs, found, perr := intent.FromSideChannel(out); perr != nil {
		log.Warn().Err(perr).Str("customer", customerID).Msg("ignoring malformed side channel")
	} else if found {
		collected = s.Merger.Merge(collected, obs)
	}

	reply := Reply{Text: intent.StripMarkers(out), Goal: goal.State}
	if b, ok := intent.ParseBooking(out); ok {
		collected = s.book(ctx, customerID, b, collected, &reply)
	} else if intent.HasBookingMarker(out) {
		log.Warn().Str("customer", customerID).Msg("booking marker without four fields ignored")
	}
	if reply.Text == "" {
		reply.Text = ReplyNoContent
	}

	reply.Collected = collected
	if err := s.Sessions.Save(ctx, customerID, collected); err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// book runs the booking command and returns the collected fields to keep.
func (s *ConversationService) book(ctx context.Context, customerID string, b intent.Booking, collected intent.Collected, reply *Reply) intent.Collected {
	req := BookingRequest{
		Date:    b.Date,
		Time:    b.Time,
		Name:    sysutil.FirstNonEmpty(b.Name, collected.Name),
		Phone:   customerID,
		Service: sysutil.FirstNonEmpty(b.Service, collected.Service),
	}
	appt, err := s.Bookings.Book(ctx, req)
	switch {
	case err == nil:
		reply.Booked = appt
		reply.Goal = dialogue.StateConfirmed
		if reply.Text == "" {
			reply.Text = ReplyBooked
		}
		return intent.Collected{}

	case errors.Is(err, ErrSlotTaken):
		collected.TimeIntent = ""
		reply.Text = fmt.Sprintf("Lo siento, el horario de las %s del %s se acaba de ocupar. ¿Te sirve otra hora? Revisa los horarios libres.",
			schedule.PadClock(b.Time), b.Date)
		return collected

	case IsValidationError(err):
		log.Info().Err(err).Str("customer", customerID).Msg("booking command rejected")
		collected.TimeIntent = ""
		reply.Text = "Ese horario no está disponible. ¿Qué otra hora te queda bien?"
		return collected

	default:
		log.Error().Err(err).Str("customer", customerID).Msg("booking failed")
		collected.TimeIntent = ""
		reply.Text = ReplyBusy
		return collected
	}
}

// messages assembles system prompt, history and the current text.
func (s *ConversationService) messages(ctx context.Context, sess Session, collected intent.Collected, agenda string, goal dialogue.Goal, text string) ([]generate.Message, error) {
	all, err := s.Settings.All(ctx)
	if err != nil {
		return nil, err
	}
	system := buildSystemPrompt(promptInput{
		BusinessName: all[SettingBusinessName],
		Instructions: all[SettingInstructions],
		Now:          s.Calendar.In(s.Clock.Now()),
		Collected:    collected,
		Agenda:       agenda,
		Goal:         goal,
	})

	out := make([]generate.Message, 0, len(sess.Turns)+2)
	out = append(out, generate.Message{Role: generate.RoleSystem, Content: system})
	for _, t := range sess.Turns {
		role := generate.RoleUser
		if t.Role == domain.RoleAssistant {
			role = generate.RoleAssistant
		}
		out = append(out, generate.Message{Role: role, Content: t.Text})
	}
	out = append(out, generate.Message{Role: generate.RoleUser, Content: text})
	return out, nil
}

