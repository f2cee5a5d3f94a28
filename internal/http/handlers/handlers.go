// Package handlers contains the HTTP endpoints of the booking backend.
//
// Handlers are transport-thin: they validate input, call the application
// services through the narrow interfaces below and translate results into
// HTTP responses (including conditional and idempotent replies).
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-booking-backend/internal/clock"
	"github.com/tbourn/go-booking-backend/internal/domain"
	"github.com/tbourn/go-booking-backend/internal/repo"
	"github.com/tbourn/go-booking-backend/internal/schedule"
	"github.com/tbourn/go-booking-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// BookingService manages appointments. Book is the only path that creates
// Confirmed rows.
type BookingService interface {
	Book(ctx context.Context, req services.BookingRequest) (*domain.Appointment, error)
	Get(ctx context.Context, id string) (*domain.Appointment, error)
	Cancel(ctx context.Context, id string) (*domain.Appointment, error)
	Delete(ctx context.Context, id string) error
	ListPage(ctx context.Context, f repo.AppointmentFilter, page, pageSize int) ([]domain.Appointment, int64, error)
	Today(ctx context.Context) ([]domain.Appointment, error)
	// Fingerprint changes whenever the rows matching f change.
	Fingerprint(ctx context.Context, f repo.AppointmentFilter) (string, error)
}

// AvailabilityService computes open slots.
type AvailabilityService interface {
	Compute(ctx context.Context, start time.Time, days int) ([]schedule.Day, error)
}

// SettingsService reads and edits runtime settings.
type SettingsService interface {
	Public(ctx context.Context) (map[string]string, error)
	Update(ctx context.Context, kv map[string]string) (map[string]string, error)
	BotEnabled(ctx context.Context) (bool, error)
	ToggleBot(ctx context.Context) (bool, error)
}

// StatsService aggregates the dashboard numbers.
type StatsService interface {
	Dashboard(ctx context.Context) (services.Stats, error)
}

// SessionService exposes customer sessions to operators.
type SessionService interface {
	Load(ctx context.Context, customerID string) (services.Session, error)
	Reset(ctx context.Context, customerID string) error
}

// ConversationService handles one inbound gateway message.
type ConversationService interface {
	HandleInbound(ctx context.Context, in services.Inbound) (services.Reply, error)
}

// IdempotencyRecorder remembers which resource an Idempotency-Key created.
type IdempotencyRecorder interface {
	Record(ctx context.Context, scope, key, resourceID string, status int) error
}

//
// Handler wiring
//

// Deps groups the collaborators of Handlers.
type Deps struct {
	Bookings      BookingService
	Availability  AvailabilityService
	Settings      SettingsService
	Stats         StatsService
	Sessions      SessionService
	Conversations ConversationService
	Idempotency   IdempotencyRecorder // nil disables recording
	Calendar      schedule.Calendar
	Clock         clock.Clock
}

// Handlers groups the webhook and admin endpoints.
type Handlers struct {
	d Deps
}

// New constructs Handlers bound to d. A nil clock means the system clock.
func New(d Deps) *Handlers {
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	return &Handlers{d: d}
}
