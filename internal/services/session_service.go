// Package services – SessionService
//
// SessionService keeps per-customer conversation state: the collected
// booking fields (sessions table) and the recent dialogue (messages table).
// Expiry is evaluated lazily on Load: a session idle for longer than TTL is
// reset to empty and its history window restarts. An optional cache sits in
// front of the sessions table; the database stays authoritative.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-booking-backend/internal/cache"
	"github.com/tbourn/go-booking-backend/internal/clock"
	"github.com/tbourn/go-booking-backend/internal/domain"
	"github.com/tbourn/go-booking-backend/internal/intent"
	"github.com/tbourn/go-booking-backend/internal/repo"
)

// SessionCache is the optional write-through cache in front of sessions.
// cache.RedisSessionCache implements it.
type SessionCache interface {
	Get(ctx context.Context, customerID string) (cache.Entry, error)
	Set(ctx context.Context, customerID string, e cache.Entry) error
	Delete(ctx context.Context, customerID string) error
}

// Turn is one message of the dialogue history.
type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session is the state handed to the orchestrator.
type Session struct {
	CustomerID string           `json:"customer_id"`
	Collected  intent.Collected `json:"collected"`
	Turns      []Turn           `json:"recent_turns"`
	UpdatedAt  time.Time        `json:"updated_at"`
	// Expired is set when this Load reset an idle session.
	Expired bool `json:"expired"`
}

// SessionService loads and persists conversation sessions.
type SessionService struct {
	DB           *gorm.DB
	Clock        clock.Clock
	TTL          time.Duration
	HistoryLimit int
	Cache        SessionCache // nil disables caching
}

// NewSessionService constructs a SessionService with the default 15 minute
// expiry and 10 turn history.
func NewSessionService(db *gorm.DB, clk clock.Clock) *SessionService {
	if clk == nil {
		clk = clock.System{}
	}
	return &SessionService{DB: db, Clock: clk, TTL: 15 * time.Minute, HistoryLimit: 10}
}

// Load returns the customer's session. Unknown customers get an empty one;
// idle sessions are reset (collected fields and history cleared) and
// persisted before returning.
func (s *SessionService) Load(ctx context.Context, customerID string) (Session, error) {
	tr := otel.Tracer("services/SessionService")
	ctx, span := tr.Start(ctx, "Load", trace.WithAttributes(attribute.String("customer.id", customerID)))
	defer span.End()

	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return Session{}, ErrCustomerRequired
	}

	entry, found, err := s.current(ctx, customerID)
	if err != nil {
		return Session{}, err
	}

	now := s.Clock.Now().UTC()
	out := Session{CustomerID: customerID, Collected: entry.Collected, UpdatedAt: entry.UpdatedAt}
	if found && now.Sub(entry.UpdatedAt) > s.TTL {
		row, err := repo.ResetSession(ctx, s.DB, customerID, now)
		if err != nil {
			return Session{}, err
		}
		entry = cache.Entry{UpdatedAt: row.UpdatedAt, HistoryFrom: row.HistoryFrom}
		s.cacheSet(ctx, customerID, entry)
		out = Session{CustomerID: customerID, UpdatedAt: now, Expired: true}
		span.SetAttributes(attribute.Bool("session.expired", true))
		log.Debug().Str("customer", customerID).Msg("session expired, reset")
	}

	msgs, err := repo.RecentMessages(ctx, s.DB, customerID, entry.HistoryFrom, s.HistoryLimit)
	if err != nil {
		return Session{}, err
	}
	out.Turns = make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		out.Turns = append(out.Turns, Turn{Role: m.Role, Text: m.Content, At: m.CreatedAt})
	}
	return out, nil
}

// current reads the stored entry, cache first.
func (s *SessionService) current(ctx context.Context, customerID string) (cache.Entry, bool, error) {
	if s.Cache != nil {
		e, err := s.Cache.Get(ctx, customerID)
		if err == nil {
			return e, true, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Str("customer", customerID).Msg("session cache read failed")
		}
	}

	row, err := repo.GetSession(ctx, s.DB, customerID)
	if repo.IsNotFound(err) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, err
	}
	e := cache.Entry{Collected: row.Collected, UpdatedAt: row.UpdatedAt, HistoryFrom: row.HistoryFrom}
	s.cacheSet(ctx, customerID, e)
	return e, true, nil
}

// Save stores the collected fields and marks the session active now.
func (s *SessionService) Save(ctx context.Context, customerID string, collected intent.Collected) error {
	now := s.Clock.Now().UTC()
	row := &domain.Session{CustomerID: customerID, Collected: collected, UpdatedAt: now, CreatedAt: now}
	if err := repo.UpsertSession(ctx, s.DB, row); err != nil {
		return err
	}
	if s.Cache == nil {
		return nil
	}
	prev, err := s.Cache.Get(ctx, customerID)
	if err != nil {
		// Without the cached history window the entry cannot be rebuilt
		// safely; drop it and let the next Load repopulate from the DB.
		s.cacheDelete(ctx, customerID)
		return nil
	}
	s.cacheSet(ctx, customerID, cache.Entry{Collected: collected, UpdatedAt: now, HistoryFrom: prev.HistoryFrom})
	return nil
}

// AppendTurn logs one dialogue turn.
func (s *SessionService) AppendTurn(ctx context.Context, customerID, customerName, role, text string) error {
	_, err := repo.CreateMessage(ctx, s.DB, customerID, customerName, role, text, s.Clock.Now())
	return err
}

// Reset clears the collected fields and the history window.
func (s *SessionService) Reset(ctx context.Context, customerID string) error {
	row, err := repo.ResetSession(ctx, s.DB, customerID, s.Clock.Now().UTC())
	if err != nil {
		return err
	}
	s.cacheSet(ctx, customerID, cache.Entry{UpdatedAt: row.UpdatedAt, HistoryFrom: row.HistoryFrom})
	return nil
}

func (s *SessionService) cacheSet(ctx context.Context, customerID string, e cache.Entry) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, customerID, e); err != nil {
		log.Warn().Err(err).Str("customer", customerID).Msg("session cache write failed")
	}
}

func (s *SessionService) cacheDelete(ctx context.Context, customerID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, customerID); err != nil {
		log.Warn().Err(err).Str("customer", customerID).Msg("session cache delete failed")
	}
}
