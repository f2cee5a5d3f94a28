package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-booking-backend/internal/cache"
	"github.com/tbourn/go-booking-backend/internal/clock"
	"github.com/tbourn/go-booking-backend/internal/config"
	"github.com/tbourn/go-booking-backend/internal/delivery"
	"github.com/tbourn/go-booking-backend/internal/generate"
	"github.com/tbourn/go-booking-backend/internal/http/handlers"
	"github.com/tbourn/go-booking-backend/internal/intent"
	"github.com/tbourn/go-booking-backend/internal/repo"
	"github.com/tbourn/go-booking-backend/internal/schedule"
	"github.com/tbourn/go-booking-backend/internal/services"
	"github.com/tbourn/go-booking-backend/internal/sysutil"
)

// loadConfig reads .env (when present) and the environment, then configures
// the global logger.
func loadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config.Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	sysutil.ConfigureLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	return cfg, nil
}

// openStore opens the configured database, attaches tracing and migrates.
func openStore(cfg config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.Path
	if cfg.Database.Driver == repo.DriverPostgres {
		dsn = cfg.Database.URL
	}
	db, err := repo.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Database.Driver, err)
	}
	if err := repo.Instrument(db); err != nil {
		_ = repo.Close(db)
		return nil, fmt.Errorf("instrument db: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		_ = repo.Close(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// app holds the wired services shared by the subcommands.
type app struct {
	cfg      config.Config
	db       *gorm.DB
	redis    *redis.Client
	calendar schedule.Calendar
	clock    clock.Clock

	settings      *services.SettingsService
	sessions      *services.SessionService
	bookings      *services.BookingService
	availability  *services.AvailabilityService
	stats         *services.StatsService
	conversations *services.ConversationService

	closeGenerator func() error
}

// newApp opens storage and builds every service. Redis is optional: a
// failed dial is logged and sessions are served from the database alone.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	db, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:            cfg,
		db:             db,
		calendar:       cfg.Business.Calendar(),
		clock:          clock.System{},
		closeGenerator: func() error { return nil },
	}

	a.settings = services.NewSettingsService(db, cfg)
	if err := a.settings.Seed(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("seed settings: %w", err)
	}

	a.sessions = services.NewSessionService(db, a.clock)
	a.sessions.TTL = cfg.Business.SessionTTL
	a.sessions.HistoryLimit = cfg.Business.HistoryLimit
	if cfg.Cache.Addr != "" {
		client, err := cache.Dial(ctx, cfg.Cache)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Cache.Addr).Msg("redis unavailable, session cache disabled")
		} else {
			a.redis = client
			a.sessions.Cache = cache.NewRedisSessionCache(client, cfg.Cache.Prefix, cfg.Business.SessionTTL)
		}
	}

	a.bookings = services.NewBookingService(db, a.calendar, a.clock)
	a.availability = &services.AvailabilityService{
		DB:       db,
		Calendar: a.calendar,
		Clock:    a.clock,
		Horizon:  cfg.Business.HorizonDays,
	}
	a.stats = &services.StatsService{DB: db, Calendar: a.calendar, Clock: a.clock, Settings: a.settings}
	return a, nil
}

// withConversation adds the generator and the gateway sender.
func (a *app) withConversation(ctx context.Context) error {
	gen, closeGen, err := generate.New(ctx, a.cfg.Generator)
	if err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	if _, ok := gen.(generate.Unconfigured); ok {
		log.Warn().Msg("no LLM_API_KEYS configured, replies fall back to a busy message")
	}
	a.closeGenerator = closeGen

	a.conversations = &services.ConversationService{
		DB:           a.db,
		Sessions:     a.sessions,
		Availability: a.availability,
		Bookings:     a.bookings,
		Settings:     a.settings,
		Generator:    gen,
		Sender:       delivery.New(a.cfg.Delivery, a.settings.DeliveryCredentials),
		Merger:       intent.NewMerger(a.calendar),
		Calendar:     a.calendar,
		Clock:        a.clock,
		DedupTTL:     a.cfg.WebhookDedupTTL,
	}
	return nil
}

// deps exposes the services to the HTTP layer.
func (a *app) deps() handlers.Deps {
	return handlers.Deps{
		Bookings:      a.bookings,
		Availability:  a.availability,
		Settings:      a.settings,
		Stats:         a.stats,
		Sessions:      a.sessions,
		Conversations: a.conversations,
		Calendar:      a.calendar,
		Clock:         a.clock,
	}
}

// Close releases the generator, Redis and the database.
func (a *app) Close() {
	if err := a.closeGenerator(); err != nil {
		log.Warn().Err(err).Msg("generator close")
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}
	if err := repo.Close(a.db); err != nil {
		log.Warn().Err(err).Msg("db close")
	}
}
