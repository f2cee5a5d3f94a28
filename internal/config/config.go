// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage, the business calendar, the reply
// generator, outbound delivery, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-booking-backend/internal/schedule"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-booking-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DatabaseConfig selects the store.
type DatabaseConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH (sqlite)
	URL    string // DATABASE_URL (postgres)
}

// CacheConfig configures the optional Redis session cache. Empty Addr
// disables it.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// BusinessConfig describes the shop and its calendar.
type BusinessConfig struct {
	Name          string
	OpenHour      int
	CloseHour     int
	LunchHour     int // -1 disables
	ClosedDays    []time.Weekday
	Location      *time.Location
	HorizonDays   int
	SessionTTL    time.Duration
	HistoryLimit  int
	DefaultPrompt string // fallback business instructions
}

// Calendar returns the schedule.Calendar described by b.
func (b BusinessConfig) Calendar() schedule.Calendar {
	return schedule.Calendar{
		OpenHour:   b.OpenHour,
		CloseHour:  b.CloseHour,
		LunchHour:  b.LunchHour,
		ClosedDays: append([]time.Weekday(nil), b.ClosedDays...),
		Location:   b.Location,
	}
}

// GeneratorConfig configures the reply generator.
type GeneratorConfig struct {
	Provider    string   // openai|anthropic|gemini
	APIKeys     []string // rotated on failure
	BaseURL     string   // OpenAI-compatible endpoint (Groq by default)
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DeliveryConfig configures outbound WhatsApp delivery.
type DeliveryConfig struct {
	APIURL   string
	Token    string
	Interval time.Duration // minimum gap between sends
	Timeout  time.Duration
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s (a webhook turn waits on the generator)
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful shutdown budget
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for admin API routes

	// Storage
	Database DatabaseConfig
	Cache    CacheConfig

	// Domain
	Business  BusinessConfig
	Generator GeneratorConfig
	Delivery  DeliveryConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL  time.Duration // how long a given Idempotency-Key is valid
	WebhookDedupTTL time.Duration // how long an inbound message id is remembered

	// Observability
	OTEL OTELConfig
}

// Default OpenAI-compatible endpoint and model (Groq).
const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.1-8b-instant"
)

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 15*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		Database: DatabaseConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "app.db"),
			URL:    getenv("DATABASE_URL", ""),
		},
		Cache: CacheConfig{
			Addr:     getenv("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
			Prefix:   getenv("REDIS_PREFIX", "session:"),
		},

		// Domain
		Business: BusinessConfig{
			Name:          getenv("BUSINESS_NAME", "Barbería Z"),
			OpenHour:      getint("OPEN_HOUR", 8),
			CloseHour:     getint("CLOSE_HOUR", 20),
			LunchHour:     getint("LUNCH_HOUR", 12),
			HorizonDays:   getint("HORIZON_DAYS", 5),
			SessionTTL:    getdur("SESSION_TTL", 15*time.Minute),
			HistoryLimit:  getint("HISTORY_LIMIT", 10),
			DefaultPrompt: getenv("BUSINESS_INSTRUCTIONS", "Horario: 8am-8pm. Corte $10 | Barba $5 | Cejas $3 | Pack $12."),
		},
		Generator: GeneratorConfig{
			Provider:    strings.ToLower(getenv("LLM_PROVIDER", "openai")),
			APIKeys:     apiKeys(),
			BaseURL:     getenv("LLM_BASE_URL", DefaultGroqBaseURL),
			Model:       getenv("LLM_MODEL", DefaultModel),
			MaxTokens:   getint("LLM_MAX_TOKENS", 300),
			Temperature: getfloat("LLM_TEMPERATURE", 0.5),
			Timeout:     getdur("LLM_TIMEOUT", 30*time.Second),
		},
		Delivery: DeliveryConfig{
			APIURL:   getenv("WASENDER_API_URL", "https://www.wasenderapi.com/api/send-message"),
			Token:    getenv("WASENDER_API_TOKEN", ""),
			Interval: getdur("DELIVERY_INTERVAL", 2*time.Second),
			Timeout:  getdur("DELIVERY_TIMEOUT", 10*time.Second),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL:  getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		WebhookDedupTTL: getdur("WEBHOOK_DEDUP_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-booking-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Database.Driver == "postgresql" {
		cfg.Database.Driver = "postgres"
	}

	closed, err := closedDays(getenv("CLOSED_WEEKDAYS", "sunday"))
	if err != nil {
		return cfg, err
	}
	cfg.Business.ClosedDays = closed

	loc, err := location(getenv("TIMEZONE", ""), getdur("UTC_OFFSET", -4*time.Hour))
	if err != nil {
		return cfg, err
	}
	cfg.Business.Location = loc

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.Database.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.Database.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.Database.URL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if b := cfg.Business; b.OpenHour < 0 || b.CloseHour > 24 || b.OpenHour >= b.CloseHour {
		return cfg, errors.New("OPEN_HOUR/CLOSE_HOUR must satisfy 0 <= open < close <= 24")
	}
	if b := cfg.Business; b.LunchHour != -1 && (b.LunchHour < b.OpenHour || b.LunchHour >= b.CloseHour) {
		return cfg, errors.New("LUNCH_HOUR must be inside business hours or -1")
	}
	if cfg.Business.HorizonDays < 1 {
		return cfg, errors.New("HORIZON_DAYS must be >= 1")
	}
	if cfg.Business.SessionTTL <= 0 {
		return cfg, errors.New("SESSION_TTL must be > 0")
	}
	if cfg.Business.HistoryLimit < 1 || cfg.Business.HistoryLimit > 20 {
		return cfg, errors.New("HISTORY_LIMIT must be between 1 and 20")
	}
	switch cfg.Generator.Provider {
	case "openai", "anthropic", "gemini":
	default:
		return cfg, errors.New("LLM_PROVIDER must be one of: openai, anthropic, gemini")
	}
	if cfg.Generator.MaxTokens <= 0 {
		return cfg, errors.New("LLM_MAX_TOKENS must be > 0")
	}
	if cfg.Generator.Temperature < 0 || cfg.Generator.Temperature > 2 {
		return cfg, errors.New("LLM_TEMPERATURE must be between 0 and 2")
	}
	if cfg.Generator.Timeout <= 0 || cfg.Delivery.Timeout <= 0 {
		return cfg, errors.New("LLM_TIMEOUT and DELIVERY_TIMEOUT must be > 0")
	}
	if cfg.Delivery.Interval < 0 {
		return cfg, errors.New("DELIVERY_INTERVAL must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 || cfg.WebhookDedupTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL and WEBHOOK_DEDUP_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// apiKeys merges LLM_API_KEYS with the legacy GROQ_API_KEY / GROQ_API_KEY_2
// variables, dropping duplicates and keeping order.
func apiKeys() []string {
	all := splitCSV(getenv("LLM_API_KEYS", ""))
	all = append(all, splitCSV(getenv("GROQ_API_KEY", ""))...)
	all = append(all, splitCSV(getenv("GROQ_API_KEY_2", ""))...)
	seen := make(map[string]struct{}, len(all))
	out := all[:0]
	for _, k := range all {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func closedDays(v string) ([]time.Weekday, error) {
	if strings.EqualFold(strings.TrimSpace(v), "none") {
		return nil, nil
	}
	var out []time.Weekday
	for _, name := range splitCSV(v) {
		wd, ok := schedule.ParseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("CLOSED_WEEKDAYS: unknown weekday %q", name)
		}
		out = append(out, wd)
	}
	return out, nil
}

// location prefers an IANA zone name; otherwise a fixed UTC offset.
func location(name string, offset time.Duration) (*time.Location, error) {
	if name = strings.TrimSpace(name); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("TIMEZONE: %w", err)
		}
		return loc, nil
	}
	if offset <= -24*time.Hour || offset >= 24*time.Hour {
		return nil, errors.New("UTC_OFFSET must be within (-24h, 24h)")
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", int(offset.Hours())), int(offset.Seconds())), nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
