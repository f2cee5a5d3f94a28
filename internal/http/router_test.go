package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-booking-backend/internal/clock"
	"github.com/tbourn/go-booking-backend/internal/config"
	"github.com/tbourn/go-booking-backend/internal/domain"
	"github.com/tbourn/go-booking-backend/internal/generate"
	"github.com/tbourn/go-booking-backend/internal/http/handlers"
	"github.com/tbourn/go-booking-backend/internal/http/middleware"
	"github.com/tbourn/go-booking-backend/internal/intent"
	"github.com/tbourn/go-booking-backend/internal/repo"
	"github.com/tbourn/go-booking-backend/internal/schedule"
	"github.com/tbourn/go-booking-backend/internal/services"
)

// --- fakes for the outbound edges ---

type cannedGenerator struct{ reply string }

func (g cannedGenerator) Generate(context.Context, []generate.Message) (string, error) {
	return g.reply, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) Send(_ context.Context, to, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+": "+text)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() { _ = repo.Close(db) })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:    "/api/v1",
		RateRPS:        100,
		RateBurst:      10,
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
		IdempotencyTTL: time.Hour,
		Business:       config.BusinessConfig{Name: "Barbería Test", OpenHour: 8, CloseHour: 20},
	}
}

type harness struct {
	r      *gin.Engine
	db     *gorm.DB
	sender *recordingSender
}

// newHarness wires real services over a temp database the way the server
// command does. The clock is fixed at Friday 2025-12-19 09:30 UTC-4.
func newHarness(t *testing.T, cfg config.Config) harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	cal := schedule.DefaultCalendar()
	clk := clock.NewFixed(time.Date(2025, 12, 19, 9, 30, 0, 0, time.FixedZone("UTC-4", -4*3600)))

	settings := services.NewSettingsService(db, cfg)
	if err := settings.Seed(context.Background()); err != nil {
		t.Fatalf("seed settings: %v", err)
	}
	sessions := services.NewSessionService(db, clk)
	bookings := services.NewBookingService(db, cal, clk)
	avail := &services.AvailabilityService{DB: db, Calendar: cal, Clock: clk, Horizon: 5}
	sender := &recordingSender{}
	conv := &services.ConversationService{
		DB:           db,
		Sessions:     sessions,
		Availability: avail,
		Bookings:     bookings,
		Settings:     settings,
		Generator:    cannedGenerator{reply: "¡Hola! ¿Qué servicio deseas?"},
		Sender:       sender,
		Merger:       intent.NewMerger(cal),
		Calendar:     cal,
		Clock:        clk,
	}

	r := gin.New()
	RegisterRoutes(r, db, handlers.Deps{
		Bookings:      bookings,
		Availability:  avail,
		Settings:      settings,
		Stats:         &services.StatsService{DB: db, Calendar: cal, Clock: clk, Settings: settings},
		Sessions:      sessions,
		Conversations: conv,
		Calendar:      cal,
		Clock:         clk,
	}, cfg)
	return harness{r: r, db: db, sender: sender}
}

func (h harness) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_Health_Metrics_Fallbacks(t *testing.T) {
	h := newHarness(t, testConfig())

	w := h.do(http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing")
	}

	w = h.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	w = h.do(http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), handlers.ErrCodeNotFound) {
		t.Fatalf("GET /nope = %d %s", w.Code, w.Body.String())
	}

	w = h.do(http.MethodPost, "/health", "", nil)
	if w.Code != http.StatusMethodNotAllowed || !strings.Contains(w.Body.String(), handlers.ErrCodeMethodNotAllowed) {
		t.Fatalf("POST /health = %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	h := newHarness(t, cfg)

	w := h.do(http.MethodGet, "/health", "", map[string]string{"Origin": "http://example.com"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}

	w = h.do(http.MethodGet, "/health", "", map[string]string{"Origin": "http://evil.test"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected ACAO for foreign origin: %q", got)
	}
}

func TestAdminGroup_NoStoreAndStatus(t *testing.T) {
	h := newHarness(t, testConfig())

	w := h.do(http.MethodGet, "/api/v1/status", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /status = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("admin responses must be no-store")
	}
	var st handlers.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Status != "online" || !st.BotEnabled {
		t.Fatalf("status = %+v", st)
	}

	// Root routes are not no-store.
	if got := h.do(http.MethodGet, "/health", "", nil).Header().Get("Cache-Control"); got == "no-store" {
		t.Fatalf("/health should be cacheable")
	}
}

func TestAdminGroup_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	h := newHarness(t, cfg)

	if w := h.do(http.MethodGet, "/api/v1/status", "", nil); w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/api/v1/status", "", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", w.Code)
	}
	// The webhook is outside the limited group.
	for i := 0; i < 3; i++ {
		if w := h.do(http.MethodPost, "/wasender/webhook", `{}`, nil); w.Code != http.StatusOK {
			t.Fatalf("webhook = %d", w.Code)
		}
	}
}

func TestCreateAppointment_IdempotentReplay(t *testing.T) {
	h := newHarness(t, testConfig())
	body := `{"date":"2025-12-22","time":"10am","name":"Ana","phone":"18095551234","service":"Corte"}`
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "book-ana-1"}

	w := h.do(http.MethodPost, "/api/v1/appointments", body, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("first POST = %d %s", w.Code, w.Body.String())
	}
	var first domain.Appointment
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Time != "10:00" || first.Status != domain.StatusConfirmed {
		t.Fatalf("created = %+v", first)
	}

	w = h.do(http.MethodPost, "/api/v1/appointments", body, hdr)
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay = %d replayed=%q", w.Code, w.Header().Get("Idempotency-Replayed"))
	}
	var again domain.Appointment
	_ = json.Unmarshal(w.Body.Bytes(), &again)
	if again.ID != first.ID {
		t.Fatalf("replay returned %s, want %s", again.ID, first.ID)
	}

	// Same slot without the key is a conflict.
	w = h.do(http.MethodPost, "/api/v1/appointments", strings.Replace(body, "Ana", "Luis", 1), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("double booking = %d %s", w.Code, w.Body.String())
	}
}

func TestWebhook_RunsTurnAndDropsRedelivery(t *testing.T) {
	h := newHarness(t, testConfig())
	payload := `{"data":{"messages":{"key":{"id":"MSG-1","remoteJid":"18095551234@s.whatsapp.net","fromMe":false},"pushName":"Ana","messageBody":"hola, quiero un corte"}}}`

	w := h.do(http.MethodPost, "/wasender/webhook", payload, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("webhook = %d %s", w.Code, w.Body.String())
	}
	if h.sender.count() != 1 {
		t.Fatalf("sent = %d, want 1", h.sender.count())
	}

	w = h.do(http.MethodPost, "/wasender/webhook", payload, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ignored"`) {
		t.Fatalf("redelivery = %d %s", w.Code, w.Body.String())
	}
	if h.sender.count() != 1 {
		t.Fatalf("redelivery must not send again")
	}

	// The session is visible through the admin API.
	w = h.do(http.MethodGet, "/api/v1/sessions/18095551234", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET session = %d", w.Code)
	}
	var sess services.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sess.Collected.Service != "Corte" || len(sess.Turns) != 2 {
		t.Fatalf("session = %+v", sess)
	}
}

func TestIdempotencyStore_LookupAndRecord(t *testing.T) {
	db := newTestDB(t)
	s := idempotencyStore{db: db, ttl: time.Hour}
	ctx := context.Background()

	id, err := s.Lookup(ctx, "appointments", "k1", time.Now())
	if err != nil || id != "" {
		t.Fatalf("miss = %q, %v", id, err)
	}
	if err := s.Record(ctx, "appointments", "k1", "appt-1", http.StatusCreated); err != nil {
		t.Fatalf("record: %v", err)
	}
	id, err = s.Lookup(ctx, "appointments", "k1", time.Now())
	if err != nil || id != "appt-1" {
		t.Fatalf("hit = %q, %v", id, err)
	}
	if id, _ := s.Lookup(ctx, "webhook", "k1", time.Now()); id != "" {
		t.Fatalf("scopes must not collide")
	}
	if id, _ := s.Lookup(ctx, "appointments", "k1", time.Now().Add(2*time.Hour)); id != "" {
		t.Fatalf("expired key must miss")
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}
