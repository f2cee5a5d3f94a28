// Package delivery sends outbound WhatsApp messages through the WaSender
// HTTP gateway.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-booking-backend/internal/config"
	"github.com/tbourn/go-booking-backend/internal/observability"
)

// ErrNotConfigured is returned when no gateway token is available.
var ErrNotConfigured = errors.New("delivery not configured")

// Sender delivers a text message to a customer.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// Credentials are the gateway endpoint and bearer token.
type Credentials struct {
	URL   string
	Token string
}

// CredentialsFunc resolves credentials per call so runtime settings can
// override the static configuration.
type CredentialsFunc func(ctx context.Context) Credentials

// WaSender posts {"to","text"} to the gateway.
type WaSender struct {
	client      *http.Client
	limiter     *rate.Limiter
	credentials CredentialsFunc
}

// New builds a WaSender from cfg. creds may be nil, in which case the
// configured URL and token are always used.
func New(cfg config.DeliveryConfig, creds CredentialsFunc) *WaSender {
	static := Credentials{URL: cfg.APIURL, Token: cfg.Token}
	if creds == nil {
		creds = func(context.Context) Credentials { return static }
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if cfg.Interval > 0 {
		lim = rate.NewLimiter(rate.Every(cfg.Interval), 1)
	}
	return &WaSender{
		client:      &http.Client{Timeout: cfg.Timeout},
		limiter:     lim,
		credentials: creds,
	}
}

type sendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// Send waits for the throttle, then posts the message. Any non-2xx status is
// an error carrying a trimmed response body.
func (s *WaSender) Send(ctx context.Context, to, text string) (err error) {
	defer func() {
		observability.DeliveryMessages.WithLabelValues(observability.Outcome(err)).Inc()
	}()

	creds := s.credentials(ctx)
	if strings.TrimSpace(creds.Token) == "" || strings.TrimSpace(creds.URL) == "" {
		return ErrNotConfigured
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}

	body, err := json.Marshal(sendRequest{To: FormatRecipient(to), Text: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+creds.Token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send message: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	log.Debug().Dur("took", time.Since(start)).Int("status", resp.StatusCode).Msg("message delivered")
	return nil
}

// FormatRecipient returns the number with a leading "+".
func FormatRecipient(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}

// Discard drops every message. Used when delivery is switched off and in
// tests.
type Discard struct{}

// Send implements Sender.
func (Discard) Send(context.Context, string, string) error { return nil }
