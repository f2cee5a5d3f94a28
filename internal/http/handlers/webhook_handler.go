// Webhook HTTP handler.
//
// POST /wasender/webhook receives customer messages from the WhatsApp
// gateway. The gateway has sent several payload shapes over time, so the
// body is decoded loosely:
//
//  1. flat:      {"message": "...", "from": "..."}
//  2. messages:  {"data": {"messages": {...} | [{...}]}}
//     text from messageBody, message.conversation or
//     message.extendedTextMessage.text; sender from remoteJid or
//     key.remoteJid; id from key.id; own messages (key.fromMe) ignored.
//  3. fallback:  {"data": {"message"|"body": "...", "from"|"phone": "..."}}
//
// The endpoint always answers 200 so the gateway does not redeliver.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-booking-backend/internal/http/middleware"
	"github.com/tbourn/go-booking-backend/internal/services"
	"github.com/tbourn/go-booking-backend/internal/sysutil"
)

// Webhook acknowledgement statuses.
const (
	WebhookOK      = "ok"
	WebhookIgnored = "ignored"
)

// WebhookAck is the body of every webhook response.
type WebhookAck struct {
	Status string `json:"status" example:"ok"`
}

// Webhook godoc
// @ID          wasenderWebhook
// @Summary     Inbound WhatsApp message
// @Description Receives a gateway message, runs one conversation turn and sends the reply back through the gateway. Always answers 200; status is "ignored" for payloads without text or sender, own messages, redeliveries, a disabled bot and processing failures.
// @Tags        Webhook
// @Accept      json
// @Produce     json
// @Param       body  body      object  true  "Gateway payload"
// @Success     200   {object}  handlers.WebhookAck
// @Router      /wasender/webhook [post]
func (h *Handlers) Webhook(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		lg.Warn().Err(err).Msg("webhook body read failed")
		ok(c, http.StatusOK, WebhookAck{Status: WebhookIgnored})
		return
	}
	in, found := ParseWebhook(raw)
	if !found {
		lg.Debug().Msg("webhook without text or sender ignored")
		ok(c, http.StatusOK, WebhookAck{Status: WebhookIgnored})
		return
	}

	// The gateway may hang up before the generator answers; the turn
	// still completes and is delivered.
	ctx := context.WithoutCancel(c.Request.Context())
	reply, err := h.d.Conversations.HandleInbound(ctx, in)
	if err != nil {
		_ = c.Error(err)
		lg.Error().Err(err).Msg("inbound message failed")
		ok(c, http.StatusOK, WebhookAck{Status: WebhookIgnored})
		return
	}
	if reply.Duplicate || reply.Skipped {
		ok(c, http.StatusOK, WebhookAck{Status: WebhookIgnored})
		return
	}
	ok(c, http.StatusOK, WebhookAck{Status: WebhookOK})
}

// ParseWebhook extracts the inbound message from a gateway payload. found
// is false when no text or sender could be read or the message was sent by
// the business account itself.
func ParseWebhook(raw []byte) (in services.Inbound, found bool) {
	var body map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil || body == nil {
		return services.Inbound{}, false
	}

	_, hasMsg := body["message"]
	_, hasFrom := body["from"]
	data := object(body, "data")

	switch {
	case hasMsg && hasFrom:
		in.Text = text(body, "message")
		in.From = text(body, "from")
		in.Name = text(body, "pushName")
		in.MessageID = text(body, "id")

	case data != nil && data["messages"] != nil:
		msg := firstMessage(data["messages"])
		if msg == nil {
			return services.Inbound{}, false
		}
		key := object(msg, "key")
		if fromMe, _ := key["fromMe"].(bool); fromMe {
			return services.Inbound{}, false
		}
		content := object(msg, "message")
		in.Text = sysutil.FirstNonEmpty(
			text(msg, "messageBody"),
			text(content, "conversation"),
			text(object(content, "extendedTextMessage"), "text"),
		)
		in.From = sysutil.FirstNonEmpty(text(msg, "remoteJid"), text(key, "remoteJid"))
		in.Name = text(msg, "pushName")
		in.MessageID = sysutil.FirstNonEmpty(text(key, "id"), text(msg, "id"))

	case data != nil:
		in.Text = sysutil.FirstNonEmpty(text(data, "message"), text(data, "body"))
		in.From = sysutil.FirstNonEmpty(text(data, "from"), text(data, "phone"))
		in.Name = text(data, "pushName")
		in.MessageID = text(data, "id")
	}

	in.Text = strings.TrimSpace(in.Text)
	in.From = NormalizeSender(in.From)
	if in.Text == "" || in.From == "" {
		return services.Inbound{}, false
	}
	return in, true
}

// NormalizeSender strips WhatsApp suffixes and the leading "+" so the
// sender matches the phone stored with appointments.
func NormalizeSender(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "@c.us")
	s = strings.TrimSuffix(s, "@s.whatsapp.net")
	return strings.ReplaceAll(s, "+", "")
}

func firstMessage(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case []any:
		if len(m) > 0 {
			first, _ := m[0].(map[string]any)
			return first
		}
	}
	return nil
}

func object(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

// text reads a string field. Numeric senders ({"from": 18095551234}) are
// accepted as well.
func text(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}
