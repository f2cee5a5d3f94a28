package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/tbourn/go-booking-backend/internal/services"
)

func TestParseWebhook(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		want  services.Inbound
		found bool
	}{
		{
			name:  "flat",
			body:  `{"message":"Hola","from":"+18095551234"}`,
			want:  services.Inbound{From: "18095551234", Text: "Hola"},
			found: true,
		},
		{
			name:  "flat numeric sender",
			body:  `{"message":"Hola","from":18095551230}`,
			want:  services.Inbound{From: "18095551230", Text: "Hola"},
			found: true,
		},
		{
			name: "messages object with messageBody",
			body: `{"event":"messages.upsert","data":{"messages":{
				"key":{"id":"ABC","remoteJid":"18095551234@s.whatsapp.net","fromMe":false},
				"pushName":"Ana","messageBody":"quiero un corte"}}}`,
			want:  services.Inbound{MessageID: "ABC", From: "18095551234", Name: "Ana", Text: "quiero un corte"},
			found: true,
		},
		{
			name: "messages list with conversation",
			body: `{"data":{"messages":[{"remoteJid":"18095551234@c.us",
				"message":{"conversation":"mañana a las 3"}}]}}`,
			want:  services.Inbound{From: "18095551234", Text: "mañana a las 3"},
			found: true,
		},
		{
			name: "extended text",
			body: `{"data":{"messages":[{"key":{"remoteJid":"18095551234@c.us","id":"X1"},
				"message":{"extendedTextMessage":{"text":"si"}}}]}}`,
			want:  services.Inbound{MessageID: "X1", From: "18095551234", Text: "si"},
			found: true,
		},
		{
			name: "own message",
			body: `{"data":{"messages":{"key":{"fromMe":true,"remoteJid":"18095551234@c.us"},"messageBody":"hola"}}}`,
		},
		{
			name:  "fallback body and phone",
			body:  `{"data":{"body":"Hola","phone":"+18095551234"}}`,
			want:  services.Inbound{From: "18095551234", Text: "Hola"},
			found: true,
		},
		{name: "empty messages list", body: `{"data":{"messages":[]}}`},
		{name: "no sender", body: `{"data":{"message":"Hola"}}`},
		{name: "blank text", body: `{"message":"   ","from":"1809"}`},
		{name: "not json", body: `OK`},
		{name: "json array", body: `[]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, found := ParseWebhook([]byte(tc.body))
			if found != tc.found || got != tc.want {
				t.Fatalf("ParseWebhook = (%+v, %v); want (%+v, %v)", got, found, tc.want, tc.found)
			}
		})
	}
}

func TestNormalizeSender(t *testing.T) {
	cases := map[string]string{
		"+18095551234":                 "18095551234",
		"18095551234@c.us":             "18095551234",
		" 18095551234@s.whatsapp.net ": "18095551234",
		"":                             "",
	}
	for in, want := range cases {
		if got := NormalizeSender(in); got != want {
			t.Errorf("NormalizeSender(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestWebhook_Statuses(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		reply  services.Reply
		err    error
		want   string
		called bool
	}{
		{"processed", `{"message":"Hola","from":"18095551234"}`, services.Reply{Text: "hola", Delivered: true}, nil, WebhookOK, true},
		{"unparsable", `{"foo":1}`, services.Reply{}, nil, WebhookIgnored, false},
		{"duplicate", `{"message":"Hola","from":"18095551234"}`, services.Reply{Duplicate: true}, nil, WebhookIgnored, true},
		{"bot disabled", `{"message":"Hola","from":"18095551234"}`, services.Reply{Skipped: true}, nil, WebhookIgnored, true},
		{"failure", `{"message":"Hola","from":"18095551234"}`, services.Reply{}, errors.New("db down"), WebhookIgnored, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.convs.reply, h.convs.err = tc.reply, tc.err

			w := h.do(http.MethodPost, "/wasender/webhook", tc.body)
			if w.Code != http.StatusOK {
				t.Fatalf("webhook must always answer 200, got %d", w.Code)
			}
			if got := decode[WebhookAck](t, w).Status; got != tc.want {
				t.Fatalf("status = %q; want %q", got, tc.want)
			}
			if called := len(h.convs.got) == 1; called != tc.called {
				t.Fatalf("HandleInbound called = %v; want %v", called, tc.called)
			}
		})
	}
}
