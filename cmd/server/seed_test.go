package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tbourn/go-booking-backend/internal/domain"
	"github.com/tbourn/go-booking-backend/internal/schedule"
	"github.com/tbourn/go-booking-backend/internal/services"
)

type fakeSeedSettings struct {
	got map[string]string
	err error
}

func (f *fakeSeedSettings) Update(_ context.Context, kv map[string]string) (map[string]string, error) {
	f.got = kv
	return kv, f.err
}

type fakeSeedBookings struct {
	errs  map[string]error // keyed by name
	calls []services.BookingRequest
}

func (f *fakeSeedBookings) Book(_ context.Context, req services.BookingRequest) (*domain.Appointment, error) {
	f.calls = append(f.calls, req)
	if err := f.errs[req.Name]; err != nil {
		return nil, err
	}
	return &domain.Appointment{ID: "id-" + req.Name, CustomerName: req.Name}, nil
}

const sampleSeed = `
settings:
  business_name: Barbería Z
  bot_enabled: "false"
appointments:
  - date: 2025-12-22
    time: 10am
    name: Ana
    phone: "18095551234"
    service: Corte
    total: 10
  - {date: 2025-12-22, time: "15:00", name: Luis}
`

func TestParseSeed(t *testing.T) {
	s, err := parseSeed(strings.NewReader(sampleSeed))
	if err != nil {
		t.Fatalf("parseSeed: %v", err)
	}
	if s.Settings["business_name"] != "Barbería Z" || s.Settings["bot_enabled"] != "false" {
		t.Fatalf("settings = %v", s.Settings)
	}
	if len(s.Appointments) != 2 || s.Appointments[0].Total != 10 || s.Appointments[1].Time != "15:00" {
		t.Fatalf("appointments = %+v", s.Appointments)
	}
}

func TestParseSeed_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"unknown field": "settings: {}\nextra: 1\n",
		"missing name":  "appointments:\n  - {date: 2025-12-22, time: 10am}\n",
		"bad yaml":      "settings: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseSeed(strings.NewReader(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestApplySeed_SkipsRejectedSlots(t *testing.T) {
	s, err := parseSeed(strings.NewReader(sampleSeed))
	if err != nil {
		t.Fatal(err)
	}
	settings := &fakeSeedSettings{}
	bookings := &fakeSeedBookings{errs: map[string]error{"Luis": services.ErrSlotTaken}}

	booked, skipped, err := applySeed(context.Background(), settings, bookings, s)
	if err != nil {
		t.Fatalf("applySeed: %v", err)
	}
	if booked != 1 || skipped != 1 {
		t.Fatalf("booked=%d skipped=%d", booked, skipped)
	}
	if settings.got["business_name"] != "Barbería Z" {
		t.Fatalf("settings not applied: %v", settings.got)
	}
	if bookings.calls[0].Time != "10am" || bookings.calls[0].Phone != "18095551234" {
		t.Fatalf("request = %+v", bookings.calls[0])
	}
}

func TestApplySeed_ValidationSkippedStorageAborts(t *testing.T) {
	s := seedFile{Appointments: []seedAppointment{
		{Date: "2025-12-21", Time: "10am", Name: "Closed"},
		{Date: "2025-12-22", Time: "10am", Name: "Broken"},
		{Date: "2025-12-22", Time: "11am", Name: "Never"},
	}}
	boom := errors.New("disk full")
	bookings := &fakeSeedBookings{errs: map[string]error{
		"Closed": schedule.ErrClosedDay,
		"Broken": boom,
	}}

	booked, skipped, err := applySeed(context.Background(), &fakeSeedSettings{}, bookings, s)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if booked != 0 || skipped != 1 || len(bookings.calls) != 2 {
		t.Fatalf("booked=%d skipped=%d calls=%d", booked, skipped, len(bookings.calls))
	}
}

func TestApplySeed_SettingsErrorAborts(t *testing.T) {
	s := seedFile{Settings: map[string]string{"nope": "x"}}
	bookings := &fakeSeedBookings{}
	_, _, err := applySeed(context.Background(), &fakeSeedSettings{err: services.ErrUnknownSetting}, bookings, s)
	if !errors.Is(err, services.ErrUnknownSetting) {
		t.Fatalf("err = %v", err)
	}
	if len(bookings.calls) != 0 {
		t.Fatalf("no booking expected after a settings failure")
	}
}
