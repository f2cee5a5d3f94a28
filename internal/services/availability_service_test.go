package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-booking-backend/internal/domain"
	"github.com/tbourn/go-booking-backend/internal/repo"
)

func TestAvailability_ExcludesBookedAndLunch(t *testing.T) {
	db := newServiceDB(t)
	clk := friday0930()
	ctx := context.Background()
	s := &AvailabilityService{DB: db, Calendar: testCalendar(), Clock: clk, Horizon: 5}

	for _, a := range []*domain.Appointment{
		{Date: "2025-12-19", Time: "10:00", CustomerName: "Ana", Status: domain.StatusConfirmed},
		{Date: "2025-12-20", Time: "15:00", CustomerName: "Luis", Status: domain.StatusCancelled},
	} {
		if err := repo.CreateAppointment(ctx, db, a); err != nil {
			t.Fatal(err)
		}
	}

	days, err := s.Compute(ctx, clk.Now(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 5 {
		t.Fatalf("len = %d", len(days))
	}
	fri := days[0]
	if !fri.Today || fri.Date != "2025-12-19" {
		t.Fatalf("first day %+v", fri)
	}
	for _, slot := range fri.Open {
		if slot == "10:00" || slot == "12:00" || slot <= "09:00" {
			t.Fatalf("slot %s must not be open: %v", slot, fri.Open)
		}
	}
	sat := days[1]
	found := false
	for _, slot := range sat.Open {
		found = found || slot == "15:00"
	}
	if !found {
		t.Fatalf("cancelled booking must not block 15:00: %v", sat.Open)
	}
	if !days[2].Closed {
		t.Fatalf("sunday should be closed: %+v", days[2])
	}

	agenda, _, err := s.Agenda(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(agenda, "2025-12-21 (DOMINGO): CERRADO. NO AGENDAR.") {
		t.Fatalf("agenda:\n%s", agenda)
	}
}

func TestAvailability_HorizonCap(t *testing.T) {
	s := &AvailabilityService{DB: newServiceDB(t), Calendar: testCalendar(), Clock: friday0930(), Horizon: 5}
	days, err := s.Compute(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, businessTZ), 400)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != maxHorizon {
		t.Fatalf("len = %d", len(days))
	}
}
