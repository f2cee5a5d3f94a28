package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-booking-backend/internal/clock"
	"github.com/tbourn/go-booking-backend/internal/repo"
	"github.com/tbourn/go-booking-backend/internal/schedule"
)

// maxHorizon caps admin availability queries.
const maxHorizon = 31

// AvailabilityService computes open slots from the calendar and the
// Confirmed appointments in storage.
type AvailabilityService struct {
	DB       *gorm.DB
	Calendar schedule.Calendar
	Clock    clock.Clock
	Horizon  int // default day count
}

// Compute returns availability for days dates starting at start.
// days <= 0 uses the configured horizon.
func (s *AvailabilityService) Compute(ctx context.Context, start time.Time, days int) ([]schedule.Day, error) {
	if days <= 0 {
		days = s.Horizon
	}
	if days <= 0 {
		days = 5
	}
	if days > maxHorizon {
		days = maxHorizon
	}

	tr := otel.Tracer("services/AvailabilityService")
	ctx, span := tr.Start(ctx, "Compute", trace.WithAttributes(attribute.Int("availability.days", days)))
	defer span.End()

	first := s.Calendar.In(start)
	from := first.Format(schedule.DateLayout)
	to := first.AddDate(0, 0, days-1).Format(schedule.DateLayout)

	booked, err := repo.BookedTimes(ctx, s.DB, from, to)
	if err != nil {
		return nil, err
	}
	return schedule.Compute(s.Calendar, start, days, s.Clock.Now(), booked), nil
}

// Agenda computes the default horizon from today and renders it as the
// prompt block.
func (s *AvailabilityService) Agenda(ctx context.Context) (string, []schedule.Day, error) {
	days, err := s.Compute(ctx, s.Clock.Now(), s.Horizon)
	if err != nil {
		return "", nil, err
	}
	return schedule.Render(s.Calendar, days), days, nil
}
