package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-booking-backend/internal/clock"
	"github.com/tbourn/go-booking-backend/internal/repo"
	"github.com/tbourn/go-booking-backend/internal/schedule"
)

// Stats is the admin dashboard payload.
type Stats struct {
	BotEnabled        bool   `json:"bot_enabled"`
	BusinessName      string `json:"business_name"`
	TotalAppointments int64  `json:"total_appointments"`
	AppointmentsToday int64  `json:"appointments_today"`
	MessagesToday     int64  `json:"messages_today"`
}

// StatsService aggregates the dashboard counters.
type StatsService struct {
	DB       *gorm.DB
	Calendar schedule.Calendar
	Clock    clock.Clock
	Settings *SettingsService
}

// Dashboard returns counters for "today" in the business timezone.
func (s *StatsService) Dashboard(ctx context.Context) (Stats, error) {
	local := s.Calendar.In(s.Clock.Now())
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())

	counts, err := repo.Dashboard(ctx, s.DB, local.Format(schedule.DateLayout), dayStart)
	if err != nil {
		return Stats{}, err
	}
	enabled, err := s.Settings.BotEnabled(ctx)
	if err != nil {
		return Stats{}, err
	}
	name, err := s.Settings.Get(ctx, SettingBusinessName)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		BotEnabled:        enabled,
		BusinessName:      name,
		TotalAppointments: counts.TotalAppointments,
		AppointmentsToday: counts.AppointmentsToday,
		MessagesToday:     counts.MessagesToday,
	}, nil
}
