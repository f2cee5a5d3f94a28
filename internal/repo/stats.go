// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the small aggregate queries behind the
// admin dashboard and the ETag of the appointment listing.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-booking-backend/internal/domain"
)

// DashboardCounts is the aggregate shown on the admin dashboard.
type DashboardCounts struct {
	TotalAppointments int64
	AppointmentsToday int64
	MessagesToday     int64
}

// Dashboard counts Confirmed appointments overall and on today, plus turns
// logged in [dayStart, dayStart+24h).
func Dashboard(ctx context.Context, db *gorm.DB, today string, dayStart time.Time) (DashboardCounts, error) {
	var out DashboardCounts
	q := db.WithContext(ctx).Model(&domain.Appointment{}).Where("status = ?", domain.StatusConfirmed)
	if err := q.Count(&out.TotalAppointments).Error; err != nil {
		return out, err
	}
	if err := db.WithContext(ctx).Model(&domain.Appointment{}).
		Where("status = ? AND date = ?", domain.StatusConfirmed, today).
		Count(&out.AppointmentsToday).Error; err != nil {
		return out, err
	}
	n, err := CountMessagesBetween(ctx, db, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return out, err
	}
	out.MessagesToday = n
	return out, nil
}

// AppointmentsStats returns the number of rows matching f and the greatest
// UpdatedAt among them (nil when there are none).
func AppointmentsStats(ctx context.Context, db *gorm.DB, f AppointmentFilter) (count int64, maxUpdatedAt *time.Time, err error) {
	q := f.apply(db.WithContext(ctx).Model(&domain.Appointment{}))

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	q = f.apply(db.WithContext(ctx).Model(&domain.Appointment{}))
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
