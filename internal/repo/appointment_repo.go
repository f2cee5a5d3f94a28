// Package repo – appointments.
//
// Thin persistence helpers for domain.Appointment. Business rules (slot
// conflicts, superseding, validation) live in services.BookingService;
// these functions only compose queries and are safe to call inside a
// transaction handle.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-booking-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// AppointmentFilter narrows ListAppointments / CountAppointments.
// Empty fields are ignored.
type AppointmentFilter struct {
	Date   string
	Status string
	Phone  string
}

func (f AppointmentFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Date != "" {
		q = q.Where("date = ?", f.Date)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Phone != "" {
		q = q.Where("phone = ?", f.Phone)
	}
	return q
}

// CreateAppointment inserts a row. ID and CreatedAt are filled when empty.
func CreateAppointment(ctx context.Context, db *gorm.DB, a *domain.Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Status == "" {
		a.Status = domain.StatusConfirmed
	}
	return db.WithContext(ctx).Create(a).Error
}

// GetAppointment fetches an appointment by ID, or ErrNotFound.
func GetAppointment(ctx context.Context, db *gorm.DB, id string) (*domain.Appointment, error) {
	var a domain.Appointment
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindConfirmedAt returns the Confirmed appointment holding (date, hhmm),
// or ErrNotFound when the slot is free.
func FindConfirmedAt(ctx context.Context, db *gorm.DB, date, hhmm string) (*domain.Appointment, error) {
	var a domain.Appointment
	err := db.WithContext(ctx).
		Where("date = ? AND time = ? AND status = ?", date, hhmm, domain.StatusConfirmed).
		Take(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CancelActiveForPhone marks every Confirmed appointment of phone dated on
// or after fromDate as Cancelled and returns how many rows changed.
func CancelActiveForPhone(ctx context.Context, db *gorm.DB, phone, fromDate string, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("phone = ? AND status = ? AND date >= ?", phone, domain.StatusConfirmed, fromDate).
		Updates(map[string]any{"status": domain.StatusCancelled, "updated_at": now})
	return res.RowsAffected, res.Error
}

// SetAppointmentStatus updates one appointment's status. Returns ErrNotFound
// if no row matched.
func SetAppointmentStatus(ctx context.Context, db *gorm.DB, id, status string, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAppointment hard-deletes an appointment. Administrative use only.
func DeleteAppointment(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Appointment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAppointments returns the number of rows matching f.
func CountAppointments(ctx context.Context, db *gorm.DB, f AppointmentFilter) (int64, error) {
	var n int64
	err := f.apply(db.WithContext(ctx).Model(&domain.Appointment{})).Count(&n).Error
	return n, err
}

// ListAppointmentsPage returns rows ordered by (date, time, created_at).
func ListAppointmentsPage(ctx context.Context, db *gorm.DB, f AppointmentFilter, offset, limit int) ([]domain.Appointment, error) {
	var out []domain.Appointment
	q := f.apply(db.WithContext(ctx).Model(&domain.Appointment{})).
		Order("date ASC, time ASC, created_at ASC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// BookedTimes returns Confirmed times per date for dates in [from, to].
func BookedTimes(ctx context.Context, db *gorm.DB, from, to string) (map[string][]string, error) {
	var rows []struct {
		Date string
		Time string
	}
	err := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Select("date, time").
		Where("status = ? AND date >= ? AND date <= ?", domain.StatusConfirmed, from, to).
		Order("date ASC, time ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string)
	for _, r := range rows {
		out[r.Date] = append(out[r.Date], r.Time)
	}
	return out, nil
}

// IsNotFound reports whether err means "no such row".
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
