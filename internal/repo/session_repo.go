package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-booking-backend/internal/domain"
)

// GetSession loads a customer's session row, or ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, customerID string) (*domain.Session, error) {
	var s domain.Session
	if err := db.WithContext(ctx).Where("customer_id = ?", customerID).Take(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertSession inserts or replaces the collected fields and updated_at.
// history_from is only written on insert.
func UpsertSession(ctx context.Context, db *gorm.DB, s *domain.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = s.UpdatedAt
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"collected", "updated_at"}),
	}).Create(s).Error
}

// ResetSession empties the collected fields and starts a new history window
// at at, creating the row if needed.
func ResetSession(ctx context.Context, db *gorm.DB, customerID string, at time.Time) (*domain.Session, error) {
	s := &domain.Session{CustomerID: customerID, HistoryFrom: at, CreatedAt: at, UpdatedAt: at}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"collected", "history_from", "updated_at"}),
	}).Create(s).Error
	return s, err
}

// DeleteSession removes a session row. Missing rows are not an error.
func DeleteSession(ctx context.Context, db *gorm.DB, customerID string) error {
	return db.WithContext(ctx).Where("customer_id = ?", customerID).Delete(&domain.Session{}).Error
}
