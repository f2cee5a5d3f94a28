// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// conversation log (domain.Message).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-booking-backend/internal/domain"
)

// CreateMessage inserts a new turn. at is the turn's timestamp.
// IDs are UUIDv7 so turns sharing a timestamp still sort in insertion order.
func CreateMessage(ctx context.Context, db *gorm.DB, customerID, customerName, role, content string, at time.Time) (*domain.Message, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	m := &domain.Message{
		ID:           id.String(),
		CustomerID:   customerID,
		CustomerName: customerName,
		Role:         role,
		Content:      content,
		CreatedAt:    at.UTC(),
	}
	return m, db.WithContext(ctx).Create(m).Error
}

// RecentMessages returns the last limit turns of a customer written at or
// after since, oldest first. A zero since disables the lower bound.
func RecentMessages(ctx context.Context, db *gorm.DB, customerID string, since time.Time, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.WithContext(ctx).Where("customer_id = ?", customerID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since.UTC())
	}
	q = q.Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CountMessagesBetween counts turns with created_at in [from, to).
func CountMessagesBetween(ctx context.Context, db *gorm.DB, from, to time.Time) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Message{}).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Count(&n).Error
	return n, err
}
