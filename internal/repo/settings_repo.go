package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-booking-backend/internal/domain"
)

// GetSetting returns a setting value, or ErrNotFound.
func GetSetting(ctx context.Context, db *gorm.DB, key string) (string, error) {
	var s domain.Setting
	if err := db.WithContext(ctx).Where("key = ?", key).Take(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

// AllSettings returns every setting as a map.
func AllSettings(ctx context.Context, db *gorm.DB) (map[string]string, error) {
	var rows []domain.Setting
	if err := db.WithContext(ctx).Order("key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// SetSettings upserts all pairs in one statement.
func SetSettings(ctx context.Context, db *gorm.DB, kv map[string]string) error {
	if len(kv) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]domain.Setting, 0, len(kv))
	for k, v := range kv {
		rows = append(rows, domain.Setting{Key: k, Value: v, UpdatedAt: now})
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
}

// SeedSettings inserts defaults without overwriting existing keys.
func SeedSettings(ctx context.Context, db *gorm.DB, defaults map[string]string) error {
	if len(defaults) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]domain.Setting, 0, len(defaults))
	for k, v := range defaults {
		rows = append(rows, domain.Setting{Key: k, Value: v, UpdatedAt: now})
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
