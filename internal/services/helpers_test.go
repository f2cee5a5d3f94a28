package services

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-booking-backend/internal/clock"
	"github.com/tbourn/go-booking-backend/internal/repo"
	"github.com/tbourn/go-booking-backend/internal/schedule"
)

// ---------- test helpers ----------

// newServiceDB opens a migrated file-backed SQLite database so concurrent
// transactions behave like production.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() { _ = repo.Close(db) })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// businessTZ is the default UTC-4 business timezone.
var businessTZ = time.FixedZone("UTC-4", -4*3600)

// friday0930 is Friday 2025-12-19 09:30 business time.
func friday0930() *clock.Fixed {
	return clock.NewFixed(time.Date(2025, 12, 19, 9, 30, 0, 0, businessTZ))
}

func testCalendar() schedule.Calendar { return schedule.DefaultCalendar() }
