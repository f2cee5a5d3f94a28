package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-booking-backend/internal/domain"
)

// newTestDB opens a migrated SQLite database in a temp dir.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	base := t.TempDir()
	bad := filepath.Join(base, "does-not-exist", "app.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}
	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "x"); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
	if _, err := OpenPostgres("  "); err == nil {
		t.Fatal("expected error for empty postgres dsn")
	}
}

func TestOpenSQLite_SetsPragmas_Pool_AndAutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var (
		journalMode string
		syncVal     int
		busyMS      int
	)
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", journalMode)
	}
	if err := db.Raw("PRAGMA synchronous;").Row().Scan(&syncVal); err != nil {
		t.Fatalf("PRAGMA synchronous: %v", err)
	}
	if syncVal != 1 {
		t.Fatalf("expected synchronous=1 (NORMAL), got %d", syncVal)
	}
	if err := db.Raw("PRAGMA busy_timeout;").Row().Scan(&busyMS); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if busyMS != 5000 {
		t.Fatalf("expected busy_timeout=5000, got %d", busyMS)
	}
	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 10 {
		t.Fatalf("expected MaxOpenConnections=10, got %d", stats.MaxOpenConnections)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	// Idempotent on a second run.
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate (again): %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&domain.Appointment{}, &domain.Session{}, &domain.Message{}, &domain.Setting{}, &domain.Idempotency{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&domain.Appointment{}, "ux_appointments_slot_confirmed") {
		t.Fatal("expected partial unique index on appointments")
	}
}

func TestSlotIndex_RejectsSecondConfirmedRow(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	a := &domain.Appointment{ID: "a1", Date: "2025-12-25", Time: "10:00", CustomerName: "Ana", Status: domain.StatusConfirmed, CreatedAt: now}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	dup := &domain.Appointment{ID: "a2", Date: "2025-12-25", Time: "10:00", CustomerName: "Luis", Status: domain.StatusConfirmed, CreatedAt: now}
	if err := db.Create(dup).Error; !IsDuplicate(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	// A cancelled row at the same slot is fine.
	cancelled := &domain.Appointment{ID: "a3", Date: "2025-12-25", Time: "10:00", CustomerName: "Luis", Status: domain.StatusCancelled, CreatedAt: now}
	if err := db.Create(cancelled).Error; err != nil {
		t.Fatalf("cancelled insert: %v", err)
	}
}

func TestIsDuplicateAndIsBusy(t *testing.T) {
	if IsDuplicate(nil) || IsBusy(nil) {
		t.Fatal("nil is neither")
	}
	if !IsDuplicate(gorm.ErrDuplicatedKey) || !IsDuplicate(errors.New("UNIQUE constraint failed: appointments.date")) {
		t.Fatal("duplicate not detected")
	}
	if !IsBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatal("busy not detected")
	}
}

// Compile-time guard to ensure signature stability.
var _ func(string) (*gorm.DB, error) = OpenSQLite
