package gormprobe

import (
	"testing"

	"gorm.io/gorm"
)

func mustOpen(t *testing.T, cfg Config) *gorm.DB {
	t.Helper()
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestOpenMigratesModelSet(t *testing.T) {
	db := mustOpen(t, Config{})

	for _, table := range []string{"parent", "child", "test_entity", "account"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("expected table %s after migration", table)
		}
	}
}

func TestResetClearsAllTables(t *testing.T) {
	db := mustOpen(t, Config{})
	if _, err := SeedFamilies(db, 2, 2); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := SeedAccounts(db, 1, 100); err != nil {
		t.Fatalf("seed accounts: %v", err)
	}

	if err := Reset(db); err != nil {
		t.Fatalf("reset: %v", err)
	}
	for _, table := range []string{"parent", "child", "account"} {
		n, err := RowCount(db, table)
		if err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Fatalf("expected %s empty after reset, got %d rows", table, n)
		}
	}
}

func TestRowCount(t *testing.T) {
	db := mustOpen(t, Config{})
	if _, err := SeedFamilies(db, 2, 3); err != nil {
		t.Fatalf("seed: %v", err)
	}

	n, err := RowCount(db, "child")
	if err != nil {
		t.Fatalf("count child: %v", err)
	}
	if n != 6 {
		t.Fatalf("expected 6 child rows, got %d", n)
	}
}

func TestRowCountRejectsUnsafeTableNames(t *testing.T) {
	db := mustOpen(t, Config{})

	for _, name := range []string{"", "  ", "child; DROP TABLE parent", "child--", "a b"} {
		if _, err := RowCount(db, name); err == nil {
			t.Fatalf("expected table name %q to be rejected", name)
		}
	}
	if err := validateTableName("main.child"); err != nil {
		t.Fatalf("expected qualified name to pass: %v", err)
	}
}

func TestSharedMemoryDatabaseAcrossHandles(t *testing.T) {
	dsn := "file:gormprobe_shared_test?mode=memory&cache=shared"
	first := mustOpen(t, Config{DSN: dsn})
	second := mustOpen(t, Config{DSN: dsn})

	if _, err := SeedFamilies(first, 1, 2); err != nil {
		t.Fatalf("seed via first handle: %v", err)
	}
	n, err := RowCount(second, "child")
	if err != nil {
		t.Fatalf("count via second handle: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected second handle to see 2 child rows, got %d", n)
	}
}

func TestDefaultDatabasesAreIsolated(t *testing.T) {
	first := mustOpen(t, Config{})
	second := mustOpen(t, Config{})

	if _, err := SeedFamilies(first, 1, 1); err != nil {
		t.Fatalf("seed first: %v", err)
	}
	n, err := RowCount(second, "parent")
	if err != nil {
		t.Fatalf("count second: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected isolated databases, second handle sees %d parents", n)
	}
}

func TestOpenWiresRecorder(t *testing.T) {
	rec := NewQueryRecorder()
	db := mustOpen(t, Config{Recorder: rec})
	rec.Reset()

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("probe statement: %v", err)
	}
	if rec.CountMatching("SELECT 1") != 1 {
		t.Fatalf("expected recorder to trace the probe statement, saw %v", rec.SQLs())
	}
}
