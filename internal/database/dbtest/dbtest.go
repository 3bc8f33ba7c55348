// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Pravinkumar0908/business/internal/database"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated SQLite database in t.TempDir. The pool is capped at
// one connection so concurrent transactions queue the way row locks make
// them queue on Postgres.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := database.ConfigurePool(db, 1, 1, 0); err != nil {
		t.Fatalf("configure pool: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// PostgresDSNEnv names the variable that enables tests needing real row
// locks and concurrent connections.
const PostgresDSNEnv = "TEST_POSTGRES_DSN"

// OpenPostgres returns a migrated Postgres pool with several connections, or
// skips the test when TEST_POSTGRES_DSN is unset. Tests share the database,
// so they should scope their rows by a fresh tenant id.
func OpenPostgres(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if err := database.ConfigurePool(db, 10, 10, time.Minute); err != nil {
		t.Fatalf("configure pool: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
