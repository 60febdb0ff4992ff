// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/pokedex-companion/pokedexservice/pkg/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns a migrated in-memory SQLite database that lives as long as
// the test. A single connection is kept open so every query sees the same
// in-memory database.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(model.Tables()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// OpenFileDB returns a migrated SQLite database in a temporary file with a
// real connection pool, for tests that write from several goroutines.
// Writers queue on the busy timeout instead of failing with SQLITE_BUSY.
func OpenFileDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") +
		"?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(model.Tables()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Logger returns a logrus logger that discards its output.
func Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	if err := db.Omit("Favorites", "SearchHistory", "CustomLists").Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}
