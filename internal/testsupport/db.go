// Package testsupport holds database, fixture and fake-gateway helpers shared by
// package tests and the cmd/devdb development tool.
package testsupport

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/localnerve/docauthor/internal/config"
	"github.com/localnerve/docauthor/internal/database"
	"gorm.io/gorm"
)

// SQLiteConfig returns a config for a private in-memory database with foreign keys on
func SQLiteConfig() *config.Config {
	return &config.Config{
		DBType:            "sqlite",
		DBDatabase:        fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString()),
		DBConnectionLimit: 4,
		LogLevel:          "warn",
	}
}

// NewSQLiteDB opens and migrates a fresh in-memory database that lives for the test
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Connect(SQLiteConfig())
	if err != nil {
		t.Fatalf("Failed to connect to sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
