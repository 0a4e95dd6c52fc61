package repository

import (
	"testing"

	"headspace/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a fresh in-memory database per test so cases stay
// independent and parallelizable.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Thought{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}
