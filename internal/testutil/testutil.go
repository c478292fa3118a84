package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/imovlocal/backend/internal/config"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/repository/postgres"
	"github.com/imovlocal/backend/migrations"
)

// NewTestDB creates an in-memory SQLite database with every migration applied
func NewTestDB(t *testing.T) *postgres.DB {
	t.Helper()

	db, err := postgres.New(config.DatabaseConfig{Driver: postgres.DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if _, err := postgres.RunMigrations(context.Background(), db, migrations.GetFS()); err != nil {
		db.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { CleanupDB(db) })
	return db
}

// CleanupDB closes the test database
func CleanupDB(db *postgres.DB) {
	if db != nil {
		db.Close()
	}
}

// NewTestLogger returns a logger that only prints errors
func NewTestLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

// FixedClock returns a clock function pinned to t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// NewUser builds an active user of type t with sensible defaults
func NewUser(id string, t user.Type) *user.User {
	return &user.User{
		ID:          id,
		Email:       id + "@example.com",
		Name:        "User " + id,
		Phone:       "11999990000",
		UserType:    t,
		Status:      user.StatusActive,
		PlanType:    user.PlanFree,
		MaxListings: 1,
		MaxPhotos:   5,
	}
}
