package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/internal/platform/cache"
)

// SetupTestDB opens an in-memory SQLite database migrated with every model.
// TranslateError is on so duplicate-key handling behaves like production.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.MembershipPlan{},
		&models.WalkInPass{},
		&models.Membership{},
		&models.Payment{},
		&models.WalkInPayment{},
		&models.AuditLogEntry{},
		&models.Attendance{},
		&models.ChatbotSettings{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// SetupTestCache returns a cache backed by an in-process miniredis.
func SetupTestCache(t *testing.T) *cache.Cache {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client)
}
