// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/waste3d/courseforge/internal/infrastructure/repository"
)

// NewTestDB opens a migrated sqlite database in a temp dir. Each test gets its own file.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := repository.Open(repository.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewRedis starts an in-process redis server and returns a client for it.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}
