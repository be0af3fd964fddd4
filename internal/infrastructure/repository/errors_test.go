package repository

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/waste3d/courseforge/internal/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(nil))
}

func TestSQLiteTranslatesDuplicateKey(t *testing.T) {
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "dup.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.NoError(t, db.Create(&domain.Course{Slug: "go", Title: "Go", Description: "d"}).Error)
	err = db.Create(&domain.Course{Slug: "go", Title: "Go again", Description: "d"}).Error
	assert.True(t, isUniqueViolation(err), "got %v", err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.Error(t, err)
}
