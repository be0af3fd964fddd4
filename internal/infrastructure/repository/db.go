package repository

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/waste3d/courseforge/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open подключается к БД. Для sqlite включаются внешние ключи, иначе не работают каскады.
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	}

	switch driver {
	case DriverPostgres:
		return gorm.Open(postgres.Open(dsn), cfg)
	case DriverSQLite:
		db, err := gorm.Open(sqlite.Open(sqliteDSN(dsn)), cfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite не умеет параллельную запись
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(time.Hour)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Migrate создаёт схему. Уникальные индексы на позициях и slug задаются тегами моделей.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Course{},
		&domain.Section{},
		&domain.Lesson{},
		&domain.Exercise{},
		&domain.Quiz{},
		&domain.Project{},
		&domain.User{},
	)
}
