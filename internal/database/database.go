package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/guidekeeper/internal/entities"
)

var (
	// ErrNotFound is returned when a record lookup matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("unique constraint violated")
)

var defaultCategories = []entities.Category{
	{
		Name:        entities.DefaultCategoryName,
		Description: "Guides without a more specific category",
		Icon:        entities.DefaultCategoryIcon,
		Color:       entities.DefaultCategoryColor,
	},
}

type Database struct {
	DB   *gorm.DB
	path string
}

// Options tweak how the store is opened.
type Options struct {
	// Debug logs every SQL statement through gorm's logger.
	Debug bool
}

func NewDatabase(dbPath string) (*Database, error) {
	return Open(dbPath, Options{})
}

func Open(dbPath string, opts Options) (*Database, error) {
	logLevel := logger.Silent
	if opts.Debug {
		logLevel = logger.Info
	}

	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Category{},
		&entities.User{},
		&entities.Guide{},
		&entities.Step{},
		&entities.Progress{},
		&entities.Image{},
		&entities.AuditEvent{},
	)
	if err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db, path: dbPath}

	if err := database.seedCategories(); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("Database initialized")

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Path returns the on-disk location of the store file.
func (d *Database) Path() string {
	return d.path
}

// SnapshotTo writes a consistent copy of the whole store to dest using
// SQLite's VACUUM INTO. dest must not exist yet.
func (d *Database) SnapshotTo(dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("snapshot destination %s already exists", dest)
	}
	if err := d.DB.Exec("VACUUM INTO ?", dest).Error; err != nil {
		return fmt.Errorf("snapshot database: %w", err)
	}
	return nil
}

func (d *Database) seedCategories() error {
	for _, category := range defaultCategories {
		var existing entities.Category
		result := d.DB.Where("LOWER(name) = LOWER(?)", category.Name).First(&existing)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if err := d.DB.Create(&category).Error; err != nil {
				return fmt.Errorf("failed to create category %s: %w", category.Name, err)
			}
			log.Debug().Str("category", category.Name).Msg("Created default category")
		} else if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// TranslateError maps gorm errors onto the package sentinels so callers can
// match them with errors.Is regardless of the driver in use.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func closeQuietly(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
