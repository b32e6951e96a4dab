package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type (
	Config struct {
		App
		Database
		Backup
		Import
		Tasks
		Logging
	}

	App struct {
		Version string
	}
	Database struct {
		Path  string
		Debug bool // Log every SQL statement
	}
	Backup struct {
		Dir       string
		Enabled   bool   // Run scheduled backups in daemon mode
		Schedule  string // Cron format: "0 3 * * *" = daily at 03:00
		Retention int    // Backups kept by scheduled runs and prune
	}
	Import struct {
		ImageMaxBytes int64
		MaxEntries    int   // ZIP entries allowed in one bundle
		MaxEntryBytes int64 // Uncompressed size allowed per ZIP entry
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Logging struct {
		Level      string // debug, info, warn, error
		Format     string // console or json
		File       string // Rotated JSON log file; empty disables
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
)

// LoadDotEnv loads environment files into the process environment. Missing
// files are ignored; variables already set win over file values.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Warn().Err(err).Str("file", file).Msg("Could not load env file")
			}
			continue
		}
		log.Debug().Str("file", file).Msg("Loaded env file")
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("app_version", "dev")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_debug", false)

	v.SetDefault("backup_dir", DefaultBackupDir)
	v.SetDefault("backup_enabled", true)
	v.SetDefault("backup_schedule", DefaultBackupSchedule)
	v.SetDefault("backup_retention", 7)

	v.SetDefault("image_max_bytes", 10<<20)
	v.SetDefault("import_max_entries", 2000)
	v.SetDefault("import_max_entry_bytes", 64<<20)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "30m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 20)
	v.SetDefault("log_max_backups", 5)
	v.SetDefault("log_max_age_days", 30)

	return &Config{
		App: App{
			Version: v.GetString("APP_VERSION"),
		},
		Database: Database{
			Path:  v.GetString("DATABASE_PATH"),
			Debug: v.GetBool("DATABASE_DEBUG"),
		},
		Backup: Backup{
			Dir:       v.GetString("BACKUP_DIR"),
			Enabled:   v.GetBool("BACKUP_ENABLED"),
			Schedule:  v.GetString("BACKUP_SCHEDULE"),
			Retention: v.GetInt("BACKUP_RETENTION"),
		},
		Import: Import{
			ImageMaxBytes: v.GetInt64("IMAGE_MAX_BYTES"),
			MaxEntries:    v.GetInt("IMPORT_MAX_ENTRIES"),
			MaxEntryBytes: v.GetInt64("IMPORT_MAX_ENTRY_BYTES"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Logging: Logging{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
	}
}
