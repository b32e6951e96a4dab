package config

const (
	// DefaultDatabasePath is the default location of the guide store.
	DefaultDatabasePath = "./guidekeeper.db"

	// DefaultBackupDir is where unnamed and scheduled backups are written.
	DefaultBackupDir = "./backups"

	// DefaultBackupSchedule runs the automatic backup daily at 03:00.
	DefaultBackupSchedule = "0 3 * * *"
)
