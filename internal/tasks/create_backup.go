package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/guidekeeper/internal/backup"
)

// BackupCreator is the part of backup.Manager the backup queue needs.
type BackupCreator interface {
	CreateBackup(path string) (*backup.BackupInfo, error)
	PruneBackups(dir string, keep int) (int, error)
}

// CreateBackupTask writes a timestamped backup into Dir and then prunes the
// directory down to Keep backups. Keep of zero disables pruning.
type CreateBackupTask struct {
	Dir  string `json:"dir"`
	Keep int    `json:"keep"`
}

func (t CreateBackupTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "create_backup",
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RunCreateBackup does the work of one CreateBackupTask. The scheduler
// calls it directly when the queue is disabled.
func RunCreateBackup(creator BackupCreator, task CreateBackupTask) error {
	if task.Dir == "" {
		return fmt.Errorf("backup directory not set")
	}

	path := filepath.Join(task.Dir, backup.DefaultBackupName(time.Now()))
	info, err := creator.CreateBackup(path)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	log.Info().Str("path", path).Int64("guides", info.GuideCount).Msg("Scheduled backup written")

	if task.Keep > 0 {
		if _, err := creator.PruneBackups(task.Dir, task.Keep); err != nil {
			return fmt.Errorf("prune backups: %w", err)
		}
	}
	return nil
}

func CreateBackupProcessor(creator BackupCreator) backlite.QueueProcessor[CreateBackupTask] {
	return func(ctx context.Context, task CreateBackupTask) error {
		if creator == nil {
			return fmt.Errorf("backup manager not configured")
		}
		return RunCreateBackup(creator, task)
	}
}

func NewCreateBackupQueue(creator BackupCreator) backlite.Queue {
	return backlite.NewQueue(CreateBackupProcessor(creator))
}
