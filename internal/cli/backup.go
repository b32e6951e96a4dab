package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mrlokans/guidekeeper/internal/backup"
)

func newBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, inspect and restore whole-database backups",
	}
	cmd.AddCommand(
		newBackupCreateCommand(),
		newBackupListCommand(),
		newBackupInfoCommand(),
		newBackupValidateCommand(),
		newBackupRestoreCommand(),
		newBackupPruneCommand(),
	)
	return cmd
}

func newBackupCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create [path]",
		Short: "Write a backup ZIP (default: BACKUP_DIR/guidekeeper-backup-<timestamp>.zip)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)

			path := filepath.Join(app.Config.Backup.Dir, backup.DefaultBackupName(time.Now()))
			if len(args) == 1 {
				path = args[0]
			}

			info, err := app.Backups.CreateBackup(path)
			app.Audit.LogBackup(path, info, err)
			if err != nil {
				return err
			}
			if jsonMode(cmd) {
				return printJSON(cmd, info)
			}
			printf(cmd, "Backup written to %s\n", path)
			printBackupInfo(cmd, info)
			return nil
		},
	}
}

type backupListing struct {
	Path string             `json:"path"`
	Info *backup.BackupInfo `json:"info"`
}

func newBackupListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "List valid backups, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			dir := app.Config.Backup.Dir
			if len(args) == 1 {
				dir = args[0]
			}

			paths, err := app.Backups.GetAvailableBackups(dir)
			if err != nil {
				return err
			}

			listings := make([]backupListing, 0, len(paths))
			for _, path := range paths {
				info, err := app.Backups.GetBackupInfo(path)
				if err != nil {
					return err
				}
				listings = append(listings, backupListing{Path: path, Info: info})
			}

			if jsonMode(cmd) {
				return printJSON(cmd, listings)
			}
			if len(listings) == 0 {
				printf(cmd, "No backups in %s\n", dir)
				return nil
			}
			for _, l := range listings {
				printf(cmd, "%s  %s  %d guide(s)  %s\n",
					l.Path, humanize.Time(l.Info.BackupDate), l.Info.GuideCount, humanize.Bytes(uint64(l.Info.DatabaseSize)))
			}
			return nil
		},
	}
}

func newBackupInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <path>",
		Short: "Show the manifest of a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := getApp(cmd).Backups.GetBackupInfo(args[0])
			if err != nil {
				return err
			}
			if jsonMode(cmd) {
				return printJSON(cmd, info)
			}
			printBackupInfo(cmd, info)
			return nil
		},
	}
}

func newBackupValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Check that a file is a usable backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !getApp(cmd).Backups.ValidateBackup(args[0]) {
				return fmt.Errorf("%s is not a valid backup", args[0])
			}
			printf(cmd, "%s is a valid backup\n", args[0])
			return nil
		},
	}
}

func newBackupRestoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <path>",
		Short: "Replace the database with a backup",
		Long: `Replace the database with a backup.

The current database file is kept next to it as <db>.pre-restore-<timestamp>.
Stop any running daemon first: the restore needs exclusive access to the
database file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("restore replaces the current database; re-run with --yes to confirm")
			}

			app := getApp(cmd)
			if err := app.Backups.RestoreBackup(args[0]); err != nil {
				return err
			}
			printf(cmd, "Restored %s into %s\n", args[0], app.Config.Database.Path)
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm replacing the current database")
	return cmd
}

func newBackupPruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune [dir]",
		Short: "Delete the oldest backups beyond --keep",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			dir := app.Config.Backup.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			keep, _ := cmd.Flags().GetInt("keep")
			if !cmd.Flags().Changed("keep") {
				keep = app.Config.Backup.Retention
			}

			removed, err := app.Backups.PruneBackups(dir, keep)
			app.Audit.LogPrune(dir, keep, removed, err)
			if err != nil {
				return err
			}
			printf(cmd, "Removed %d backup(s), kept at most %d\n", removed, keep)
			return nil
		},
	}
	cmd.Flags().Int("keep", 0, "Backups to keep (default: BACKUP_RETENTION)")
	return cmd
}

func printBackupInfo(cmd *cobra.Command, info *backup.BackupInfo) {
	printf(cmd, "  created:     %s (%s)\n", info.BackupDate.Local().Format(time.RFC1123), humanize.Time(info.BackupDate))
	printf(cmd, "  app version: %s\n", info.AppVersion)
	printf(cmd, "  guides:      %d\n", info.GuideCount)
	printf(cmd, "  users:       %d\n", info.UserCount)
	printf(cmd, "  progress:    %d\n", info.ProgressCount)
	printf(cmd, "  categories:  %d\n", info.CategoryCount)
	printf(cmd, "  size:        %s\n", humanize.Bytes(uint64(info.DatabaseSize)))
	printf(cmd, "  valid:       %t\n", info.IsValid)
}
