package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mrlokans/guidekeeper/internal/scheduler"
	"github.com/mrlokans/guidekeeper/internal/tasks"
)

const shutdownTimeout = 30 * time.Second

func newDaemonCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled backups and queued imports until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			cfg := app.Config

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			dispatch := scheduler.InlineDispatch(app.Backups)

			var client *tasks.Client
			if cfg.Tasks.Enabled {
				var err error
				client, err = app.TaskClient()
				if err != nil {
					return err
				}
				defer client.Close()

				client.Register(
					tasks.NewCreateBackupQueue(app.Backups),
					tasks.NewImportFileQueue(app.Importer(false)),
				)
				go client.Start(ctx)
				dispatch = scheduler.QueueDispatch(client)
			}

			backups := scheduler.NewBackupScheduler(scheduler.Config{
				Enabled:  cfg.Backup.Enabled,
				Schedule: cfg.Backup.Schedule,
				Dir:      cfg.Backup.Dir,
				Keep:     cfg.Backup.Retention,
			}, dispatch)
			if err := backups.Start(ctx); err != nil {
				return fmt.Errorf("start backup scheduler: %w", err)
			}

			log.Info().Str("database", cfg.Database.Path).Bool("tasks", cfg.Tasks.Enabled).Msg("Daemon running")
			<-ctx.Done()
			log.Info().Msg("Shutting down")

			backups.Stop()
			if client != nil {
				stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				client.Stop(stopCtx)
			}
			return nil
		},
	}
}
