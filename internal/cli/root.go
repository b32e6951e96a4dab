// Package cli implements the guidekeeper command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mrlokans/guidekeeper/internal/config"
	"github.com/mrlokans/guidekeeper/internal/logging"
)

type contextKey string

const (
	appKey contextKey = "app"
	cfgKey contextKey = "cfg"

	// skipStore marks commands that run without opening the store.
	skipStore = "skipStore"
)

// runState owns what PersistentPreRunE opens so it can be released even
// when a command fails and cobra skips the post-run hooks.
type runState struct {
	app       *App
	logCloser io.Closer
}

func (s *runState) close() error {
	var err error
	if s.app != nil {
		err = s.app.Close()
	}
	if s.logCloser != nil {
		s.logCloser.Close()
		s.logCloser = nil
	}
	return err
}

// NewRootCommand assembles the command tree. version is reported by the
// version command and stored in backup manifests unless APP_VERSION is set.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, &runState{})
}

func newRootCommand(version string, state *runState) *cobra.Command {
	root := &cobra.Command{
		Use:           "guidekeeper",
		Short:         "Local reference-guide library with import, export and backups",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			config.LoadDotEnv(envFile)

			cfg := config.NewConfig()
			if cfg.App.Version == "" || cfg.App.Version == "dev" {
				cfg.App.Version = version
			}
			if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
				cfg.Database.Path = dbPath
			}
			if level, _ := cmd.Flags().GetString("log-level"); level != "" {
				cfg.Logging.Level = level
			}
			state.logCloser = logging.Setup(cfg.Logging)
			logCommand(cmd, args)

			ctx := context.WithValue(cmd.Context(), cfgKey, cfg)
			if _, ok := cmd.Annotations[skipStore]; ok {
				cmd.SetContext(ctx)
				return nil
			}

			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			state.app = app
			cmd.SetContext(context.WithValue(ctx, appKey, app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return state.close()
		},
	}

	root.PersistentFlags().String("db", "", "Path to the guide database (overrides DATABASE_PATH)")
	root.PersistentFlags().String("env-file", ".env", "Environment file to load before reading configuration")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().Bool("json", false, "Print results as JSON")

	root.AddCommand(
		newExportCommand(),
		newExportAllCommand(),
		newImportCommand(),
		newValidateCommand(),
		newListCommand(),
		newHistoryCommand(),
		newBackupCommand(),
		newDaemonCommand(),
		newVersionCommand(version),
	)

	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(version string) int {
	state := &runState{}
	err := newRootCommand(version, state).Execute()
	state.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func getApp(cmd *cobra.Command) *App {
	if cmd.Context() == nil {
		return nil
	}
	app, _ := cmd.Context().Value(appKey).(*App)
	return app
}

func getConfig(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(cfgKey).(*config.Config)
	return cfg
}

func jsonMode(cmd *cobra.Command) bool {
	on, _ := cmd.Flags().GetBool("json")
	return on
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func logCommand(cmd *cobra.Command, args []string) {
	log.Debug().Str("command", cmd.CommandPath()).Strs("args", args).Msg("Running command")
}
