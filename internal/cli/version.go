package cli

import (
	"github.com/spf13/cobra"
)

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)
			if jsonMode(cmd) {
				return printJSON(cmd, map[string]string{"version": version, "appVersion": cfg.App.Version})
			}
			printf(cmd, "guidekeeper %s\n", cfg.App.Version)
			return nil
		},
	}
}
