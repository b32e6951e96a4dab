package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mrlokans/guidekeeper/internal/entities"
)

type historyPage struct {
	Total  int64                 `json:"total"`
	Events []entities.AuditEvent `json:"events"`
}

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent imports, exports and backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)

			if olderThan, _ := cmd.Flags().GetDuration("clear-older-than"); olderThan > 0 {
				deleted, err := app.Audit.DeleteOldEvents(olderThan)
				if err != nil {
					return fmt.Errorf("clear history: %w", err)
				}
				printf(cmd, "Removed %d history event(s)\n", deleted)
				return nil
			}

			eventType, _ := cmd.Flags().GetString("type")
			limit, _ := cmd.Flags().GetInt("limit")

			events, total, err := app.Audit.GetEvents(entities.AuditEventType(eventType), limit, 0)
			if err != nil {
				return err
			}
			if events == nil {
				events = []entities.AuditEvent{}
			}

			if jsonMode(cmd) {
				return printJSON(cmd, historyPage{Total: total, Events: events})
			}
			if len(events) == 0 {
				printf(cmd, "No history\n")
				return nil
			}
			for _, e := range events {
				printf(cmd, "%-14s  %-8s  %-16s  %s", humanize.Time(e.CreatedAt), e.Status, e.Action, e.Description)
				if e.Target != "" {
					printf(cmd, "  (%s)", e.Target)
				}
				if e.ErrorMsg != "" {
					printf(cmd, "  error: %s", e.ErrorMsg)
				}
				printf(cmd, "\n")
			}
			if total > int64(len(events)) {
				printf(cmd, "... %d more\n", total-int64(len(events)))
			}
			return nil
		},
	}
	cmd.Flags().String("type", "", "Only show events of this type: import, export, backup, prune")
	cmd.Flags().Int("limit", 20, "Number of events to show")
	cmd.Flags().Duration("clear-older-than", 0, "Delete events older than this duration instead of listing")
	return cmd
}
