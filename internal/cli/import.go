package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrlokans/guidekeeper/internal/entities"
	"github.com/mrlokans/guidekeeper/internal/services"
	"github.com/mrlokans/guidekeeper/internal/tasks"
)

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import guides from a JSON document or ZIP bundle",
		Long: `Import guides from a JSON document or ZIP bundle.

Guides whose title already exists (case-insensitive) are handled by
--duplicate: skip leaves the store unchanged, overwrite replaces the existing
guide, rename stores the import as "Title (n)".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)

			policy, _ := cmd.Flags().GetString("duplicate")
			dup, err := entities.ParseDuplicateHandling(policy)
			if err != nil {
				return err
			}
			purge, _ := cmd.Flags().GetBool("purge-replaced-images")
			queued, _ := cmd.Flags().GetBool("queue")

			if queued {
				return enqueueImport(cmd, app, args[0], dup)
			}

			result := app.Importer(purge).ImportFromFile(args[0], dup)
			app.Audit.LogImport(importFormat(args[0]), args[0], dup, result)
			if jsonMode(cmd) {
				if err := printJSON(cmd, result); err != nil {
					return err
				}
			} else {
				printImportResult(cmd, result)
			}

			if !result.Success && len(result.Errors) > 0 {
				return fmt.Errorf("import failed with %d error(s)", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().String("duplicate", string(entities.DuplicateSkip), "Duplicate title handling: skip, overwrite or rename")
	cmd.Flags().Bool("purge-replaced-images", false, "With --duplicate overwrite, delete the replaced guide's images")
	cmd.Flags().Bool("queue", false, "Hand the import to the daemon's task queue instead of running it now")
	return cmd
}

func enqueueImport(cmd *cobra.Command, app *App, path string, dup entities.DuplicateHandling) error {
	if !app.Config.Tasks.Enabled {
		return fmt.Errorf("task queue is disabled (TASKS_ENABLED=false)")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	client, err := app.TaskClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ids, err := client.Add(tasks.ImportFileTask{Path: abs, Duplicate: dup.String()}).Save()
	if err != nil {
		return fmt.Errorf("enqueue import: %w", err)
	}
	printf(cmd, "Queued import of %s (task %s)\n", abs, strings.Join(ids, ", "))
	return nil
}

func printImportResult(cmd *cobra.Command, result services.ImportResult) {
	printf(cmd, "Imported %d guide(s), %d image(s); skipped %d duplicate(s)\n",
		len(result.ImportedGuideIDs), result.ImagesImported, result.DuplicatesSkipped)
	for _, id := range result.ImportedGuideIDs {
		printf(cmd, "  guide id %d\n", id)
	}
	for _, w := range result.Warnings {
		printf(cmd, "warning: %s\n", w)
	}
	for _, e := range result.Errors {
		printf(cmd, "error: %s\n", e)
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check an import file without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report := getApp(cmd).Importer(false).ValidateImportFile(args[0])

			if jsonMode(cmd) {
				if err := printJSON(cmd, report); err != nil {
					return err
				}
			} else {
				status := "valid"
				if !report.Valid {
					status = "invalid"
				}
				printf(cmd, "%s: %s (%s format, %d guide(s), %d image(s))\n",
					args[0], status, formatName(report.Format), report.GuideCount, report.ImageCount)
				for _, title := range report.Titles {
					printf(cmd, "  - %s\n", title)
				}
				for _, w := range report.Warnings {
					printf(cmd, "warning: %s\n", w)
				}
				for _, e := range report.Errors {
					printf(cmd, "error: %s\n", e)
				}
			}

			if !report.Valid {
				return fmt.Errorf("%s is not importable", args[0])
			}
			return nil
		},
	}
}

// importFormat labels an import for the history by file extension.
func importFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return string(services.FormatBundle)
	}
	return "json"
}

func formatName(f services.ImportFormat) string {
	if f == services.FormatUnknown {
		return "unknown"
	}
	return string(f)
}
