package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrlokans/guidekeeper/internal/exporters"
	"github.com/mrlokans/guidekeeper/internal/utils"
)

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <guide-id>",
		Short: "Export one guide as JSON, a ZIP bundle or Markdown",
		Example: `  guidekeeper export 12 -o network-setup.json
  guidekeeper export 12 --zip              # writes "<title>.zip"
  guidekeeper export 12 --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)

			id, err := parseGuideID(args[0])
			if err != nil {
				return err
			}
			withImages, _ := cmd.Flags().GetBool("images")
			asZip, _ := cmd.Flags().GetBool("zip")
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			switch {
			case asZip:
				if output == "" {
					guide, err := app.Guides.GetByID(id)
					if err != nil {
						return fmt.Errorf("load guide %d: %w", id, err)
					}
					output = utils.ExportFileName(guide.Title, ".zip")
				}
				if !app.Exporter.ExportGuideWithImagesToFile(id, output) {
					err := fmt.Errorf("bundle export of guide %d failed, see log for details", id)
					app.Audit.LogExport("bundle", id, output, err)
					return err
				}
				app.Audit.LogExport("bundle", id, output, nil)
				printf(cmd, "Exported guide %d to %s\n", id, output)
				return nil

			case format == "markdown" || format == "md":
				guide, err := app.Guides.GetByID(id)
				if err != nil {
					return fmt.Errorf("load guide %d: %w", id, err)
				}
				err = writeOutput(cmd, output, exporters.RenderMarkdown(guide))
				if output != "" {
					app.Audit.LogExport("markdown", id, output, err)
				}
				return err

			case format == "json":
				if output == "" {
					content, err := app.Exporter.ExportGuide(id, withImages)
					if err != nil {
						return err
					}
					printf(cmd, "%s\n", content)
					return nil
				}
				if !app.Exporter.ExportGuideToFile(id, output, withImages) {
					err := fmt.Errorf("export of guide %d failed, see log for details", id)
					app.Audit.LogExport("json", id, output, err)
					return err
				}
				app.Audit.LogExport("json", id, output, nil)
				printf(cmd, "Exported guide %d to %s\n", id, output)
				return nil

			default:
				return fmt.Errorf("unknown format %q: must be json or markdown", format)
			}
		},
	}

	cmd.Flags().Bool("images", false, "Inline step images as base64")
	cmd.Flags().Bool("zip", false, "Write a ZIP bundle with guide.json and image files")
	cmd.Flags().String("format", "json", "Output format: json or markdown")
	cmd.Flags().StringP("output", "o", "", "Output file (stdout when empty)")
	return cmd
}

func newExportAllCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-all",
		Short: "Export every guide into one JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			withImages, _ := cmd.Flags().GetBool("images")
			output, _ := cmd.Flags().GetString("output")

			if output == "" {
				content, err := app.Exporter.ExportAllGuides(withImages)
				if err != nil {
					return err
				}
				printf(cmd, "%s\n", content)
				return nil
			}
			if !app.Exporter.ExportAllGuidesToFile(output, withImages) {
				err := fmt.Errorf("export failed, see log for details")
				app.Audit.LogExport("json", 0, output, err)
				return err
			}
			app.Audit.LogExport("json", 0, output, nil)
			printf(cmd, "Exported all guides to %s\n", output)
			return nil
		},
	}

	cmd.Flags().Bool("images", false, "Inline step images as base64")
	cmd.Flags().StringP("output", "o", "", "Output file (stdout when empty)")
	return cmd
}

func parseGuideID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid guide id %q", s)
	}
	return uint(id), nil
}

func writeOutput(cmd *cobra.Command, path, content string) error {
	if path == "" {
		printf(cmd, "%s", content)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printf(cmd, "Wrote %s\n", path)
	return nil
}
