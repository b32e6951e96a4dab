package cli

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mrlokans/guidekeeper/internal/entities"
)

type guideSummary struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Steps     int    `json:"steps"`
	Images    int    `json:"images"`
	UpdatedAt string `json:"updatedAt"`
}

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored guides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			category, _ := cmd.Flags().GetString("category")

			var (
				guides []entities.Guide
				err    error
			)
			if category != "" {
				guides, err = app.Guides.GetByCategory(category)
			} else {
				guides, err = app.Guides.GetAll()
			}
			if err != nil {
				return err
			}

			summaries := make([]guideSummary, 0, len(guides))
			for _, g := range guides {
				summaries = append(summaries, guideSummary{
					ID:        g.ID,
					Title:     g.Title,
					Category:  g.Category,
					Steps:     len(g.Steps),
					Images:    len(g.ImageIDs()),
					UpdatedAt: humanize.Time(g.UpdatedAt),
				})
			}

			if jsonMode(cmd) {
				return printJSON(cmd, summaries)
			}
			if len(summaries) == 0 {
				printf(cmd, "No guides\n")
				return nil
			}
			for _, s := range summaries {
				printf(cmd, "%4d  %-40s  %-16s  %2d step(s)  %2d image(s)  updated %s\n",
					s.ID, s.Title, s.Category, s.Steps, s.Images, s.UpdatedAt)
			}
			return nil
		},
	}
	cmd.Flags().String("category", "", "Only list guides in this category")
	return cmd
}
