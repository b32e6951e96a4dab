package exporters

import (
	"fmt"
	"strings"
	"time"

	"github.com/mrlokans/guidekeeper/internal/entities"
)

// RenderMarkdown renders a guide as a Markdown document with front
// matter. Images are listed by count only.
func RenderMarkdown(guide *entities.Guide) string {
	var builder strings.Builder

	category := guide.Category
	if category == "" {
		category = entities.DefaultCategoryName
	}

	fmt.Fprintf(&builder, "---\n")
	fmt.Fprintf(&builder, "content_type: guide\n")
	fmt.Fprintf(&builder, "exported_at: %s\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&builder, "title: \"%s\"\n", escapeQuotes(guide.Title))
	fmt.Fprintf(&builder, "category: \"%s\"\n", escapeQuotes(category))
	if guide.EstimatedMinutes > 0 {
		fmt.Fprintf(&builder, "estimated_minutes: %d\n", guide.EstimatedMinutes)
	}
	if guide.CreatedBy != "" {
		fmt.Fprintf(&builder, "created_by: \"%s\"\n", escapeQuotes(guide.CreatedBy))
	}
	fmt.Fprintf(&builder, "---\n\n")
	fmt.Fprintf(&builder, "# %s\n\n", guide.Title)

	if guide.Description != "" {
		fmt.Fprintf(&builder, "%s\n\n", guide.Description)
	}

	guide.SortSteps()
	for _, step := range guide.Steps {
		fmt.Fprintf(&builder, "## %d. %s\n\n", step.Order, step.Title)
		if step.Content != "" {
			fmt.Fprintf(&builder, "%s\n\n", strings.TrimRight(step.Content, "\n"))
		}
		switch n := len(step.ImageIDs); n {
		case 0:
		case 1:
			fmt.Fprintf(&builder, "_1 image_\n\n")
		default:
			fmt.Fprintf(&builder, "_%d images_\n\n", n)
		}
	}

	return builder.String()
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}
