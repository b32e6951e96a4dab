package importers

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/guidekeeper/internal/schema"
	"github.com/mrlokans/guidekeeper/internal/services"
)

// ValidateImportData runs format detection and structural checks on data
// without writing anything.
func (g *GuideImporter) ValidateImportData(data []byte) services.ValidationReport {
	return g.validateData(data, isZipData(data))
}

// ValidateImportFile is ValidateImportData for a file on disk. A .zip
// extension forces bundle handling.
func (g *GuideImporter) ValidateImportFile(path string) services.ValidationReport {
	if path == "" {
		panic("importers: ValidateImportFile called with empty path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return services.ValidationReport{Errors: []string{fmt.Sprintf("read %s: %v", path, err)}}
	}
	return g.validateData(data, isZipPath(path) || isZipData(data))
}

func (g *GuideImporter) validateData(data []byte, zipped bool) services.ValidationReport {
	report := services.ValidationReport{
		Titles:   []string{},
		Errors:   []string{},
		Warnings: []string{},
	}

	var (
		doc        document
		bundled    map[string]bool
		referenced = make(map[string]bool)
	)
	if zipped {
		b, err := g.openBundle(data)
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
			return report
		}
		report.Format = services.FormatBundle
		report.ImageCount = len(b.entries)

		doc, err = decodeDocument(b.guideJSON)
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
			return report
		}
		bundled = make(map[string]bool, len(b.entries))
		for name := range b.entries {
			bundled[name] = true
		}
	} else {
		var err error
		doc, err = decodeDocument(data)
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
			return report
		}
		report.Format = doc.format
	}

	for i := range doc.guides {
		guide := &doc.guides[i]
		report.GuideCount++
		report.Titles = append(report.Titles, guide.Title)

		if err := g.validateGuide(guide); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("guide %d: %v", i+1, err))
		}
		for _, step := range guide.Steps {
			if !zipped {
				report.ImageCount += len(step.Images)
			}
			for _, id := range schema.SortedContentIDs(step.ImageFiles) {
				name := bundleEntryName(step.ImageFiles[id])
				referenced[name] = true
				if zipped && !bundled[name] {
					report.Warnings = append(report.Warnings,
						fmt.Sprintf("guide %q step %d: image %s not found in bundle", guide.Title, step.Order, name))
				}
			}
		}
	}

	orphans := make([]string, 0)
	for name := range bundled {
		if !referenced[name] {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	for _, name := range orphans {
		report.Warnings = append(report.Warnings, fmt.Sprintf("bundle image %s is not referenced by any step", name))
	}

	if report.GuideCount == 0 {
		report.Errors = append(report.Errors, "document contains no guides")
	}
	report.Valid = len(report.Errors) == 0
	return report
}

// validateGuide checks one guide against the interchange constraints:
// a non-blank title and unique step orders of at least 1.
func (g *GuideImporter) validateGuide(guide *schema.GuideExportData) error {
	if strings.TrimSpace(guide.Title) == "" {
		return fmt.Errorf("%w: guide title is required", services.ErrValidation)
	}

	err := g.validate.Struct(guide)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %v", services.ErrValidation, err)
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", services.ErrValidation, strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Namespace(), fe.Param())
	case "unique":
		return fmt.Sprintf("%s must have unique %s values", fe.Namespace(), strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("%s failed the '%s' check", fe.Namespace(), fe.Tag())
	}
}
