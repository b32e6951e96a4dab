package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/guidekeeper/internal/entities"
	"github.com/mrlokans/guidekeeper/internal/services"
)

// FileImporter is the part of importers.GuideImporter the import queue needs.
type FileImporter interface {
	ImportFromFile(path string, dup entities.DuplicateHandling) services.ImportResult
}

// ImportFileTask imports a JSON document or ZIP bundle from disk.
type ImportFileTask struct {
	Path      string `json:"path"`
	Duplicate string `json:"duplicate"`
}

func (t ImportFileTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_file",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     15 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportFileProcessor fails the task only when nothing was imported and the
// import reported errors. Skipped duplicates are not failures.
func ImportFileProcessor(importer FileImporter) backlite.QueueProcessor[ImportFileTask] {
	return func(ctx context.Context, task ImportFileTask) error {
		if importer == nil {
			return fmt.Errorf("importer not configured")
		}
		if task.Path == "" {
			return fmt.Errorf("import path not set")
		}

		dup, err := entities.ParseDuplicateHandling(task.Duplicate)
		if err != nil {
			return err
		}

		result := importer.ImportFromFile(task.Path, dup)
		for _, w := range result.Warnings {
			log.Warn().Str("path", task.Path).Msg(w)
		}
		if !result.Success && len(result.Errors) > 0 {
			return fmt.Errorf("import %s: %s", task.Path, strings.Join(result.Errors, "; "))
		}

		log.Info().
			Str("path", task.Path).
			Int("guides", len(result.ImportedGuideIDs)).
			Int("images", result.ImagesImported).
			Int("skipped", result.DuplicatesSkipped).
			Msg("Queued import finished")
		return nil
	}
}

func NewImportFileQueue(importer FileImporter) backlite.Queue {
	return backlite.NewQueue(ImportFileProcessor(importer))
}
