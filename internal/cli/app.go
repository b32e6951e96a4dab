package cli

import (
	"fmt"

	"github.com/mrlokans/guidekeeper/internal/audit"
	"github.com/mrlokans/guidekeeper/internal/backup"
	"github.com/mrlokans/guidekeeper/internal/config"
	"github.com/mrlokans/guidekeeper/internal/database"
	auditRepo "github.com/mrlokans/guidekeeper/internal/database/audit"
	"github.com/mrlokans/guidekeeper/internal/database/categories"
	"github.com/mrlokans/guidekeeper/internal/database/guides"
	"github.com/mrlokans/guidekeeper/internal/database/progress"
	"github.com/mrlokans/guidekeeper/internal/database/users"
	"github.com/mrlokans/guidekeeper/internal/exporters"
	"github.com/mrlokans/guidekeeper/internal/images"
	"github.com/mrlokans/guidekeeper/internal/importers"
	"github.com/mrlokans/guidekeeper/internal/tasks"
)

// App holds the open store and every component built on top of it.
type App struct {
	Config *config.Config

	DB         *database.Database
	Guides     *guides.Repository
	Categories *categories.Repository
	Users      *users.Repository
	Progress   *progress.Repository
	Images     *images.Store

	Exporter *exporters.GuideExporter
	Backups  *backup.Manager
	Audit    *audit.Service

	closed bool
}

func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg.Database.Path, database.Options{Debug: cfg.Database.Debug})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	app := &App{
		Config:     cfg,
		DB:         db,
		Guides:     guides.NewRepository(db.DB),
		Categories: categories.NewRepository(db.DB),
		Users:      users.NewRepository(db.DB),
		Progress:   progress.NewRepository(db.DB),
		Images:     images.NewStore(db.DB, cfg.Import.ImageMaxBytes),
	}
	app.Exporter = exporters.NewGuideExporter(app.Guides, app.Images)
	app.Backups = backup.NewManager(db, backup.Counters{
		Guides:     app.Guides,
		Users:      app.Users,
		Progress:   app.Progress,
		Categories: app.Categories,
	}, cfg.App.Version)
	app.Audit = audit.NewService(auditRepo.NewRepository(db.DB))

	return app, nil
}

// Importer builds a guide importer with the configured bundle limits.
func (a *App) Importer(purgeReplacedImages bool) *importers.GuideImporter {
	return importers.NewGuideImporter(a.Guides, a.Categories, a.Images,
		importers.WithLimits(importers.Limits{
			MaxEntries:    a.Config.Import.MaxEntries,
			MaxEntryBytes: a.Config.Import.MaxEntryBytes,
		}),
		importers.WithOverwriteImageCleanup(purgeReplacedImages),
	)
}

// TaskClient opens the queue database that sits next to the store.
func (a *App) TaskClient() (*tasks.Client, error) {
	return tasks.NewClient(a.Config.Database.Path, tasks.Config{
		Workers:         a.Config.Tasks.Workers,
		ReleaseAfter:    a.Config.Tasks.ReleaseAfter,
		CleanupInterval: a.Config.Tasks.CleanupInterval,
	})
}

// Close releases the store. A restore closes the store itself; closing
// again is harmless.
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return a.DB.Close()
}
