package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/guidekeeper/internal/backup"
	"github.com/mrlokans/guidekeeper/internal/database"
	"github.com/mrlokans/guidekeeper/internal/database/audit"
	"github.com/mrlokans/guidekeeper/internal/database/categories"
	"github.com/mrlokans/guidekeeper/internal/database/guides"
	"github.com/mrlokans/guidekeeper/internal/database/progress"
	"github.com/mrlokans/guidekeeper/internal/database/users"
	"github.com/mrlokans/guidekeeper/internal/images"
	"github.com/mrlokans/guidekeeper/internal/importers"
	"github.com/mrlokans/guidekeeper/internal/services"
	"github.com/mrlokans/guidekeeper/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ services.GuideStore = (*guides.Repository)(nil)
var _ services.CategoryStore = (*categories.Repository)(nil)

var _ services.RecordCounter = (*guides.Repository)(nil)
var _ services.RecordCounter = (*users.Repository)(nil)
var _ services.RecordCounter = (*progress.Repository)(nil)
var _ services.RecordCounter = (*categories.Repository)(nil)
var _ services.RecordCounter = (*audit.Repository)(nil)

// =============================================================================
// Blob Store
// =============================================================================

var _ services.ImageStore = (*images.Store)(nil)

// =============================================================================
// Backup
// =============================================================================

var _ backup.Store = (*database.Database)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ tasks.BackupCreator = (*backup.Manager)(nil)
var _ tasks.FileImporter = (*importers.GuideImporter)(nil)
