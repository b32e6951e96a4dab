// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - GuideReader: Read-only access to guides (internal/services/interfaces.go)
//   - GuideStore: Guide persistence used by imports (internal/services/interfaces.go)
//   - CategoryStore: Category provisioning (internal/services/interfaces.go)
//   - RecordCounter: Row counts for backup manifests (internal/services/interfaces.go)
//
// ## Blob Storage Interfaces
//
//   - ImageReader: Read image bytes and metadata (internal/services/interfaces.go)
//   - ImageStore: Upload, validate and delete images (internal/services/interfaces.go)
//
// ## Backup and Background Work
//
//   - backup.Store: Consistent snapshot source and restore target (internal/backup/manager.go)
//   - tasks.BackupCreator: Backup creation from queued tasks (internal/tasks/create_backup.go)
//   - tasks.FileImporter: File imports from queued tasks (internal/tasks/import_file.go)
//
// # Adding a New Import Shape
//
// Import documents are sniffed in internal/importers/detect.go. To accept a
// new shape:
//
//  1. Add an ImportFormat constant in internal/services/results.go.
//
//  2. Add a decoder entry that converts it to []schema.GuideExportData.
//
//  3. Cover it in importers/validate.go so the pre-flight report agrees with
//     the importer.
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., ratings):
//
//  1. Create sub-package: internal/database/ratings/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Register the entity with AutoMigrate in internal/database/database.go
//
//  4. Add compile-time check:
//
//     var _ services.RecordCounter = (*ratings.Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
