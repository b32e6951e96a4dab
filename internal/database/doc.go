// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, category seeding, snapshots
//	├── guides/          # Guide and step CRUD, title lookups
//	├── categories/      # Category provisioning
//	├── users/           # User management
//	├── progress/        # Per-user guide progress
//	└── audit/           # Activity history
//
// Step images live in the same SQLite file (see the images package), so a
// snapshot taken with SnapshotTo carries documents and blobs together.
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./guidekeeper.db")
//
//	// Create domain-specific repositories
//	guidesRepo := guides.NewRepository(db.DB)
//	categoriesRepo := categories.NewRepository(db.DB)
//
//	// Use repositories
//	guide, err := guidesRepo.FindByTitle("Network Setup")
//	category, created, err := categoriesRepo.GetOrCreate("Networking")
//
// # Errors
//
// Repositories pass gorm errors through TranslateError, so callers match
// ErrNotFound and ErrDuplicate with errors.Is.
//
// # Adding a New Domain
//
//  1. Add the entity to internal/entities and to the AutoMigrate list in Open
//  2. Create internal/database/<domain>/repository.go with a Repository type
//  3. Add a compile-time check to internal/interfaces/checks.go if the
//     repository satisfies a consumer interface
package database
