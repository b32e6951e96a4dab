// Package guides provides database operations for guides and their steps.
//
// This package implements the GuideStore interface consumed by the
// exporters and importers packages.
//
// # Usage
//
//	repo := guides.NewRepository(db.DB)
//	guide, err := repo.GetByID(42)
//	existing, err := repo.FindByTitle("network setup") // case-insensitive
package guides

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/guidekeeper/internal/database"
	"github.com/mrlokans/guidekeeper/internal/entities"
)

// Repository handles all guide database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new guides repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func orderedSteps(db *gorm.DB) *gorm.DB {
	return db.Order("step_order ASC")
}

// Create inserts a guide together with its steps.
func (r *Repository) Create(guide *entities.Guide) error {
	if guide.Title == "" {
		return fmt.Errorf("guide title is required")
	}
	return database.TranslateError(r.db.Create(guide).Error)
}

// Update saves guide fields and replaces its steps with guide.Steps.
func (r *Repository) Update(guide *entities.Guide) error {
	if guide.ID == 0 {
		return fmt.Errorf("cannot update guide without id")
	}
	return database.TranslateError(r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guide_id = ?", guide.ID).Delete(&entities.Step{}).Error; err != nil {
			return err
		}
		for i := range guide.Steps {
			guide.Steps[i].ID = 0
			guide.Steps[i].GuideID = guide.ID
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(guide).Error
	}))
}

// Delete removes a guide and its steps.
func (r *Repository) Delete(id uint) error {
	return database.TranslateError(r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guide_id = ?", id).Delete(&entities.Step{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Guide{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

// Replace deletes the guide oldID with its steps and inserts guide in its
// place. Both writes share one transaction: on failure the old guide stays.
func (r *Repository) Replace(oldID uint, guide *entities.Guide) error {
	if guide.Title == "" {
		return fmt.Errorf("guide title is required")
	}
	return database.TranslateError(r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guide_id = ?", oldID).Delete(&entities.Step{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Guide{}, oldID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(guide).Error
	}))
}

// GetByID retrieves a guide with its steps in order.
func (r *Repository) GetByID(id uint) (*entities.Guide, error) {
	var guide entities.Guide
	err := r.db.Preload("Steps", orderedSteps).First(&guide, id).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &guide, nil
}

// GetAll retrieves every guide with its steps, oldest first.
func (r *Repository) GetAll() ([]entities.Guide, error) {
	var guides []entities.Guide
	err := r.db.Preload("Steps", orderedSteps).Order("id ASC").Find(&guides).Error
	return guides, database.TranslateError(err)
}

// FindByTitle retrieves a guide by title (case-insensitive).
func (r *Repository) FindByTitle(title string) (*entities.Guide, error) {
	var guide entities.Guide
	err := r.db.Preload("Steps", orderedSteps).
		Where("LOWER(title) = LOWER(?)", title).
		First(&guide).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &guide, nil
}

// TitleExists reports whether any guide has the title (case-insensitive).
func (r *Repository) TitleExists(title string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Guide{}).Where("LOWER(title) = LOWER(?)", title).Count(&count).Error
	return count > 0, database.TranslateError(err)
}

// GetByCategory retrieves guides in a category (case-insensitive).
func (r *Repository) GetByCategory(category string) ([]entities.Guide, error) {
	var guides []entities.Guide
	err := r.db.Preload("Steps", orderedSteps).
		Where("LOWER(category) = LOWER(?)", category).
		Order("title ASC").
		Find(&guides).Error
	return guides, database.TranslateError(err)
}

// Count returns the number of stored guides.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Guide{}).Count(&count).Error
	return count, database.TranslateError(err)
}
