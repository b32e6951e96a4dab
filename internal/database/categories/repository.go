// Package categories provides database operations for guide categories.
//
// # Usage
//
//	repo := categories.NewRepository(db.DB)
//	category, created, err := repo.GetOrCreate("Networking")
package categories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/guidekeeper/internal/database"
	"github.com/mrlokans/guidekeeper/internal/entities"
)

// Repository handles all category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a category. A name clash returns database.ErrDuplicate.
func (r *Repository) Create(category *entities.Category) error {
	return database.TranslateError(r.db.Create(category).Error)
}

// GetByName retrieves a category by name (case-insensitive).
func (r *Repository) GetByName(name string) (*entities.Category, error) {
	var category entities.Category
	err := r.db.Where("LOWER(name) = LOWER(?)", name).First(&category).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &category, nil
}

// GetOrCreate retrieves a category by name or creates it with the default
// icon and color. The boolean reports whether a new row was written.
func (r *Repository) GetOrCreate(name string) (*entities.Category, bool, error) {
	existing, err := r.GetByName(name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, false, err
	}

	category := &entities.Category{
		Name:  name,
		Icon:  entities.DefaultCategoryIcon,
		Color: entities.DefaultCategoryColor,
	}
	if err := r.Create(category); err != nil {
		return nil, false, err
	}
	return category, true, nil
}

// GetAll retrieves all categories ordered by name.
func (r *Repository) GetAll() ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, database.TranslateError(err)
}

// Delete removes a category by ID.
func (r *Repository) Delete(id uint) error {
	return database.TranslateError(r.db.Delete(&entities.Category{}, id).Error)
}

// Count returns the number of stored categories.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Category{}).Count(&count).Error
	return count, database.TranslateError(err)
}
