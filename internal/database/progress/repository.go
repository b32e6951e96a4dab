// Package progress provides database operations for per-user guide progress.
package progress

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/guidekeeper/internal/database"
	"github.com/mrlokans/guidekeeper/internal/entities"
)

// Repository handles all progress database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Start records that a user opened a guide. An existing record is returned
// unchanged.
func (r *Repository) Start(userID, guideID uint) (*entities.Progress, error) {
	var progress entities.Progress
	err := r.db.Where("user_id = ? AND guide_id = ?", userID, guideID).First(&progress).Error
	if err == nil {
		return &progress, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, database.TranslateError(err)
	}

	progress = entities.Progress{
		UserID:      userID,
		GuideID:     guideID,
		CurrentStep: 1,
		StartedAt:   time.Now(),
	}
	if err := r.db.Create(&progress).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &progress, nil
}

// Advance moves the user to step and marks the guide complete when
// completed reaches totalSteps.
func (r *Repository) Advance(id uint, step, completed, totalSteps int) error {
	updates := map[string]any{
		"current_step":    step,
		"completed_steps": completed,
	}
	if totalSteps > 0 && completed >= totalSteps {
		updates["completed_at"] = time.Now()
	}
	result := r.db.Model(&entities.Progress{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return database.TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return database.TranslateError(gorm.ErrRecordNotFound)
	}
	return nil
}

// GetForUser retrieves every progress record of a user.
func (r *Repository) GetForUser(userID uint) ([]entities.Progress, error) {
	var records []entities.Progress
	err := r.db.Where("user_id = ?", userID).Order("started_at DESC").Find(&records).Error
	return records, database.TranslateError(err)
}

// Count returns the number of stored progress records.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Progress{}).Count(&count).Error
	return count, database.TranslateError(err)
}
