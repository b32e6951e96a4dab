// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db.DB)
//	user, err := repo.Create("alice", "Alice")
package users

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/guidekeeper/internal/database"
	"github.com/mrlokans/guidekeeper/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create creates a new user. A taken username returns database.ErrDuplicate.
func (r *Repository) Create(username, displayName string) (*entities.User, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	user := &entities.User{
		Username:    username,
		DisplayName: displayName,
		Role:        "user",
	}

	if err := r.db.Create(user).Error; err != nil {
		return nil, database.TranslateError(err)
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *Repository) GetByUsername(username string) (*entities.User, error) {
	var user entities.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

// GetAll retrieves all users.
func (r *Repository) GetAll() ([]entities.User, error) {
	var users []entities.User
	err := r.db.Order("username ASC").Find(&users).Error
	return users, database.TranslateError(err)
}

// Delete removes a user by ID.
func (r *Repository) Delete(id uint) error {
	return database.TranslateError(r.db.Delete(&entities.User{}, id).Error)
}

// Count returns the number of stored users.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, database.TranslateError(err)
}
