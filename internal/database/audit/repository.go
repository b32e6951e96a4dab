// Package audit stores the activity history: one row per import, export,
// backup or prune run.
package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/guidekeeper/internal/database"
	"github.com/mrlokans/guidekeeper/internal/entities"
)

const defaultPageSize = 50

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return database.TranslateError(r.db.Create(event).Error)
}

// GetEvents retrieves a page of events, most recent first, and the total
// number of events. An empty eventType matches every type.
func (r *Repository) GetEvents(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	var events []entities.AuditEvent
	var total int64

	query := r.db.Model(&entities.AuditEvent{})
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.TranslateError(err)
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, database.TranslateError(err)
}

// DeleteOldEvents removes audit events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, database.TranslateError(result.Error)
}

// Count returns the number of stored events.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.AuditEvent{}).Count(&count).Error
	return count, database.TranslateError(err)
}
