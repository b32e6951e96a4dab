package entities

import "time"

type AuditEventType string

const (
	AuditEventImport AuditEventType = "import"
	AuditEventExport AuditEventType = "export"
	AuditEventBackup AuditEventType = "backup"
	AuditEventPrune  AuditEventType = "prune"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusPartial AuditStatus = "partial"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent is one entry of the activity history kept in the store.
type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`           // e.g. "bundle_import", "backup_create"
	Description string         `gorm:"size:500" json:"description"`      // Human-readable summary
	Target      string         `gorm:"size:500" json:"target,omitempty"` // file or directory involved
	GuideID     *uint          `gorm:"index" json:"guide_id,omitempty"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
