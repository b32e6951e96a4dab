// Package audit records what import, export and backup runs did, so the
// history command can show it later.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/guidekeeper/internal/backup"
	"github.com/mrlokans/guidekeeper/internal/database/audit"
	"github.com/mrlokans/guidekeeper/internal/entities"
	"github.com/mrlokans/guidekeeper/internal/services"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event. Failures are logged and otherwise
// ignored: the history never decides whether an operation succeeded.
func (s *Service) Log(event *entities.AuditEvent) {
	if err := s.repo.LogEvent(event); err != nil {
		log.Warn().Err(err).Str("action", event.Action).Msg("Failed to log audit event")
	}
}

// LogImport records the outcome of one import call.
func (s *Service) LogImport(format, path string, dup entities.DuplicateHandling, result services.ImportResult) {
	event := &entities.AuditEvent{
		EventType: entities.AuditEventImport,
		Action:    format + "_import",
		Description: fmt.Sprintf("Imported %d guide(s) and %d image(s), skipped %d duplicate(s)",
			len(result.ImportedGuideIDs), result.ImagesImported, result.DuplicatesSkipped),
		Target: truncate(path, 500),
		Status: importStatus(result),
	}
	if len(result.ImportedGuideIDs) == 1 {
		id := result.ImportedGuideIDs[0]
		event.GuideID = &id
	}
	if len(result.Errors) > 0 {
		event.ErrorMsg = truncate(result.Errors[0], 500)
	}
	event.Metadata = encodeMetadata(map[string]any{
		"duplicates": dup.String(),
		"guide_ids":  result.ImportedGuideIDs,
		"warnings":   len(result.Warnings),
		"errors":     len(result.Errors),
	})

	s.Log(event)
}

// LogExport records an export of one guide (guideID > 0) or of the whole
// library (guideID == 0).
func (s *Service) LogExport(format string, guideID uint, target string, err error) {
	event := &entities.AuditEvent{
		EventType: entities.AuditEventExport,
		Action:    format + "_export",
		Target:    truncate(target, 500),
		Status:    entities.AuditStatusSuccess,
	}
	if guideID > 0 {
		event.GuideID = &guideID
		event.Description = fmt.Sprintf("Exported guide %d", guideID)
	} else {
		event.Description = "Exported all guides"
	}
	setError(event, err)

	s.Log(event)
}

// LogBackup records a backup creation.
func (s *Service) LogBackup(path string, info *backup.BackupInfo, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventBackup,
		Action:      "backup_create",
		Description: "Backup created",
		Target:      truncate(path, 500),
		Status:      entities.AuditStatusSuccess,
	}
	if info != nil {
		event.Description = fmt.Sprintf("Backup of %d guide(s) created", info.GuideCount)
		event.Metadata = encodeMetadata(info)
	}
	setError(event, err)

	s.Log(event)
}

// LogPrune records a retention run over a backup directory.
func (s *Service) LogPrune(dir string, keep, removed int, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventPrune,
		Action:      "backup_prune",
		Description: fmt.Sprintf("Removed %d backup(s), keeping %d", removed, keep),
		Target:      truncate(dir, 500),
		Status:      entities.AuditStatusSuccess,
	}
	setError(event, err)

	s.Log(event)
}

// GetEvents retrieves paginated audit events. An empty eventType matches
// every type.
func (s *Service) GetEvents(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(eventType, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func importStatus(result services.ImportResult) entities.AuditStatus {
	switch {
	case result.Success && len(result.Errors) > 0:
		return entities.AuditStatusPartial
	case result.Success, len(result.Errors) == 0:
		return entities.AuditStatusSuccess
	default:
		return entities.AuditStatusFailed
	}
}

func setError(event *entities.AuditEvent, err error) {
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
}

func encodeMetadata(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
