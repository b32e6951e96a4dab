package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/guidekeeper/internal/database"
	"github.com/mrlokans/guidekeeper/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB)
}

func TestRepository_LogEvent(t *testing.T) {
	repo := setupTestDB(t)

	event := &entities.AuditEvent{
		EventType: entities.AuditEventImport,
		Action:    "json_import",
		Status:    entities.AuditStatusSuccess,
	}
	require.NoError(t, repo.LogEvent(event))

	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_GetEvents(t *testing.T) {
	repo := setupTestDB(t)

	base := time.Now().Add(-time.Hour)
	for i, typ := range []entities.AuditEventType{
		entities.AuditEventImport,
		entities.AuditEventBackup,
		entities.AuditEventImport,
	} {
		require.NoError(t, repo.LogEvent(&entities.AuditEvent{
			EventType: typ,
			Action:    string(typ),
			Status:    entities.AuditStatusSuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	t.Run("all types, newest first", func(t *testing.T) {
		events, total, err := repo.GetEvents("", 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, events, 3)
		assert.True(t, events[0].CreatedAt.After(events[1].CreatedAt))
		assert.Equal(t, entities.AuditEventBackup, events[1].EventType)
	})

	t.Run("filtered by type", func(t *testing.T) {
		events, total, err := repo.GetEvents(entities.AuditEventImport, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, events, 2)
	})

	t.Run("pagination", func(t *testing.T) {
		events, total, err := repo.GetEvents("", 2, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, events, 1)
	})

	t.Run("default page size", func(t *testing.T) {
		events, _, err := repo.GetEvents("", 0, -5)
		require.NoError(t, err)
		assert.Len(t, events, 3)
	})
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{Action: "old", CreatedAt: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{Action: "new"}))

	deleted, err := repo.DeleteOldEvents(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
