package progress

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/guidekeeper/internal/database"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "progress.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB)
}

func TestRepository_Start(t *testing.T) {
	repo := setupTestDB(t)

	first, err := repo.Start(1, 10)
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.Equal(t, 1, first.CurrentStep)
	assert.Nil(t, first.CompletedAt)

	again, err := repo.Start(1, 10)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "starting twice returns the existing record")

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_Advance(t *testing.T) {
	repo := setupTestDB(t)

	p, err := repo.Start(1, 10)
	require.NoError(t, err)

	t.Run("partial progress", func(t *testing.T) {
		require.NoError(t, repo.Advance(p.ID, 2, 1, 3))

		records, err := repo.GetForUser(1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 2, records[0].CurrentStep)
		assert.Equal(t, 1, records[0].CompletedSteps)
		assert.Nil(t, records[0].CompletedAt)
	})

	t.Run("completing every step sets CompletedAt", func(t *testing.T) {
		require.NoError(t, repo.Advance(p.ID, 3, 3, 3))

		records, err := repo.GetForUser(1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.NotNil(t, records[0].CompletedAt)
	})

	t.Run("unknown record", func(t *testing.T) {
		assert.ErrorIs(t, repo.Advance(999, 1, 0, 3), database.ErrNotFound)
	})
}
