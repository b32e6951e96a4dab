package users

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/guidekeeper/internal/database"
	"github.com/mrlokans/guidekeeper/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	dbPath := filepath.Join(t.TempDir(), "users.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func TestRepository_Create(t *testing.T) {
	repo := setupTestDB(t)

	user, err := repo.Create("testuser", "Test User")

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, "Test User", user.DisplayName)
	assert.Equal(t, "user", user.Role)
}

func TestRepository_Create_RequiresUsername(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Create("", "Nobody")

	assert.Error(t, err)
}

func TestRepository_Create_DuplicateUsername(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Create("testuser", "First")
	require.NoError(t, err)

	_, err = repo.Create("testuser", "Second")

	assert.ErrorIs(t, err, database.ErrDuplicate)
}

func TestRepository_GetByID(t *testing.T) {
	repo := setupTestDB(t)

	created, err := repo.Create("testuser", "Test User")
	require.NoError(t, err)

	user, err := repo.GetByID(created.ID)

	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetByID(99999)

	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_GetByUsername(t *testing.T) {
	repo := setupTestDB(t)

	created, err := repo.Create("testuser", "Test User")
	require.NoError(t, err)

	user, err := repo.GetByUsername("testuser")

	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestRepository_GetAll(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Create("zoe", "")
	require.NoError(t, err)
	_, err = repo.Create("adam", "")
	require.NoError(t, err)

	all, err := repo.GetAll()

	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "adam", all[0].Username)
	assert.Equal(t, "zoe", all[1].Username)
}

func TestRepository_DeleteAndCount(t *testing.T) {
	repo := setupTestDB(t)

	user, err := repo.Create("testuser", "")
	require.NoError(t, err)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(user.ID))

	count, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
