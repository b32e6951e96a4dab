package backup

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/guidekeeper/internal/database"
	"github.com/mrlokans/guidekeeper/internal/database/categories"
	"github.com/mrlokans/guidekeeper/internal/database/guides"
	"github.com/mrlokans/guidekeeper/internal/database/progress"
	"github.com/mrlokans/guidekeeper/internal/database/users"
	"github.com/mrlokans/guidekeeper/internal/entities"
	"github.com/mrlokans/guidekeeper/internal/services"
)

type testEnv struct {
	dbPath  string
	db      *database.Database
	guides  *guides.Repository
	users   *users.Repository
	manager *Manager
}

func openEnv(t *testing.T, dbPath string) *testEnv {
	t.Helper()
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		dbPath: dbPath,
		db:     db,
		guides: guides.NewRepository(db.DB),
		users:  users.NewRepository(db.DB),
	}
	env.manager = NewManager(db, Counters{
		Guides:     env.guides,
		Users:      env.users,
		Progress:   progress.NewRepository(db.DB),
		Categories: categories.NewRepository(db.DB),
	}, "1.2.3")
	return env
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return openEnv(t, filepath.Join(t.TempDir(), "store.db"))
}

// seed stores 5 guides and 2 users; the default category is the only one.
func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	for i := 1; i <= 5; i++ {
		require.NoError(t, e.guides.Create(&entities.Guide{
			Title:    "Guide " + string(rune('A'+i-1)),
			Category: entities.DefaultCategoryName,
			Steps:    []entities.Step{{Order: 1, Title: "step"}},
		}))
	}
	_, err := e.users.Create("alice", "Alice")
	require.NoError(t, err)
	_, err = e.users.Create("bob", "Bob")
	require.NoError(t, err)
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestCreateBackup(t *testing.T) {
	env := setupTestEnv(t)
	env.seed(t)

	path := filepath.Join(t.TempDir(), "backup.zip")
	info, err := env.manager.CreateBackup(path)
	require.NoError(t, err)

	assert.Equal(t, int64(5), info.GuideCount)
	assert.Equal(t, int64(2), info.UserCount)
	assert.Equal(t, int64(1), info.CategoryCount)
	assert.Equal(t, int64(0), info.ProgressCount)
	assert.Equal(t, "1.2.3", info.AppVersion)
	assert.Positive(t, info.DatabaseSize)
	assert.True(t, info.IsValid)
	assert.True(t, env.manager.ValidateBackup(path))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{DataFileName, ManifestFileName}, names)

	t.Run("manifest uses camelCase keys", func(t *testing.T) {
		content, err := readEntry(&zr.Reader, ManifestFileName)
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(content, &raw))
		assert.EqualValues(t, 5, raw["guideCount"])
		assert.EqualValues(t, 2, raw["userCount"])
		assert.EqualValues(t, 1, raw["categoryCount"])
		assert.Contains(t, raw, "backupDate")
		assert.Contains(t, raw, "databaseSize")
	})

	t.Run("overwrites an existing file", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "taken.zip")
		require.NoError(t, os.WriteFile(target, []byte("old"), 0644))

		_, err := env.manager.CreateBackup(target)
		require.NoError(t, err)
		assert.True(t, env.manager.ValidateBackup(target))
	})
}

func TestGetBackupInfo(t *testing.T) {
	env := setupTestEnv(t)
	env.seed(t)

	path := filepath.Join(t.TempDir(), "backup.zip")
	created, err := env.manager.CreateBackup(path)
	require.NoError(t, err)

	info, err := env.manager.GetBackupInfo(path)
	require.NoError(t, err)
	assert.Equal(t, created.GuideCount, info.GuideCount)
	assert.Equal(t, created.UserCount, info.UserCount)
	assert.Equal(t, created.DatabaseSize, info.DatabaseSize)
	assert.True(t, created.BackupDate.Equal(info.BackupDate))
	assert.True(t, info.IsValid)

	t.Run("missing file", func(t *testing.T) {
		_, err := env.manager.GetBackupInfo(filepath.Join(t.TempDir(), "none.zip"))
		assert.ErrorIs(t, err, services.ErrNotFound)
	})

	t.Run("not a zip", func(t *testing.T) {
		bogus := filepath.Join(t.TempDir(), "bogus.zip")
		require.NoError(t, os.WriteFile(bogus, []byte("nope"), 0644))

		_, err := env.manager.GetBackupInfo(bogus)
		assert.ErrorIs(t, err, services.ErrValidation)
	})

	t.Run("manifest without data is reported invalid", func(t *testing.T) {
		partial := filepath.Join(t.TempDir(), "partial.zip")
		writeZip(t, partial, map[string]string{ManifestFileName: `{"guideCount": 3, "isValid": true}`})

		info, err := env.manager.GetBackupInfo(partial)
		require.NoError(t, err)
		assert.Equal(t, int64(3), info.GuideCount)
		assert.False(t, info.IsValid)
	})

	t.Run("oversized manifest is rejected", func(t *testing.T) {
		huge := filepath.Join(t.TempDir(), "huge.zip")
		manifest := `{"guideCount": 1}` + strings.Repeat(" ", maxManifestBytes)
		writeZip(t, huge, map[string]string{DataFileName: "db", ManifestFileName: manifest})

		_, err := env.manager.GetBackupInfo(huge)
		assert.ErrorIs(t, err, services.ErrValidation)
	})
}

func TestValidateBackup(t *testing.T) {
	env := setupTestEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		entries map[string]string
		valid   bool
	}{
		{"both entries", map[string]string{DataFileName: "db", ManifestFileName: "{}"}, true},
		{"extra entries are tolerated", map[string]string{DataFileName: "db", ManifestFileName: "{}", "notes.txt": "x"}, true},
		{"missing manifest", map[string]string{DataFileName: "db"}, false},
		{"missing data", map[string]string{ManifestFileName: "{}"}, false},
		{"nested entries do not count", map[string]string{"dir/" + DataFileName: "db", ManifestFileName: "{}"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".zip")
			writeZip(t, path, tt.entries)
			assert.Equal(t, tt.valid, env.manager.ValidateBackup(path))
		})
	}

	t.Run("not a zip", func(t *testing.T) {
		path := filepath.Join(dir, "plain.zip")
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))
		assert.False(t, env.manager.ValidateBackup(path))
	})

	t.Run("missing file", func(t *testing.T) {
		assert.False(t, env.manager.ValidateBackup(filepath.Join(dir, "absent.zip")))
	})
}

func TestGetAvailableBackups(t *testing.T) {
	env := setupTestEnv(t)
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.zip")
	writeZip(t, broken, map[string]string{DataFileName: "db"})

	valid := filepath.Join(dir, "valid.zip")
	_, err := env.manager.CreateBackup(valid)
	require.NoError(t, err)

	paths, err := env.manager.GetAvailableBackups(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{valid}, paths)

	t.Run("newest first", func(t *testing.T) {
		older := filepath.Join(dir, "older.zip")
		_, err := env.manager.CreateBackup(older)
		require.NoError(t, err)

		base := time.Now()
		require.NoError(t, os.Chtimes(older, base.Add(-2*time.Hour), base.Add(-2*time.Hour)))
		require.NoError(t, os.Chtimes(valid, base.Add(-time.Hour), base.Add(-time.Hour)))

		paths, err := env.manager.GetAvailableBackups(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{valid, older}, paths)
	})

	t.Run("ignores other files", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.zip"), 0755))

		paths, err := env.manager.GetAvailableBackups(dir)
		require.NoError(t, err)
		assert.Len(t, paths, 2)
	})

	t.Run("missing directory", func(t *testing.T) {
		paths, err := env.manager.GetAvailableBackups(filepath.Join(dir, "nope"))
		require.NoError(t, err)
		assert.Empty(t, paths)
	})
}

func TestPruneBackups(t *testing.T) {
	env := setupTestEnv(t)
	dir := t.TempDir()

	base := time.Now()
	var paths []string
	for i := 0; i < 4; i++ {
		path := filepath.Join(dir, DefaultBackupName(base.Add(time.Duration(i)*time.Minute)))
		_, err := env.manager.CreateBackup(path)
		require.NoError(t, err)
		mod := base.Add(time.Duration(i-10) * time.Minute)
		require.NoError(t, os.Chtimes(path, mod, mod))
		paths = append(paths, path)
	}

	_, err := env.manager.PruneBackups(dir, 0)
	assert.ErrorIs(t, err, services.ErrValidation)

	removed, err := env.manager.PruneBackups(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, err := env.manager.GetAvailableBackups(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{paths[3], paths[2]}, left)

	removed, err = env.manager.PruneBackups(dir, 5)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRestoreBackup(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "store.db")
	env := openEnv(t, dbPath)
	env.seed(t)

	backupPath := filepath.Join(dir, "backup.zip")
	_, err := env.manager.CreateBackup(backupPath)
	require.NoError(t, err)

	require.NoError(t, env.guides.Create(&entities.Guide{Title: "Added after backup"}))

	require.NoError(t, env.manager.RestoreBackup(backupPath))

	matches, err := filepath.Glob(dbPath + ".pre-restore-*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	reopened := openEnv(t, dbPath)
	count, err := reopened.guides.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	exists, err := reopened.guides.TitleExists("Added after backup")
	require.NoError(t, err)
	assert.False(t, exists)

	t.Run("rejects an invalid archive before touching the store", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.zip")
		writeZip(t, bad, map[string]string{ManifestFileName: "{}"})

		assert.Error(t, reopened.manager.RestoreBackup(bad))

		count, err := reopened.guides.Count()
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})
}

func TestNewManager_RequiresDependencies(t *testing.T) {
	env := setupTestEnv(t)

	assert.Panics(t, func() { NewManager(nil, Counters{}, "") })
	assert.Panics(t, func() { NewManager(env.db, Counters{Guides: env.guides}, "") })
	assert.Panics(t, func() { env.manager.CreateBackup("") })
}

func TestDefaultBackupName(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "guidekeeper-backup-20240102-030405.zip", DefaultBackupName(now))
}
