package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/guidekeeper/internal/backup"
	"github.com/mrlokans/guidekeeper/internal/entities"
	"github.com/mrlokans/guidekeeper/internal/services"
)

type fakeBackupCreator struct {
	created   []string
	pruneDir  string
	pruneKeep int
	createErr error
}

func (f *fakeBackupCreator) CreateBackup(path string) (*backup.BackupInfo, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, path)
	return &backup.BackupInfo{GuideCount: 2, IsValid: true}, nil
}

func (f *fakeBackupCreator) PruneBackups(dir string, keep int) (int, error) {
	f.pruneDir = dir
	f.pruneKeep = keep
	return 0, nil
}

type fakeFileImporter struct {
	path   string
	dup    entities.DuplicateHandling
	result services.ImportResult
}

func (f *fakeFileImporter) ImportFromFile(path string, dup entities.DuplicateHandling) services.ImportResult {
	f.path = path
	f.dup = dup
	return f.result
}

func TestRunCreateBackup(t *testing.T) {
	t.Run("writes timestamped backup and prunes", func(t *testing.T) {
		creator := &fakeBackupCreator{}
		dir := t.TempDir()

		err := RunCreateBackup(creator, CreateBackupTask{Dir: dir, Keep: 5})
		require.NoError(t, err)

		require.Len(t, creator.created, 1)
		assert.Equal(t, dir, filepath.Dir(creator.created[0]))
		assert.True(t, strings.HasPrefix(filepath.Base(creator.created[0]), "guidekeeper-backup-"))
		assert.Equal(t, dir, creator.pruneDir)
		assert.Equal(t, 5, creator.pruneKeep)
	})

	t.Run("zero keep skips pruning", func(t *testing.T) {
		creator := &fakeBackupCreator{}

		require.NoError(t, RunCreateBackup(creator, CreateBackupTask{Dir: t.TempDir()}))
		assert.Empty(t, creator.pruneDir)
	})

	t.Run("missing directory fails", func(t *testing.T) {
		err := RunCreateBackup(&fakeBackupCreator{}, CreateBackupTask{})
		assert.Error(t, err)
	})

	t.Run("create failure is returned", func(t *testing.T) {
		creator := &fakeBackupCreator{createErr: errors.New("disk full")}

		err := RunCreateBackup(creator, CreateBackupTask{Dir: t.TempDir(), Keep: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.Empty(t, creator.pruneDir)
	})
}

func TestImportFileProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("passes parsed policy to importer", func(t *testing.T) {
		importer := &fakeFileImporter{result: services.ImportResult{Success: true, ImportedGuideIDs: []uint{1}}}

		err := ImportFileProcessor(importer)(ctx, ImportFileTask{Path: "guide.json", Duplicate: "Rename"})
		require.NoError(t, err)
		assert.Equal(t, "guide.json", importer.path)
		assert.Equal(t, entities.DuplicateRename, importer.dup)
	})

	t.Run("skipped duplicates are not failures", func(t *testing.T) {
		importer := &fakeFileImporter{result: services.ImportResult{DuplicatesSkipped: 1, Warnings: []string{"skipped"}}}

		err := ImportFileProcessor(importer)(ctx, ImportFileTask{Path: "guide.json"})
		assert.NoError(t, err)
		assert.Equal(t, entities.DuplicateSkip, importer.dup)
	})

	t.Run("errors without imports fail the task", func(t *testing.T) {
		importer := &fakeFileImporter{result: services.FailedImport("bad document")}

		err := ImportFileProcessor(importer)(ctx, ImportFileTask{Path: "guide.json"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad document")
	})

	t.Run("unknown policy is rejected", func(t *testing.T) {
		importer := &fakeFileImporter{}

		err := ImportFileProcessor(importer)(ctx, ImportFileTask{Path: "guide.json", Duplicate: "merge"})
		assert.Error(t, err)
		assert.Empty(t, importer.path)
	})
}
