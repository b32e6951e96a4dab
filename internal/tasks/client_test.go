package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/guidekeeper/internal/backup"
	"github.com/mrlokans/guidekeeper/internal/entities"
	"github.com/mrlokans/guidekeeper/internal/services"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	storePath := filepath.Join(t.TempDir(), "library.db")

	cfg := DefaultConfig()
	cfg.Workers = 0

	client, err := NewClient(storePath, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, storePath
}

func TestNewClient_CreatesQueueDatabaseNextToStore(t *testing.T) {
	client, storePath := newTestClient(t)

	_, err := os.Stat(DatabasePath(storePath))
	assert.NoError(t, err)
	assert.Equal(t, 1, client.config.Workers, "worker count is raised to one")
}

func TestClient_StopBeforeStart(t *testing.T) {
	client, _ := newTestClient(t)

	assert.True(t, client.Stop(context.Background()))
}

func TestClient_StartStop(t *testing.T) {
	client, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx))
}

type signallingCreator struct {
	fakeBackupCreator
	done chan string
}

func (s *signallingCreator) PruneBackups(dir string, keep int) (int, error) {
	s.done <- dir
	return s.fakeBackupCreator.PruneBackups(dir, keep)
}

func (s *signallingCreator) CreateBackup(path string) (*backup.BackupInfo, error) {
	return s.fakeBackupCreator.CreateBackup(path)
}

func TestClient_RunsQueuedBackup(t *testing.T) {
	client, _ := newTestClient(t)

	creator := &signallingCreator{done: make(chan string, 1)}
	client.Register(NewCreateBackupQueue(creator))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	dir := t.TempDir()
	ids, err := client.Add(CreateBackupTask{Dir: dir, Keep: 3}).Save()
	require.NoError(t, err)
	require.Len(t, ids, 1)

	select {
	case got := <-creator.done:
		assert.Equal(t, dir, got)
	case <-time.After(5 * time.Second):
		t.Fatal("queued backup did not run")
	}
	require.Len(t, creator.created, 1)
	assert.Equal(t, dir, filepath.Dir(creator.created[0]))
}

type signallingImporter struct {
	done chan entities.DuplicateHandling
}

func (s *signallingImporter) ImportFromFile(path string, dup entities.DuplicateHandling) services.ImportResult {
	s.done <- dup
	return services.ImportResult{Success: true, ImportedGuideIDs: []uint{7}}
}

func TestClient_RunsQueuedImport(t *testing.T) {
	client, _ := newTestClient(t)

	importer := &signallingImporter{done: make(chan entities.DuplicateHandling, 1)}
	client.Register(NewImportFileQueue(importer))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	_, err := client.Add(ImportFileTask{Path: "bundle.zip", Duplicate: "overwrite"}).Save()
	require.NoError(t, err)

	select {
	case dup := <-importer.done:
		assert.Equal(t, entities.DuplicateOverwrite, dup)
	case <-time.After(5 * time.Second):
		t.Fatal("queued import did not run")
	}
}

func TestDatabasePath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "library-tasks.db"), DatabasePath(filepath.Join("data", "library.db")))
	assert.Equal(t, filepath.Join("data", "store-tasks"), DatabasePath(filepath.Join("data", "store")))
}

func TestQueueConfigs(t *testing.T) {
	backupCfg := CreateBackupTask{Dir: "/tmp", Keep: 3}.Config()
	assert.Equal(t, "create_backup", backupCfg.Name)
	assert.Equal(t, 2, backupCfg.MaxAttempts)
	assert.Equal(t, 30*time.Minute, backupCfg.Timeout)
	assert.NotNil(t, backupCfg.Retention)

	importCfg := ImportFileTask{Path: "guide.json"}.Config()
	assert.Equal(t, "import_file", importCfg.Name)
	assert.Equal(t, 1, importCfg.MaxAttempts)
	assert.Equal(t, 15*time.Minute, importCfg.Timeout)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 30*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}
