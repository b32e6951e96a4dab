package backup

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/guidekeeper/internal/services"
)

const (
	// DataFileName is the archive entry holding the store snapshot.
	DataFileName = "data.db"
	// ManifestFileName is the archive entry holding the BackupInfo JSON.
	ManifestFileName = "metadata.json"

	backupNamePrefix = "guidekeeper-backup-"
	timestampLayout  = "20060102-150405"
)

// BackupInfo is the manifest stored next to the snapshot. IsValid is
// recomputed whenever an archive is inspected.
type BackupInfo struct {
	BackupDate    time.Time `json:"backupDate"`
	AppVersion    string    `json:"appVersion"`
	GuideCount    int64     `json:"guideCount"`
	UserCount     int64     `json:"userCount"`
	ProgressCount int64     `json:"progressCount"`
	CategoryCount int64     `json:"categoryCount"`
	DatabaseSize  int64     `json:"databaseSize"`
	IsValid       bool      `json:"isValid"`
}

// Store is the live document store as seen by the backup manager.
type Store interface {
	Path() string
	SnapshotTo(dest string) error
	Close() error
}

// Counters supply the manifest record counts.
type Counters struct {
	Guides     services.RecordCounter
	Users      services.RecordCounter
	Progress   services.RecordCounter
	Categories services.RecordCounter
}

// Manager creates, inspects and restores whole-store backups.
//
// Restore closes the store it was given; the caller must reopen it before
// any further use. At most one restore may run at a time and nothing else
// may hold the store open while it does.
type Manager struct {
	store      Store
	counters   Counters
	appVersion string
	now        func() time.Time
}

func NewManager(store Store, counters Counters, appVersion string) *Manager {
	if store == nil {
		panic("backup: store is required")
	}
	if counters.Guides == nil || counters.Users == nil || counters.Progress == nil || counters.Categories == nil {
		panic("backup: all record counters are required")
	}
	return &Manager{
		store:      store,
		counters:   counters,
		appVersion: appVersion,
		now:        time.Now,
	}
}

// DefaultBackupName returns the file name used for unnamed backups.
func DefaultBackupName(now time.Time) string {
	return backupNamePrefix + now.Format(timestampLayout) + ".zip"
}

// CreateBackup snapshots the store into a ZIP at path, replacing any file
// already there. Counts are read from the live store right after the
// snapshot, so concurrent writes can make them drift from data.db.
func (m *Manager) CreateBackup(path string) (*BackupInfo, error) {
	if path == "" {
		panic("backup: CreateBackup called with empty path")
	}

	workDir, err := os.MkdirTemp("", "guidekeeper-backup-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	snapshot := filepath.Join(workDir, DataFileName)
	if err := m.store.SnapshotTo(snapshot); err != nil {
		return nil, err
	}

	info, err := m.manifest(snapshot)
	if err != nil {
		return nil, err
	}

	manifest, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	if err := writeArchive(path, []archiveEntry{
		{name: DataFileName, source: snapshot},
		{name: ManifestFileName, content: manifest},
	}); err != nil {
		return nil, err
	}

	log.Info().
		Str("path", path).
		Int64("guides", info.GuideCount).
		Str("size", humanize.Bytes(uint64(info.DatabaseSize))).
		Msg("Backup created")

	return info, nil
}

func (m *Manager) manifest(snapshot string) (*BackupInfo, error) {
	stat, err := os.Stat(snapshot)
	if err != nil {
		return nil, fmt.Errorf("stat snapshot: %w", err)
	}

	info := &BackupInfo{
		BackupDate:   m.now().UTC(),
		AppVersion:   m.appVersion,
		DatabaseSize: stat.Size(),
		IsValid:      true,
	}

	counts := []struct {
		name    string
		counter services.RecordCounter
		dest    *int64
	}{
		{"guides", m.counters.Guides, &info.GuideCount},
		{"users", m.counters.Users, &info.UserCount},
		{"progress", m.counters.Progress, &info.ProgressCount},
		{"categories", m.counters.Categories, &info.CategoryCount},
	}
	for _, c := range counts {
		n, err := c.counter.Count()
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c.name, err)
		}
		*c.dest = n
	}
	return info, nil
}

// ValidateBackup reports whether path is a ZIP with data.db and
// metadata.json at its root.
func (m *Manager) ValidateBackup(path string) bool {
	return validateArchive(path) == nil
}

// RestoreBackup replaces the live store file with the snapshot in path.
// The store is closed first and the previous file is kept next to it as
// <db>.pre-restore-<timestamp>. A failure after the close is not rolled
// back.
func (m *Manager) RestoreBackup(path string) error {
	if path == "" {
		panic("backup: RestoreBackup called with empty path")
	}
	if err := validateArchive(path); err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "guidekeeper-restore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	extracted := filepath.Join(workDir, DataFileName)
	if err := extractEntry(path, DataFileName, extracted); err != nil {
		return err
	}

	livePath := m.store.Path()
	if err := m.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	if _, err := os.Stat(livePath); err == nil {
		safety := livePath + ".pre-restore-" + m.now().Format(timestampLayout)
		if err := copyFile(livePath, safety); err != nil {
			return fmt.Errorf("keep pre-restore copy: %w", err)
		}
		log.Info().Str("path", safety).Msg("Saved pre-restore copy of the store")
	}

	if err := replaceFile(extracted, livePath); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(livePath + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", livePath+suffix).Msg("Could not remove stale journal file")
		}
	}

	log.Info().Str("backup", path).Str("store", livePath).Msg("Backup restored, store must be reopened")
	return nil
}

// GetBackupInfo reads the manifest of a backup and re-checks the archive.
func (m *Manager) GetBackupInfo(path string) (*BackupInfo, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: backup %s", services.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: open backup %s: %v", services.ErrValidation, path, err)
	}
	defer zr.Close()

	content, err := readEntry(&zr.Reader, ManifestFileName)
	if err != nil {
		return nil, err
	}

	var info BackupInfo
	if err := json.Unmarshal(content, &info); err != nil {
		return nil, fmt.Errorf("%w: decode manifest of %s: %v", services.ErrValidation, path, err)
	}
	info.IsValid = m.ValidateBackup(path)
	return &info, nil
}

// GetAvailableBackups lists the valid *.zip backups in dir, newest first by
// modification time. A missing directory yields no backups.
func (m *Manager) GetAvailableBackups(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var backups []candidate

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".zip") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !m.ValidateBackup(path) {
			log.Debug().Str("path", path).Msg("Ignoring invalid backup archive")
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, candidate{path: path, modTime: info.ModTime()})
	}

	// Modification time stands in for creation time: Linux filesystems have
	// no portable birth time.
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].modTime.Equal(backups[j].modTime) {
			return backups[i].path > backups[j].path
		}
		return backups[i].modTime.After(backups[j].modTime)
	})

	paths := make([]string, len(backups))
	for i, b := range backups {
		paths[i] = b.path
	}
	return paths, nil
}

// PruneBackups deletes the oldest valid backups in dir so that at most keep
// remain. It returns how many files were removed.
func (m *Manager) PruneBackups(dir string, keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("%w: keep must be at least 1, got %d", services.ErrValidation, keep)
	}

	backups, err := m.GetAvailableBackups(dir)
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	removed := 0
	for _, path := range backups[keep:] {
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("remove backup %s: %w", path, err)
		}
		removed++
		log.Info().Str("path", path).Msg("Pruned old backup")
	}
	return removed, nil
}
