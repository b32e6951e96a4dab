package backup

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/guidekeeper/internal/services"
)

// maxManifestBytes bounds how much of metadata.json is read into memory.
const maxManifestBytes = 1 << 20

type archiveEntry struct {
	name    string
	source  string // file to copy from, when content is nil
	content []byte
}

// writeArchive writes entries to a temp file next to dest and renames it
// into place, so a failed write never leaves a truncated archive at dest.
func writeArchive(dest string, entries []archiveEntry) (err error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".guidekeeper-backup-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, entry := range entries {
		if err := addEntry(zw, entry); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalise backup archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close backup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("move backup into place: %w", err)
	}
	return nil
}

func addEntry(zw *zip.Writer, entry archiveEntry) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     entry.name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", entry.name, err)
	}

	if entry.content != nil {
		_, err = w.Write(entry.content)
	} else {
		var f *os.File
		f, err = os.Open(entry.source)
		if err != nil {
			return fmt.Errorf("open %s: %w", entry.source, err)
		}
		defer f.Close()
		_, err = io.Copy(w, f)
	}
	if err != nil {
		return fmt.Errorf("write archive entry %s: %w", entry.name, err)
	}
	return nil
}

func validateArchive(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: backup %s", services.ErrNotFound, path)
		}
		return fmt.Errorf("%w: %s is not a ZIP archive: %v", services.ErrValidation, path, err)
	}
	defer zr.Close()

	found := map[string]bool{}
	for _, f := range zr.File {
		if f.Name == DataFileName || f.Name == ManifestFileName {
			found[f.Name] = true
		}
	}
	for _, required := range []string{DataFileName, ManifestFileName} {
		if !found[required] {
			return fmt.Errorf("%w: backup %s has no %s", services.ErrValidation, path, required)
		}
	}
	return nil
}

func findEntry(zr *zip.Reader, name string) (*zip.File, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: archive has no %s", services.ErrValidation, name)
}

func readEntry(zr *zip.Reader, name string) ([]byte, error) {
	f, err := findEntry(zr, name)
	if err != nil {
		return nil, err
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, maxManifestBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(content) > maxManifestBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", services.ErrValidation, name, maxManifestBytes)
	}
	return content, nil
}

// extractEntry copies the named root entry of the archive at path to dest.
func extractEntry(path, name, dest string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer zr.Close()

	f, err := findEntry(&zr.Reader, name)
	if err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", name, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", name, err)
	}
	return out.Close()
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	return destFile.Close()
}

// replaceFile copies src over dst through a temp file in dst's directory.
func replaceFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	tmp := dst + ".restore-tmp"
	if err := copyFile(src, tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
