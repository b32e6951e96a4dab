package importers

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/guidekeeper/internal/schema"
	"github.com/mrlokans/guidekeeper/internal/services"
)

var zipMagic = []byte("PK\x03\x04")

// bundle is an opened guide archive. Image entries are keyed by their full
// archive name, e.g. images/step_1_image_1.png.
type bundle struct {
	guideJSON []byte
	entries   map[string]*zip.File

	// uploaded maps archive names to blob ids once uploadAll has run.
	uploaded map[string]string
}

func isZipData(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

func isZipPath(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".zip")
}

// bundleEntryName normalises a step's imageFiles value to a full archive name.
func bundleEntryName(name string) string {
	if strings.HasPrefix(name, schema.ImagesPrefix) {
		return name
	}
	return schema.ImagesPrefix + name
}

// openBundle reads the archive directory and guide.json. Image entries are
// only indexed here; their content is read by uploadAll.
func (g *GuideImporter) openBundle(data []byte) (*bundle, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: invalid ZIP archive: %v", services.ErrValidation, err)
	}
	if g.limits.MaxEntries > 0 && len(zr.File) > g.limits.MaxEntries {
		return nil, fmt.Errorf("%w: archive has %d entries, limit is %d",
			services.ErrValidation, len(zr.File), g.limits.MaxEntries)
	}

	b := &bundle{entries: make(map[string]*zip.File)}
	var guideFile *zip.File

	for _, f := range zr.File {
		if err := checkEntryName(f.Name); err != nil {
			return nil, err
		}
		switch {
		case f.FileInfo().IsDir():
		case f.Name == schema.GuideFileName:
			if guideFile != nil {
				return nil, fmt.Errorf("%w: archive has more than one %s", services.ErrValidation, schema.GuideFileName)
			}
			guideFile = f
		case strings.HasPrefix(f.Name, schema.ImagesPrefix):
			b.entries[f.Name] = f
		default:
			log.Debug().Str("entry", f.Name).Msg("Ignoring unexpected bundle entry")
		}
	}

	if guideFile == nil {
		return nil, fmt.Errorf("%w: archive has no %s at its root", services.ErrValidation, schema.GuideFileName)
	}

	b.guideJSON, err = g.readEntry(guideFile)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// uploadAll is the first pass of a bundle import: every image entry goes to
// the blob store and the archive name to blob id table is recorded. It runs
// at most once per bundle. Entries that fail validation become warnings.
func (g *GuideImporter) uploadAll(b *bundle, result *services.ImportResultBuilder) {
	if b.uploaded != nil {
		return
	}
	b.uploaded = make(map[string]string, len(b.entries))

	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := g.readEntry(b.entries[name])
		if err != nil {
			result.AddWarning(fmt.Sprintf("image %s: %v", name, err))
			continue
		}
		id, err := g.storeImage(content, path.Base(name))
		if err != nil {
			result.AddWarning(fmt.Sprintf("image %s: %v", name, err))
			continue
		}
		b.uploaded[name] = id
		result.AddImages(1)
	}

	log.Info().Int("uploaded", len(b.uploaded)).Int("entries", len(b.entries)).Msg("Bundle images stored")
}

func (g *GuideImporter) readEntry(f *zip.File) ([]byte, error) {
	limit := g.limits.MaxEntryBytes
	if limit > 0 && f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%w: entry %s is %d bytes, limit is %d",
			services.ErrValidation, f.Name, f.UncompressedSize64, limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
	}
	if limit > 0 && int64(len(content)) > limit {
		return nil, fmt.Errorf("%w: entry %s exceeds %d bytes", services.ErrValidation, f.Name, limit)
	}
	return content, nil
}

// checkEntryName rejects entries that would escape an extraction root.
func checkEntryName(name string) error {
	clean := strings.ReplaceAll(name, "\\", "/")
	if path.IsAbs(clean) || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return fmt.Errorf("%w: archive entry %q has an absolute path", services.ErrValidation, name)
	}
	for _, part := range strings.Split(clean, "/") {
		if part == ".." {
			return fmt.Errorf("%w: archive entry %q escapes the archive root", services.ErrValidation, name)
		}
	}
	return nil
}
