package exporters

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/guidekeeper/internal/entities"
	"github.com/mrlokans/guidekeeper/internal/schema"
	"github.com/mrlokans/guidekeeper/internal/services"
)

// GuideExporter serialises guides into the interchange format. Every call
// builds its export structures from scratch; nothing is cached.
type GuideExporter struct {
	guides services.GuideReader
	images services.ImageReader
	now    func() time.Time
}

func NewGuideExporter(guides services.GuideReader, images services.ImageReader) *GuideExporter {
	if guides == nil || images == nil {
		panic("exporters: guide reader and image reader are required")
	}
	return &GuideExporter{guides: guides, images: images, now: time.Now}
}

// ExportGuide returns the JSON export of one guide. With includeImages every
// step image is inlined as base64; without it the image maps are omitted.
func (e *GuideExporter) ExportGuide(id uint, includeImages bool) (string, error) {
	guide, err := e.guides.GetByID(id)
	if err != nil {
		return "", fmt.Errorf("load guide %d: %w", id, err)
	}

	data, err := e.exportData(guide, includeImages)
	if err != nil {
		return "", err
	}

	return marshal(schema.NewGuideExport(data, e.now()))
}

// ExportAllGuides returns every stored guide wrapped in a GuidesExport.
func (e *GuideExporter) ExportAllGuides(includeImages bool) (string, error) {
	guides, err := e.guides.GetAll()
	if err != nil {
		return "", fmt.Errorf("load guides: %w", err)
	}

	exported := make([]schema.GuideExportData, 0, len(guides))
	for i := range guides {
		data, err := e.exportData(&guides[i], includeImages)
		if err != nil {
			return "", err
		}
		exported = append(exported, data)
	}

	return marshal(schema.NewGuidesExport(exported, e.now()))
}

// ExportGuideToFile writes ExportGuide output to path. Failures are logged
// and reported as false.
func (e *GuideExporter) ExportGuideToFile(id uint, path string, includeImages bool) bool {
	content, err := e.ExportGuide(id, includeImages)
	if err != nil {
		log.Error().Err(err).Uint("guide_id", id).Msg("Guide export failed")
		return false
	}
	return writeFile(path, []byte(content))
}

// ExportAllGuidesToFile writes ExportAllGuides output to path. Failures are
// logged and reported as false.
func (e *GuideExporter) ExportAllGuidesToFile(path string, includeImages bool) bool {
	content, err := e.ExportAllGuides(includeImages)
	if err != nil {
		log.Error().Err(err).Msg("Export of all guides failed")
		return false
	}
	return writeFile(path, []byte(content))
}

// ExportGuideWithImages builds a bundle: guide.json plus one images/ entry
// per step image. guide.json references the images by bundle file name.
func (e *GuideExporter) ExportGuideWithImages(id uint) ([]byte, error) {
	guide, err := e.guides.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("load guide %d: %w", id, err)
	}

	data, err := e.exportData(guide, false)
	if err != nil {
		return nil, err
	}

	type bundleFile struct {
		name    string
		content []byte
	}
	var files []bundleFile

	counter := 0
	for i, step := range guide.Steps {
		for k, imageID := range step.ImageIDs {
			meta, content, err := e.loadImage(imageID)
			if err != nil {
				log.Warn().Err(err).Str("image_id", imageID).Int("step", step.Order).Msg("Skipping image missing from store")
				continue
			}

			counter++
			name := schema.BundleImageName(step.Order, counter, meta.MimeType)
			if data.Steps[i].ImageFiles == nil {
				data.Steps[i].ImageFiles = make(map[string]string)
			}
			data.Steps[i].ImageFiles[schema.ContentID(k+1)] = name
			files = append(files, bundleFile{name: name, content: content})
		}
	}

	guideJSON, err := marshal(schema.NewGuideExport(data, e.now()))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if err := writeZipEntry(zw, schema.GuideFileName, []byte(guideJSON)); err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := writeZipEntry(zw, f.name, f.content); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalise bundle: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportGuideWithImagesToFile writes the bundle of one guide to path.
func (e *GuideExporter) ExportGuideWithImagesToFile(id uint, path string) bool {
	content, err := e.ExportGuideWithImages(id)
	if err != nil {
		log.Error().Err(err).Uint("guide_id", id).Msg("Bundle export failed")
		return false
	}
	return writeFile(path, content)
}

func (e *GuideExporter) exportData(guide *entities.Guide, includeImages bool) (schema.GuideExportData, error) {
	guide.SortSteps()

	data := schema.GuideExportData{
		ID:               guide.ID,
		Title:            guide.Title,
		Description:      guide.Description,
		Category:         guide.Category,
		EstimatedMinutes: guide.EstimatedMinutes,
		CreatedAt:        guide.CreatedAt,
		UpdatedAt:        guide.UpdatedAt,
		CreatedBy:        guide.CreatedBy,
		Steps:            make([]schema.StepExportData, 0, len(guide.Steps)),
	}

	for _, step := range guide.Steps {
		exported := schema.StepExportData{
			ID:      step.ID,
			Order:   step.Order,
			Title:   step.Title,
			Content: step.Content,
		}

		if includeImages && len(step.ImageIDs) > 0 {
			exported.Images = make(map[string]string, len(step.ImageIDs))
			for k, imageID := range step.ImageIDs {
				_, content, err := e.loadImage(imageID)
				if err != nil {
					log.Warn().Err(err).Str("image_id", imageID).Int("step", step.Order).Msg("Skipping image missing from store")
					continue
				}
				exported.Images[schema.ContentID(k+1)] = base64.StdEncoding.EncodeToString(content)
			}
		}

		data.Steps = append(data.Steps, exported)
	}

	return data, nil
}

func (e *GuideExporter) loadImage(id string) (*entities.ImageMetadata, []byte, error) {
	meta, err := e.images.Metadata(id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := e.images.Get(id)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("read image %s: %w", id, err)
	}
	return meta, content, nil
}

func marshal(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	return string(b), nil
}

func writeZipEntry(zw *zip.Writer, name string, content []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("create bundle entry %s: %w", name, err)
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("write bundle entry %s: %w", name, err)
	}
	return nil
}

func writeFile(path string, content []byte) bool {
	if path == "" {
		log.Error().Msg("Export path is empty")
		return false
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		log.Error().Str("path", path).Err(err).Msg("Writing export failed")
		return false
	}
	log.Info().Str("path", path).Int("bytes", len(content)).Msg("Export written")
	return true
}
