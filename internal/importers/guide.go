package importers

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/guidekeeper/internal/entities"
	"github.com/mrlokans/guidekeeper/internal/images"
	"github.com/mrlokans/guidekeeper/internal/schema"
	"github.com/mrlokans/guidekeeper/internal/services"
)

// Limits bound what an untrusted bundle may make the importer read.
type Limits struct {
	MaxEntries    int
	MaxEntryBytes int64
}

var DefaultLimits = Limits{
	MaxEntries:    2000,
	MaxEntryBytes: 64 << 20,
}

// GuideImporter writes guide documents into the store. Each import call
// returns an ImportResult; only caller bugs panic.
type GuideImporter struct {
	guides     services.GuideStore
	categories services.CategoryStore
	images     services.ImageStore

	validate            *validator.Validate
	limits              Limits
	purgeReplacedImages bool
}

type Option func(*GuideImporter)

// WithOverwriteImageCleanup makes the Overwrite policy delete the replaced
// guide's images once the new guide has been stored. Off by default.
func WithOverwriteImageCleanup(enabled bool) Option {
	return func(g *GuideImporter) {
		g.purgeReplacedImages = enabled
	}
}

func WithLimits(limits Limits) Option {
	return func(g *GuideImporter) {
		g.limits = limits
	}
}

func NewGuideImporter(guides services.GuideStore, categories services.CategoryStore, imageStore services.ImageStore, opts ...Option) *GuideImporter {
	if guides == nil || categories == nil || imageStore == nil {
		panic("importers: guide, category and image stores are required")
	}

	g := &GuideImporter{
		guides:     guides,
		categories: categories,
		images:     imageStore,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		limits:     DefaultLimits,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ImportFromFile reads path and imports it as a bundle when it has a .zip
// extension or starts with the ZIP signature, as JSON otherwise.
func (g *GuideImporter) ImportFromFile(path string, dup entities.DuplicateHandling) services.ImportResult {
	if path == "" {
		panic("importers: ImportFromFile called with empty path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return services.FailedImport(fmt.Sprintf("read %s: %v", path, err))
	}

	log.Info().Str("path", path).Str("duplicates", dup.String()).Msg("Importing guide file")

	if isZipPath(path) || isZipData(data) {
		return g.ImportFromZip(data, dup)
	}
	return g.ImportFromJSON(data, dup)
}

// ImportFromJSON imports every guide in a JSON document. Inline base64
// images are uploaded; imageFiles references cannot be resolved and are
// reported as warnings.
func (g *GuideImporter) ImportFromJSON(data []byte, dup entities.DuplicateHandling) services.ImportResult {
	doc, err := decodeDocument(data)
	if err != nil {
		return services.FailedImport(err.Error())
	}
	return g.importDocument(doc, dup, nil)
}

// ImportFromZip imports a bundle: guide.json plus images/ entries.
func (g *GuideImporter) ImportFromZip(data []byte, dup entities.DuplicateHandling) services.ImportResult {
	b, err := g.openBundle(data)
	if err != nil {
		return services.FailedImport(err.Error())
	}

	doc, err := decodeDocument(b.guideJSON)
	if err != nil {
		return services.FailedImport(err.Error())
	}
	return g.importDocument(doc, dup, b)
}

func (g *GuideImporter) importDocument(doc document, dup entities.DuplicateHandling, b *bundle) services.ImportResult {
	var result services.ImportResultBuilder

	if len(doc.guides) == 0 {
		result.AddError("document contains no guides")
		return result.Build()
	}

	for i := range doc.guides {
		guide := &doc.guides[i]
		if err := g.importGuide(guide, dup, b, &result); err != nil {
			log.Warn().Err(err).Str("title", guide.Title).Msg("Guide import failed")
			result.AddError(fmt.Sprintf("guide %q: %v", guide.Title, err))
		}
	}

	built := result.Build()
	log.Info().
		Str("format", string(doc.format)).
		Int("imported", len(built.ImportedGuideIDs)).
		Int("skipped", built.DuplicatesSkipped).
		Int("images", built.ImagesImported).
		Int("errors", len(built.Errors)).
		Msg("Import finished")
	return built
}

// importGuide runs the per-guide pipeline. Images are uploaded and remapped
// before the guide is created.
func (g *GuideImporter) importGuide(data *schema.GuideExportData, dup entities.DuplicateHandling, b *bundle, result *services.ImportResultBuilder) error {
	data.Title = strings.TrimSpace(data.Title)
	if err := g.validateGuide(data); err != nil {
		return err
	}

	existing, err := g.findExisting(data.Title)
	if err != nil {
		return err
	}

	title := data.Title
	var replaced *entities.Guide
	if existing != nil {
		switch dup {
		case entities.DuplicateOverwrite:
			replaced = existing
		case entities.DuplicateRename:
			title, err = g.uniqueTitle(data.Title)
			if err != nil {
				return err
			}
		default:
			result.AddDuplicateSkipped()
			result.AddWarning(fmt.Sprintf("guide %q already exists, skipped", data.Title))
			return nil
		}
	}

	category, err := g.ensureCategory(data.Category)
	if err != nil {
		return err
	}

	if b != nil {
		g.uploadAll(b, result)
	}
	inlineIDs := g.resolveImages(data, b, result)

	guide := buildGuide(data, title, category)

	if replaced != nil {
		if err := g.guides.Replace(replaced.ID, guide); err != nil {
			g.discardImages(inlineIDs)
			return fmt.Errorf("replace guide %d: %w", replaced.ID, err)
		}
	} else if err := g.guides.Create(guide); err != nil {
		g.discardImages(inlineIDs)
		return fmt.Errorf("store guide: %w", err)
	}

	if replaced != nil {
		log.Info().Uint("replaced_id", replaced.ID).Uint("guide_id", guide.ID).Str("title", title).Msg("Guide overwritten")
		if g.purgeReplacedImages {
			g.purgeImages(replaced, result)
		}
	}

	result.AddGuide(guide.ID)
	return nil
}

func (g *GuideImporter) findExisting(title string) (*entities.Guide, error) {
	existing, err := g.guides.FindByTitle(title)
	if errors.Is(err, services.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up title: %w", err)
	}
	return existing, nil
}

// uniqueTitle returns "title (n)" for the smallest n >= 1 not yet taken.
func (g *GuideImporter) uniqueTitle(title string) (string, error) {
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", title, n)
		exists, err := g.guides.TitleExists(candidate)
		if err != nil {
			return "", fmt.Errorf("check title %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
}

func (g *GuideImporter) ensureCategory(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = entities.DefaultCategoryName
	}

	category, created, err := g.categories.GetOrCreate(name)
	if err != nil {
		return "", fmt.Errorf("provision category %q: %w", name, err)
	}
	if created {
		log.Info().Str("category", category.Name).Msg("Created category for imported guide")
	}
	return category.Name, nil
}

// resolveImages fills ResolvedImageIDs on every step and returns the ids of
// inline images uploaded for this guide.
func (g *GuideImporter) resolveImages(data *schema.GuideExportData, b *bundle, result *services.ImportResultBuilder) []string {
	var inline []string

	for i := range data.Steps {
		step := &data.Steps[i]
		step.ResolvedImageIDs = make(map[string]string)

		for _, contentID := range schema.SortedContentIDs(step.Images) {
			content, err := base64.StdEncoding.DecodeString(step.Images[contentID])
			if err != nil {
				result.AddWarning(fmt.Sprintf("guide %q step %d: image %s is not valid base64", data.Title, step.Order, contentID))
				continue
			}
			name := contentID + images.ExtensionForMimeType(mimetype.Detect(content).String())
			id, err := g.storeImage(content, name)
			if err != nil {
				result.AddWarning(fmt.Sprintf("guide %q step %d: image %s: %v", data.Title, step.Order, contentID, err))
				continue
			}
			step.ResolvedImageIDs[contentID] = id
			inline = append(inline, id)
			result.AddImages(1)
		}

		for _, contentID := range schema.SortedContentIDs(step.ImageFiles) {
			if _, done := step.ResolvedImageIDs[contentID]; done {
				continue
			}
			name := bundleEntryName(step.ImageFiles[contentID])
			if b == nil {
				result.AddWarning(fmt.Sprintf("guide %q step %d: image file %s needs a ZIP bundle", data.Title, step.Order, name))
				continue
			}
			id, ok := b.uploaded[name]
			if !ok {
				result.AddWarning(fmt.Sprintf("guide %q step %d: image %s not found in bundle", data.Title, step.Order, name))
				continue
			}
			step.ResolvedImageIDs[contentID] = id
		}
	}

	return inline
}

// storeImage validates content and uploads it. name only supplies the
// extension check and the stored file name.
func (g *GuideImporter) storeImage(content []byte, name string) (string, error) {
	if err := g.images.Validate(bytes.NewReader(content), name); err != nil {
		return "", err
	}
	return g.images.Upload(bytes.NewReader(content), name)
}

func (g *GuideImporter) discardImages(ids []string) {
	for _, id := range ids {
		if _, err := g.images.Delete(id); err != nil {
			log.Warn().Err(err).Str("image_id", id).Msg("Could not remove image of failed import")
		}
	}
}

func (g *GuideImporter) purgeImages(replaced *entities.Guide, result *services.ImportResultBuilder) {
	for _, id := range replaced.ImageIDs() {
		if _, err := g.images.Delete(id); err != nil {
			result.AddWarning(fmt.Sprintf("remove image %s of replaced guide: %v", id, err))
		}
	}
}

// buildGuide turns validated interchange data into a new entity. Steps are
// sorted by their original order and renumbered 1..N.
func buildGuide(data *schema.GuideExportData, title, category string) *entities.Guide {
	steps := make([]schema.StepExportData, len(data.Steps))
	copy(steps, data.Steps)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Order < steps[j].Order
	})

	guide := &entities.Guide{
		Title:            title,
		Description:      data.Description,
		Category:         category,
		EstimatedMinutes: data.EstimatedMinutes,
		CreatedBy:        data.CreatedBy,
		Steps:            make([]entities.Step, 0, len(steps)),
	}
	if !data.CreatedAt.IsZero() {
		guide.CreatedAt = data.CreatedAt
	}

	for i, step := range steps {
		var ids entities.ImageIDs
		for _, contentID := range schema.SortedContentIDs(step.ResolvedImageIDs) {
			ids = append(ids, step.ResolvedImageIDs[contentID])
		}
		guide.Steps = append(guide.Steps, entities.Step{
			Order:    i + 1,
			Title:    step.Title,
			Content:  step.Content,
			ImageIDs: ids,
		})
	}
	return guide
}
