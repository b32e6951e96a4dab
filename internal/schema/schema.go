// Package schema defines the guide interchange format shared by the
// exporters and importers packages.
//
// A JSON document is one of three shapes:
//
//	{"version": "1.0", "exportDate": ..., "guide": {...}}                  // GuideExport
//	{"version": "1.0", "exportDate": ..., "guideCount": N, "guides": [...]} // GuidesExport
//	{"title": ..., "steps": [...]}                                          // bare GuideExportData
//
// A bundle is a ZIP archive with guide.json at its root and the step images
// under images/, named step_{order}_image_{n}.{ext}.
package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/guidekeeper/internal/images"
)

const (
	// Version is written into every export envelope.
	Version = "1.0"

	// GuideFileName is the bundle entry holding the guide JSON.
	GuideFileName = "guide.json"

	// ImagesPrefix is the bundle directory holding step images.
	ImagesPrefix = "images/"

	contentIDPrefix = "img_"
)

type GuideExport struct {
	Version    string          `json:"version"`
	ExportDate time.Time       `json:"exportDate"`
	Guide      GuideExportData `json:"guide"`
}

type GuidesExport struct {
	Version    string            `json:"version"`
	ExportDate time.Time         `json:"exportDate"`
	GuideCount int               `json:"guideCount"`
	Guides     []GuideExportData `json:"guides"`
}

type GuideExportData struct {
	ID               uint             `json:"id"`
	Title            string           `json:"title" validate:"required"`
	Description      string           `json:"description"`
	Category         string           `json:"category"`
	EstimatedMinutes int              `json:"estimatedMinutes" validate:"gte=0"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	CreatedBy        string           `json:"createdBy"`
	Steps            []StepExportData `json:"steps" validate:"unique=Order,dive"`
}

// StepExportData carries a step's images in exactly one of two shapes
// depending on the export mode: Images (content id -> base64) in JSON
// exports, ImageFiles (content id -> bundle file name) in bundles.
//
// ResolvedImageIDs is filled by the importer with the blob ids the images
// were stored under. It is never serialised.
type StepExportData struct {
	ID         uint              `json:"id"`
	Order      int               `json:"order" validate:"gte=1"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Images     map[string]string `json:"images,omitempty"`
	ImageFiles map[string]string `json:"imageFiles,omitempty"`

	ResolvedImageIDs map[string]string `json:"-"`
}

// NewGuideExport wraps a single guide in the current envelope version.
func NewGuideExport(guide GuideExportData, now time.Time) GuideExport {
	return GuideExport{Version: Version, ExportDate: now.UTC(), Guide: guide}
}

// NewGuidesExport wraps guides in the multi-guide envelope.
func NewGuidesExport(guides []GuideExportData, now time.Time) GuidesExport {
	if guides == nil {
		guides = []GuideExportData{}
	}
	return GuidesExport{
		Version:    Version,
		ExportDate: now.UTC(),
		GuideCount: len(guides),
		Guides:     guides,
	}
}

// ContentID names the n-th (1-based) image of a step.
func ContentID(n int) string {
	return contentIDPrefix + strconv.Itoa(n)
}

// SortedContentIDs returns the keys of an image map in image order.
// Keys that do not follow the img_{n} pattern sort after numbered ones,
// alphabetically.
func SortedContentIDs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, okI := contentIndex(keys[i])
		nj, okJ := contentIndex(keys[j])
		switch {
		case okI && okJ:
			return ni < nj
		case okI != okJ:
			return okI
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func contentIndex(id string) (int, bool) {
	if !strings.HasPrefix(id, contentIDPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, contentIDPrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// BundleImageName is the bundle path of the n-th image of the guide
// (counted across all steps) that belongs to the step with the given order.
// The importer relies on this name to reconnect images to steps.
func BundleImageName(order, n int, mimeType string) string {
	return fmt.Sprintf("%sstep_%d_image_%d%s", ImagesPrefix, order, n, images.ExtensionForMimeType(mimeType))
}
