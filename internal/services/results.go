package services

// ImportResult summarises one import call. It is built once and returned by
// value; the slices are copies owned by the result.
type ImportResult struct {
	Success           bool     `json:"success"`
	ImportedGuideIDs  []uint   `json:"importedGuideIds"`
	ImagesImported    int      `json:"imagesImported"`
	DuplicatesSkipped int      `json:"duplicatesSkipped"`
	Errors            []string `json:"errors"`
	Warnings          []string `json:"warnings"`
}

// ImportResultBuilder accumulates the outcome of an import while it runs.
type ImportResultBuilder struct {
	guideIDs   []uint
	images     int
	duplicates int
	errors     []string
	warnings   []string
}

func (b *ImportResultBuilder) AddGuide(id uint) {
	b.guideIDs = append(b.guideIDs, id)
}

func (b *ImportResultBuilder) AddImages(n int) {
	b.images += n
}

func (b *ImportResultBuilder) AddDuplicateSkipped() {
	b.duplicates++
}

func (b *ImportResultBuilder) AddError(msg string) {
	b.errors = append(b.errors, msg)
}

func (b *ImportResultBuilder) AddWarning(msg string) {
	b.warnings = append(b.warnings, msg)
}

// Build freezes the accumulated state. Success is true when at least one
// guide was written.
func (b *ImportResultBuilder) Build() ImportResult {
	return ImportResult{
		Success:           len(b.guideIDs) > 0,
		ImportedGuideIDs:  append([]uint{}, b.guideIDs...),
		ImagesImported:    b.images,
		DuplicatesSkipped: b.duplicates,
		Errors:            append([]string{}, b.errors...),
		Warnings:          append([]string{}, b.warnings...),
	}
}

// FailedImport is the result of an import that could not start, e.g. on
// unreadable input.
func FailedImport(msg string) ImportResult {
	var b ImportResultBuilder
	b.AddError(msg)
	return b.Build()
}

// ImportFormat names the detected shape of an import document.
type ImportFormat string

const (
	FormatUnknown     ImportFormat = ""
	FormatSingleGuide ImportFormat = "single"
	FormatMultiGuide  ImportFormat = "multi"
	FormatBareGuide   ImportFormat = "bare"
	FormatBundle      ImportFormat = "bundle"
)

// ValidationReport is the outcome of a pre-flight check of an import file.
type ValidationReport struct {
	Valid      bool         `json:"valid"`
	Format     ImportFormat `json:"format"`
	GuideCount int          `json:"guideCount"`
	ImageCount int          `json:"imageCount"`
	Titles     []string     `json:"titles"`
	Errors     []string     `json:"errors"`
	Warnings   []string     `json:"warnings"`
}
