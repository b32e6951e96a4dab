package utils

import (
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	multipleSpaces       = regexp.MustCompile(`\s+`)
)

const maxFilenameLength = 200

// SanitizeFilename turns a guide title into a file name stem that is safe
// on common filesystems. An empty result becomes "guide".
func SanitizeFilename(title string) string {
	name := invalidFilenameChars.ReplaceAllString(title, " ")
	name = multipleSpaces.ReplaceAllString(name, " ")
	name = strings.Trim(name, " .")

	if len(name) > maxFilenameLength {
		name = strings.TrimSpace(name[:maxFilenameLength])
	}
	if name == "" {
		name = "guide"
	}
	return name
}

// ExportFileName returns SanitizeFilename(title) with ext appended. ext
// should include the leading dot.
func ExportFileName(title, ext string) string {
	return SanitizeFilename(title) + ext
}
