package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// AllowedMimeTypes lists the image formats the store accepts, keyed by MIME
// type with the canonical file extension as value.
var AllowedMimeTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// ValidationError explains why content was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid image: " + e.Reason
}

// Validate checks that r holds a decodable image of an allowed format within
// the size limit. name is only used for its extension; an empty extension is
// accepted.
func (s *Store) Validate(r io.Reader, name string) error {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" && !allowedExtensions[ext] {
		return &ValidationError{Reason: fmt.Sprintf("unsupported file extension %q", ext)}
	}

	data, err := readLimited(r, s.maxBytes)
	if err != nil {
		return err
	}
	return ValidateBytes(data)
}

// ValidateBytes checks already-loaded content. It does not enforce a size
// limit.
func ValidateBytes(data []byte) error {
	if len(data) == 0 {
		return &ValidationError{Reason: "image is empty"}
	}

	mime := mimetype.Detect(data)
	if _, ok := AllowedMimeTypes[mime.String()]; !ok {
		return &ValidationError{Reason: fmt.Sprintf("unsupported content type %s", mime.String())}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return &ValidationError{Reason: fmt.Sprintf("cannot decode %s: %v", mime.String(), err)}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return &ValidationError{Reason: "image has no pixels"}
	}
	return nil
}

// ExtensionForMimeType returns the file extension (with dot) for a stored
// MIME type, defaulting to ".png" for anything unknown.
func ExtensionForMimeType(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if ext, ok := AllowedMimeTypes[mimeType]; ok {
		return ext
	}
	switch mimeType {
	case "image/jpg", "image/pjpeg":
		return ".jpg"
	case "image/svg+xml":
		return ".svg"
	case "image/x-ms-bmp":
		return ".bmp"
	}
	return ".png"
}
