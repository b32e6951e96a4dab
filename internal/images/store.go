// Package images is the content store for step images. Blobs are addressed
// by an opaque uuid and kept in their own table, independent of the guide
// documents that reference them.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/guidekeeper/internal/database"
	"github.com/mrlokans/guidekeeper/internal/entities"
)

// DefaultMaxBytes is the largest image accepted when no limit is configured.
const DefaultMaxBytes int64 = 10 << 20

// ErrNotFound is returned for ids that do not name a stored blob. It is the
// store-wide not-found sentinel.
var ErrNotFound = database.ErrNotFound

// Store keeps image blobs in the document database file.
type Store struct {
	db       *gorm.DB
	maxBytes int64
	now      func() time.Time
}

// NewStore creates an image store. maxBytes <= 0 selects DefaultMaxBytes.
func NewStore(db *gorm.DB, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{db: db, maxBytes: maxBytes, now: time.Now}
}

// MaxBytes returns the per-image size limit.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores the content of r under a freshly generated id.
func (s *Store) Upload(r io.Reader, name string) (string, error) {
	data, err := readLimited(r, s.maxBytes)
	if err != nil {
		return "", err
	}

	image := entities.Image{
		ID:         uuid.NewString(),
		FileName:   name,
		MimeType:   mimetype.Detect(data).String(),
		Size:       int64(len(data)),
		Data:       data,
		UploadedAt: s.now(),
	}
	if err := s.db.Create(&image).Error; err != nil {
		return "", fmt.Errorf("store image %s: %w", name, database.TranslateError(err))
	}
	return image.ID, nil
}

// Get opens the content of a stored image.
func (s *Store) Get(id string) (io.ReadCloser, error) {
	var image entities.Image
	err := s.db.Where("id = ?", id).First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(image.Data)), nil
}

// Delete removes an image and reports whether anything was deleted.
func (s *Store) Delete(id string) (bool, error) {
	result := s.db.Where("id = ?", id).Delete(&entities.Image{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Metadata describes a stored image without loading its content.
func (s *Store) Metadata(id string) (*entities.ImageMetadata, error) {
	var meta entities.ImageMetadata
	err := s.db.Model(&entities.Image{}).
		Select("id", "file_name", "mime_type", "size", "uploaded_at").
		Where("id = ?", id).
		Take(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// Count returns the number of stored images.
func (s *Store) Count() (int64, error) {
	var count int64
	err := s.db.Model(&entities.Image{}).Count(&count).Error
	return count, err
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, &ValidationError{Reason: fmt.Sprintf("image exceeds the %d byte limit", limit)}
	}
	return data, nil
}
