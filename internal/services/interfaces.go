package services

import (
	"errors"
	"io"

	"github.com/mrlokans/guidekeeper/internal/database"
	"github.com/mrlokans/guidekeeper/internal/entities"
)

var (
	// ErrNotFound marks a guide, image or backup file that does not exist.
	ErrNotFound = database.ErrNotFound
	// ErrConflict marks a write rejected by a uniqueness constraint. Imports
	// resolve title conflicts by policy and never return it.
	ErrConflict = database.ErrDuplicate
	// ErrValidation marks malformed input: bad JSON or ZIP shape, missing
	// title, images that fail validation.
	ErrValidation = errors.New("validation failed")
	// ErrPartialFailure marks a batch where some items failed while others
	// succeeded.
	ErrPartialFailure = errors.New("partial failure")
)

// GuideReader provides read-only access to guides.
type GuideReader interface {
	GetByID(id uint) (*entities.Guide, error)
	GetAll() ([]entities.Guide, error)
}

// GuideStore is the guide part of the document store used by imports.
type GuideStore interface {
	GuideReader
	Create(guide *entities.Guide) error
	Delete(id uint) error
	// Replace swaps the guide oldID for guide atomically.
	Replace(oldID uint, guide *entities.Guide) error
	FindByTitle(title string) (*entities.Guide, error)
	TitleExists(title string) (bool, error)
}

// CategoryStore provisions categories referenced by imported guides.
type CategoryStore interface {
	GetOrCreate(name string) (*entities.Category, bool, error)
}

// ImageReader reads stored image blobs.
type ImageReader interface {
	Get(id string) (io.ReadCloser, error)
	Metadata(id string) (*entities.ImageMetadata, error)
}

// ImageStore is the full blob-store contract.
type ImageStore interface {
	ImageReader
	Upload(r io.Reader, name string) (string, error)
	Delete(id string) (bool, error)
	Validate(r io.Reader, name string) error
}

// RecordCounter counts the rows of one aggregate.
type RecordCounter interface {
	Count() (int64, error)
}
