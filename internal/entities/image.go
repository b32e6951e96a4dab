package entities

import "time"

// Image is a stored image blob. Data lives in the same SQLite file as the
// guides so that a store-level backup carries the images along.
type Image struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	FileName   string    `gorm:"size:255" json:"file_name"`
	MimeType   string    `gorm:"size:100" json:"mime_type"`
	Size       int64     `json:"size"`
	Data       []byte    `json:"-"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (Image) TableName() string {
	return "images"
}

// ImageMetadata is the blob description without its content.
type ImageMetadata struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}
