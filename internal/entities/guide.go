package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const (
	DefaultCategoryName  = "General"
	DefaultCategoryIcon  = "📁"
	DefaultCategoryColor = "#6B7280"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100" json:"name"`
	Description string    `gorm:"size:512" json:"description,omitempty"`
	Icon        string    `gorm:"size:16" json:"icon"`
	Color       string    `gorm:"size:10" json:"color"` // Hex color code
	CreatedAt   time.Time `json:"created_at"`
}

type Guide struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Title            string    `gorm:"index;size:512" json:"title"`
	Description      string    `gorm:"type:text" json:"description,omitempty"`
	Category         string    `gorm:"index;size:100" json:"category"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	CreatedBy        string    `gorm:"size:100" json:"created_by,omitempty"`
	Steps            []Step    `gorm:"foreignKey:GuideID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SortSteps orders steps by their Order field in place.
func (g *Guide) SortSteps() {
	sort.SliceStable(g.Steps, func(i, j int) bool {
		return g.Steps[i].Order < g.Steps[j].Order
	})
}

// ImageIDs returns every blob id referenced by the guide's steps.
func (g *Guide) ImageIDs() []string {
	var ids []string
	for _, step := range g.Steps {
		ids = append(ids, step.ImageIDs...)
	}
	return ids
}

type Step struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	GuideID  uint     `gorm:"index" json:"guide_id"`
	Order    int      `gorm:"column:step_order" json:"order"` // 1-based, unique within a guide
	Title    string   `gorm:"size:512" json:"title"`
	Content  string   `gorm:"type:text" json:"content"`
	ImageIDs ImageIDs `gorm:"type:text" json:"image_ids,omitempty"`
}

// ImageIDs is a list of blob-store ids persisted as a JSON text column.
type ImageIDs []string

func (ids ImageIDs) Value() (driver.Value, error) {
	if len(ids) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(ids))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (ids *ImageIDs) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*ids = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported image ids column type %T", value)
	}
	if len(raw) == 0 {
		*ids = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode image ids: %w", err)
	}
	*ids = out
	return nil
}

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;size:100" json:"username"`
	DisplayName string    `gorm:"size:200" json:"display_name,omitempty"`
	Role        string    `gorm:"size:20;default:'user'" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

type Progress struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"index" json:"user_id"`
	GuideID        uint       `gorm:"index" json:"guide_id"`
	CurrentStep    int        `json:"current_step"`
	CompletedSteps int        `json:"completed_steps"`
	Notes          string     `gorm:"type:text" json:"notes,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (Guide) TableName() string {
	return "guides"
}

func (Step) TableName() string {
	return "steps"
}

func (User) TableName() string {
	return "users"
}

func (Progress) TableName() string {
	return "progress"
}
