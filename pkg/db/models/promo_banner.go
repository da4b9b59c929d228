package models

import (
	"time"

	"github.com/google/uuid"
)

// PromoBanner is a marketing carousel entry managed from the admin dashboard.
type PromoBanner struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Subtitle    string    `gorm:"column:subtitle;not null;default:''" json:"subtitle"`
	Description string    `gorm:"column:description;not null;default:''" json:"description"`
	Image       string    `gorm:"column:image;not null" json:"image"`
	Background  string    `gorm:"column:background;not null;default:''" json:"background"`
	Position    int       `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

// ShowcaseCategory is a curated category tile on the storefront home page.
type ShowcaseCategory struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Image     string    `gorm:"column:image;not null" json:"image"`
	Position  int       `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}
