package models

import (
	"encoding/json"
	"time"
)

// Site config singleton keys.
const (
	SiteConfigAdmins = "admins"
	SiteConfigHero   = "hero"
	SiteConfigSale   = "sale"
)

// SiteConfig stores one singleton document per key (admin allowlist, hero
// images, flash sale). Rows are seeded once at startup, not lazily on read.
type SiteConfig struct {
	Key       string          `gorm:"column:key;primaryKey"`
	Payload   json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// AdminsPayload is the site_config/admins document.
type AdminsPayload struct {
	Emails []string `json:"emails"`
}

// HeroPayload is the site_config/hero document.
type HeroPayload struct {
	Images []string `json:"images"`
}

// SalePayload is the site_config/sale document.
type SalePayload struct {
	IsActive        bool      `json:"isActive"`
	EndDate         time.Time `json:"endDate"`
	BackgroundImage string    `json:"backgroundImage"`
}
