package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// PlaceholderImageURL is the default product image. It lives on the placeholder
// host and is never uploaded to or deleted from the image store.
const PlaceholderImageURL = "https://placehold.co/600x600.png"

// Product represents a storefront listing.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	Category     string          `gorm:"column:category;not null" json:"category"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Image        string          `gorm:"column:image;not null" json:"image"`
	ImageID      *string         `gorm:"column:image_id" json:"-"`
	Rating       float64         `gorm:"column:rating;type:numeric(3,2);not null;default:0" json:"rating"`
	ReviewsCount int             `gorm:"column:reviews_count;not null;default:0" json:"reviewsCount"`
	Description  string          `gorm:"column:description;not null;default:''" json:"description"`
	Details      pq.StringArray  `gorm:"column:details;type:text[];not null;default:ARRAY[]::text[]" json:"details"`
	Tags         pq.StringArray  `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]" json:"tags"`
	Offers       pq.StringArray  `gorm:"column:offers;type:text[];not null;default:ARRAY[]::text[]" json:"offers"`
	Stock        int             `gorm:"column:stock;not null;default:0" json:"stock"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}
