package siteconfig

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
)

// ConfigRepository persists the site_config singletons and the marketing
// surfaces (promo banners, showcase categories).
type ConfigRepository interface {
	WithTx(tx *gorm.DB) ConfigRepository
	GetConfig(ctx context.Context, key string) (*models.SiteConfig, error)
	UpsertConfig(ctx context.Context, key string, payload json.RawMessage) error

	ListBanners(ctx context.Context) ([]models.PromoBanner, error)
	CreateBanner(ctx context.Context, banner *models.PromoBanner) (*models.PromoBanner, error)
	UpdateBanner(ctx context.Context, banner *models.PromoBanner) (*models.PromoBanner, error)
	DeleteBanner(ctx context.Context, id uuid.UUID) error

	ListShowcase(ctx context.Context) ([]models.ShowcaseCategory, error)
	CreateShowcase(ctx context.Context, category *models.ShowcaseCategory) (*models.ShowcaseCategory, error)
	UpdateShowcase(ctx context.Context, category *models.ShowcaseCategory) (*models.ShowcaseCategory, error)
	DeleteShowcase(ctx context.Context, id uuid.UUID) error
}

// Repository persists site configuration via gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ConfigRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) GetConfig(ctx context.Context, key string) (*models.SiteConfig, error) {
	var row models.SiteConfig
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertConfig writes the singleton document, inserting on first write.
func (r *Repository) UpsertConfig(ctx context.Context, key string, payload json.RawMessage) error {
	row := models.SiteConfig{Key: key, Payload: payload}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *Repository) ListBanners(ctx context.Context) ([]models.PromoBanner, error) {
	var rows []models.PromoBanner
	if err := r.db.WithContext(ctx).
		Order("position ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) CreateBanner(ctx context.Context, banner *models.PromoBanner) (*models.PromoBanner, error) {
	if err := r.db.WithContext(ctx).Create(banner).Error; err != nil {
		return nil, err
	}
	return banner, nil
}

func (r *Repository) UpdateBanner(ctx context.Context, banner *models.PromoBanner) (*models.PromoBanner, error) {
	if err := r.db.WithContext(ctx).Save(banner).Error; err != nil {
		return nil, err
	}
	return banner, nil
}

func (r *Repository) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.PromoBanner{}).Error
}

func (r *Repository) ListShowcase(ctx context.Context) ([]models.ShowcaseCategory, error) {
	var rows []models.ShowcaseCategory
	if err := r.db.WithContext(ctx).
		Order("position ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) CreateShowcase(ctx context.Context, category *models.ShowcaseCategory) (*models.ShowcaseCategory, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *Repository) UpdateShowcase(ctx context.Context, category *models.ShowcaseCategory) (*models.ShowcaseCategory, error) {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *Repository) DeleteShowcase(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.ShowcaseCategory{}).Error
}
