package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/pagination"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/storage/images"
)

// Service exposes the product catalog to the storefront and the back office.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, filter ListFilter) (*ProductPage, error)
	ListCategories(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, input UpsertProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpsertProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type imageStore interface {
	Configured() bool
	Upload(ctx context.Context, file, folder string) (*images.UploadResult, error)
	Delete(ctx context.Context, publicID string) error
}

type service struct {
	repo   ProductRepository
	images imageStore
	logg   *logger.Logger
}

// NewService builds a catalog service backed by the provided stack.
func NewService(repo ProductRepository, imgs imageStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, images: imgs, logg: logg}, nil
}

// UpsertProductInput captures the admin payload for creating or updating a product.
type UpsertProductInput struct {
	Name        string
	Category    string
	Price       decimal.Decimal
	Description string
	Details     []string
	Tags        []string
	Offers      []string
	Stock       int
	// ImageData is a data URI to upload, empty to keep the current image.
	ImageData string
}

// ProductPage is one page of listing results with the cursor for the next.
type ProductPage struct {
	Products   []models.Product
	NextCursor string
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, filter ListFilter) (*ProductPage, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	limit := pagination.NormalizeLimit(filter.Limit)
	page := &ProductPage{Products: rows}
	if len(rows) > limit {
		page.Products = rows[:limit]
		last := page.Products[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) CreateProduct(ctx context.Context, input UpsertProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Category:    strings.TrimSpace(input.Category),
		Price:       input.Price,
		Description: input.Description,
		Details:     pq.StringArray(input.Details),
		Tags:        pq.StringArray(input.Tags),
		Offers:      pq.StringArray(input.Offers),
		Stock:       input.Stock,
		Image:       models.PlaceholderImageURL,
	}

	if input.ImageData != "" {
		url, publicID := s.uploadImage(ctx, input.ImageData)
		if url != "" {
			product.Image = url
			product.ImageID = &publicID
		}
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpsertProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Category = strings.TrimSpace(input.Category)
	product.Price = input.Price
	product.Description = input.Description
	product.Details = pq.StringArray(input.Details)
	product.Tags = pq.StringArray(input.Tags)
	product.Offers = pq.StringArray(input.Offers)
	product.Stock = input.Stock

	if input.ImageData != "" {
		oldImageID := product.ImageID
		url, publicID := s.uploadImage(ctx, input.ImageData)
		if url != "" {
			product.Image = url
			product.ImageID = &publicID
			s.removeImage(ctx, oldImageID)
		}
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return updated, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	s.removeImage(ctx, product.ImageID)
	return nil
}

// uploadImage sends the data URI to the image store. Failures fall back to the
// placeholder so product writes never block on the image host.
func (s *service) uploadImage(ctx context.Context, data string) (url, publicID string) {
	if s.images == nil || !s.images.Configured() {
		return "", ""
	}
	result, err := s.images.Upload(ctx, data, "products")
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "product image upload failed, keeping placeholder")
		}
		return "", ""
	}
	return result.SecureURL, result.PublicID
}

func (s *service) removeImage(ctx context.Context, publicID *string) {
	if publicID == nil || *publicID == "" {
		return
	}
	if s.images == nil || !s.images.Configured() {
		return
	}
	if err := s.images.Delete(ctx, *publicID); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "deleting product image failed")
	}
}

func validateProductInput(input UpsertProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product category is required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product stock cannot be negative")
	}
	return nil
}
