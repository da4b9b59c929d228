package siteconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
)

// Service owns the site_config singletons and the marketing surfaces.
// IsAdmin is the only authorization primitive in the system: an email either
// is or is not on the allowlist.
type Service interface {
	EnsureSeeded(ctx context.Context, seedAdmins []string) error

	IsAdmin(ctx context.Context, email string) (bool, error)
	ListAdmins(ctx context.Context) ([]string, error)
	AddAdmin(ctx context.Context, email string) ([]string, error)
	RemoveAdmin(ctx context.Context, email string) ([]string, error)

	GetHero(ctx context.Context) (*models.HeroPayload, error)
	SetHero(ctx context.Context, images []string) (*models.HeroPayload, error)

	GetSale(ctx context.Context) (*models.SalePayload, error)
	StartSale(ctx context.Context, endDate time.Time, backgroundImage string) (*models.SalePayload, error)
	EndSale(ctx context.Context) (*models.SalePayload, error)

	ListBanners(ctx context.Context) ([]models.PromoBanner, error)
	CreateBanner(ctx context.Context, input BannerInput) (*models.PromoBanner, error)
	UpdateBanner(ctx context.Context, id uuid.UUID, input BannerInput) (*models.PromoBanner, error)
	DeleteBanner(ctx context.Context, id uuid.UUID) error

	ListShowcase(ctx context.Context) ([]models.ShowcaseCategory, error)
	CreateShowcase(ctx context.Context, input ShowcaseInput) (*models.ShowcaseCategory, error)
	UpdateShowcase(ctx context.Context, id uuid.UUID, input ShowcaseInput) (*models.ShowcaseCategory, error)
	DeleteShowcase(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo ConfigRepository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the site configuration service.
func NewService(repo ConfigRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("site config repository required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// BannerInput captures the admin payload for a promo banner.
type BannerInput struct {
	Title       string
	Subtitle    string
	Description string
	Image       string
	Background  string
	Position    int
}

// ShowcaseInput captures the admin payload for a showcase category tile.
type ShowcaseInput struct {
	Name     string
	Image    string
	Position int
}

// EnsureSeeded writes the three singleton documents if they are missing.
// Existing documents are left untouched, so the seed list only matters on
// first boot.
func (s *service) EnsureSeeded(ctx context.Context, seedAdmins []string) error {
	if _, err := s.repo.GetConfig(ctx, models.SiteConfigAdmins); errors.Is(err, gorm.ErrRecordNotFound) {
		emails := make([]string, 0, len(seedAdmins))
		for _, email := range seedAdmins {
			if normalized := normalizeAdminEmail(email); normalized != "" {
				emails = append(emails, normalized)
			}
		}
		if err := s.writeAdmins(ctx, emails); err != nil {
			return err
		}
	} else if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin allowlist")
	}

	if _, err := s.repo.GetConfig(ctx, models.SiteConfigHero); errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.writeConfig(ctx, models.SiteConfigHero, models.HeroPayload{Images: []string{}}); err != nil {
			return err
		}
	} else if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load hero config")
	}

	if _, err := s.repo.GetConfig(ctx, models.SiteConfigSale); errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.writeConfig(ctx, models.SiteConfigSale, models.SalePayload{IsActive: false}); err != nil {
			return err
		}
	} else if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale config")
	}
	return nil
}

func (s *service) IsAdmin(ctx context.Context, email string) (bool, error) {
	emails, err := s.ListAdmins(ctx)
	if err != nil {
		return false, err
	}
	needle := normalizeAdminEmail(email)
	for _, candidate := range emails {
		if candidate == needle {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) ListAdmins(ctx context.Context) ([]string, error) {
	var payload models.AdminsPayload
	if err := s.readConfig(ctx, models.SiteConfigAdmins, &payload); err != nil {
		return nil, err
	}
	return payload.Emails, nil
}

func (s *service) AddAdmin(ctx context.Context, email string) ([]string, error) {
	normalized := normalizeAdminEmail(email)
	if normalized == "" || !strings.Contains(normalized, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email address is required")
	}

	emails, err := s.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	for _, candidate := range emails {
		if candidate == normalized {
			return emails, nil
		}
	}
	emails = append(emails, normalized)
	if err := s.writeAdmins(ctx, emails); err != nil {
		return nil, err
	}
	return emails, nil
}

// RemoveAdmin refuses to empty the allowlist: a system with zero admins can
// never be administered again.
func (s *service) RemoveAdmin(ctx context.Context, email string) ([]string, error) {
	normalized := normalizeAdminEmail(email)
	emails, err := s.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}

	remaining := make([]string, 0, len(emails))
	for _, candidate := range emails {
		if candidate != normalized {
			remaining = append(remaining, candidate)
		}
	}
	if len(remaining) == len(emails) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "email is not on the admin allowlist")
	}
	if len(remaining) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot remove the last admin")
	}
	if err := s.writeAdmins(ctx, remaining); err != nil {
		return nil, err
	}
	return remaining, nil
}

func (s *service) GetHero(ctx context.Context) (*models.HeroPayload, error) {
	var payload models.HeroPayload
	if err := s.readConfig(ctx, models.SiteConfigHero, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (s *service) SetHero(ctx context.Context, images []string) (*models.HeroPayload, error) {
	if images == nil {
		images = []string{}
	}
	payload := models.HeroPayload{Images: images}
	if err := s.writeConfig(ctx, models.SiteConfigHero, payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetSale auto-expires on read: a sale past its end date is deactivated and
// written back before it is returned.
func (s *service) GetSale(ctx context.Context) (*models.SalePayload, error) {
	var payload models.SalePayload
	if err := s.readConfig(ctx, models.SiteConfigSale, &payload); err != nil {
		return nil, err
	}
	if payload.IsActive && !s.now().Before(payload.EndDate) {
		payload.IsActive = false
		if err := s.writeConfig(ctx, models.SiteConfigSale, payload); err != nil {
			return nil, err
		}
	}
	return &payload, nil
}

func (s *service) StartSale(ctx context.Context, endDate time.Time, backgroundImage string) (*models.SalePayload, error) {
	if !endDate.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale end date must be in the future")
	}
	payload := models.SalePayload{
		IsActive:        true,
		EndDate:         endDate,
		BackgroundImage: backgroundImage,
	}
	if err := s.writeConfig(ctx, models.SiteConfigSale, payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (s *service) EndSale(ctx context.Context) (*models.SalePayload, error) {
	var payload models.SalePayload
	if err := s.readConfig(ctx, models.SiteConfigSale, &payload); err != nil {
		return nil, err
	}
	payload.IsActive = false
	if err := s.writeConfig(ctx, models.SiteConfigSale, payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (s *service) ListBanners(ctx context.Context) ([]models.PromoBanner, error) {
	rows, err := s.repo.ListBanners(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promo banners")
	}
	return rows, nil
}

func (s *service) CreateBanner(ctx context.Context, input BannerInput) (*models.PromoBanner, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Image) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "banner title and image are required")
	}
	banner := &models.PromoBanner{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(input.Title),
		Subtitle:    input.Subtitle,
		Description: input.Description,
		Image:       input.Image,
		Background:  input.Background,
		Position:    input.Position,
	}
	created, err := s.repo.CreateBanner(ctx, banner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promo banner")
	}
	return created, nil
}

func (s *service) UpdateBanner(ctx context.Context, id uuid.UUID, input BannerInput) (*models.PromoBanner, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Image) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "banner title and image are required")
	}
	banner := &models.PromoBanner{
		ID:          id,
		Title:       strings.TrimSpace(input.Title),
		Subtitle:    input.Subtitle,
		Description: input.Description,
		Image:       input.Image,
		Background:  input.Background,
		Position:    input.Position,
	}
	updated, err := s.repo.UpdateBanner(ctx, banner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update promo banner")
	}
	return updated, nil
}

func (s *service) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteBanner(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete promo banner")
	}
	return nil
}

func (s *service) ListShowcase(ctx context.Context) ([]models.ShowcaseCategory, error) {
	rows, err := s.repo.ListShowcase(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list showcase categories")
	}
	return rows, nil
}

func (s *service) CreateShowcase(ctx context.Context, input ShowcaseInput) (*models.ShowcaseCategory, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Image) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "showcase name and image are required")
	}
	category := &models.ShowcaseCategory{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(input.Name),
		Image:    input.Image,
		Position: input.Position,
	}
	created, err := s.repo.CreateShowcase(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create showcase category")
	}
	return created, nil
}

func (s *service) UpdateShowcase(ctx context.Context, id uuid.UUID, input ShowcaseInput) (*models.ShowcaseCategory, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Image) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "showcase name and image are required")
	}
	category := &models.ShowcaseCategory{
		ID:       id,
		Name:     strings.TrimSpace(input.Name),
		Image:    input.Image,
		Position: input.Position,
	}
	updated, err := s.repo.UpdateShowcase(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update showcase category")
	}
	return updated, nil
}

func (s *service) DeleteShowcase(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteShowcase(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete showcase category")
	}
	return nil
}

func (s *service) readConfig(ctx context.Context, key string, out any) error {
	row, err := s.repo.GetConfig(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("site config %q is not seeded", key))
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load site config")
	}
	if err := json.Unmarshal(row.Payload, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode site config payload")
	}
	return nil
}

func (s *service) writeConfig(ctx context.Context, key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode site config payload")
	}
	if err := s.repo.UpsertConfig(ctx, key, raw); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write site config")
	}
	return nil
}

func (s *service) writeAdmins(ctx context.Context, emails []string) error {
	return s.writeConfig(ctx, models.SiteConfigAdmins, models.AdminsPayload{Emails: emails})
}

func normalizeAdminEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
