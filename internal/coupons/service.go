package coupons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/metrics"
)

// Rejection messages surfaced verbatim to the shopper.
var rejectMessages = map[RejectReason]string{
	RejectNotFound:      "Invalid coupon code.",
	RejectExpired:       "This coupon has expired or is inactive.",
	RejectLimitReached:  "This coupon has reached its usage limit.",
	RejectNotApplicable: "This coupon is not applicable to the items in your cart.",
}

// RejectDetails is attached to coupon rejection errors so the API can render
// a structured reason alongside the message.
type RejectDetails struct {
	Code   string       `json:"code"`
	Reason RejectReason `json:"reason"`
}

// Service exposes coupon validation for checkout and CRUD for the back office.
type Service interface {
	Apply(ctx context.Context, code string, items []CartItem) (*Quote, *models.Coupon, error)
	RecordUse(ctx context.Context, tx *gorm.DB, code string) (bool, error)
	CreateCoupon(ctx context.Context, input UpsertCouponInput) (*models.Coupon, error)
	UpdateCoupon(ctx context.Context, code string, input UpsertCouponInput) (*models.Coupon, error)
	DeleteCoupon(ctx context.Context, code string) error
	GetCoupon(ctx context.Context, code string) (*models.Coupon, error)
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
}

type service struct {
	repo  CouponRepository
	logg  *logger.Logger
	stats *metrics.CheckoutMetrics
	now   func() time.Time
}

// NewService builds a coupon service backed by the provided repository.
func NewService(repo CouponRepository, logg *logger.Logger, stats *metrics.CheckoutMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{
		repo:  repo,
		logg:  logg,
		stats: stats,
		now:   time.Now,
	}, nil
}

// UpsertCouponInput captures the admin payload for creating or updating a coupon.
type UpsertCouponInput struct {
	Code            string
	Type            enums.CouponType
	Value           decimal.Decimal
	UsageLimit      int
	ExpiryDate      time.Time
	ApplicableScope enums.CouponScope
	ApplicableIDs   []string
	IsActive        bool
}

// Apply validates the code against the cart and returns a priced quote. A
// rejection comes back as a typed error carrying the reason; the quote is
// still returned so callers can show the unmodified total.
func (s *service) Apply(ctx context.Context, code string, items []CartItem) (*Quote, *models.Coupon, error) {
	if NormalizeCode(code) == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if len(items) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one item")
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	quote := ComputeDiscount(items, coupon, s.now())
	if !quote.Applicable {
		s.stats.IncCouponRejected(string(quote.Reason))
		if s.logg != nil {
			s.logg.Warn(s.logg.WithCouponCode(ctx, NormalizeCode(code)), "coupon rejected: "+string(quote.Reason))
		}
		return &quote, nil, s.rejectError(code, quote.Reason)
	}
	return &quote, coupon, nil
}

// RecordUse increments times_used after a successful checkout. The increment
// is guarded, so a coupon that raced past its limit since validation is left
// untouched; the order stands either way. Pass a tx to join the caller's
// transaction, or nil to write directly.
func (s *service) RecordUse(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	return repo.IncrementUsage(ctx, code, s.now())
}

func (s *service) CreateCoupon(ctx context.Context, input UpsertCouponInput) (*models.Coupon, error) {
	coupon, err := couponFromInput(input)
	if err != nil {
		return nil, err
	}
	if existing, err := s.repo.FindByCode(ctx, coupon.Code); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a coupon with this code already exists")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check coupon code")
	}
	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return created, nil
}

func (s *service) UpdateCoupon(ctx context.Context, code string, input UpsertCouponInput) (*models.Coupon, error) {
	existing, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	input.Code = existing.Code
	updated, err := couponFromInput(input)
	if err != nil {
		return nil, err
	}
	updated.TimesUsed = existing.TimesUsed
	updated.CreatedAt = existing.CreatedAt

	saved, err := s.repo.Update(ctx, updated)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}
	return saved, nil
}

func (s *service) DeleteCoupon(ctx context.Context, code string) error {
	if _, err := s.repo.FindByCode(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if err := s.repo.Delete(ctx, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	return nil
}

func (s *service) GetCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

func (s *service) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return rows, nil
}

func (s *service) rejectError(code string, reason RejectReason) error {
	msg, ok := rejectMessages[reason]
	if !ok {
		msg = rejectMessages[RejectNotApplicable]
	}
	return pkgerrors.New(pkgerrors.CodeCouponReject, msg).WithDetails(RejectDetails{
		Code:   NormalizeCode(code),
		Reason: reason,
	})
}

func couponFromInput(input UpsertCouponInput) (*models.Coupon, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon type must be percentage or fixed")
	}
	if input.Value.IsNegative() || input.Value.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon value must be positive")
	}
	if input.Type == enums.CouponTypePercentage && input.Value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage value cannot exceed 100")
	}
	if input.UsageLimit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit must be positive")
	}
	scope := input.ApplicableScope
	if scope == "" {
		scope = enums.CouponScopeAll
	}
	if !scope.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid applicable scope")
	}
	if scope != enums.CouponScopeAll && len(input.ApplicableIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scoped coupons require applicable ids")
	}
	ids := input.ApplicableIDs
	if scope == enums.CouponScopeAll {
		ids = nil
	}
	return &models.Coupon{
		Code:            code,
		Type:            input.Type,
		Value:           input.Value,
		UsageLimit:      input.UsageLimit,
		ExpiryDate:      input.ExpiryDate,
		ApplicableScope: scope,
		ApplicableIDs:   pq.StringArray(ids),
		IsActive:        input.IsActive,
	}, nil
}
