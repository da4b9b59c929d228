package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
)

type stubCouponRepo struct {
	coupons        map[string]*models.Coupon
	incrementCalls []string
	incrementOK    bool
}

func newStubCouponRepo() *stubCouponRepo {
	return &stubCouponRepo{coupons: map[string]*models.Coupon{}, incrementOK: true}
}

func (s *stubCouponRepo) WithTx(tx *gorm.DB) CouponRepository { return s }

func (s *stubCouponRepo) Create(_ context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	s.coupons[coupon.Code] = coupon
	return coupon, nil
}

func (s *stubCouponRepo) Update(_ context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	s.coupons[coupon.Code] = coupon
	return coupon, nil
}

func (s *stubCouponRepo) Delete(_ context.Context, code string) error {
	delete(s.coupons, NormalizeCode(code))
	return nil
}

func (s *stubCouponRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	coupon, ok := s.coupons[NormalizeCode(code)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return coupon, nil
}

func (s *stubCouponRepo) List(_ context.Context) ([]models.Coupon, error) {
	rows := make([]models.Coupon, 0, len(s.coupons))
	for _, c := range s.coupons {
		rows = append(rows, *c)
	}
	return rows, nil
}

func (s *stubCouponRepo) IncrementUsage(_ context.Context, code string, _ time.Time) (bool, error) {
	s.incrementCalls = append(s.incrementCalls, NormalizeCode(code))
	if s.incrementOK {
		s.coupons[NormalizeCode(code)].TimesUsed++
	}
	return s.incrementOK, nil
}

func newTestService(t *testing.T, repo CouponRepository) Service {
	t.Helper()
	svc, err := NewService(repo, nil, nil)
	require.NoError(t, err)
	return svc
}

func TestServiceApplyReturnsQuote(t *testing.T) {
	repo := newStubCouponRepo()
	repo.coupons["SAVE10"] = &models.Coupon{
		Code:            "SAVE10",
		Type:            enums.CouponTypeFixed,
		Value:           decimal.NewFromInt(10),
		UsageLimit:      100,
		ExpiryDate:      time.Now().Add(time.Hour),
		ApplicableScope: enums.CouponScopeAll,
		IsActive:        true,
	}
	svc := newTestService(t, repo)

	items := []CartItem{cartItem("snacks", 500, 1)}
	quote, coupon, err := svc.Apply(context.Background(), "save10", items)

	require.NoError(t, err)
	require.NotNil(t, coupon)
	assert.True(t, quote.DiscountAmount.Equal(decimal.NewFromInt(10)))
	assert.True(t, quote.FinalTotal.Equal(decimal.NewFromInt(490)))
}

func TestServiceApplyUnknownCodeRejects(t *testing.T) {
	svc := newTestService(t, newStubCouponRepo())

	quote, coupon, err := svc.Apply(context.Background(), "NOPE", []CartItem{cartItem("snacks", 100, 1)})

	require.Error(t, err)
	assert.Nil(t, coupon)
	require.NotNil(t, quote, "rejection still returns the unmodified quote")
	assert.True(t, quote.FinalTotal.Equal(decimal.NewFromInt(100)))

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeCouponReject, typed.Code())
	details, ok := typed.Details().(RejectDetails)
	require.True(t, ok)
	assert.Equal(t, RejectNotFound, details.Reason)
}

func TestServiceApplyLimitReachedRejects(t *testing.T) {
	repo := newStubCouponRepo()
	repo.coupons["MAXED"] = &models.Coupon{
		Code:            "MAXED",
		Type:            enums.CouponTypeFixed,
		Value:           decimal.NewFromInt(10),
		UsageLimit:      1,
		TimesUsed:       1,
		ExpiryDate:      time.Now().Add(time.Hour),
		ApplicableScope: enums.CouponScopeAll,
		IsActive:        true,
	}
	svc := newTestService(t, repo)

	_, _, err := svc.Apply(context.Background(), "MAXED", []CartItem{cartItem("snacks", 100, 1)})

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(RejectDetails)
	require.True(t, ok)
	assert.Equal(t, RejectLimitReached, details.Reason)
}

func TestServiceRecordUseReportsGuardOutcome(t *testing.T) {
	repo := newStubCouponRepo()
	repo.coupons["SAVE10"] = &models.Coupon{Code: "SAVE10", UsageLimit: 1}
	svc := newTestService(t, repo)

	ok, err := svc.RecordUse(context.Background(), nil, "save10")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"SAVE10"}, repo.incrementCalls)

	repo.incrementOK = false
	ok, err = svc.RecordUse(context.Background(), nil, "save10")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServiceCreateCouponValidation(t *testing.T) {
	svc := newTestService(t, newStubCouponRepo())
	ctx := context.Background()

	cases := []struct {
		name  string
		input UpsertCouponInput
	}{
		{"missing code", UpsertCouponInput{Type: enums.CouponTypeFixed, Value: decimal.NewFromInt(10), UsageLimit: 1, ExpiryDate: time.Now().Add(time.Hour)}},
		{"bad type", UpsertCouponInput{Code: "X", Type: "bogus", Value: decimal.NewFromInt(10), UsageLimit: 1, ExpiryDate: time.Now().Add(time.Hour)}},
		{"zero value", UpsertCouponInput{Code: "X", Type: enums.CouponTypeFixed, Value: decimal.Zero, UsageLimit: 1, ExpiryDate: time.Now().Add(time.Hour)}},
		{"percentage over 100", UpsertCouponInput{Code: "X", Type: enums.CouponTypePercentage, Value: decimal.NewFromInt(120), UsageLimit: 1, ExpiryDate: time.Now().Add(time.Hour)}},
		{"zero usage limit", UpsertCouponInput{Code: "X", Type: enums.CouponTypeFixed, Value: decimal.NewFromInt(10), ExpiryDate: time.Now().Add(time.Hour)}},
		{"scoped without ids", UpsertCouponInput{Code: "X", Type: enums.CouponTypeFixed, Value: decimal.NewFromInt(10), UsageLimit: 1, ExpiryDate: time.Now().Add(time.Hour), ApplicableScope: enums.CouponScopeCategory}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateCoupon(ctx, tc.input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestServiceCreateCouponConflict(t *testing.T) {
	repo := newStubCouponRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	input := UpsertCouponInput{
		Code:       "dupe",
		Type:       enums.CouponTypeFixed,
		Value:      decimal.NewFromInt(5),
		UsageLimit: 3,
		ExpiryDate: time.Now().Add(time.Hour),
		IsActive:   true,
	}

	created, err := svc.CreateCoupon(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "DUPE", created.Code)

	_, err = svc.CreateCoupon(ctx, input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestServiceUpdateCouponPreservesUsage(t *testing.T) {
	repo := newStubCouponRepo()
	repo.coupons["KEEP"] = &models.Coupon{
		Code:            "KEEP",
		Type:            enums.CouponTypeFixed,
		Value:           decimal.NewFromInt(5),
		UsageLimit:      10,
		TimesUsed:       4,
		ExpiryDate:      time.Now().Add(time.Hour),
		ApplicableScope: enums.CouponScopeAll,
		IsActive:        true,
	}
	svc := newTestService(t, repo)

	updated, err := svc.UpdateCoupon(context.Background(), "keep", UpsertCouponInput{
		Code:       "keep",
		Type:       enums.CouponTypePercentage,
		Value:      decimal.NewFromInt(15),
		UsageLimit: 20,
		ExpiryDate: time.Now().Add(48 * time.Hour),
		IsActive:   true,
	})

	require.NoError(t, err)
	assert.Equal(t, 4, updated.TimesUsed, "usage counter survives edits")
	assert.Equal(t, enums.CouponTypePercentage, updated.Type)
}
