package coupons

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
)

func cartItem(category string, price float64, qty int) CartItem {
	return CartItem{
		ProductID: uuid.New(),
		Category:  category,
		Price:     decimal.NewFromFloat(price),
		Quantity:  qty,
	}
}

func activeCoupon(couponType enums.CouponType, value float64) *models.Coupon {
	return &models.Coupon{
		Code:            "SAVE",
		Type:            couponType,
		Value:           decimal.NewFromFloat(value),
		UsageLimit:      10,
		TimesUsed:       0,
		ExpiryDate:      time.Now().Add(24 * time.Hour),
		ApplicableScope: enums.CouponScopeAll,
		IsActive:        true,
	}
}

func TestComputeDiscountFixedNeverExceedsApplicableTotal(t *testing.T) {
	items := []CartItem{cartItem("snacks", 50, 1)}
	coupon := activeCoupon(enums.CouponTypeFixed, 100)

	quote := ComputeDiscount(items, coupon, time.Now())

	require.True(t, quote.Applicable)
	assert.True(t, quote.DiscountAmount.Equal(decimal.NewFromInt(50)),
		"discount %s should cap at applicable subtotal", quote.DiscountAmount)
	assert.True(t, quote.FinalTotal.IsZero())
}

func TestComputeDiscountPercentageExact(t *testing.T) {
	items := []CartItem{cartItem("snacks", 100, 2)}
	coupon := activeCoupon(enums.CouponTypePercentage, 20)

	quote := ComputeDiscount(items, coupon, time.Now())

	require.True(t, quote.Applicable)
	assert.True(t, quote.DiscountAmount.Equal(decimal.NewFromInt(40)), "got %s", quote.DiscountAmount)
	assert.True(t, quote.FinalTotal.Equal(decimal.NewFromInt(160)), "got %s", quote.FinalTotal)
}

func TestComputeDiscountFinalTotalNeverNegative(t *testing.T) {
	// Legacy rows can hold percentage values above 100; the clamp keeps the
	// total at zero instead of going negative.
	item := cartItem("snacks", 30, 1)
	coupon := activeCoupon(enums.CouponTypePercentage, 150)

	quote := ComputeDiscount([]CartItem{item}, coupon, time.Now())

	require.True(t, quote.Applicable)
	assert.True(t, quote.DiscountAmount.Equal(decimal.NewFromInt(45)), "got %s", quote.DiscountAmount)
	assert.False(t, quote.FinalTotal.IsNegative())
	assert.True(t, quote.FinalTotal.IsZero())
}

func TestComputeDiscountLimitReached(t *testing.T) {
	coupon := activeCoupon(enums.CouponTypeFixed, 10)
	coupon.UsageLimit = 1
	coupon.TimesUsed = 1

	quote := ComputeDiscount([]CartItem{cartItem("snacks", 100, 1)}, coupon, time.Now())

	assert.False(t, quote.Applicable)
	assert.Equal(t, RejectLimitReached, quote.Reason)
	assert.True(t, quote.FinalTotal.Equal(decimal.NewFromInt(100)))
}

func TestComputeDiscountExpiredEvenIfActive(t *testing.T) {
	coupon := activeCoupon(enums.CouponTypeFixed, 10)
	coupon.ExpiryDate = time.Now().Add(-24 * time.Hour)
	coupon.IsActive = true

	quote := ComputeDiscount([]CartItem{cartItem("snacks", 100, 1)}, coupon, time.Now())

	assert.False(t, quote.Applicable)
	assert.Equal(t, RejectExpired, quote.Reason)
}

func TestComputeDiscountInactive(t *testing.T) {
	coupon := activeCoupon(enums.CouponTypeFixed, 10)
	coupon.IsActive = false

	quote := ComputeDiscount([]CartItem{cartItem("snacks", 100, 1)}, coupon, time.Now())

	assert.False(t, quote.Applicable)
	assert.Equal(t, RejectExpired, quote.Reason)
}

func TestComputeDiscountNilCouponNotFound(t *testing.T) {
	quote := ComputeDiscount([]CartItem{cartItem("snacks", 100, 1)}, nil, time.Now())

	assert.False(t, quote.Applicable)
	assert.Equal(t, RejectNotFound, quote.Reason)
}

func TestComputeDiscountCategoryScopeSubtractsFromWholeCart(t *testing.T) {
	snacks := cartItem("snacks", 200, 1)
	drinks := cartItem("drinks", 300, 1)

	coupon := activeCoupon(enums.CouponTypePercentage, 10)
	coupon.ApplicableScope = enums.CouponScopeCategory
	coupon.ApplicableIDs = pq.StringArray{"snacks"}

	quote := ComputeDiscount([]CartItem{snacks, drinks}, coupon, time.Now())

	require.True(t, quote.Applicable)
	// 10% of the snacks subtotal, taken off the 500 grand total.
	assert.True(t, quote.DiscountAmount.Equal(decimal.NewFromInt(20)), "got %s", quote.DiscountAmount)
	assert.True(t, quote.FinalTotal.Equal(decimal.NewFromInt(480)), "got %s", quote.FinalTotal)
}

func TestComputeDiscountProductScopeNotApplicable(t *testing.T) {
	item := cartItem("snacks", 100, 1)

	coupon := activeCoupon(enums.CouponTypeFixed, 10)
	coupon.ApplicableScope = enums.CouponScopeProduct
	coupon.ApplicableIDs = pq.StringArray{uuid.NewString()}

	quote := ComputeDiscount([]CartItem{item}, coupon, time.Now())

	assert.False(t, quote.Applicable)
	assert.Equal(t, RejectNotApplicable, quote.Reason)
}

func TestComputeDiscountProductScopeMatches(t *testing.T) {
	item := cartItem("snacks", 100, 2)

	coupon := activeCoupon(enums.CouponTypeFixed, 25)
	coupon.ApplicableScope = enums.CouponScopeProduct
	coupon.ApplicableIDs = pq.StringArray{item.ProductID.String()}

	quote := ComputeDiscount([]CartItem{item}, coupon, time.Now())

	require.True(t, quote.Applicable)
	assert.True(t, quote.DiscountAmount.Equal(decimal.NewFromInt(25)))
	assert.True(t, quote.FinalTotal.Equal(decimal.NewFromInt(175)))
}

func TestComputeDiscountIsPure(t *testing.T) {
	items := []CartItem{cartItem("snacks", 500, 1)}
	coupon := activeCoupon(enums.CouponTypeFixed, 10)
	now := time.Now()

	first := ComputeDiscount(items, coupon, now)
	second := ComputeDiscount(items, coupon, now)

	assert.Equal(t, first, second)
	assert.Equal(t, 0, coupon.TimesUsed, "calculator must not mutate the coupon")
}
