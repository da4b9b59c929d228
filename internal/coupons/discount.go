package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
)

// RejectReason explains why a coupon did not apply.
type RejectReason string

const (
	RejectNotFound      RejectReason = "not_found"
	RejectExpired       RejectReason = "expired"
	RejectLimitReached  RejectReason = "limit_reached"
	RejectNotApplicable RejectReason = "not_applicable"
)

// CartItem is the slice of a cart line the calculator needs.
type CartItem struct {
	ProductID uuid.UUID
	Category  string
	Price     decimal.Decimal
	Quantity  int
}

// Quote is the outcome of running the calculator against a cart.
type Quote struct {
	Applicable     bool
	Reason         RejectReason
	DiscountAmount decimal.Decimal
	CartTotal      decimal.Decimal
	FinalTotal     decimal.Decimal
}

// CartTotal sums price * quantity over all items.
func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ComputeDiscount evaluates a coupon against the cart. Pure: no side effects,
// safe to call repeatedly. A nil coupon yields a not_found rejection.
//
// The discount is computed over the applicable subset but subtracted from the
// whole-cart total. A category-scoped coupon therefore discounts only that
// category's subtotal, yet the amount still comes off the grand total. This
// asymmetry is the storefront's established behavior and is kept as is.
func ComputeDiscount(items []CartItem, coupon *models.Coupon, now time.Time) Quote {
	cartTotal := CartTotal(items)
	quote := Quote{
		CartTotal:      cartTotal,
		FinalTotal:     cartTotal,
		DiscountAmount: decimal.Zero,
	}

	if coupon == nil {
		quote.Reason = RejectNotFound
		return quote
	}
	if !coupon.IsActive || !now.Before(coupon.ExpiryDate) {
		quote.Reason = RejectExpired
		return quote
	}
	if coupon.TimesUsed >= coupon.UsageLimit {
		quote.Reason = RejectLimitReached
		return quote
	}

	applicableTotal := decimal.Zero
	matched := false
	for _, item := range items {
		if !itemMatches(item, coupon) {
			continue
		}
		matched = true
		applicableTotal = applicableTotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !matched {
		quote.Reason = RejectNotApplicable
		return quote
	}

	var discount decimal.Decimal
	switch coupon.Type {
	case enums.CouponTypePercentage:
		discount = applicableTotal.Mul(coupon.Value).Div(decimal.NewFromInt(100))
	case enums.CouponTypeFixed:
		discount = decimal.Min(applicableTotal, coupon.Value)
	default:
		quote.Reason = RejectNotApplicable
		return quote
	}

	final := cartTotal.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	quote.Applicable = true
	quote.DiscountAmount = discount
	quote.FinalTotal = final
	return quote
}

func itemMatches(item CartItem, coupon *models.Coupon) bool {
	switch coupon.ApplicableScope {
	case enums.CouponScopeAll:
		return true
	case enums.CouponScopeCategory:
		return containsString(coupon.ApplicableIDs, item.Category)
	case enums.CouponScopeProduct:
		return containsString(coupon.ApplicableIDs, item.ProductID.String())
	default:
		return false
	}
}

func containsString(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
