package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pradeepsarraf/sajilomart-backend/internal/coupons"
	"github.com/pradeepsarraf/sajilomart-backend/internal/orders"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/metrics"
)

type productLoader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type couponApplier interface {
	Apply(ctx context.Context, code string, items []coupons.CartItem) (*coupons.Quote, *models.Coupon, error)
	RecordUse(ctx context.Context, tx *gorm.DB, code string) (bool, error)
}

type orderCreator interface {
	CreateOrder(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error)
}

// Service orchestrates checkout: price snapshot, discount, order placement,
// coupon usage accounting.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*Result, error)
	Preview(ctx context.Context, code string, lines []Line) (*coupons.Quote, error)
}

type service struct {
	catalog productLoader
	coupons couponApplier
	orders  orderCreator
	logg    *logger.Logger
	stats   *metrics.CheckoutMetrics
	now     func() time.Time
}

// NewService builds the checkout orchestrator. Metrics may be nil.
func NewService(catalog productLoader, couponSvc couponApplier, orderSvc orderCreator, logg *logger.Logger, stats *metrics.CheckoutMetrics) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	return &service{
		catalog: catalog,
		coupons: couponSvc,
		orders:  orderSvc,
		logg:    logg,
		stats:   stats,
		now:     time.Now,
	}, nil
}

// Line is one cart entry as submitted by the storefront. Prices are never
// taken from the client; they are snapshotted from the catalog at submit time.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// SubmitInput carries the authenticated customer's checkout request.
type SubmitInput struct {
	UserID         uuid.UUID
	CustomerName   string
	CustomerEmail  string
	Lines          []Line
	ShippingStreet string
	ShippingCity   string
	ShippingZip    string
	CouponCode     string
}

// Result is the outcome of a successful checkout. Warnings carry non-fatal
// follow-up failures the customer should not be blocked on.
type Result struct {
	Order    *models.Order
	Quote    *coupons.Quote
	Warnings []string
}

// Submit snapshots the cart against the live catalog, applies the coupon if
// one was supplied, places the order, and records the coupon use. The coupon
// usage write happens after the order commit; if it fails the order stands
// and the failure is reported as a warning.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*Result, error) {
	started := s.now()

	if input.UserID == uuid.Nil || strings.TrimSpace(input.CustomerEmail) == "" {
		s.stats.IncCheckoutFailed("auth")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "checkout requires a signed-in customer with an email address")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		s.stats.IncCheckoutFailed("validation")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if len(input.Lines) == 0 {
		s.stats.IncCheckoutFailed("validation")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	cartItems, orderItems, err := s.snapshotLines(ctx, input.Lines)
	if err != nil {
		s.stats.IncCheckoutFailed("snapshot")
		return nil, err
	}
	s.stats.ObserveDuration("snapshot", s.now().Sub(started))

	total := coupons.CartTotal(cartItems)
	var quote *coupons.Quote
	if code := strings.TrimSpace(input.CouponCode); code != "" {
		quote, _, err = s.coupons.Apply(ctx, code, cartItems)
		if err != nil {
			s.stats.IncCheckoutFailed("coupon")
			return nil, err
		}
		total = quote.FinalTotal
	}

	order, err := s.orders.CreateOrder(ctx, orders.CreateOrderInput{
		UserID:         input.UserID,
		CustomerName:   input.CustomerName,
		CustomerEmail:  input.CustomerEmail,
		Items:          orderItems,
		Total:          total,
		ShippingStreet: input.ShippingStreet,
		ShippingCity:   input.ShippingCity,
		ShippingZip:    input.ShippingZip,
		CouponCode:     strings.ToUpper(strings.TrimSpace(input.CouponCode)),
	})
	if err != nil {
		s.stats.IncCheckoutFailed("order_create")
		return nil, err
	}

	result := &Result{Order: order, Quote: quote}
	if code := strings.TrimSpace(input.CouponCode); code != "" {
		result.Warnings = append(result.Warnings, s.recordCouponUse(ctx, code, order.ID)...)
	}

	s.stats.IncOrderPlaced()
	s.stats.ObserveDuration("submit", s.now().Sub(started))
	return result, nil
}

// Preview runs the coupon against a snapshotted cart without placing an
// order. The storefront uses it to show the discount before submit.
func (s *service) Preview(ctx context.Context, code string, lines []Line) (*coupons.Quote, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	cartItems, _, err := s.snapshotLines(ctx, lines)
	if err != nil {
		return nil, err
	}
	quote, _, err := s.coupons.Apply(ctx, code, cartItems)
	if err != nil {
		return quote, err
	}
	return quote, nil
}

func (s *service) snapshotLines(ctx context.Context, lines []Line) ([]coupons.CartItem, []orders.OrderItemInput, error) {
	cartItems := make([]coupons.CartItem, 0, len(lines))
	orderItems := make([]orders.OrderItemInput, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil || line.Quantity <= 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart lines must reference a product with positive quantity")
		}
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, nil, err
		}
		cartItems = append(cartItems, coupons.CartItem{
			ProductID: product.ID,
			Category:  product.Category,
			Price:     product.Price,
			Quantity:  line.Quantity,
		})
		orderItems = append(orderItems, orders.OrderItemInput{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     line.Quantity,
			Price:        product.Price,
			ProductImage: product.Image,
		})
	}
	return cartItems, orderItems, nil
}

// recordCouponUse is deliberately outside the order transaction: the order is
// already committed and must not roll back on an accounting failure.
func (s *service) recordCouponUse(ctx context.Context, code string, orderID uuid.UUID) []string {
	recorded, err := s.coupons.RecordUse(ctx, nil, code)
	if err == nil && recorded {
		return nil
	}
	if s.logg != nil {
		logCtx := s.logg.WithCouponCode(s.logg.WithOrderID(ctx, orderID.String()), code)
		if err != nil {
			s.logg.Error(logCtx, "recording coupon use after checkout", err)
		} else {
			s.logg.Warn(logCtx, "coupon use not recorded, guard rejected the increment")
		}
	}
	return []string{fmt.Sprintf("coupon %s usage could not be recorded", strings.ToUpper(strings.TrimSpace(code)))}
}
