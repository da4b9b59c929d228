package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pradeepsarraf/sajilomart-backend/api/middleware"
	"github.com/pradeepsarraf/sajilomart-backend/api/responses"
	"github.com/pradeepsarraf/sajilomart-backend/api/validators"
	"github.com/pradeepsarraf/sajilomart-backend/internal/checkout"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
)

type checkoutLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type checkoutRequest struct {
	CustomerName   string                `json:"customer_name" validate:"required"`
	Lines          []checkoutLineRequest `json:"lines" validate:"required,min=1,dive"`
	ShippingStreet string                `json:"shipping_street" validate:"required"`
	ShippingCity   string                `json:"shipping_city" validate:"required"`
	ShippingZip    string                `json:"shipping_zip" validate:"required"`
	CouponCode     string                `json:"coupon_code,omitempty"`
}

type couponPreviewRequest struct {
	CouponCode string                `json:"coupon_code" validate:"required"`
	Lines      []checkoutLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func toCheckoutLines(rows []checkoutLineRequest) ([]checkout.Line, error) {
	lines := make([]checkout.Line, 0, len(rows))
	for _, row := range rows {
		productID, err := uuid.Parse(row.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		lines = append(lines, checkout.Line{ProductID: productID, Quantity: row.Quantity})
	}
	return lines, nil
}

// Checkout places an order for the signed-in customer. Prices are snapshotted
// from the live catalog; the client never supplies amounts.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := toCheckoutLines(body.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), checkout.SubmitInput{
			UserID:         userID,
			CustomerName:   body.CustomerName,
			CustomerEmail:  middleware.UserEmailFromContext(r.Context()),
			Lines:          lines,
			ShippingStreet: body.ShippingStreet,
			ShippingCity:   body.ShippingCity,
			ShippingZip:    body.ShippingZip,
			CouponCode:     body.CouponCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"order":    result.Order,
			"quote":    result.Quote,
			"warnings": result.Warnings,
		})
	}
}

// CouponPreview prices a cart against a coupon without placing an order, so
// the storefront can show the discount before checkout.
func CouponPreview(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body couponPreviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := toCheckoutLines(body.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Preview(r.Context(), body.CouponCode, lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}
