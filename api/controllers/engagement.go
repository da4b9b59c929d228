package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pradeepsarraf/sajilomart-backend/api/responses"
	"github.com/pradeepsarraf/sajilomart-backend/internal/coupons"
	"github.com/pradeepsarraf/sajilomart-backend/internal/genai"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// spinnerCouponTTL is how long a wheel prize stays redeemable.
const spinnerCouponTTL = 7 * 24 * time.Hour

type wheelGenerator interface {
	Configured() bool
	DiscountSpinner(ctx context.Context) (*genai.SpinnerWheel, error)
	LearningArticle(ctx context.Context, topic string) (*genai.Article, error)
}

type couponCreator interface {
	CreateCoupon(ctx context.Context, input coupons.UpsertCouponInput) (*models.Coupon, error)
}

// SpinnerClaim generates a discount wheel, persists the winning prize as a
// single-use coupon, and returns both so the storefront can animate the spin.
// The wheel never leaves the server before the coupon exists, so clients
// cannot mint prizes of their own choosing.
func SpinnerClaim(generator wheelGenerator, couponSvc couponCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if generator == nil || couponSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "spinner unavailable"))
			return
		}
		if !generator.Configured() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "spinner is not available right now"))
			return
		}

		wheel, err := generator.DiscountSpinner(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate discount wheel"))
			return
		}

		prize := wheel.Prizes[wheel.WinnerIndex]
		coupon, err := couponSvc.CreateCoupon(r.Context(), coupons.UpsertCouponInput{
			Code:            wheel.CouponCode,
			Type:            prize.Type,
			Value:           prize.Value,
			UsageLimit:      1,
			ExpiryDate:      time.Now().Add(spinnerCouponTTL),
			ApplicableScope: enums.CouponScopeAll,
			IsActive:        true,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"wheel":  wheel,
			"coupon": coupon,
		})
	}
}

// LearningArticle serves a generated learning-zone piece for the requested
// topic.
func LearningArticle(generator wheelGenerator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if generator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "learning zone unavailable"))
			return
		}

		topic := strings.TrimSpace(chi.URLParam(r, "topic"))
		if topic == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "topic is required"))
			return
		}

		if !generator.Configured() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "learning zone is not available right now"))
			return
		}

		article, err := generator.LearningArticle(r.Context(), topic)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate article"))
			return
		}

		responses.WriteSuccess(w, article)
	}
}
