package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pradeepsarraf/sajilomart-backend/api/responses"
	"github.com/pradeepsarraf/sajilomart-backend/api/validators"
	"github.com/pradeepsarraf/sajilomart-backend/internal/coupons"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type upsertCouponRequest struct {
	Code            string   `json:"code" validate:"required,min=3"`
	Type            string   `json:"type" validate:"required"`
	Value           string   `json:"value" validate:"required"`
	UsageLimit      int      `json:"usage_limit" validate:"min=0"`
	ExpiryDate      string   `json:"expiry_date" validate:"required"`
	ApplicableScope string   `json:"applicable_scope" validate:"required"`
	ApplicableIDs   []string `json:"applicable_ids,omitempty"`
	IsActive        bool     `json:"is_active"`
}

func (c upsertCouponRequest) toInput() (coupons.UpsertCouponInput, error) {
	couponType, err := enums.ParseCouponType(strings.TrimSpace(c.Type))
	if err != nil {
		return coupons.UpsertCouponInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon type")
	}
	scope, err := enums.ParseCouponScope(strings.TrimSpace(c.ApplicableScope))
	if err != nil {
		return coupons.UpsertCouponInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon scope")
	}
	value, err := decimal.NewFromString(strings.TrimSpace(c.Value))
	if err != nil {
		return coupons.UpsertCouponInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon value")
	}
	expiry, err := time.Parse(time.RFC3339, strings.TrimSpace(c.ExpiryDate))
	if err != nil {
		return coupons.UpsertCouponInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid expiry date")
	}
	return coupons.UpsertCouponInput{
		Code:            c.Code,
		Type:            couponType,
		Value:           value,
		UsageLimit:      c.UsageLimit,
		ExpiryDate:      expiry,
		ApplicableScope: scope,
		ApplicableIDs:   c.ApplicableIDs,
		IsActive:        c.IsActive,
	}, nil
}

func AdminListCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		rows, err := svc.ListCoupons(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"coupons": rows})
	}
}

func AdminGetCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required"))
			return
		}

		coupon, err := svc.GetCoupon(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, coupon)
	}
}

func AdminCreateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var body upsertCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.CreateCoupon(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

func AdminUpdateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required"))
			return
		}

		var body upsertCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.UpdateCoupon(r.Context(), code, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, coupon)
	}
}

func AdminDeleteCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required"))
			return
		}

		if err := svc.DeleteCoupon(r.Context(), code); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
