package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/go-chi/chi/v5"
	"github.com/pradeepsarraf/sajilomart-backend/internal/coupons"
	"github.com/pradeepsarraf/sajilomart-backend/internal/genai"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
)

type stubWheelGenerator struct {
	configured bool
	wheel      *genai.SpinnerWheel
	article    *genai.Article
	err        error
}

func (s stubWheelGenerator) Configured() bool { return s.configured }

func (s stubWheelGenerator) DiscountSpinner(ctx context.Context) (*genai.SpinnerWheel, error) {
	return s.wheel, s.err
}

func (s stubWheelGenerator) LearningArticle(ctx context.Context, topic string) (*genai.Article, error) {
	return s.article, s.err
}

type stubCouponCreator struct {
	created *coupons.UpsertCouponInput
	err     error
}

func (s *stubCouponCreator) CreateCoupon(ctx context.Context, input coupons.UpsertCouponInput) (*models.Coupon, error) {
	s.created = &input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Coupon{Code: input.Code}, nil
}

func testWheel() *genai.SpinnerWheel {
	prizes := make([]genai.SpinnerPrize, genai.SpinnerPrizeCount)
	for i := range prizes {
		prizes[i] = genai.SpinnerPrize{
			Label: "10% Off",
			Type:  enums.CouponTypePercentage,
			Value: decimal.NewFromInt(10),
		}
	}
	prizes[3] = genai.SpinnerPrize{
		Label: "Rs 100 Off",
		Type:  enums.CouponTypeFixed,
		Value: decimal.NewFromInt(100),
	}
	return &genai.SpinnerWheel{Prizes: prizes, WinnerIndex: 3, CouponCode: "SPIN100NP"}
}

func TestSpinnerClaimCreatesSingleUseCoupon(t *testing.T) {
	creator := &stubCouponCreator{}
	handler := SpinnerClaim(stubWheelGenerator{configured: true, wheel: testWheel()}, creator, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/spinner/claim", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if creator.created == nil {
		t.Fatal("expected a coupon to be created")
	}
	if creator.created.Code != "SPIN100NP" {
		t.Fatalf("unexpected coupon code: %s", creator.created.Code)
	}
	if creator.created.UsageLimit != 1 {
		t.Fatalf("prize coupon must be single use, got limit %d", creator.created.UsageLimit)
	}
	if creator.created.ApplicableScope != enums.CouponScopeAll {
		t.Fatalf("prize coupon must apply to the whole cart, got %s", creator.created.ApplicableScope)
	}
	if !creator.created.Value.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("coupon value should match the winning prize, got %s", creator.created.Value)
	}
}

func TestSpinnerClaimWhenGeneratorUnconfigured(t *testing.T) {
	handler := SpinnerClaim(stubWheelGenerator{configured: false}, &stubCouponCreator{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/spinner/claim", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestSpinnerClaimGenerationFailure(t *testing.T) {
	handler := SpinnerClaim(stubWheelGenerator{configured: true, err: errors.New("upstream down")}, &stubCouponCreator{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/spinner/claim", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestLearningArticleReturnsContent(t *testing.T) {
	article := &genai.Article{
		Title: "Cooking with Gundruk",
		Body:  "Gundruk is fermented leafy greens.",
		Tips:  []string{"Rinse before use"},
	}
	handler := LearningArticle(stubWheelGenerator{configured: true, article: article}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/learning/gundruk", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("topic", "gundruk")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data genai.Article `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Title != article.Title {
		t.Fatalf("unexpected title: %q", envelope.Data.Title)
	}
}

func TestLearningArticleRequiresTopic(t *testing.T) {
	handler := LearningArticle(stubWheelGenerator{configured: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/learning/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chi.NewRouteContext()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
