package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pradeepsarraf/sajilomart-backend/api/controllers"
	"github.com/pradeepsarraf/sajilomart-backend/api/middleware"
	"github.com/pradeepsarraf/sajilomart-backend/internal/catalog"
	checkoutsvc "github.com/pradeepsarraf/sajilomart-backend/internal/checkout"
	"github.com/pradeepsarraf/sajilomart-backend/internal/coupons"
	"github.com/pradeepsarraf/sajilomart-backend/internal/genai"
	"github.com/pradeepsarraf/sajilomart-backend/internal/identity"
	"github.com/pradeepsarraf/sajilomart-backend/internal/notifications"
	"github.com/pradeepsarraf/sajilomart-backend/internal/orders"
	"github.com/pradeepsarraf/sajilomart-backend/internal/siteconfig"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/config"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/db"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/realtime"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. cmd/api builds one of these
// after wiring the services.
type Deps struct {
	Cfg    *config.Config
	Logg   *logger.Logger
	DB     db.Pinger
	Redis  *redis.Client
	Bus    *realtime.Bus
	GenAI  *genai.Client
	Mailer *notifications.Composer

	Identity   identity.Service
	Catalog    catalog.Service
	Coupons    coupons.Service
	Checkout   checkoutsvc.Service
	Orders     orders.Service
	SiteConfig siteconfig.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Cfg
	logg := deps.Logg

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	// A nil *redis.Client must not reach the middleware as a non-nil
	// interface, so the guarded variants are built here.
	idempotency := middleware.Idempotency(nil, logg)
	loginLimit := middleware.AuthRateLimit(loginPolicy, nil, logg)
	registerLimit := middleware.AuthRateLimit(registerPolicy, nil, logg)
	var redisPing redis.Pinger
	if deps.Redis != nil {
		idempotency = middleware.Idempotency(deps.Redis, logg)
		loginLimit = middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)
		registerLimit = middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)
		redisPing = deps.Redis
	}
	adminEmail := controllers.AdminSendEmail(nil, logg)
	if deps.Mailer != nil {
		adminEmail = controllers.AdminSendEmail(deps.Mailer, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPing))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(registerLimit, idempotency).Post("/register", controllers.AuthRegister(deps.Identity, logg))
		r.With(loginLimit).Post("/login", controllers.AuthLogin(deps.Identity, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Identity, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Identity, logg))
			r.Post("/password", controllers.AuthChangePassword(deps.Identity, logg))
			r.Get("/me", controllers.AuthMe(deps.Identity, logg))
		})
	})

	// Storefront surfaces that need no session.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))
		r.Get("/{productId}", controllers.GetProduct(deps.Catalog, logg))
	})
	r.Get("/api/v1/site", controllers.SiteOverview(deps.SiteConfig, logg))
	r.Get("/api/v1/site/sale", controllers.GetSale(deps.SiteConfig, logg))
	r.Post("/api/v1/coupons/preview", controllers.CouponPreview(deps.Checkout, logg))
	r.Get("/api/v1/learning/{topic}", controllers.LearningArticle(deps.GenAI, logg))
	r.Get("/api/v1/track/{orderId}", controllers.TrackOrder(deps.Orders, logg))

	// Customer surfaces.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(idempotency)

		r.Post("/api/v1/checkout", controllers.Checkout(deps.Checkout, logg))
		r.Post("/api/v1/spinner/claim", controllers.SpinnerClaim(deps.GenAI, deps.Coupons, logg))

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.MyOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.GetMyOrder(deps.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
			r.Get("/{orderId}/tracking", controllers.OrderTracking(deps.Orders, logg))
			r.Get("/{orderId}/stream", controllers.StreamOrder(deps.Orders, deps.Bus, logg))
		})
	})

	// Back office.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.AdminOnly(deps.SiteConfig, logg))
		r.Use(idempotency)

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
			r.Put("/{productId}", controllers.AdminUpdateProduct(deps.Catalog, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Catalog, logg))
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", controllers.AdminListCoupons(deps.Coupons, logg))
			r.Post("/", controllers.AdminCreateCoupon(deps.Coupons, logg))
			r.Get("/{code}", controllers.AdminGetCoupon(deps.Coupons, logg))
			r.Put("/{code}", controllers.AdminUpdateCoupon(deps.Coupons, logg))
			r.Delete("/{code}", controllers.AdminDeleteCoupon(deps.Coupons, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.AdminGetOrder(deps.Orders, logg))
			r.Post("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminListUsers(deps.Identity, logg))
			r.Post("/{userId}/status", controllers.AdminSetUserStatus(deps.Identity, logg))
		})

		r.Post("/email", adminEmail)

		r.Route("/site", func(r chi.Router) {
			r.Put("/hero", controllers.AdminSetHero(deps.SiteConfig, logg))
			r.Post("/sale", controllers.AdminStartSale(deps.SiteConfig, logg))
			r.Delete("/sale", controllers.AdminEndSale(deps.SiteConfig, logg))

			r.Route("/banners", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateBanner(deps.SiteConfig, logg))
				r.Put("/{bannerId}", controllers.AdminUpdateBanner(deps.SiteConfig, logg))
				r.Delete("/{bannerId}", controllers.AdminDeleteBanner(deps.SiteConfig, logg))
			})

			r.Route("/showcase", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateShowcase(deps.SiteConfig, logg))
				r.Put("/{showcaseId}", controllers.AdminUpdateShowcase(deps.SiteConfig, logg))
				r.Delete("/{showcaseId}", controllers.AdminDeleteShowcase(deps.SiteConfig, logg))
			})

			r.Route("/admins", func(r chi.Router) {
				r.Get("/", controllers.AdminListAdmins(deps.SiteConfig, logg))
				r.Post("/", controllers.AdminAddAdmin(deps.SiteConfig, logg))
				r.Delete("/", controllers.AdminRemoveAdmin(deps.SiteConfig, logg))
			})
		})
	})

	return r
}
