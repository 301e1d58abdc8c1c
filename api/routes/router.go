package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	admincontrollers "github.com/angelmondragon/storefront-backend/api/controllers/admin"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	adminsvc "github.com/angelmondragon/storefront-backend/internal/admin"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/miniapp"
	"github.com/angelmondragon/storefront-backend/internal/toast"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

const tracingOperation = "storefront-api"

// Services bundles what the handlers call into.
type Services struct {
	Catalog   catalog.Service
	Cart      controllers.CartService
	Checkout  controllers.CheckoutService
	Toasts    *toast.Board
	Localizer *controllers.Localizer
	MiniApp   *miniapp.Service
	Admin     admincontrollers.Service
	AdminAuth *adminsvc.Authenticator
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	sessionManager session.AccessSessionChecker,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"admin-login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
	)

	readiness := map[string]controllers.Pinger{}
	var (
		idempotencyStore pkgredis.ReplayStore
		limiter          middleware.RateLimiter
	)
	if dbP != nil {
		readiness["database"] = dbP
	}
	if redisClient != nil {
		readiness["redis"] = redisClient
		idempotencyStore = redisClient
		limiter = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if svc.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", svc.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))

		r.Get("/products", controllers.CatalogListProducts(svc.Catalog, logg))
		r.Get("/products/{productId}", controllers.CatalogGetProduct(svc.Catalog, logg))
		r.Get("/categories", controllers.CatalogListCategories(svc.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svc.Cart, logg))
			r.Delete("/", controllers.CartClear(svc.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svc.Cart, svc.Toasts, svc.Localizer, logg))
			r.Put("/items/{productId}", controllers.CartUpdateItem(svc.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(svc.Cart, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutCurrent(svc.Checkout, svc.Localizer, logg))
			r.Post("/begin", controllers.CheckoutBegin(svc.Checkout, svc.Localizer, logg))
			r.Post("/back", controllers.CheckoutBack(svc.Checkout, svc.Localizer, logg))
			r.Post("/retry", controllers.CheckoutRetry(svc.Checkout, svc.Localizer, logg))
			r.With(middleware.Idempotency(idempotencyStore, middleware.CheckoutSubmitPolicy, logg)).
				Post("/submit", controllers.CheckoutSubmit(svc.Checkout, svc.Localizer, logg))
		})

		r.Get("/toasts", controllers.ToastList(svc.Toasts, logg))
		r.Delete("/toasts/{toastId}", controllers.ToastDismiss(svc.Toasts, logg))

		r.Route("/i18n", func(r chi.Router) {
			r.Get("/messages", controllers.I18nMessages(svc.Localizer, logg))
			r.Get("/translate", controllers.I18nTranslate(svc.Localizer, logg))
			r.Put("/locale", controllers.I18nSetLocale(svc.Localizer, logg))
		})

		r.Get("/miniapp/config", controllers.MiniAppConfig(svc.MiniApp, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).
			Post("/auth/login", admincontrollers.Login(svc.AdminAuth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(svc.AdminAuth, sessionManager, logg))
			r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))

			r.Post("/auth/logout", admincontrollers.Logout(svc.AdminAuth, logg))

			r.Get("/products", admincontrollers.ListProducts(svc.Admin, logg))
			r.Post("/products", admincontrollers.CreateProduct(svc.Admin, logg))
			r.Patch("/products/{productId}", admincontrollers.UpdateProduct(svc.Admin, logg))
			r.Delete("/products/{productId}", admincontrollers.DeleteProduct(svc.Admin, logg))

			r.Get("/categories", admincontrollers.ListCategories(svc.Admin, logg))
			r.Post("/categories", admincontrollers.CreateCategory(svc.Admin, logg))
			r.Patch("/categories/{categoryId}", admincontrollers.UpdateCategory(svc.Admin, logg))
			r.Delete("/categories/{categoryId}", admincontrollers.DeleteCategory(svc.Admin, logg))

			r.Get("/orders", admincontrollers.ListOrders(svc.Admin, logg))
			r.Get("/orders/{orderId}", admincontrollers.GetOrder(svc.Admin, logg))
			r.Delete("/orders/{orderId}", admincontrollers.DeleteOrder(svc.Admin, logg))
			r.With(middleware.Idempotency(idempotencyStore, middleware.OrderCompletePolicy, logg)).
				Post("/orders/{orderId}/complete", admincontrollers.CompleteOrder(svc.Admin, logg))
		})
	})

	if !cfg.FeatureFlags.Tracing {
		return r
	}
	return otelhttp.NewHandler(r, tracingOperation)
}
