package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/storefront"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/redis"
)

// Deps carries everything the router hands to controllers and middleware.
type Deps struct {
	DB          db.Pinger
	Redis       redis.Pinger
	RateLimiter redis.RateLimiter
	Sessions    *session.Store
	Storefront  *storefront.Sessions
	Catalog     *catalog.Service
	Journal     *orders.Journal
	Resources   controllers.ResourceResolver
	Metrics     http.Handler
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.CheckoutRateLimit.Window,
		cfg.CheckoutRateLimit.IPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readinessDeps(deps), logg))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	var checker session.Checker
	if deps.Sessions != nil {
		checker = deps.Sessions
	}
	requireAuth := middleware.Auth(cfg.Auth, checker, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Post("/", controllers.SessionCreate(deps.Sessions, logg))
			r.With(requireAuth).Delete("/", controllers.SessionRevoke(deps.Sessions, logg))
		})

		r.Route("/businesses/{businessId}", func(r chi.Router) {
			r.Get("/menu", controllers.Menu(deps.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.CartSession(logg))

				r.Get("/cart", controllers.CartGet(deps.Storefront, logg))
				r.Delete("/cart", controllers.CartClear(deps.Storefront, logg))
				r.Get("/cart/events", controllers.CartEvents(deps.Storefront, logg))
				r.Post("/cart/items", controllers.CartAddItem(deps.Storefront, deps.Catalog, logg))
				r.Put("/cart/items/{itemId}", controllers.CartUpdateItem(deps.Storefront, logg))
				r.Delete("/cart/items/{itemId}", controllers.CartRemoveItem(deps.Storefront, logg))

				r.With(middleware.RateLimit(checkoutPolicy, deps.RateLimiter, logg)).
					Post("/checkout", controllers.Checkout(deps.Storefront, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))

		r.Get("/checkout-journal", controllers.AdminCheckoutJournal(deps.Journal, logg))

		r.Get("/{resource}", controllers.AdminResourceList(deps.Resources, logg))
		r.Post("/{resource}", controllers.AdminResourceCreate(deps.Resources, logg))
		r.Get("/{resource}/{id}", controllers.AdminResourceGet(deps.Resources, logg))
		r.Put("/{resource}/{id}", controllers.AdminResourceUpdate(deps.Resources, logg))
		r.Delete("/{resource}/{id}", controllers.AdminResourceDelete(deps.Resources, logg))
	})

	return r
}

func readinessDeps(deps Deps) map[string]controllers.Pinger {
	out := map[string]controllers.Pinger{}
	if deps.DB != nil {
		out["db"] = deps.DB
	}
	if deps.Redis != nil {
		out["redis"] = deps.Redis
	}
	return out
}
