package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calebmoura/lumiere-gateway/api/controllers"
	"github.com/calebmoura/lumiere-gateway/api/middleware"
	"github.com/calebmoura/lumiere-gateway/internal/auth"
	"github.com/calebmoura/lumiere-gateway/internal/cart"
	"github.com/calebmoura/lumiere-gateway/internal/catalog"
	checkoutsvc "github.com/calebmoura/lumiere-gateway/internal/checkout"
	ordersvc "github.com/calebmoura/lumiere-gateway/internal/orders"
	"github.com/calebmoura/lumiere-gateway/pkg/config"
	"github.com/calebmoura/lumiere-gateway/pkg/logger"
	"github.com/calebmoura/lumiere-gateway/pkg/metrics"
	pkgredis "github.com/calebmoura/lumiere-gateway/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          pinger
	Redis       pinger
	Upstream    pinger
	Idempotency pkgredis.IdempotencyStore
	AuthService auth.Service
	Carts       *cart.Manager
	Catalog     catalog.Service
	Checkout    checkoutsvc.Service
	Orders      ordersvc.Service
	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(params.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis, params.Upstream))
	})

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", controllers.SessionCreate(params.AuthService, cfg.Session, logg))

		r.Get("/products", controllers.ProductsList(params.Catalog, logg))
		r.Get("/products/{id}", controllers.ProductsGet(params.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(params.AuthService, cfg.Session, logg))

			r.Post("/auth/login", controllers.AuthLogin(params.AuthService, logg))
			r.Post("/auth/logout", controllers.AuthLogout(params.AuthService, params.Carts, logg))
			r.Get("/auth/profile", controllers.AuthProfile(params.AuthService, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(params.Carts, logg))
				r.Delete("/", controllers.CartClear(params.Carts, logg))
				r.Post("/items", controllers.CartAddItem(params.Carts, logg))
				r.Put("/items/{id}", controllers.CartUpdateItem(params.Carts, logg))
				r.Delete("/items/{id}", controllers.CartRemoveItem(params.Carts, logg))
			})

			r.With(
				middleware.RequireAuth(logg),
				middleware.Idempotency(params.Idempotency, cfg.Checkout.IdempotencyTTL, logg),
			).Post("/checkout", controllers.Checkout(params.Checkout, params.Carts, logg))

			r.With(middleware.RequireAuth(logg)).Group(func(r chi.Router) {
				r.Get("/orders", controllers.OrdersListMine(params.Orders, logg))
				r.Get("/orders/{id}", controllers.OrdersGet(params.Orders, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))

				r.Get("/orders", controllers.AdminOrdersList(params.Orders, logg))
				r.Put("/orders/{id}/status", controllers.AdminOrderUpdateStatus(params.Orders, logg))

				r.Post("/products", controllers.AdminProductCreate(params.Catalog, params.AuthService, logg))
				r.Put("/products/{id}", controllers.AdminProductUpdate(params.Catalog, params.AuthService, logg))
				r.Delete("/products/{id}", controllers.AdminProductDelete(params.Catalog, params.AuthService, logg))
			})
		})
	})

	return r
}
