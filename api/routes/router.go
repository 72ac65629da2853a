package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/partfinderz-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/partfinderz-backend/api/controllers/orders"
	"github.com/angelmondragon/partfinderz-backend/api/middleware"
	"github.com/angelmondragon/partfinderz-backend/internal/address"
	"github.com/angelmondragon/partfinderz-backend/internal/cart"
	"github.com/angelmondragon/partfinderz-backend/internal/catalog"
	"github.com/angelmondragon/partfinderz-backend/internal/orders"
	"github.com/angelmondragon/partfinderz-backend/internal/vehicles"
	"github.com/angelmondragon/partfinderz-backend/pkg/config"
	"github.com/angelmondragon/partfinderz-backend/pkg/db"
	"github.com/angelmondragon/partfinderz-backend/pkg/logger"
	"github.com/angelmondragon/partfinderz-backend/pkg/metrics"
	"github.com/angelmondragon/partfinderz-backend/pkg/redis"
)

// redisBackend is the slice of the redis client the HTTP layer relies on.
type redisBackend interface {
	redis.Pinger
	redis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisBackend,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	catalogService catalog.Service,
	cartService cart.Service,
	ordersService orders.Service,
	vehicleService vehicles.Service,
	addressService address.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisClient,
		}, logg))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// browsing works without an account
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Post("/catalog/search", controllers.CatalogSearch(catalogService, logg))
			r.Get("/catalog/products/{productId}", controllers.CatalogProduct(catalogService, logg))
			r.Get("/address/{postalCode}", controllers.AddressLookup(addressService, logg))

			r.Route("/vehicle-catalog", func(r chi.Router) {
				r.Get("/brands", controllers.VehicleBrands(vehicleService, logg))
				r.Get("/brands/{brandCode}/models", controllers.VehicleModels(vehicleService, logg))
				r.Get("/brands/{brandCode}/models/{modelCode}/years", controllers.VehicleYears(vehicleService, logg))
				r.With(middleware.RateLimit(redisClient, "plates", cfg.Plates.UserLimit, cfg.Plates.UserWindow, logg)).
					Get("/plates/{plate}", controllers.VehiclePlateDecode(vehicleService, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Patch("/items/{productId}", controllers.CartSetQuantity(cartService, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(cartService, logg))
			})
			r.Post("/checkout", controllers.Checkout(cartService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(ordersService, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
			})

			r.Route("/vehicles", func(r chi.Router) {
				r.Get("/", controllers.VehiclesList(vehicleService, logg))
				r.Post("/", controllers.VehiclesRegister(vehicleService, logg))
				r.Get("/primary", controllers.VehiclesPrimary(vehicleService, logg))
				r.Post("/{vehicleId}/primary", controllers.VehiclesSetPrimary(vehicleService, logg))
			})
		})
	})

	return r
}
