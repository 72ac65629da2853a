package main

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partfinderz-backend/internal/address"
	"github.com/angelmondragon/partfinderz-backend/internal/cart"
	"github.com/angelmondragon/partfinderz-backend/internal/catalog"
	"github.com/angelmondragon/partfinderz-backend/internal/orders"
	"github.com/angelmondragon/partfinderz-backend/internal/vehicles"
	"github.com/angelmondragon/partfinderz-backend/pkg/config"
	"github.com/angelmondragon/partfinderz-backend/pkg/db"
	"github.com/angelmondragon/partfinderz-backend/pkg/fipe"
	"github.com/angelmondragon/partfinderz-backend/pkg/logger"
	"github.com/angelmondragon/partfinderz-backend/pkg/metrics"
	"github.com/angelmondragon/partfinderz-backend/pkg/plates"
	"github.com/angelmondragon/partfinderz-backend/pkg/postalcode"
	"github.com/angelmondragon/partfinderz-backend/pkg/redis"
)

type services struct {
	catalog  catalog.Service
	cart     cart.Service
	orders   orders.Service
	vehicles vehicles.Service
	address  address.Service
}

type telemetry struct {
	upstream *metrics.UpstreamMetrics
	checkout *metrics.CheckoutMetrics
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, tel telemetry) (*services, error) {
	fipeClient := fipe.NewClient(
		fipe.WithBaseURL(cfg.FIPE.BaseURL),
		fipe.WithVehicleType(cfg.FIPE.VehicleType),
		fipe.WithHTTPClient(&http.Client{Timeout: cfg.FIPE.Timeout}),
		fipe.WithRateLimit(cfg.FIPE.RatePerSec),
	)
	postalClient := postalcode.NewClient(
		postalcode.WithBaseURL(cfg.PostalCode.BaseURL),
		postalcode.WithHTTPClient(&http.Client{Timeout: cfg.PostalCode.Timeout}),
	)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	vehiclesRepo := vehicles.NewRepository(dbClient.DB())

	addressService, err := address.NewService(address.ServiceDeps{
		Client:   postalClient,
		Cache:    redisClient,
		CacheTTL: cfg.PostalCode.CacheTTL,
		Metrics:  tel.upstream,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("address service: %w", err)
	}

	vehicleDeps := vehicles.ServiceDeps{
		Repo:     vehiclesRepo,
		Tx:       dbClient,
		Catalog:  fipeClient,
		Cache:    redisClient,
		CacheTTL: cfg.FIPE.CacheTTL,
		Metrics:  tel.upstream,
		Logger:   logg,
	}
	if cfg.Plates.Enabled() {
		platesClient, err := plates.NewClient(cfg.Plates.BaseURL, cfg.Plates.Token,
			plates.WithHTTPClient(&http.Client{Timeout: cfg.Plates.Timeout}),
			plates.WithRateLimit(cfg.Plates.RatePerSec),
		)
		if err != nil {
			return nil, fmt.Errorf("plates client: %w", err)
		}
		vehicleDeps.Plates = platesClient
	}
	vehicleService, err := vehicles.NewService(vehicleDeps)
	if err != nil {
		return nil, fmt.Errorf("vehicle service: %w", err)
	}

	ceiling, err := decimal.NewFromString(cfg.Catalog.DefaultPriceCeiling)
	if err != nil {
		return nil, fmt.Errorf("parsing default price ceiling: %w", err)
	}
	catalogService, err := catalog.NewService(catalogRepo, vehiclesRepo, ceiling, cfg.Catalog.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}

	store, err := cart.NewRedisStore(redisClient, cfg.Cart.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("cart store: %w", err)
	}
	locker, err := cart.NewRedisLocker(redisClient, cfg.Cart.LockTTL, cfg.Cart.LockWait)
	if err != nil {
		return nil, fmt.Errorf("cart lock: %w", err)
	}
	cartService, err := cart.NewService(cart.ServiceDeps{
		Store:     store,
		Products:  catalogRepo,
		Addresses: addressService,
		Orders:    ordersRepo,
		Metrics:   tel.checkout,
		Logger:    logg,
		Locker:    locker,
	})
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	return &services{
		catalog:  catalogService,
		cart:     cartService,
		orders:   ordersService,
		vehicles: vehicleService,
		address:  addressService,
	}, nil
}
