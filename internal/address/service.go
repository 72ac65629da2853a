package address

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/angelmondragon/partfinderz-backend/pkg/logger"
	"github.com/angelmondragon/partfinderz-backend/pkg/types"
)

const upstreamName = "viacep"

type postalCodeClient interface {
	Lookup(ctx context.Context, postalCode string) (*types.DeliveryAddress, error)
}

type lookupCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

type upstreamObserver interface {
	ObserveCall(upstream string, elapsed time.Duration, err error)
	IncCacheHit(upstream string)
}

// Service resolves Brazilian postal codes into delivery addresses.
type Service interface {
	Lookup(ctx context.Context, postalCode string) (*types.DeliveryAddress, error)
}

// ServiceDeps groups the collaborators of the address service. Cache and
// Metrics are optional.
type ServiceDeps struct {
	Client   postalCodeClient
	Cache    lookupCache
	CacheTTL time.Duration
	Metrics  upstreamObserver
	Logger   *logger.Logger
}

type service struct {
	client   postalCodeClient
	cache    lookupCache
	cacheTTL time.Duration
	metrics  upstreamObserver
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(deps ServiceDeps) (Service, error) {
	if deps.Client == nil {
		return nil, fmt.Errorf("postal code client required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		client:   deps.Client,
		cache:    deps.Cache,
		cacheTTL: deps.CacheTTL,
		metrics:  deps.Metrics,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Lookup(ctx context.Context, postalCode string) (*types.DeliveryAddress, error) {
	cep := types.NormalizePostalCode(postalCode)
	if len(cep) != 8 {
		return nil, errors.New(errors.CodeValidation, "postal code must have 8 digits").
			WithDetails(map[string]any{"postal_code": postalCode})
	}

	var key string
	if s.cache != nil {
		key = s.cache.CacheKey("cep", cep)
		var cached types.DeliveryAddress
		found, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "address.cache_read_failed")
		}
		if found {
			if s.metrics != nil {
				s.metrics.IncCacheHit(upstreamName)
			}
			return &cached, nil
		}
	}

	started := s.now()
	addr, err := s.client.Lookup(ctx, cep)
	if s.metrics != nil {
		s.metrics.ObserveCall(upstreamName, s.now().Sub(started), dependencyFailure(err))
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, addr, s.cacheTTL); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "address.cache_write_failed")
		}
	}
	return addr, nil
}

// dependencyFailure drops errors that describe the input rather than the upstream.
func dependencyFailure(err error) error {
	if err == nil {
		return nil
	}
	if errors.IsCode(err, errors.CodeNotFound) || errors.IsCode(err, errors.CodeValidation) {
		return nil
	}
	return err
}
