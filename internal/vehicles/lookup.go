package vehicles

import (
	"context"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/angelmondragon/partfinderz-backend/pkg/fipe"
	"github.com/angelmondragon/partfinderz-backend/pkg/plates"
)

const (
	upstreamFIPE   = "fipe"
	upstreamPlates = "plates"
)

type vehicleCatalog interface {
	Brands(ctx context.Context) ([]fipe.Reference, error)
	Models(ctx context.Context, brandCode string) ([]fipe.Reference, error)
	Years(ctx context.Context, brandCode, modelCode string) ([]fipe.Reference, error)
}

type plateDecoder interface {
	Decode(ctx context.Context, plate string) (*plates.Vehicle, error)
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

func (s *service) Brands(ctx context.Context) ([]fipe.Reference, error) {
	return cachedLookup(ctx, s, upstreamFIPE, []string{"fipe", "brands"}, func() ([]fipe.Reference, error) {
		return s.catalog.Brands(ctx)
	})
}

func (s *service) Models(ctx context.Context, brandCode string) ([]fipe.Reference, error) {
	brandCode = strings.TrimSpace(brandCode)
	if brandCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand code is required")
	}
	return cachedLookup(ctx, s, upstreamFIPE, []string{"fipe", "models", brandCode}, func() ([]fipe.Reference, error) {
		return s.catalog.Models(ctx, brandCode)
	})
}

func (s *service) Years(ctx context.Context, brandCode, modelCode string) ([]fipe.Reference, error) {
	brandCode = strings.TrimSpace(brandCode)
	modelCode = strings.TrimSpace(modelCode)
	if brandCode == "" || modelCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand and model codes are required")
	}
	return cachedLookup(ctx, s, upstreamFIPE, []string{"fipe", "years", brandCode, modelCode}, func() ([]fipe.Reference, error) {
		return s.catalog.Years(ctx, brandCode, modelCode)
	})
}

// DecodePlate is never cached; plate owners can change.
func (s *service) DecodePlate(ctx context.Context, plate string) (*plates.Vehicle, error) {
	if s.plates == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "plate decoding not configured")
	}
	if !plates.ValidPlate(plate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid license plate").
			WithDetails(map[string]any{"plate": plate})
	}
	started := s.now()
	vehicle, err := s.plates.Decode(ctx, plate)
	s.observe(upstreamPlates, started, err)
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

func cachedLookup[T any](ctx context.Context, s *service, upstream string, keyParts []string, fetch func() (T, error)) (T, error) {
	var key string
	if s.cache != nil {
		key = s.cache.CacheKey(keyParts...)
		var cached T
		found, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "vehicles.cache_read_failed")
		}
		if found {
			if s.metrics != nil {
				s.metrics.IncCacheHit(upstream)
			}
			return cached, nil
		}
	}

	started := s.now()
	value, err := fetch()
	s.observe(upstream, started, err)
	if err != nil {
		var zero T
		return zero, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, value, s.cacheTTL); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "vehicles.cache_write_failed")
		}
	}
	return value, nil
}

func (s *service) observe(upstream string, started time.Time, err error) {
	if s.metrics == nil {
		return
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) || pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		err = nil
	}
	s.metrics.ObserveCall(upstream, s.now().Sub(started), err)
}
