package vehicles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/partfinderz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/angelmondragon/partfinderz-backend/pkg/fipe"
	"github.com/angelmondragon/partfinderz-backend/pkg/logger"
	"github.com/angelmondragon/partfinderz-backend/pkg/plates"
)

const minModelYear = 1900

// Service manages the user's vehicle profiles and the vehicle catalog lookups
// used to fill them in.
type Service interface {
	Register(ctx context.Context, userID uuid.UUID, input RegisterInput) (*VehicleDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]VehicleDTO, error)
	Primary(ctx context.Context, userID uuid.UUID) (*VehicleDTO, error)
	SetPrimary(ctx context.Context, userID, vehicleID uuid.UUID) (*VehicleDTO, error)

	Brands(ctx context.Context) ([]fipe.Reference, error)
	Models(ctx context.Context, brandCode string) ([]fipe.Reference, error)
	Years(ctx context.Context, brandCode, modelCode string) ([]fipe.Reference, error)
	DecodePlate(ctx context.Context, plate string) (*plates.Vehicle, error)
}

// ServiceDeps groups the collaborators of the vehicles service. Cache, Metrics
// and Plates are optional.
type ServiceDeps struct {
	Repo     Repository
	Tx       txRunner
	Catalog  vehicleCatalog
	Plates   plateDecoder
	Cache    lookupCache
	CacheTTL time.Duration
	Metrics  upstreamObserver
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	tx       txRunner
	catalog  vehicleCatalog
	plates   plateDecoder
	cache    lookupCache
	cacheTTL time.Duration
	metrics  upstreamObserver
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(deps ServiceDeps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("vehicles repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("vehicle catalog client required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     deps.Repo,
		tx:       deps.Tx,
		catalog:  deps.Catalog,
		plates:   deps.Plates,
		cache:    deps.Cache,
		cacheTTL: deps.CacheTTL,
		metrics:  deps.Metrics,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Register stores a vehicle. The first vehicle of a user, or one registered
// with Primary set, becomes the primary vehicle.
func (s *service) Register(ctx context.Context, userID uuid.UUID, input RegisterInput) (*VehicleDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	vehicle, err := s.vehicleFromInput(userID, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count == 0 || input.Primary {
			if err := repo.ClearPrimary(ctx, userID); err != nil {
				return err
			}
			vehicle.IsPrimary = true
		}
		return repo.Create(ctx, vehicle)
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"user_id":    userID.String(),
		"vehicle_id": vehicle.ID.String(),
		"primary":    vehicle.IsPrimary,
	})
	s.logg.Info(ctx, "vehicles.registered")

	dto := NewVehicleDTO(*vehicle)
	return &dto, nil
}

func (s *service) vehicleFromInput(userID uuid.UUID, input RegisterInput) (*models.Vehicle, error) {
	brand := strings.TrimSpace(input.Brand)
	model := strings.TrimSpace(input.Model)
	if brand == "" || model == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand and model are required")
	}
	maxYear := s.now().Year() + 1
	if input.ModelYear < minModelYear || input.ModelYear > maxYear {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "model year must be between %d and %d", minModelYear, maxYear)
	}
	if input.Valves != nil && *input.Valves <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valves must be positive")
	}

	vehicle := &models.Vehicle{
		ID:                 uuid.New(),
		UserID:             userID,
		Brand:              brand,
		Model:              model,
		ModelYear:          input.ModelYear,
		EngineDisplacement: trimmedOrNil(input.EngineDisplacement),
		Valves:             input.Valves,
		FIPECode:           trimmedOrNil(&input.FIPECode),
	}
	if strings.TrimSpace(input.FuelType) != "" {
		fuel, err := enums.ParseFuelType(input.FuelType)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fuel type")
		}
		vehicle.FuelType = &fuel
	}
	if strings.TrimSpace(input.Plate) != "" {
		if !plates.ValidPlate(input.Plate) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid license plate").
				WithDetails(map[string]any{"plate": input.Plate})
		}
		plate := plates.NormalizePlate(input.Plate)
		vehicle.Plate = &plate
	}
	return vehicle, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]VehicleDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]VehicleDTO, 0, len(rows))
	for _, v := range rows {
		out = append(out, NewVehicleDTO(v))
	}
	return out, nil
}

func (s *service) Primary(ctx context.Context, userID uuid.UUID) (*VehicleDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	vehicle, err := s.repo.FindPrimary(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := NewVehicleDTO(*vehicle)
	return &dto, nil
}

func (s *service) SetPrimary(ctx context.Context, userID, vehicleID uuid.UUID) (*VehicleDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if vehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id is required")
	}

	var vehicle *models.Vehicle
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindByIDForUser(ctx, userID, vehicleID)
		if err != nil {
			return err
		}
		if found.IsPrimary {
			vehicle = found
			return nil
		}
		if err := repo.ClearPrimary(ctx, userID); err != nil {
			return err
		}
		if err := repo.MarkPrimary(ctx, vehicleID); err != nil {
			return err
		}
		found.IsPrimary = true
		vehicle = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := NewVehicleDTO(*vehicle)
	return &dto, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
