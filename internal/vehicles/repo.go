package vehicles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partfinderz-backend/pkg/db"
	"github.com/angelmondragon/partfinderz-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
)

const userPlateConstraint = "vehicles_user_plate_key"

type repository struct {
	db *gorm.DB
}

// NewRepository builds a vehicles repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(vehicle).Error; err != nil {
		if db.IsUniqueViolation(err, userPlateConstraint) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "plate already registered")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create vehicle")
	}
	return nil
}

// ListByUser returns the primary vehicle first, then the rest by registration date.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Vehicle, error) {
	var rows []models.Vehicle
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_primary DESC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list vehicles")
	}
	return rows, nil
}

func (r *repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Vehicle{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count vehicles")
	}
	return count, nil
}

func (r *repository) FindByIDForUser(ctx context.Context, userID, vehicleID uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", vehicleID, userID).
		First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vehicle")
	}
	return &vehicle, nil
}

// FindPrimary returns the user's primary vehicle or a NOT_FOUND error.
func (r *repository) FindPrimary(ctx context.Context, userID uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_primary = ?", userID, true).
		First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no primary vehicle")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load primary vehicle")
	}
	return &vehicle, nil
}

func (r *repository) ClearPrimary(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&models.Vehicle{}).
		Where("user_id = ? AND is_primary = ?", userID, true).
		Update("is_primary", false).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear primary vehicle")
	}
	return nil
}

func (r *repository) MarkPrimary(ctx context.Context, vehicleID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Vehicle{}).
		Where("id = ?", vehicleID).
		Update("is_primary", true)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "mark primary vehicle")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
	}
	return nil
}
