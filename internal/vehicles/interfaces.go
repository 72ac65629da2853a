package vehicles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partfinderz-backend/pkg/db/models"
)

// Repository defines persistence operations for user vehicles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, vehicle *models.Vehicle) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Vehicle, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	FindByIDForUser(ctx context.Context, userID, vehicleID uuid.UUID) (*models.Vehicle, error)
	FindPrimary(ctx context.Context, userID uuid.UUID) (*models.Vehicle, error)
	ClearPrimary(ctx context.Context, userID uuid.UUID) error
	MarkPrimary(ctx context.Context, vehicleID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
