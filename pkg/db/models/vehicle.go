package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/partfinderz-backend/pkg/enums"
)

// Vehicle is a vehicle registered on a user's profile.
type Vehicle struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID             uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	Brand              string          `gorm:"column:brand;not null"`
	Model              string          `gorm:"column:model;not null"`
	ModelYear          int             `gorm:"column:model_year;not null"`
	EngineDisplacement *string         `gorm:"column:engine_displacement"`
	Valves             *int            `gorm:"column:valves"`
	FuelType           *enums.FuelType `gorm:"column:fuel_type"`
	Plate              *string         `gorm:"column:plate"`
	FIPECode           *string         `gorm:"column:fipe_code"`
	IsPrimary          bool            `gorm:"column:is_primary;not null;default:false"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
