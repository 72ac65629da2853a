package vehicles

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/partfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/partfinderz-backend/pkg/enums"
)

// RegisterInput describes a vehicle added to the user's profile.
type RegisterInput struct {
	Brand              string
	Model              string
	ModelYear          int
	EngineDisplacement *string
	Valves             *int
	FuelType           string
	Plate              string
	FIPECode           string
	Primary            bool
}

type VehicleDTO struct {
	ID                 uuid.UUID       `json:"id"`
	Brand              string          `json:"brand"`
	Model              string          `json:"model"`
	ModelYear          int             `json:"model_year"`
	EngineDisplacement *string         `json:"engine_displacement,omitempty"`
	Valves             *int            `json:"valves,omitempty"`
	FuelType           *enums.FuelType `json:"fuel_type,omitempty"`
	Plate              *string         `json:"plate,omitempty"`
	FIPECode           *string         `json:"fipe_code,omitempty"`
	IsPrimary          bool            `json:"is_primary"`
	CreatedAt          time.Time       `json:"created_at"`
}

func NewVehicleDTO(v models.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:                 v.ID,
		Brand:              v.Brand,
		Model:              v.Model,
		ModelYear:          v.ModelYear,
		EngineDisplacement: v.EngineDisplacement,
		Valves:             v.Valves,
		FuelType:           v.FuelType,
		Plate:              v.Plate,
		FIPECode:           v.FIPECode,
		IsPrimary:          v.IsPrimary,
		CreatedAt:          v.CreatedAt,
	}
}
