package catalog

import (
	"strings"

	"github.com/angelmondragon/partfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/partfinderz-backend/pkg/enums"
)

// VehicleProfile is the vehicle used to test product fitment.
type VehicleProfile struct {
	Brand              string          `json:"brand"`
	Model              string          `json:"model"`
	Year               int             `json:"year"`
	EngineDisplacement *string         `json:"engine_displacement,omitempty"`
	Valves             *int            `json:"valves,omitempty"`
	FuelType           *enums.FuelType `json:"fuel_type,omitempty"`
}

// ProfileFromVehicle maps a registered vehicle onto a profile.
func ProfileFromVehicle(v *models.Vehicle) *VehicleProfile {
	if v == nil {
		return nil
	}
	return &VehicleProfile{
		Brand:              v.Brand,
		Model:              v.Model,
		Year:               v.ModelYear,
		EngineDisplacement: v.EngineDisplacement,
		Valves:             v.Valves,
		FuelType:           v.FuelType,
	}
}

// ApplyCompatibilityFilter keeps the products with at least one compatibility
// record matching the vehicle. Without a vehicle, or when compatibility is not
// required, products are returned unchanged. Input order is preserved.
func ApplyCompatibilityFilter(products []models.Product, c FilterCriteria, vehicle *VehicleProfile) []models.Product {
	if !c.RequireCompatibility || vehicle == nil {
		return products
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		for _, record := range p.Compatibilities {
			if Fits(record, *vehicle) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// Fits reports whether a compatibility record covers the vehicle. Records
// without brand or model never match.
func Fits(record models.ProductCompatibility, vehicle VehicleProfile) bool {
	brand := strings.TrimSpace(record.Brand)
	model := strings.TrimSpace(record.Model)
	if brand == "" || model == "" {
		return false
	}
	if !strings.EqualFold(brand, strings.TrimSpace(vehicle.Brand)) {
		return false
	}
	if !strings.EqualFold(model, strings.TrimSpace(vehicle.Model)) {
		return false
	}
	if vehicle.Year < record.YearStart {
		return false
	}
	return record.YearEnd == nil || vehicle.Year <= *record.YearEnd
}

// ApplySpecificationFilter keeps products carrying every selected tag.
func ApplySpecificationFilter(products []models.Product, c FilterCriteria) []models.Product {
	if c.Category == "" || len(c.Specifications) == 0 {
		return products
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.HasSpecifications(c.Specifications) {
			out = append(out, p)
		}
	}
	return out
}
