package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partfinderz-backend/pkg/db/models"
)

type CompatibilityDTO struct {
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	YearStart int    `json:"year_start"`
	YearEnd   *int   `json:"year_end,omitempty"`
}

type ProductDTO struct {
	ID              uuid.UUID          `json:"id"`
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	PartNumber      string             `json:"part_number"`
	Brand           string             `json:"brand"`
	Category        string             `json:"category"`
	Specifications  []string           `json:"specifications"`
	Position        *string            `json:"position,omitempty"`
	Price           decimal.Decimal    `json:"price"`
	Stock           int                `json:"stock"`
	InStock         bool               `json:"in_stock"`
	ImageURL        *string            `json:"image_url,omitempty"`
	Compatibilities []CompatibilityDTO `json:"compatibilities"`
}

// SearchResult is the response of a catalog search.
type SearchResult struct {
	Products          []ProductDTO    `json:"products"`
	ActiveFilterCount int             `json:"active_filter_count"`
	Vehicle           *VehicleProfile `json:"vehicle,omitempty"`
}

func NewProductDTO(p models.Product) ProductDTO {
	specs := []string(p.Specifications)
	if specs == nil {
		specs = []string{}
	}
	compat := make([]CompatibilityDTO, 0, len(p.Compatibilities))
	for _, c := range p.Compatibilities {
		compat = append(compat, CompatibilityDTO{
			Brand:     c.Brand,
			Model:     c.Model,
			YearStart: c.YearStart,
			YearEnd:   c.YearEnd,
		})
	}
	return ProductDTO{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		PartNumber:      p.PartNumber,
		Brand:           p.Brand,
		Category:        p.Category,
		Specifications:  specs,
		Position:        p.Position,
		Price:           p.Price,
		Stock:           p.Stock,
		InStock:         p.Stock > 0,
		ImageURL:        p.ImageURL,
		Compatibilities: compat,
	}
}
