package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a catalog part listing.
type Product struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Name            string                 `gorm:"column:name;not null"`
	Description     string                 `gorm:"column:description;not null;default:''"`
	PartNumber      string                 `gorm:"column:part_number;not null"`
	Brand           string                 `gorm:"column:brand;not null"`
	Category        string                 `gorm:"column:category;not null"`
	Specifications  pq.StringArray         `gorm:"column:specifications;type:text[];not null;default:'{}'"`
	Position        *string                `gorm:"column:position"`
	Price           decimal.Decimal        `gorm:"column:price;type:numeric(12,2);not null"`
	Stock           int                    `gorm:"column:stock;not null;default:0"`
	IsActive        bool                   `gorm:"column:is_active;not null;default:true"`
	ImageURL        *string                `gorm:"column:image_url"`
	Compatibilities []ProductCompatibility `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// HasSpecifications reports whether the product carries every tag.
func (p Product) HasSpecifications(tags []string) bool {
	for _, tag := range tags {
		found := false
		for _, spec := range p.Specifications {
			if spec == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
