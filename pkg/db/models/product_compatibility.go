package models

import "github.com/google/uuid"

// ProductCompatibility is one (brand, model, year range) fitment of a product.
// A nil YearEnd means the range is open-ended.
type ProductCompatibility struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Brand     string    `gorm:"column:brand"`
	Model     string    `gorm:"column:model"`
	YearStart int       `gorm:"column:year_start;not null"`
	YearEnd   *int      `gorm:"column:year_end"`
}

func (ProductCompatibility) TableName() string {
	return "product_compatibilities"
}
