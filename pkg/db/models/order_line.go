package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine freezes one cart line at checkout time.
type OrderLine struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	Position   int             `gorm:"column:position;not null"`
	ProductID  string          `gorm:"column:product_id;not null"`
	Name       string          `gorm:"column:name;not null"`
	Brand      string          `gorm:"column:brand;not null;default:''"`
	PartNumber string          `gorm:"column:part_number;not null;default:''"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	ImageURL   *string         `gorm:"column:image_url"`
}
