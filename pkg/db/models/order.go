package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partfinderz-backend/pkg/enums"
	"github.com/angelmondragon/partfinderz-backend/pkg/types"
)

// Order is the persisted snapshot of a checked-out cart.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Number          string                `gorm:"column:number;not null;uniqueIndex"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	Status          enums.OrderStatus     `gorm:"column:status;not null"`
	PaymentMethod   string                `gorm:"column:payment_method;not null"`
	Total           decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null"`
	DeliveryAddress types.DeliveryAddress `gorm:"column:delivery_address;type:jsonb;not null"`
	Lines           []OrderLine           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at"`
}
