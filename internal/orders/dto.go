package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/partfinderz-backend/pkg/enums"
	"github.com/angelmondragon/partfinderz-backend/pkg/types"
)

// OrderSummary is one row of the order history list.
type OrderSummary struct {
	ID            uuid.UUID         `json:"id"`
	Number        string            `json:"number"`
	Status        enums.OrderStatus `json:"status"`
	PaymentMethod string            `json:"payment_method"`
	Total         decimal.Decimal   `json:"total"`
	ItemCount     int               `json:"item_count"`
	CreatedAt     time.Time         `json:"created_at"`
}

// OrderList is the paginated order history response.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type OrderLine struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	Brand      string          `json:"brand"`
	PartNumber string          `json:"part_number"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	ImageURL   *string         `json:"image_url,omitempty"`
}

// OrderDetail is the full, immutable snapshot of a placed order.
type OrderDetail struct {
	OrderSummary
	DeliveryAddress types.DeliveryAddress `json:"delivery_address"`
	Lines           []OrderLine           `json:"lines"`
}

func NewOrderSummary(o models.Order) OrderSummary {
	items := 0
	for _, l := range o.Lines {
		items += l.Quantity
	}
	return OrderSummary{
		ID:            o.ID,
		Number:        o.Number,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		Total:         o.Total,
		ItemCount:     items,
		CreatedAt:     o.CreatedAt,
	}
}

func NewOrderDetail(o models.Order) OrderDetail {
	lines := make([]OrderLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLine{
			ProductID:  l.ProductID,
			Name:       l.Name,
			Brand:      l.Brand,
			PartNumber: l.PartNumber,
			UnitPrice:  l.UnitPrice,
			Quantity:   l.Quantity,
			Subtotal:   l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))),
			ImageURL:   l.ImageURL,
		})
	}
	return OrderDetail{
		OrderSummary:    NewOrderSummary(o),
		DeliveryAddress: o.DeliveryAddress,
		Lines:           lines,
	}
}
