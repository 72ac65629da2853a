package cart

import "github.com/shopspring/decimal"

// Line is one product line in the cart, keyed by ProductID.
type Line struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Stock      *int            `json:"stock,omitempty"`
	Brand      string          `json:"brand"`
	PartNumber string          `json:"part_number"`
	ImageURL   string          `json:"image_url,omitempty"`
}

// Subtotal is unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) clone() Line {
	out := l
	if l.Stock != nil {
		stock := *l.Stock
		out.Stock = &stock
	}
	return out
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, line := range lines {
		out[i] = line.clone()
	}
	return out
}

// clampQuantity caps qty at the ceiling when one is present.
func clampQuantity(qty int, ceiling *int) int {
	if ceiling != nil && qty > *ceiling {
		return *ceiling
	}
	return qty
}
