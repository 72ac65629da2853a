package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partfinderz-backend/pkg/enums"
)

// Column names the descriptor refers to.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPartNumber  = "part_number"
	FieldPrice       = "price"
)

// TextSearch is a case-insensitive substring match against any of Fields.
type TextSearch struct {
	Term   string
	Fields []string
}

// Sort orders results by Field.
type Sort struct {
	Field      string
	Descending bool
}

// QueryDescriptor is the declarative product query built from FilterCriteria.
// It is executed by the repository, never by this package.
type QueryDescriptor struct {
	TextSearch     *TextSearch
	PartCode       string
	Category       string
	Position       string
	Specifications []string
	PriceMin       decimal.Decimal
	PriceMax       decimal.Decimal
	Sort           Sort
	ActiveOnly     bool
	Limit          int
}

// BuildQuery translates criteria into a query descriptor.
func BuildQuery(c FilterCriteria) QueryDescriptor {
	q := QueryDescriptor{
		Category: c.Category,
		Position: strings.TrimSpace(c.Position),
		PriceMin: decimal.Zero,
		PriceMax: c.PriceCeiling,
		Sort: Sort{
			Field:      FieldPrice,
			Descending: c.SortBy == enums.SortOrderPriceDesc,
		},
		ActiveOnly: true,
	}
	if term := strings.TrimSpace(c.NameQuery); term != "" {
		q.TextSearch = &TextSearch{
			Term:   term,
			Fields: []string{FieldName, FieldDescription},
		}
	}
	q.PartCode = strings.TrimSpace(c.PartCodeQuery)
	if c.Category != "" && len(c.Specifications) > 0 {
		q.Specifications = append([]string(nil), c.Specifications...)
	}
	return q
}
