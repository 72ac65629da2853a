package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partfinderz-backend/pkg/enums"
)

// FilterCriteria is a buyer's current search selection. Specification tags
// belong to the selected category and are dropped whenever it changes.
type FilterCriteria struct {
	NameQuery            string
	PartCodeQuery        string
	Category             string
	Specifications       []string
	Position             string
	PriceCeiling         decimal.Decimal
	DefaultPriceCeiling  decimal.Decimal
	SortBy               enums.SortOrder
	RequireCompatibility bool
}

// NewFilterCriteria returns criteria with no filters and the price ceiling at its default.
func NewFilterCriteria(defaultCeiling decimal.Decimal) FilterCriteria {
	return FilterCriteria{
		PriceCeiling:        defaultCeiling,
		DefaultPriceCeiling: defaultCeiling,
		SortBy:              enums.SortOrderPriceAsc,
	}
}

// SelectCategory switches the category and always clears the specifications,
// even when the same category is selected again.
func (c *FilterCriteria) SelectCategory(category string) {
	c.Category = strings.TrimSpace(category)
	c.Specifications = nil
}

func (c *FilterCriteria) ClearCategory() {
	c.SelectCategory("")
}

// ToggleSpecification adds the tag when absent and removes it when present.
// Tags are ignored while no category is selected.
func (c *FilterCriteria) ToggleSpecification(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" || c.Category == "" {
		return
	}
	for i, existing := range c.Specifications {
		if existing == tag {
			c.Specifications = append(append([]string(nil), c.Specifications[:i]...), c.Specifications[i+1:]...)
			return
		}
	}
	c.Specifications = append(c.Specifications, tag)
}

// Reset clears every filter and restores the default price ceiling.
func (c *FilterCriteria) Reset() {
	*c = NewFilterCriteria(c.DefaultPriceCeiling)
}

// ActiveFilterCount is the badge number shown next to the filter button.
func ActiveFilterCount(c FilterCriteria) int {
	count := 0
	if c.RequireCompatibility {
		count++
	}
	if c.Category != "" {
		count++
	}
	if c.PriceCeiling.LessThan(c.DefaultPriceCeiling) {
		count++
	}
	return count
}
