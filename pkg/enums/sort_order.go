package enums

import "fmt"

// SortOrder selects how catalog results are ordered by price.
type SortOrder string

const (
	SortOrderPriceAsc  SortOrder = "price_asc"
	SortOrderPriceDesc SortOrder = "price_desc"
)

var validSortOrders = []SortOrder{
	SortOrderPriceAsc,
	SortOrderPriceDesc,
}

// String implements fmt.Stringer.
func (s SortOrder) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SortOrder.
func (s SortOrder) IsValid() bool {
	for _, candidate := range validSortOrders {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSortOrder converts raw input into a SortOrder; empty input yields price ascending.
func ParseSortOrder(value string) (SortOrder, error) {
	if value == "" {
		return SortOrderPriceAsc, nil
	}
	for _, candidate := range validSortOrders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort order %q", value)
}
