package enums

import (
	"fmt"
	"strings"
)

// FuelType describes a vehicle's fuel.
type FuelType string

const (
	FuelTypeGasoline FuelType = "gasoline"
	FuelTypeEthanol  FuelType = "ethanol"
	FuelTypeFlex     FuelType = "flex"
	FuelTypeDiesel   FuelType = "diesel"
	FuelTypeElectric FuelType = "electric"
	FuelTypeHybrid   FuelType = "hybrid"
)

var validFuelTypes = []FuelType{
	FuelTypeGasoline,
	FuelTypeEthanol,
	FuelTypeFlex,
	FuelTypeDiesel,
	FuelTypeElectric,
	FuelTypeHybrid,
}

// String implements fmt.Stringer.
func (f FuelType) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FuelType.
func (f FuelType) IsValid() bool {
	for _, candidate := range validFuelTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFuelType converts raw input into a FuelType. Portuguese labels returned
// by the plate and FIPE APIs are accepted too.
func ParseFuelType(value string) (FuelType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "gasolina":
		return FuelTypeGasoline, nil
	case "etanol", "alcool", "álcool":
		return FuelTypeEthanol, nil
	case "alcool/gasolina", "álcool/gasolina", "flexivel", "flexível":
		return FuelTypeFlex, nil
	case "eletrico", "elétrico":
		return FuelTypeElectric, nil
	case "hibrido", "híbrido":
		return FuelTypeHybrid, nil
	}
	for _, candidate := range validFuelTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fuel type %q", value)
}
