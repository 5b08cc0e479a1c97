package enums

import "fmt"

// ProductUnit is the sellable unit a product is priced in.
type ProductUnit string

const (
	ProductUnitEach  ProductUnit = "each"
	ProductUnitKg    ProductUnit = "kg"
	ProductUnitGram  ProductUnit = "g"
	ProductUnitLb    ProductUnit = "lb"
	ProductUnitLiter ProductUnit = "liter"
	ProductUnitBunch ProductUnit = "bunch"
	ProductUnitPack  ProductUnit = "pack"
	ProductUnitDozen ProductUnit = "dozen"
)

var validProductUnits = []ProductUnit{
	ProductUnitEach,
	ProductUnitKg,
	ProductUnitGram,
	ProductUnitLb,
	ProductUnitLiter,
	ProductUnitBunch,
	ProductUnitPack,
	ProductUnitDozen,
}

// String implements fmt.Stringer.
func (p ProductUnit) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductUnit.
func (p ProductUnit) IsValid() bool {
	for _, candidate := range validProductUnits {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductUnit converts raw input into a ProductUnit.
func ParseProductUnit(value string) (ProductUnit, error) {
	for _, candidate := range validProductUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product unit %q", value)
}
