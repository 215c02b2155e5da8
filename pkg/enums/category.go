package enums

import (
	"fmt"
	"strings"
)

// ProductCategory represents the canonical catalog categories a pharmacy stocks.
type ProductCategory string

const (
	ProductCategoryTablet    ProductCategory = "Tablet"
	ProductCategorySyrup     ProductCategory = "Syrup"
	ProductCategoryInjection ProductCategory = "Injection"
	ProductCategoryOintment  ProductCategory = "Ointment"
	ProductCategoryOther     ProductCategory = "Other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryTablet,
	ProductCategorySyrup,
	ProductCategoryInjection,
	ProductCategoryOintment,
	ProductCategoryOther,
}

// ProductCategories returns the full category list in display order.
func ProductCategories() []ProductCategory {
	out := make([]ProductCategory, len(validProductCategories))
	copy(out, validProductCategories)
	return out
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory, ignoring case.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if strings.EqualFold(string(candidate), value) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
