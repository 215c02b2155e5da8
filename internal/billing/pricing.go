package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// UnitPrice returns the price of a single loose unit drawn from a pack.
func UnitPrice(packPrice decimal.Decimal, packSize int) decimal.Decimal {
	if packSize <= 1 {
		return packPrice
	}
	return packPrice.Div(decimal.NewFromInt(int64(packSize)))
}

// ClampPartialQty coerces a partial-line quantity into [1, packSize].
func ClampPartialQty(qty, packSize int) int {
	if packSize < 1 {
		packSize = 1
	}
	if qty < 1 {
		return 1
	}
	if qty > packSize {
		return packSize
	}
	return qty
}

// LineSubtotal computes the monetary value of one line. Non-partial lines (or
// packSize <= 1) are priced per pack; partial lines are priced per unit with
// the quantity clamped into [1, packSize]. Full precision is retained; callers
// round to 2 decimal places only at display or serialization boundaries.
//
// Cart display and checkout both go through this function so the total shown
// never diverges from the total persisted.
func LineSubtotal(packPrice decimal.Decimal, packSize, qty int, isPartial bool) decimal.Decimal {
	if !isPartial || packSize <= 1 {
		if qty < 0 {
			qty = 0
		}
		return packPrice.Mul(decimal.NewFromInt(int64(qty)))
	}
	clamped := ClampPartialQty(qty, packSize)
	return UnitPrice(packPrice, packSize).Mul(decimal.NewFromInt(int64(clamped)))
}

// ApplyPartialConsumption advances a product's pack/unit balance after selling
// qty loose units. It subtracts from remainingUnits and, while the balance is
// negative, opens one more pack: stock goes down by one (floored at 0) and
// remainingUnits goes up by packSize.
func ApplyPartialConsumption(stock, remainingUnits, packSize, qty int) (int, int) {
	if packSize < 1 {
		packSize = 1
	}
	remainingUnits -= qty
	for remainingUnits < 0 {
		if stock > 0 {
			stock--
		}
		remainingUnits += packSize
	}
	return stock, remainingUnits
}

// CategoryBucket names the report bucket a product category contributes to.
type CategoryBucket int

const (
	BucketNone CategoryBucket = iota
	BucketTablet
	BucketSyrup
	BucketInjection
)

// BucketForCategory classifies a category label by substring match on its
// lowercased name, mirroring how the sale ledger groups subtotals.
func BucketForCategory(category string) CategoryBucket {
	c := strings.ToLower(category)
	switch {
	case strings.Contains(c, "tab"):
		return BucketTablet
	case strings.Contains(c, "syrup"):
		return BucketSyrup
	case strings.Contains(c, "inj"):
		return BucketInjection
	default:
		return BucketNone
	}
}
