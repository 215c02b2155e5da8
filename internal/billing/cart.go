package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicware/medipos-backend/pkg/db/models"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
)

// CartLine is one entry being assembled for a sale. Pack size, unit type and
// price are snapshotted at add time so catalog edits made while the sale is in
// progress do not change it.
type CartLine struct {
	ProductID     uuid.UUID
	Name          string
	Category      string
	PackPrice     decimal.Decimal
	PackSizeAtAdd int
	UnitTypeAtAdd string
	Quantity      int
	IsPartial     bool
}

// Subtotal prices the line with the shared pricing rule.
func (l CartLine) Subtotal() decimal.Decimal {
	return LineSubtotal(l.PackPrice, l.PackSizeAtAdd, l.Quantity, l.IsPartial)
}

// Cart is the in-memory ordered collection of lines for one billing session.
// Lines are unique by (productID, isPartial); adding a matching line merges
// quantities instead of duplicating. The cart never touches the catalog or
// the database.
type Cart struct {
	lines []CartLine
}

func NewCart() *Cart {
	return &Cart{}
}

// AddItem appends a line for the product, or merges into an existing line with
// the same product and partial flag. Quantities below 1 are coerced to 1;
// partial lines are additionally capped at the snapshotted pack size.
func (c *Cart) AddItem(product *models.Product, qty int, isPartial bool) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}
	if qty < 1 {
		qty = 1
	}
	packSize := product.PackSize
	if packSize < 1 {
		packSize = 1
	}

	for i := range c.lines {
		if c.lines[i].ProductID == product.ID && c.lines[i].IsPartial == isPartial {
			merged := c.lines[i].Quantity + qty
			if isPartial {
				merged = ClampPartialQty(merged, c.lines[i].PackSizeAtAdd)
			}
			c.lines[i].Quantity = merged
			return nil
		}
	}

	if isPartial {
		qty = ClampPartialQty(qty, packSize)
	}
	c.lines = append(c.lines, CartLine{
		ProductID:     product.ID,
		Name:          product.Name,
		Category:      string(product.Category),
		PackPrice:     product.Price,
		PackSizeAtAdd: packSize,
		UnitTypeAtAdd: product.UnitType,
		Quantity:      qty,
		IsPartial:     isPartial,
	})
	return nil
}

// UpdateQuantity sets a line's quantity, coerced to >= 1 and, for partial
// lines, to <= the pack size snapshotted at add time.
func (c *Cart) UpdateQuantity(index, qty int) error {
	if index < 0 || index >= len(c.lines) {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "cart line index out of range").
			WithDetails(map[string]any{"index": index})
	}
	if qty < 1 {
		qty = 1
	}
	if c.lines[index].IsPartial {
		qty = ClampPartialQty(qty, c.lines[index].PackSizeAtAdd)
	}
	c.lines[index].Quantity = qty
	return nil
}

// RemoveItem drops the line at index, preserving the order of the rest.
func (c *Cart) RemoveItem(index int) error {
	if index < 0 || index >= len(c.lines) {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "cart line index out of range").
			WithDetails(map[string]any{"index": index})
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

// Lines returns a copy of the current lines in order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

// Total sums every line's subtotal at full precision.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Clear empties the cart. Called after a successful checkout.
func (c *Cart) Clear() {
	c.lines = nil
}
