package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicware/medipos-backend/pkg/db/models"
	"github.com/clinicware/medipos-backend/pkg/enums"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
)

func testProduct(name string, price int64, packSize int) *models.Product {
	return &models.Product{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Name:     name,
		Category: enums.ProductCategoryTablet,
		Price:    decimal.NewFromInt(price),
		PackSize: packSize,
		UnitType: "tablets",
		Stock:    100,
	}
}

func TestCartAddItemMergesMatchingLines(t *testing.T) {
	t.Parallel()

	cart := NewCart()
	product := testProduct("Paracetamol", 100, 10)

	if err := cart.AddItem(product, 2, false); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := cart.AddItem(product, 3, false); err != nil {
		t.Fatalf("add item again: %v", err)
	}
	if cart.Len() != 1 {
		t.Fatalf("expected merged line, got %d lines", cart.Len())
	}
	if qty := cart.Lines()[0].Quantity; qty != 5 {
		t.Fatalf("expected quantity 5, got %d", qty)
	}

	// Same product with a different partial flag is a separate line.
	if err := cart.AddItem(product, 1, true); err != nil {
		t.Fatalf("add partial line: %v", err)
	}
	if cart.Len() != 2 {
		t.Fatalf("expected 2 lines, got %d", cart.Len())
	}
}

func TestCartSnapshotsProductAtAdd(t *testing.T) {
	t.Parallel()

	cart := NewCart()
	product := testProduct("Amoxicillin", 80, 12)
	if err := cart.AddItem(product, 1, true); err != nil {
		t.Fatalf("add item: %v", err)
	}

	// Catalog edits after adding must not change the in-progress sale.
	product.Price = decimal.NewFromInt(999)
	product.PackSize = 2

	line := cart.Lines()[0]
	if !line.PackPrice.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected snapshotted price 80, got %s", line.PackPrice)
	}
	if line.PackSizeAtAdd != 12 {
		t.Fatalf("expected snapshotted pack size 12, got %d", line.PackSizeAtAdd)
	}
}

func TestCartUpdateQuantityClamps(t *testing.T) {
	t.Parallel()

	cart := NewCart()
	if err := cart.AddItem(testProduct("Ibuprofen", 50, 10), 4, true); err != nil {
		t.Fatalf("add item: %v", err)
	}

	if err := cart.UpdateQuantity(0, 25); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if qty := cart.Lines()[0].Quantity; qty != 10 {
		t.Fatalf("expected clamp to pack size 10, got %d", qty)
	}

	if err := cart.UpdateQuantity(0, 0); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if qty := cart.Lines()[0].Quantity; qty != 1 {
		t.Fatalf("expected clamp to 1, got %d", qty)
	}

	err := cart.UpdateQuantity(5, 1)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidQuantity) {
		t.Fatalf("expected invalid quantity error for bad index, got %v", err)
	}
}

func TestCartRemoveItemKeepsOrder(t *testing.T) {
	t.Parallel()

	cart := NewCart()
	first := testProduct("A", 10, 1)
	second := testProduct("B", 20, 1)
	third := testProduct("C", 30, 1)
	for _, p := range []*models.Product{first, second, third} {
		if err := cart.AddItem(p, 1, false); err != nil {
			t.Fatalf("add item: %v", err)
		}
	}

	if err := cart.RemoveItem(1); err != nil {
		t.Fatalf("remove item: %v", err)
	}
	lines := cart.Lines()
	if len(lines) != 2 || lines[0].Name != "A" || lines[1].Name != "C" {
		t.Fatalf("unexpected lines after removal: %+v", lines)
	}
}

func TestCartTotalIsIdempotent(t *testing.T) {
	t.Parallel()

	cart := NewCart()
	if err := cart.AddItem(testProduct("Paracetamol", 100, 10), 3, true); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := cart.AddItem(testProduct("Syrup X", 45, 1), 2, false); err != nil {
		t.Fatalf("add item: %v", err)
	}

	first := cart.Total()
	second := cart.Total()
	if !first.Equal(second) {
		t.Fatalf("total changed without mutation: %s vs %s", first, second)
	}
	if !first.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected total 120, got %s", first)
	}
}

func TestCartClear(t *testing.T) {
	t.Parallel()

	cart := NewCart()
	if err := cart.AddItem(testProduct("A", 10, 1), 1, false); err != nil {
		t.Fatalf("add item: %v", err)
	}
	cart.Clear()
	if cart.Len() != 0 {
		t.Fatalf("expected empty cart after clear, got %d lines", cart.Len())
	}
	if !cart.Total().Equal(decimal.Zero) {
		t.Fatalf("expected zero total after clear, got %s", cart.Total())
	}
}
