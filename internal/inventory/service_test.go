package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clinicware/medipos-backend/pkg/db/models"
	"github.com/clinicware/medipos-backend/pkg/enums"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.PartialSale{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func createNamed(t *testing.T, svc *Service, tenantID uuid.UUID, name string) *models.Product {
	t.Helper()
	product, err := svc.CreateProduct(context.Background(), tenantID, CreateProductInput{
		Name:     name,
		Category: enums.ProductCategoryTablet,
		Price:    decimal.NewFromInt(50),
		PackSize: 10,
		Stock:    20,
	})
	if err != nil {
		t.Fatalf("create product %q: %v", name, err)
	}
	return product
}

func TestCreateProductValidates(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	_, err := svc.CreateProduct(ctx, tenantID, CreateProductInput{Name: "  ", Price: decimal.NewFromInt(10), PackSize: 1})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}

	_, err = svc.CreateProduct(ctx, tenantID, CreateProductInput{Name: "X", Price: decimal.NewFromInt(-1), PackSize: 1})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}

	_, err = svc.CreateProduct(ctx, tenantID, CreateProductInput{Name: "X", Price: decimal.NewFromInt(1), PackSize: 0})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for pack size 0, got %v", err)
	}

	product, err := svc.CreateProduct(ctx, tenantID, CreateProductInput{
		Name: "Paracetamol", Category: "bogus", Price: decimal.NewFromInt(10), PackSize: 10,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if product.Category != enums.ProductCategoryOther {
		t.Fatalf("expected unknown category to default to Other, got %s", product.Category)
	}
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()
	product := createNamed(t, svc, tenantID, "Ibuprofen")

	newName := "Ibuprofen 400"
	newPrice := decimal.NewFromInt(60)
	updated, err := svc.UpdateProduct(ctx, tenantID, product.ID, UpdateProductInput{Name: &newName, Price: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != newName || !updated.Price.Equal(newPrice) {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	otherTenant := uuid.New()
	if _, err := svc.GetProduct(ctx, otherTenant, product.ID); !pkgerrors.HasCode(err, pkgerrors.CodeProductNotFound) {
		t.Fatalf("expected cross-tenant lookup to miss, got %v", err)
	}

	if err := svc.DeleteProduct(ctx, tenantID, product.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteProduct(ctx, tenantID, product.ID); !pkgerrors.HasCode(err, pkgerrors.CodeProductNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestSearchRanking(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	for _, name := range []string{"Ibuparacetamol", "Paraben Cream", "Paracetamol"} {
		createNamed(t, svc, tenantID, name)
	}

	results, err := svc.Search(ctx, tenantID, "para")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	got := make([]string, len(results))
	for i, p := range results {
		got[i] = p.Name
	}
	want := []string{"Paraben Cream", "Paracetamol", "Ibuparacetamol"}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}

	exact, err := svc.Search(ctx, tenantID, "Paracetamol")
	if err != nil {
		t.Fatalf("search exact: %v", err)
	}
	if len(exact) == 0 || exact[0].Name != "Paracetamol" {
		t.Fatalf("expected exact match ranked first, got %v", exact)
	}
}

func TestSearchIsTenantScoped(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	mine := uuid.New()
	theirs := uuid.New()
	createNamed(t, svc, mine, "Paracetamol")
	createNamed(t, svc, theirs, "Paracetamol Forte")

	results, err := svc.Search(ctx, mine, "para")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Paracetamol" {
		t.Fatalf("expected only the tenant's product, got %v", results)
	}
}

func TestDecrementStock(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()
	product := createNamed(t, svc, tenantID, "Gauze")

	if err := svc.DecrementStock(ctx, tenantID, product.ID, 5); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Stock != 15 {
		t.Fatalf("expected stock 15, got %d", reloaded.Stock)
	}

	err := svc.DecrementStock(ctx, tenantID, product.ID, 100)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if typed := pkgerrors.As(err); typed != nil {
		details, ok := typed.Details().(map[string]any)
		if !ok || details["available"] != 15 {
			t.Fatalf("expected available stock in details, got %v", typed.Details())
		}
	}

	err = svc.DecrementStock(ctx, tenantID, uuid.New(), 1)
	if !pkgerrors.HasCode(err, pkgerrors.CodeProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
}

func TestBulkImport(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	rows := []ImportRow{
		{Name: "Paracetamol", Price: "50", Quantity: "20", UnitsPerPack: "10", UnitType: "tablets", Category: "tablet"},
		{},
		{Name: "Cough Syrup", Price: "45.50", Quantity: "5", Category: "Syrup"},
		{Name: "Broken", Price: "abc", Quantity: "1"},
		{Name: "", Price: "10", Quantity: "1"},
	}

	result, err := svc.BulkImport(ctx, tenantID, rows)
	if result.Created != 2 {
		t.Fatalf("expected 2 created, got %+v", result)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped blank row, got %+v", result)
	}
	if result.Failed != 2 {
		t.Fatalf("expected 2 failed rows, got %+v", result)
	}
	if errs := multierr.Errors(err); len(errs) != 2 {
		t.Fatalf("expected 2 accumulated row errors, got %v", err)
	}

	products, listErr := svc.ListProducts(ctx, tenantID, nil)
	if listErr != nil {
		t.Fatalf("list: %v", listErr)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products after import, got %d", len(products))
	}
	// Defaults applied: missing units-per-pack falls back to 1.
	for _, p := range products {
		if p.Name == "Cough Syrup" && p.PackSize != 1 {
			t.Fatalf("expected default pack size 1, got %d", p.PackSize)
		}
	}

	categories := svc.Categories()
	if len(categories) != 5 {
		t.Fatalf("expected 5 categories, got %v", categories)
	}
}

func TestPartialSaleHistory(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()
	product := createNamed(t, svc, tenantID, "Amoxicillin")

	if err := svc.AppendPartialSale(ctx, tenantID, product.ID, uuid.New(), 0); !pkgerrors.HasCode(err, pkgerrors.CodeInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if err := svc.AppendPartialSale(ctx, uuid.New(), product.ID, uuid.New(), 3); !pkgerrors.HasCode(err, pkgerrors.CodeProductNotFound) {
		t.Fatalf("expected not found cross-tenant, got %v", err)
	}

	for _, qty := range []int{3, 4} {
		if err := svc.AppendPartialSale(ctx, tenantID, product.ID, uuid.New(), qty); err != nil {
			t.Fatalf("append partial sale: %v", err)
		}
	}

	rows, err := svc.PartialSales(ctx, tenantID, product.ID)
	if err != nil {
		t.Fatalf("partial sales: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 partial sales, got %d", len(rows))
	}
}
