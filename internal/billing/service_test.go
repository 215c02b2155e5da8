package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clinicware/medipos-backend/pkg/db/models"
	"github.com/clinicware/medipos-backend/pkg/enums"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
	"github.com/clinicware/medipos-backend/pkg/outbox"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:billing_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{},
		&models.PartialSale{},
		&models.Customer{},
		&models.Sale{},
		&models.SaleItem{},
		&models.MonthlyAggregate{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	publisher := outbox.NewService(outbox.NewRepository(db), nil)
	svc, err := NewService(gormTxRunner{db: db}, NewRepository(db), publisher, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name string, category enums.ProductCategory, price int64, packSize, stock, remaining int) *models.Product {
	t.Helper()
	product := &models.Product{
		TenantID:       tenantID,
		Name:           name,
		Category:       category,
		Price:          decimal.NewFromInt(price),
		PackSize:       packSize,
		UnitType:       "units",
		Stock:          stock,
		RemainingUnits: remaining,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestCheckoutCommitsSale(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	tenantID := uuid.New()

	tablet := seedProduct(t, db, tenantID, "Paracetamol", enums.ProductCategoryTablet, 100, 10, 20, 0)
	syrup := seedProduct(t, db, tenantID, "Cough Syrup", enums.ProductCategorySyrup, 45, 1, 5, 0)

	cart := NewCart()
	if err := cart.AddItem(tablet, 2, false); err != nil {
		t.Fatalf("add tablet: %v", err)
	}
	if err := cart.AddItem(syrup, 1, false); err != nil {
		t.Fatalf("add syrup: %v", err)
	}

	sale, err := svc.Checkout(ctx, tenantID, cart, CheckoutInput{
		Customer: &CustomerInput{Name: "Asha", Phone: "555-0101"},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if sale.ID == uuid.Nil {
		t.Fatal("expected generated sale id")
	}
	if len(sale.InvoiceNumber) != len("INV-20060102-0000") {
		t.Fatalf("unexpected invoice number format: %q", sale.InvoiceNumber)
	}
	if !sale.TotalAmount.Equal(decimal.NewFromInt(245)) {
		t.Fatalf("expected total 245, got %s", sale.TotalAmount)
	}
	if !sale.TabletTotal.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected tablet subtotal 200, got %s", sale.TabletTotal)
	}
	if !sale.SyrupTotal.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("expected syrup subtotal 45, got %s", sale.SyrupTotal)
	}
	if cart.Len() != 0 {
		t.Fatal("expected cart cleared after successful checkout")
	}

	var stored models.Sale
	if err := db.Preload("Items").Preload("Customer").First(&stored, "id = ?", sale.ID).Error; err != nil {
		t.Fatalf("load sale: %v", err)
	}
	if len(stored.Items) != 2 {
		t.Fatalf("expected 2 item snapshots, got %d", len(stored.Items))
	}
	if stored.Customer == nil || stored.Customer.Name != "Asha" {
		t.Fatalf("expected customer record, got %+v", stored.Customer)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", tablet.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 18 {
		t.Fatalf("expected stock 18 after selling 2 packs, got %d", reloaded.Stock)
	}

	var events []models.OutboxEvent
	if err := db.Find(&events).Error; err != nil {
		t.Fatalf("load outbox: %v", err)
	}
	if len(events) != 1 || events[0].EventType != outbox.EventTypeSaleCreated {
		t.Fatalf("expected one sale.created outbox event, got %+v", events)
	}
}

func TestCheckoutPartialRemainderCarry(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	tenantID := uuid.New()

	product := seedProduct(t, db, tenantID, "Paracetamol", enums.ProductCategoryTablet, 50, 10, 100, 6)

	cart := NewCart()
	if err := cart.AddItem(product, 4, true); err != nil {
		t.Fatalf("add partial line: %v", err)
	}
	sale, err := svc.Checkout(ctx, tenantID, cart, CheckoutInput{})
	if err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	if !sale.TotalAmount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected subtotal 20.00, got %s", sale.TotalAmount)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 100 || reloaded.RemainingUnits != 2 {
		t.Fatalf("expected stock=100 remaining=2, got stock=%d remaining=%d", reloaded.Stock, reloaded.RemainingUnits)
	}

	// A further partial sale of 5 units drives the balance negative and
	// opens one more pack.
	cart = NewCart()
	if err := cart.AddItem(&reloaded, 5, true); err != nil {
		t.Fatalf("add second partial line: %v", err)
	}
	if _, err := svc.Checkout(ctx, tenantID, cart, CheckoutInput{}); err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	if err := db.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 99 || reloaded.RemainingUnits != 7 {
		t.Fatalf("expected stock=99 remaining=7, got stock=%d remaining=%d", reloaded.Stock, reloaded.RemainingUnits)
	}

	var partials []models.PartialSale
	if err := db.Where("product_id = ?", product.ID).Find(&partials).Error; err != nil {
		t.Fatalf("load partial sales: %v", err)
	}
	if len(partials) != 2 {
		t.Fatalf("expected 2 partial-sale records, got %d", len(partials))
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Checkout(context.Background(), uuid.New(), NewCart(), CheckoutInput{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeEmptyCart) {
		t.Fatalf("expected empty cart error, got %v", err)
	}
}

func TestCheckoutRequiresTenant(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Paracetamol", enums.ProductCategoryTablet, 100, 10, 20, 0)

	cart := NewCart()
	if err := cart.AddItem(product, 1, false); err != nil {
		t.Fatalf("add item: %v", err)
	}
	_, err := svc.Checkout(context.Background(), uuid.Nil, cart, CheckoutInput{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Bandages", enums.ProductCategoryOther, 15, 1, 3, 0)

	cart := NewCart()
	if err := cart.AddItem(product, 5, false); err != nil {
		t.Fatalf("add item: %v", err)
	}
	_, err := svc.Checkout(ctx, tenantID, cart, CheckoutInput{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	if cart.Len() != 1 {
		t.Fatal("cart must stay intact after a failed checkout")
	}

	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 3 {
		t.Fatalf("stock must be untouched after failure, got %d", reloaded.Stock)
	}
}

func TestCheckoutAbortsWhollyOnMissingProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	tenantID := uuid.New()

	first := seedProduct(t, db, tenantID, "A", enums.ProductCategoryTablet, 10, 1, 50, 0)
	second := seedProduct(t, db, tenantID, "B", enums.ProductCategoryTablet, 20, 1, 50, 0)

	cart := NewCart()
	if err := cart.AddItem(first, 1, false); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if err := cart.AddItem(second, 1, false); err != nil {
		t.Fatalf("add second: %v", err)
	}
	// The second product disappears between add and checkout.
	if err := db.Delete(&models.Product{}, "id = ?", second.ID).Error; err != nil {
		t.Fatalf("delete product: %v", err)
	}

	_, err := svc.Checkout(ctx, tenantID, cart, CheckoutInput{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeProductNotFound) {
		t.Fatalf("expected product not found error, got %v", err)
	}

	var saleCount, aggCount int64
	if err := db.Model(&models.Sale{}).Count(&saleCount).Error; err != nil {
		t.Fatalf("count sales: %v", err)
	}
	if err := db.Model(&models.MonthlyAggregate{}).Count(&aggCount).Error; err != nil {
		t.Fatalf("count aggregates: %v", err)
	}
	if saleCount != 0 || aggCount != 0 {
		t.Fatalf("expected no writes after aborted checkout, sales=%d aggregates=%d", saleCount, aggCount)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 50 {
		t.Fatalf("expected stock unchanged, got %d", reloaded.Stock)
	}
}

func TestCheckoutStockNeverNegative(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	tenantID := uuid.New()

	// Partial sales can outrun whole-pack stock; the floor is 0.
	product := seedProduct(t, db, tenantID, "Drops", enums.ProductCategoryOther, 30, 5, 1, 1)
	cart := NewCart()
	if err := cart.AddItem(product, 5, true); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.Checkout(ctx, tenantID, cart, CheckoutInput{}); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock < 0 {
		t.Fatalf("stock went negative: %d", reloaded.Stock)
	}
}

func TestCheckoutMonthlyAggregateAccumulates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	publisher := outbox.NewService(outbox.NewRepository(db), nil)
	svc, err := NewService(gormTxRunner{db: db}, NewRepository(db), publisher, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	tenantID := uuid.New()

	january := time.Date(2026, time.January, 12, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return january }

	fifty := seedProduct(t, db, tenantID, "A", enums.ProductCategoryTablet, 50, 1, 100, 0)
	seventy := seedProduct(t, db, tenantID, "B", enums.ProductCategorySyrup, 70, 1, 100, 0)

	cart := NewCart()
	if err := cart.AddItem(fifty, 1, false); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.Checkout(ctx, tenantID, cart, CheckoutInput{}); err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	cart = NewCart()
	if err := cart.AddItem(seventy, 1, false); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.Checkout(ctx, tenantID, cart, CheckoutInput{}); err != nil {
		t.Fatalf("second checkout: %v", err)
	}

	repo := NewRepository(db)
	agg, err := repo.GetMonthlyAggregate(ctx, tenantID, "2026-01")
	if err != nil {
		t.Fatalf("load aggregate: %v", err)
	}
	if !agg.TotalSales.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected total 120, got %s", agg.TotalSales)
	}
	if agg.SaleCount != 2 {
		t.Fatalf("expected sale count 2, got %d", agg.SaleCount)
	}
	if agg.TotalProfit != nil {
		t.Fatalf("profit must stay unset when never supplied, got %s", agg.TotalProfit)
	}

	// A sale in the next month opens a fresh aggregate and leaves January alone.
	svc.now = func() time.Time { return january.AddDate(0, 1, 0) }
	cart = NewCart()
	if err := cart.AddItem(fifty, 1, false); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.Checkout(ctx, tenantID, cart, CheckoutInput{}); err != nil {
		t.Fatalf("february checkout: %v", err)
	}

	januaryAgg, err := repo.GetMonthlyAggregate(ctx, tenantID, "2026-01")
	if err != nil {
		t.Fatalf("reload january aggregate: %v", err)
	}
	if januaryAgg.SaleCount != 2 || !januaryAgg.TotalSales.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("january aggregate changed: %+v", januaryAgg)
	}
	februaryAgg, err := repo.GetMonthlyAggregate(ctx, tenantID, "2026-02")
	if err != nil {
		t.Fatalf("load february aggregate: %v", err)
	}
	if februaryAgg.SaleCount != 1 || !februaryAgg.TotalSales.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected february aggregate: %+v", februaryAgg)
	}
}
