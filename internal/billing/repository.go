package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clinicware/medipos-backend/pkg/db/models"
)

// Repository covers the persistence the checkout transaction touches: the
// sale ledger, inventory balances, per-sale customers and the monthly
// aggregate table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindProductsForUpdate loads the tenant's products by id, taking row locks
// where the dialect supports them so concurrent checkouts serialize on stock.
func (r *Repository) FindProductsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*models.Product{}, nil
	}
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []models.Product
	if err := q.Where("tenant_id = ? AND id IN ?", tenantID, ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// CreateSale inserts the sale together with its item snapshots.
func (r *Repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

// UpdateProductBalances writes back a product's stock and remaining-units
// counters after checkout consumption.
func (r *Repository) UpdateProductBalances(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"stock":           product.Stock,
			"remaining_units": product.RemainingUnits,
		}).Error
}

// AppendPartialSale records loose units sold out of a pack.
func (r *Repository) AppendPartialSale(ctx context.Context, record *models.PartialSale) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// CreateCustomer inserts a per-sale customer record.
func (r *Repository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

// AggregateDelta is one sale's contribution to its month's aggregate row.
type AggregateDelta struct {
	TotalSales     decimal.Decimal
	TotalProfit    *decimal.Decimal
	TabletTotal    decimal.Decimal
	SyrupTotal     decimal.Decimal
	InjectionTotal decimal.Decimal
}

// UpsertMonthlyIncrement creates the tenant/month aggregate row on the first
// sale of a month and atomically increments it on every later sale. Profit
// stays NULL until a sale supplies one.
func (r *Repository) UpsertMonthlyIncrement(ctx context.Context, tenantID uuid.UUID, month string, delta AggregateDelta) error {
	row := models.MonthlyAggregate{
		TenantID:       tenantID,
		Month:          month,
		TotalSales:     delta.TotalSales,
		TotalProfit:    delta.TotalProfit,
		TabletTotal:    delta.TabletTotal,
		SyrupTotal:     delta.SyrupTotal,
		InjectionTotal: delta.InjectionTotal,
		SaleCount:      1,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_sales":     gorm.Expr("monthly_aggregates.total_sales + excluded.total_sales"),
			"tablet_total":    gorm.Expr("monthly_aggregates.tablet_total + excluded.tablet_total"),
			"syrup_total":     gorm.Expr("monthly_aggregates.syrup_total + excluded.syrup_total"),
			"injection_total": gorm.Expr("monthly_aggregates.injection_total + excluded.injection_total"),
			"sale_count":      gorm.Expr("monthly_aggregates.sale_count + 1"),
			"total_profit": gorm.Expr(
				"CASE WHEN excluded.total_profit IS NULL THEN monthly_aggregates.total_profit " +
					"ELSE COALESCE(monthly_aggregates.total_profit, 0) + excluded.total_profit END"),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
}

// GetMonthlyAggregate loads one tenant/month row.
func (r *Repository) GetMonthlyAggregate(ctx context.Context, tenantID uuid.UUID, month string) (*models.MonthlyAggregate, error) {
	var row models.MonthlyAggregate
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND month = ?", tenantID, month).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// QuerySales returns the tenant's sales within [from, to), newest first,
// with item snapshots and customer loaded. Zero bounds are open-ended.
func (r *Repository) QuerySales(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.Sale, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		Where("tenant_id = ?", tenantID)
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}
	var rows []models.Sale
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindSaleByID loads one sale with items, tenant-scoped.
func (r *Repository) FindSaleByID(ctx context.Context, tenantID, saleID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		Where("tenant_id = ? AND id = ?", tenantID, saleID).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}
