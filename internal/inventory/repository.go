package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicware/medipos-backend/pkg/db/models"
	"github.com/clinicware/medipos-backend/pkg/enums"
)

// Repository wires together product catalog persistence, tenant-scoped on
// every operation.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
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

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update saves an existing product row.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete removes the tenant's product; partial-sale history cascades.
func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.Product{})
	return res.RowsAffected, res.Error
}

// FindByID loads the tenant's product without associations.
func (r *Repository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByTenant returns the tenant's catalog ordered by name, optionally
// filtered to one category.
func (r *Repository) ListByTenant(ctx context.Context, tenantID uuid.UUID, category *enums.ProductCategory) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if category != nil {
		q = q.Where("category = ?", *category)
	}
	var rows []models.Product
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SearchCandidates fetches products whose name or category contains the term,
// case-insensitive. Ranking happens in the service so dialects without ILIKE
// behave identically.
func (r *Repository) SearchCandidates(ctx context.Context, tenantID uuid.UUID, term string) ([]models.Product, error) {
	pattern := "%" + strings.ToLower(term) + "%"
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("LOWER(name) LIKE ? OR LOWER(category) LIKE ?", pattern, pattern).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DecrementStock subtracts amount from the product's pack count, refusing to
// go below zero. Returns the number of rows updated; zero means the product
// is missing or the stock is too low.
func (r *Repository) DecrementStock(ctx context.Context, tenantID, id uuid.UUID, amount int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("tenant_id = ? AND id = ? AND stock >= ?", tenantID, id, amount).
		Update("stock", gorm.Expr("stock - ?", amount))
	return res.RowsAffected, res.Error
}

// AppendPartialSale records loose units sold out of a pack.
func (r *Repository) AppendPartialSale(ctx context.Context, record *models.PartialSale) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListPartialSales returns a product's partial-sale history, newest first.
func (r *Repository) ListPartialSales(ctx context.Context, productID uuid.UUID) ([]models.PartialSale, error) {
	var rows []models.PartialSale
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("sold_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
