package customers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicware/medipos-backend/pkg/db/models"
	"github.com/clinicware/medipos-backend/pkg/pagination"
)

// Repository exposes customer persistence. Customers are written once per
// sale and only ever read afterwards.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByTenant returns one page of the tenant's customer records, newest
// first. The caller passes a buffered limit to detect whether a next page
// exists.
func (r *Repository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Customer, error) {
	q := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID)
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []models.Customer
	err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads one tenant customer.
func (r *Repository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
