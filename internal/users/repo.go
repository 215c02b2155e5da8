package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicware/medipos-backend/pkg/db/models"
	"github.com/clinicware/medipos-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListStaff returns the staff accounts created by the given admin.
func (r *Repository) ListStaff(ctx context.Context, adminID uuid.UUID) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Where("admin_id = ? AND role = ?", adminID, enums.UserRoleStaff).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SetActive flips a staff account's active flag, scoped to its admin.
func (r *Repository) SetActive(ctx context.Context, adminID, staffID uuid.UUID, active bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND admin_id = ? AND role = ?", staffID, adminID, enums.UserRoleStaff).
		Update("is_active", active)
	return res.RowsAffected, res.Error
}

// DeleteStaff removes a staff account, scoped to its admin.
func (r *Repository) DeleteStaff(ctx context.Context, adminID, staffID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND admin_id = ? AND role = ?", staffID, adminID, enums.UserRoleStaff).
		Delete(&models.User{})
	return res.RowsAffected, res.Error
}
