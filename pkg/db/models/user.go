package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicware/medipos-backend/pkg/enums"
)

// User is an admin or staff account. Admins own a tenant; staff belong to the
// admin that created them.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"column:role;not null;default:'staff'"`
	AdminID      *uuid.UUID     `gorm:"column:admin_id;type:uuid;index"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TenantID resolves the data scope the user operates in: admins are their own
// tenant, staff inherit their admin's.
func (u *User) TenantID() uuid.UUID {
	if u.Role == enums.UserRoleStaff && u.AdminID != nil {
		return *u.AdminID
	}
	return u.ID
}
