package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is an immutable ledger entry for one completed checkout.
type Sale struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	TenantID       uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null;index"`
	InvoiceNumber  string           `gorm:"column:invoice_number;not null;index"`
	TotalAmount    decimal.Decimal  `gorm:"column:total_amount;type:numeric(12,2);not null"`
	TabletTotal    decimal.Decimal  `gorm:"column:tablet_total;type:numeric(12,2);not null"`
	SyrupTotal     decimal.Decimal  `gorm:"column:syrup_total;type:numeric(12,2);not null"`
	InjectionTotal decimal.Decimal  `gorm:"column:injection_total;type:numeric(12,2);not null"`
	Profit         *decimal.Decimal `gorm:"column:profit;type:numeric(12,2)"`
	CustomerID     *uuid.UUID       `gorm:"column:customer_id;type:uuid"`
	Customer       *Customer        `gorm:"foreignKey:CustomerID"`
	Items          []SaleItem       `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime;index"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SaleItem snapshots a cart line at checkout time so later catalog edits do
// not rewrite history.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SaleID    uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Category  string          `gorm:"column:category;not null;default:''"`
	PackPrice decimal.Decimal `gorm:"column:pack_price;type:numeric(12,2);not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,4);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	IsPartial bool            `gorm:"column:is_partial;not null;default:false"`
	PackSize  int             `gorm:"column:pack_size;not null;default:1"`
	UnitType  string          `gorm:"column:unit_type;not null;default:''"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
}

func (s *SaleItem) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
