package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clinicware/medipos-backend/pkg/enums"
)

// Product is a catalog entry owned by a single tenant. Price is the pack
// price; PackSize is the number of sellable units inside one pack. Stock
// counts whole packs; RemainingUnits tracks loose units left in the pack
// currently opened for partial sales.
type Product struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	TenantID       uuid.UUID             `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name           string                `gorm:"column:name;not null;index"`
	Category       enums.ProductCategory `gorm:"column:category;not null;default:'Other'"`
	Barcode        *string               `gorm:"column:barcode"`
	Price          decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	PackSize       int                   `gorm:"column:pack_size;not null;default:1"`
	UnitType       string                `gorm:"column:unit_type;not null;default:''"`
	Stock          int                   `gorm:"column:stock;not null;default:0"`
	RemainingUnits int                   `gorm:"column:remaining_units;not null;default:0"`
	PartialSales   []PartialSale         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// UnitPrice returns the price of one loose unit drawn from a pack.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.PackSize <= 1 {
		return p.Price
	}
	return p.Price.Div(decimal.NewFromInt(int64(p.PackSize)))
}

// PartialSale is an append-only record of loose units sold out of a pack.
type PartialSale struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	SaleID    uuid.UUID `gorm:"column:sale_id;type:uuid;not null;index"`
	SoldQty   int       `gorm:"column:sold_qty;not null"`
	SoldAt    time.Time `gorm:"column:sold_at;autoCreateTime"`
}

func (p *PartialSale) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
