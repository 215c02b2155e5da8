package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MonthlyAggregate is a running per-tenant, per-month sales summary. It is
// created on the first sale of a month and incremented on every subsequent
// sale; it is never decremented.
type MonthlyAggregate struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	TenantID       uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:ux_monthly_aggregates_tenant_month"`
	Month          string           `gorm:"column:month;not null;uniqueIndex:ux_monthly_aggregates_tenant_month"`
	TotalSales     decimal.Decimal  `gorm:"column:total_sales;type:numeric(14,2);not null"`
	TotalProfit    *decimal.Decimal `gorm:"column:total_profit;type:numeric(14,2)"`
	TabletTotal    decimal.Decimal  `gorm:"column:tablet_total;type:numeric(14,2);not null"`
	SyrupTotal     decimal.Decimal  `gorm:"column:syrup_total;type:numeric(14,2);not null"`
	InjectionTotal decimal.Decimal  `gorm:"column:injection_total;type:numeric(14,2);not null"`
	SaleCount      int              `gorm:"column:sale_count;not null;default:0"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *MonthlyAggregate) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MonthKey formats a timestamp into the aggregate bucket key.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
