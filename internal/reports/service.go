package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicware/medipos-backend/internal/billing"
	"github.com/clinicware/medipos-backend/pkg/db/models"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
)

type salesReader interface {
	QuerySales(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.Sale, error)
}

// Service derives read-only summaries from the sale ledger. Everything is
// recomputed per call; sale volume is tenant-scale, not global-scale.
type Service struct {
	sales salesReader
}

func NewService(sales salesReader) (*Service, error) {
	if sales == nil {
		return nil, fmt.Errorf("sales reader required")
	}
	return &Service{sales: sales}, nil
}

// DailySummary is one day's bucket inside a monthly summary.
type DailySummary struct {
	Date       string          `json:"date"`
	TotalSales decimal.Decimal `json:"totalSales"`
	SaleCount  int             `json:"saleCount"`
}

// MonthlySummary aggregates one month of a tenant's sales.
type MonthlySummary struct {
	Month          string           `json:"month"`
	TotalSales     decimal.Decimal  `json:"totalSales"`
	TotalProfit    *decimal.Decimal `json:"totalProfit,omitempty"`
	TabletTotal    decimal.Decimal  `json:"tabletTotal"`
	SyrupTotal     decimal.Decimal  `json:"syrupTotal"`
	InjectionTotal decimal.Decimal  `json:"injectionTotal"`
	SaleCount      int              `json:"saleCount"`
	Days           []DailySummary   `json:"days"`
}

// ProductStat is one entry of a top-products ranking.
type ProductStat struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// MonthlySummaries loads the tenant's sales in [from, to) and groups them per
// month with daily sub-buckets.
func (s *Service) MonthlySummaries(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]MonthlySummary, error) {
	sales, err := s.loadSales(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	return SummarizeByMonth(sales), nil
}

// TopProducts loads the tenant's sales in [from, to) and ranks products by
// units sold.
func (s *Service) TopProducts(ctx context.Context, tenantID uuid.UUID, from, to time.Time, n int) ([]ProductStat, error) {
	sales, err := s.loadSales(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	return RankTopProducts(sales, n), nil
}

// Sales loads the raw sale rows in [from, to); the export writers consume
// them directly.
func (s *Service) Sales(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.Sale, error) {
	return s.loadSales(ctx, tenantID, from, to)
}

func (s *Service) loadSales(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.Sale, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	sales, err := s.sales.QuerySales(ctx, tenantID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "querying sales")
	}
	return sales, nil
}

// SummarizeByMonth groups sales by YYYY-MM, summing totals and, when present,
// profit. Profit stays nil for months where no sale carried one. Months and
// days come back in ascending order.
func SummarizeByMonth(sales []models.Sale) []MonthlySummary {
	byMonth := map[string]*MonthlySummary{}
	byDay := map[string]map[string]*DailySummary{}

	for _, sale := range sales {
		month := sale.CreatedAt.Format("2006-01")
		day := sale.CreatedAt.Format("2006-01-02")

		summary, ok := byMonth[month]
		if !ok {
			summary = &MonthlySummary{Month: month}
			byMonth[month] = summary
			byDay[month] = map[string]*DailySummary{}
		}
		summary.TotalSales = summary.TotalSales.Add(sale.TotalAmount)
		summary.TabletTotal = summary.TabletTotal.Add(sale.TabletTotal)
		summary.SyrupTotal = summary.SyrupTotal.Add(sale.SyrupTotal)
		summary.InjectionTotal = summary.InjectionTotal.Add(sale.InjectionTotal)
		summary.SaleCount++
		if sale.Profit != nil {
			sum := decimal.Zero
			if summary.TotalProfit != nil {
				sum = *summary.TotalProfit
			}
			sum = sum.Add(*sale.Profit)
			summary.TotalProfit = &sum
		}

		daily, ok := byDay[month][day]
		if !ok {
			daily = &DailySummary{Date: day}
			byDay[month][day] = daily
		}
		daily.TotalSales = daily.TotalSales.Add(sale.TotalAmount)
		daily.SaleCount++
	}

	months := make([]MonthlySummary, 0, len(byMonth))
	for month, summary := range byMonth {
		days := make([]DailySummary, 0, len(byDay[month]))
		for _, daily := range byDay[month] {
			days = append(days, *daily)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
		summary.Days = days
		months = append(months, *summary)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months
}

// RankTopProducts aggregates quantity and revenue per product across the
// given sales, pricing each item with the same rule checkout uses, sorted
// descending by quantity and truncated to n.
func RankTopProducts(sales []models.Sale, n int) []ProductStat {
	byProduct := map[uuid.UUID]*ProductStat{}
	for _, sale := range sales {
		for _, item := range sale.Items {
			stat, ok := byProduct[item.ProductID]
			if !ok {
				stat = &ProductStat{ProductID: item.ProductID, Name: item.Name}
				byProduct[item.ProductID] = stat
			}
			stat.Quantity += item.Quantity
			revenue := billing.LineSubtotal(item.PackPrice, item.PackSize, item.Quantity, item.IsPartial)
			stat.Revenue = stat.Revenue.Add(revenue)
		}
	}

	stats := make([]ProductStat, 0, len(byProduct))
	for _, stat := range byProduct {
		stat.Revenue = stat.Revenue.Round(2)
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Quantity != stats[j].Quantity {
			return stats[i].Quantity > stats[j].Quantity
		}
		return stats[i].Name < stats[j].Name
	})
	if n >= 0 && n < len(stats) {
		stats = stats[:n]
	}
	return stats
}
