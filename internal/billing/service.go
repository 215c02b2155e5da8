package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clinicware/medipos-backend/pkg/db/models"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
	"github.com/clinicware/medipos-backend/pkg/logger"
	"github.com/clinicware/medipos-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type salesRecorder interface {
	IncCommitted(tenant string, amount float64)
	IncFailed(tenant, code string)
}

// CustomerInput carries the buyer details recorded alongside a sale.
type CustomerInput struct {
	Name    string
	Phone   string
	Address string
}

// CheckoutInput captures optional data attached to a checkout.
type CheckoutInput struct {
	Customer *CustomerInput
	// Profit is supplied by the caller when known; it is never derived here.
	Profit *decimal.Decimal
	Actor  *outbox.ActorRef
}

// Service executes checkout orchestration: validate the cart against live
// inventory, then commit sale, stock movements, monthly aggregate and outbox
// event as one transaction.
type Service struct {
	tx      txRunner
	repo    *Repository
	outbox  outboxEmitter
	metrics salesRecorder
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the checkout service. Metrics are optional.
func NewService(tx txRunner, repo *Repository, publisher outboxEmitter, metrics salesRecorder, logg *logger.Logger) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{
		tx:      tx,
		repo:    repo,
		outbox:  publisher,
		metrics: metrics,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// SaleCreatedEvent is the outbox payload queued for every committed sale.
type SaleCreatedEvent struct {
	SaleID        uuid.UUID       `json:"saleId"`
	TenantID      uuid.UUID       `json:"tenantId"`
	InvoiceNumber string          `json:"invoiceNumber"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	ItemCount     int             `json:"itemCount"`
}

// Checkout validates and atomically commits the cart as a completed sale.
// Validation failures surface before any write; commit failures roll the
// whole transaction back and leave the cart untouched so the caller can
// retry. On success the cart is cleared and the created sale returned.
func (s *Service) Checkout(ctx context.Context, tenantID uuid.UUID, cart *Cart, input CheckoutInput) (*models.Sale, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	if cart == nil || cart.Len() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart contains no items")
	}

	lines := cart.Lines()
	now := s.now()

	var sale *models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		products, err := s.validateLines(ctx, repo, tenantID, lines)
		if err != nil {
			return err
		}

		var customerID *uuid.UUID
		if input.Customer != nil {
			customer := &models.Customer{
				TenantID: tenantID,
				Name:     input.Customer.Name,
				Phone:    input.Customer.Phone,
				Address:  input.Customer.Address,
			}
			if err := repo.CreateCustomer(ctx, customer); err != nil {
				return err
			}
			customerID = &customer.ID
		}

		sale = buildSale(tenantID, lines, customerID, input.Profit, now)
		if err := repo.CreateSale(ctx, sale); err != nil {
			return err
		}

		if err := s.consumeInventory(ctx, repo, lines, products, sale.ID, now); err != nil {
			return err
		}

		delta := AggregateDelta{
			TotalSales:     sale.TotalAmount,
			TotalProfit:    input.Profit,
			TabletTotal:    sale.TabletTotal,
			SyrupTotal:     sale.SyrupTotal,
			InjectionTotal: sale.InjectionTotal,
		}
		if err := repo.UpsertMonthlyIncrement(ctx, tenantID, models.MonthKey(now), delta); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     outbox.EventTypeSaleCreated,
			AggregateType: outbox.AggregateTypeSale,
			AggregateID:   sale.ID,
			Actor:         input.Actor,
			Data: SaleCreatedEvent{
				SaleID:        sale.ID,
				TenantID:      tenantID,
				InvoiceNumber: sale.InvoiceNumber,
				TotalAmount:   sale.TotalAmount,
				ItemCount:     len(sale.Items),
			},
			Version: 1,
		})
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncFailed(tenantID.String(), string(errorCode(err)))
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, err, "checkout could not be committed")
	}

	cart.Clear()
	if s.metrics != nil {
		amount, _ := sale.TotalAmount.Round(2).Float64()
		s.metrics.IncCommitted(tenantID.String(), amount)
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"sale_id": sale.ID.String(),
			"invoice": sale.InvoiceNumber,
			"total":   sale.TotalAmount.Round(2).String(),
		})
		s.logg.Info(logCtx, "checkout committed")
	}
	return sale, nil
}

// validateLines re-reads every referenced product at commit time, under row
// locks, so stale cart snapshots cannot oversell under concurrent checkouts.
func (s *Service) validateLines(ctx context.Context, repo *Repository, tenantID uuid.UUID, lines []CartLine) (map[uuid.UUID]*models.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := repo.FindProductsForUpdate(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	for i, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "cart references a product that no longer exists").
				WithDetails(map[string]any{"line": i, "product_id": line.ProductID.String(), "name": line.Name})
		}
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "line quantity must be at least 1").
				WithDetails(map[string]any{"line": i, "product_id": line.ProductID.String()})
		}
		if !line.IsPartial && line.Quantity > product.Stock {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock for product").
				WithDetails(map[string]any{
					"line":       i,
					"product_id": line.ProductID.String(),
					"name":       product.Name,
					"requested":  line.Quantity,
					"available":  product.Stock,
				})
		}
	}
	return products, nil
}

// consumeInventory applies stock movements: whole-pack lines decrement stock
// clamped at 0, partial lines append a partial-sale record and carry the
// remaining-units balance across pack boundaries.
func (s *Service) consumeInventory(ctx context.Context, repo *Repository, lines []CartLine, products map[uuid.UUID]*models.Product, saleID uuid.UUID, at time.Time) error {
	for _, line := range lines {
		product := products[line.ProductID]
		if line.IsPartial {
			record := &models.PartialSale{
				ProductID: product.ID,
				SaleID:    saleID,
				SoldQty:   line.Quantity,
				SoldAt:    at,
			}
			if err := repo.AppendPartialSale(ctx, record); err != nil {
				return err
			}
			product.Stock, product.RemainingUnits = ApplyPartialConsumption(
				product.Stock, product.RemainingUnits, product.PackSize, line.Quantity)
		} else {
			product.Stock -= line.Quantity
			if product.Stock < 0 {
				product.Stock = 0
			}
		}
		if err := repo.UpdateProductBalances(ctx, product); err != nil {
			return err
		}
	}
	return nil
}

func buildSale(tenantID uuid.UUID, lines []CartLine, customerID *uuid.UUID, profit *decimal.Decimal, at time.Time) *models.Sale {
	total := decimal.Zero
	tablet := decimal.Zero
	syrup := decimal.Zero
	injection := decimal.Zero
	items := make([]models.SaleItem, 0, len(lines))

	for _, line := range lines {
		subtotal := line.Subtotal()
		total = total.Add(subtotal)
		switch BucketForCategory(line.Category) {
		case BucketTablet:
			tablet = tablet.Add(subtotal)
		case BucketSyrup:
			syrup = syrup.Add(subtotal)
		case BucketInjection:
			injection = injection.Add(subtotal)
		}
		items = append(items, models.SaleItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Category:  line.Category,
			PackPrice: line.PackPrice,
			UnitPrice: UnitPrice(line.PackPrice, line.PackSizeAtAdd),
			Quantity:  line.Quantity,
			IsPartial: line.IsPartial,
			PackSize:  line.PackSizeAtAdd,
			UnitType:  line.UnitTypeAtAdd,
			Subtotal:  subtotal.Round(2),
		})
	}

	return &models.Sale{
		TenantID:       tenantID,
		InvoiceNumber:  NewInvoiceNumber(at),
		TotalAmount:    total.Round(2),
		TabletTotal:    tablet.Round(2),
		SyrupTotal:     syrup.Round(2),
		InjectionTotal: injection.Round(2),
		Profit:         profit,
		CustomerID:     customerID,
		Items:          items,
		CreatedAt:      at,
	}
}

// GetSale loads one committed sale with its item snapshots, tenant-scoped.
func (s *Service) GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*models.Sale, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	sale, err := s.repo.FindSaleByID(ctx, tenantID, saleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sale")
	}
	return sale, nil
}

// ListSales returns the tenant's sales in [from, to), newest first. Zero
// bounds are open-ended.
func (s *Service) ListSales(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.Sale, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	sales, err := s.repo.QuerySales(ctx, tenantID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "querying sales")
	}
	return sales, nil
}

func errorCode(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return pkgerrors.CodeCheckoutFailed
}
