package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicware/medipos-backend/api/middleware"
	"github.com/clinicware/medipos-backend/api/responses"
	"github.com/clinicware/medipos-backend/api/validators"
	"github.com/clinicware/medipos-backend/internal/billing"
	"github.com/clinicware/medipos-backend/internal/inventory"
	"github.com/clinicware/medipos-backend/pkg/db/models"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
	"github.com/clinicware/medipos-backend/pkg/logger"
	"github.com/clinicware/medipos-backend/pkg/outbox"
)

type checkoutRequest struct {
	Items    []checkoutItemRequest    `json:"items" validate:"required,min=1,dive"`
	Customer *checkoutCustomerRequest `json:"customer,omitempty"`
	Profit   *string                  `json:"profit,omitempty"`
}

type checkoutItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	IsPartial bool      `json:"is_partial"`
}

type checkoutCustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type checkoutResponse struct {
	SaleID        uuid.UUID       `json:"sale_id"`
	InvoiceNumber string          `json:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Items         []saleItemView  `json:"items"`
}

type saleItemView struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
	IsPartial bool            `json:"is_partial"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func newCheckoutResponse(sale *models.Sale) checkoutResponse {
	if sale == nil {
		return checkoutResponse{}
	}
	items := make([]saleItemView, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, saleItemView{
			ProductID: item.ProductID,
			Name:      item.Name,
			Category:  item.Category,
			Quantity:  item.Quantity,
			IsPartial: item.IsPartial,
			Subtotal:  item.Subtotal,
		})
	}
	return checkoutResponse{
		SaleID:        sale.ID,
		InvoiceNumber: sale.InvoiceNumber,
		TotalAmount:   sale.TotalAmount,
		Items:         items,
	}
}

// Checkout assembles a cart from the submitted lines and commits it as one
// reconciled transaction: sale, stock movements, monthly aggregate and outbox
// event all succeed or none do.
func Checkout(svc *billing.Service, catalog *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart := billing.NewCart()
		for _, item := range body.Items {
			product, err := catalog.GetProduct(r.Context(), tenantID, item.ProductID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if err := cart.AddItem(product, item.Quantity, item.IsPartial); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		input := billing.CheckoutInput{
			Actor: &outbox.ActorRef{
				UserID:   userID,
				TenantID: tenantID,
				Role:     middleware.RoleFromContext(r.Context()),
			},
		}

		if body.Customer != nil {
			input.Customer = &billing.CustomerInput{
				Name:    validators.SanitizeString(body.Customer.Name, 200),
				Phone:   validators.SanitizeString(body.Customer.Phone, 50),
				Address: validators.SanitizeString(body.Customer.Address, 500),
			}
		}

		if body.Profit != nil {
			profit, err := decimal.NewFromString(strings.TrimSpace(*body.Profit))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid profit"))
				return
			}
			input.Profit = &profit
		}

		sale, err := svc.Checkout(r.Context(), tenantID, cart, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(sale))
	}
}

// SaleList returns the tenant's sales, optionally bounded by ?from= and ?to=
// dates.
func SaleList(svc *billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, to, err := reportRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sales, err := svc.ListSales(r.Context(), tenantID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sales)
	}
}

func SaleGet(svc *billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		saleID, err := pathUUID(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.GetSale(r.Context(), tenantID, saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sale)
	}
}
