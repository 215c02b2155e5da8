package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clinicware/medipos-backend/api/responses"
	"github.com/clinicware/medipos-backend/api/validators"
	"github.com/clinicware/medipos-backend/internal/inventory"
	"github.com/clinicware/medipos-backend/pkg/enums"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
	"github.com/clinicware/medipos-backend/pkg/logger"
)

type productRequest struct {
	Name     string  `json:"name" validate:"required"`
	Category string  `json:"category"`
	Barcode  *string `json:"barcode,omitempty"`
	Price    string  `json:"price" validate:"required"`
	PackSize int     `json:"pack_size" validate:"required,min=1"`
	UnitType string  `json:"unit_type"`
	Stock    int     `json:"stock" validate:"min=0"`
}

func (p productRequest) toCreateInput() (inventory.CreateProductInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(p.Price))
	if err != nil {
		return inventory.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}

	category, err := enums.ParseProductCategory(strings.TrimSpace(p.Category))
	if err != nil {
		category = enums.ProductCategoryOther
	}

	return inventory.CreateProductInput{
		Name:     validators.SanitizeString(p.Name, 200),
		Category: category,
		Barcode:  p.Barcode,
		Price:    price,
		PackSize: p.PackSize,
		UnitType: validators.SanitizeString(p.UnitType, 50),
		Stock:    p.Stock,
	}, nil
}

type productUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	Barcode  *string `json:"barcode,omitempty"`
	Price    *string `json:"price,omitempty"`
	PackSize *int    `json:"pack_size,omitempty" validate:"omitempty,min=1"`
	UnitType *string `json:"unit_type,omitempty"`
	Stock    *int    `json:"stock,omitempty" validate:"omitempty,min=0"`
}

func (p productUpdateRequest) toUpdateInput() (inventory.UpdateProductInput, error) {
	input := inventory.UpdateProductInput{
		Barcode:  p.Barcode,
		PackSize: p.PackSize,
		Stock:    p.Stock,
	}

	if p.Name != nil {
		name := validators.SanitizeString(*p.Name, 200)
		input.Name = &name
	}
	if p.UnitType != nil {
		unit := validators.SanitizeString(*p.UnitType, 50)
		input.UnitType = &unit
	}
	if p.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*p.Price))
		if err != nil {
			return inventory.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		input.Price = &price
	}
	if p.Category != nil {
		category, err := enums.ParseProductCategory(strings.TrimSpace(*p.Category))
		if err != nil {
			return inventory.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		input.Category = &category
	}

	return input, nil
}

// ProductCreate adds a catalog entry under the caller's tenant.
func ProductCreate(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body productRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), tenantID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func ProductUpdate(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body productUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), tenantID, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func ProductDelete(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), tenantID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ProductGet(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), tenantID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// ProductList returns the tenant catalog, optionally filtered by ?category=.
// A ?q= term switches to ranked search.
func ProductList(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if term := strings.TrimSpace(r.URL.Query().Get("q")); term != "" {
			rows, err := svc.Search(r.Context(), tenantID, term)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, rows)
			return
		}

		var category *enums.ProductCategory
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			parsed, err := enums.ParseProductCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			category = &parsed
		}

		rows, err := svc.ListProducts(r.Context(), tenantID, category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

func ProductCategories(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.Categories())
	}
}

// ProductPartialSales lists the loose-unit sales recorded against a
// product's open pack, newest first.
func ProductPartialSales(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.PartialSales(r.Context(), tenantID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

type bulkImportRequest struct {
	Rows []bulkImportRow `json:"rows" validate:"required,min=1,max=500"`
}

type bulkImportRow struct {
	Name         string `json:"name"`
	Price        string `json:"price"`
	Quantity     string `json:"quantity"`
	UnitsPerPack string `json:"units_per_pack"`
	UnitType     string `json:"unit_type"`
	Category     string `json:"category"`
}

// ProductBulkImport ingests a batch of raw rows; bad rows are reported but do
// not abort the batch.
func ProductBulkImport(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body bulkImportRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows := make([]inventory.ImportRow, 0, len(body.Rows))
		for _, row := range body.Rows {
			rows = append(rows, inventory.ImportRow{
				Name:         row.Name,
				Price:        row.Price,
				Quantity:     row.Quantity,
				UnitsPerPack: row.UnitsPerPack,
				UnitType:     row.UnitType,
				Category:     row.Category,
			})
		}

		result, rowErrs := svc.BulkImport(r.Context(), tenantID, rows)

		payload := map[string]any{
			"created": result.Created,
			"skipped": result.Skipped,
			"failed":  result.Failed,
		}
		if rowErrs != nil {
			payload["errors"] = strings.Split(rowErrs.Error(), "; ")
		}

		responses.WriteSuccess(w, payload)
	}
}

// ProductExportCSV streams the tenant catalog as a CSV download.
func ProductExportCSV(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListProducts(r.Context(), tenantID, nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=products-%s.csv", time.Now().UTC().Format("20060102")))

		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"Name", "Category", "Price", "Pack Size", "Unit Type", "Stock", "Remaining Units"})
		for _, p := range rows {
			_ = cw.Write([]string{
				p.Name,
				string(p.Category),
				p.Price.StringFixed(2),
				fmt.Sprintf("%d", p.PackSize),
				p.UnitType,
				fmt.Sprintf("%d", p.Stock),
				fmt.Sprintf("%d", p.RemainingUnits),
			})
		}
		cw.Flush()
	}
}
