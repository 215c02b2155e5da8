package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/clinicware/medipos-backend/pkg/enums"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
)

// ImportRow is one raw line from a bulk-add form or spreadsheet. All fields
// arrive as text; parsing and validation happen per row.
type ImportRow struct {
	Name         string
	Price        string
	Quantity     string
	UnitsPerPack string
	UnitType     string
	Category     string
}

// ImportResult summarizes a bulk import run.
type ImportResult struct {
	Created int
	Skipped int
	Failed  int
}

func (r ImportRow) isBlank() bool {
	return strings.TrimSpace(r.Name) == "" &&
		strings.TrimSpace(r.Price) == "" &&
		strings.TrimSpace(r.Quantity) == ""
}

// BulkImport creates products from form rows. Blank rows are skipped; rows
// that fail to parse or validate are counted and their errors accumulated,
// while valid rows are still created. The combined row errors come back as
// the second error-typed return so the caller can show them all at once.
func (s *Service) BulkImport(ctx context.Context, tenantID uuid.UUID, rows []ImportRow) (ImportResult, error) {
	if tenantID == uuid.Nil {
		return ImportResult{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}

	var result ImportResult
	var errs []error
	for i, row := range rows {
		if row.isBlank() {
			result.Skipped++
			continue
		}
		input, err := parseImportRow(row)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		if _, err := s.CreateProduct(ctx, tenantID, input); err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		result.Created++
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"created": result.Created,
			"skipped": result.Skipped,
			"failed":  result.Failed,
		})
		s.logg.Info(logCtx, "bulk import finished")
	}
	return result, multierr.Combine(errs...)
}

func parseImportRow(row ImportRow) (CreateProductInput, error) {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		return CreateProductInput{}, fmt.Errorf("name is required")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(row.Price))
	if err != nil {
		return CreateProductInput{}, fmt.Errorf("invalid price %q", row.Price)
	}
	if price.IsNegative() {
		return CreateProductInput{}, fmt.Errorf("price %q must not be negative", row.Price)
	}

	stock, err := parsePositiveInt(row.Quantity, 0)
	if err != nil {
		return CreateProductInput{}, fmt.Errorf("invalid quantity %q", row.Quantity)
	}

	packSize, err := parsePositiveInt(row.UnitsPerPack, 1)
	if err != nil || packSize < 1 {
		return CreateProductInput{}, fmt.Errorf("invalid units per pack %q", row.UnitsPerPack)
	}

	category := enums.ProductCategoryOther
	if trimmed := strings.TrimSpace(row.Category); trimmed != "" {
		parsed, err := enums.ParseProductCategory(trimmed)
		if err != nil {
			return CreateProductInput{}, fmt.Errorf("unknown category %q", row.Category)
		}
		category = parsed
	}

	return CreateProductInput{
		Name:     name,
		Category: category,
		Price:    price,
		PackSize: packSize,
		UnitType: strings.TrimSpace(row.UnitType),
		Stock:    stock,
	}, nil
}

func parsePositiveInt(value string, fallback int) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("value %d must not be negative", n)
	}
	return n, nil
}
