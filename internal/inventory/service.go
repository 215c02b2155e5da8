package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clinicware/medipos-backend/pkg/db/models"
	"github.com/clinicware/medipos-backend/pkg/enums"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
	"github.com/clinicware/medipos-backend/pkg/logger"
)

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name     string
	Category enums.ProductCategory
	Barcode  *string
	Price    decimal.Decimal
	PackSize int
	UnitType string
	Stock    int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name     *string
	Category *enums.ProductCategory
	Barcode  *string
	Price    *decimal.Decimal
	PackSize *int
	UnitType *string
	Stock    *int
}

// Service exposes tenant catalog management: CRUD, search, stock movement and
// bulk import.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService constructs an inventory service instance.
func NewService(repo *Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

func validateProductFields(name string, price decimal.Decimal, packSize, stock int) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if packSize < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "pack size must be at least 1")
	}
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}
	return nil
}

// CreateProduct validates and inserts a catalog entry for the tenant.
func (s *Service) CreateProduct(ctx context.Context, tenantID uuid.UUID, input CreateProductInput) (*models.Product, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	if err := validateProductFields(input.Name, input.Price, input.PackSize, input.Stock); err != nil {
		return nil, err
	}
	category := input.Category
	if !category.IsValid() {
		category = enums.ProductCategoryOther
	}

	product := &models.Product{
		TenantID: tenantID,
		Name:     strings.TrimSpace(input.Name),
		Category: category,
		Barcode:  input.Barcode,
		Price:    input.Price,
		PackSize: input.PackSize,
		UnitType: input.UnitType,
		Stock:    input.Stock,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return product, nil
}

// UpdateProduct applies the provided fields to the tenant's product.
func (s *Service) UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.GetProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Category != nil && input.Category.IsValid() {
		product.Category = *input.Category
	}
	if input.Barcode != nil {
		product.Barcode = input.Barcode
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.PackSize != nil {
		product.PackSize = *input.PackSize
	}
	if input.UnitType != nil {
		product.UnitType = *input.UnitType
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if err := validateProductFields(product.Name, product.Price, product.PackSize, product.Stock); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}
	return product, nil
}

// DeleteProduct removes the tenant's product.
func (s *Service) DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, tenantID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID.String()})
	}
	return nil
}

// GetProduct loads one tenant product.
func (s *Service) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
				WithDetails(map[string]any{"product_id": productID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return product, nil
}

// ListProducts returns the tenant catalog, optionally filtered to a category.
func (s *Service) ListProducts(ctx context.Context, tenantID uuid.UUID, category *enums.ProductCategory) ([]models.Product, error) {
	rows, err := s.repo.ListByTenant(ctx, tenantID, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	return rows, nil
}

// Categories lists the selectable product categories.
func (s *Service) Categories() []enums.ProductCategory {
	return enums.ProductCategories()
}

// Search finds products whose name or category contains the term,
// case-insensitive, ranked exact match first, then prefix matches, then
// substring matches, alphabetical within each rank.
func (s *Service) Search(ctx context.Context, tenantID uuid.UUID, term string) ([]models.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.ListProducts(ctx, tenantID, nil)
	}
	rows, err := s.repo.SearchCandidates(ctx, tenantID, term)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "searching products")
	}
	rankSearchResults(rows, term)
	return rows, nil
}

func rankSearchResults(rows []models.Product, term string) {
	needle := strings.ToLower(term)
	rank := func(p models.Product) int {
		name := strings.ToLower(p.Name)
		switch {
		case name == needle:
			return 0
		case strings.HasPrefix(name, needle):
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rank(rows[i]), rank(rows[j])
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
}

// DecrementStock removes whole packs from stock; it fails when the product is
// missing or the requested amount exceeds what is on hand.
func (s *Service) DecrementStock(ctx context.Context, tenantID, productID uuid.UUID, amount int) error {
	if amount < 1 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "amount must be at least 1")
	}
	affected, err := s.repo.DecrementStock(ctx, tenantID, productID, amount)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrementing stock")
	}
	if affected == 0 {
		product, lookupErr := s.repo.FindByID(ctx, tenantID, productID)
		if lookupErr != nil {
			return pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
				WithDetails(map[string]any{"product_id": productID.String()})
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock for product").
			WithDetails(map[string]any{
				"product_id": productID.String(),
				"requested":  amount,
				"available":  product.Stock,
			})
	}
	return nil
}

// AppendPartialSale records loose units sold out of a product's open pack.
func (s *Service) AppendPartialSale(ctx context.Context, tenantID, productID, saleID uuid.UUID, qty int) error {
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be at least 1")
	}
	if _, err := s.GetProduct(ctx, tenantID, productID); err != nil {
		return err
	}
	record := &models.PartialSale{
		ProductID: productID,
		SaleID:    saleID,
		SoldQty:   qty,
	}
	if err := s.repo.AppendPartialSale(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending partial sale")
	}
	return nil
}

// PartialSales returns a product's open-pack sale history, newest first.
func (s *Service) PartialSales(ctx context.Context, tenantID, productID uuid.UUID) ([]models.PartialSale, error) {
	if _, err := s.GetProduct(ctx, tenantID, productID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListPartialSales(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing partial sales")
	}
	return rows, nil
}
