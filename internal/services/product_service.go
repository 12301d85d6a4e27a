package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"boutique/internal/apperrors"
	"boutique/internal/models"
	"boutique/internal/normalize"
	"boutique/internal/repositories"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ProductFilter narrows a product listing. Empty fields match everything.
type ProductFilter struct {
	Category string
	Section  string
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	logger *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		repo:   repo,
		logger: logger,
	}
}

// ListProducts returns the catalog in creation order, optionally filtered by
// category and storefront section.
func (s *ProductService) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(filter.Category)
	section := strings.TrimSpace(filter.Section)
	if category == "" && section == "" {
		return products, nil
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if category != "" && !p.HasCategory(category) {
			continue
		}
		if section != "" && !p.HasSection(section) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ListLowStock returns products whose stock_quantity <= low_stock_threshold.
func (s *ProductService) ListLowStock(ctx context.Context) ([]models.Product, error) {
	return s.repo.ListLowStock(ctx)
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct validates required fields, applies defaults and stores a new product.
func (s *ProductService) CreateProduct(ctx context.Context, in normalize.ProductInput) (*models.Product, error) {
	switch {
	case in.ProductName == nil:
		return nil, apperrors.Missing("product_name")
	case in.ShortDescription == nil:
		return nil, apperrors.Missing("short_description")
	case in.PriceGHC == nil:
		return nil, apperrors.Missing("price_ghc")
	}

	product := &models.Product{
		LowStockThreshold: models.DefaultLowStockThreshold,
		OtherImages:       []string{},
		Sizes:             []string{},
		Colors:            []string{},
		Categories:        []string{},
		Sections:          []string{},
	}
	applyProductInput(product, in)
	product.StockStatus = models.StatusForQuantity(product.StockQuantity)

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("product created", zap.String("product_id", product.ID))
	return product, nil
}

// UpdateProduct merges the supplied fields into the stored product. The ID is
// never overwritten and the stock and promo invariants are re-applied to the
// merged result.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in normalize.ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Empty() {
		return product, nil
	}

	applyProductInput(product, in)
	product.ID = id
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("product updated", zap.String("product_id", id))
	return product, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

// SeedFromYAML creates the products listed in a YAML document, but only when
// the catalog is empty. Entries use the same field names as the JSON API.
func (s *ProductService) SeedFromYAML(ctx context.Context, r io.Reader) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	var entries []map[string]any
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil && err != io.EOF {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}

	created := 0
	for i, entry := range entries {
		in, err := normalize.Product(normalize.Payload(entry))
		if err != nil {
			return created, fmt.Errorf("seed entry %d: %w", i, err)
		}
		if _, err := s.CreateProduct(ctx, in); err != nil {
			return created, fmt.Errorf("seed entry %d: %w", i, err)
		}
		created++
	}
	return created, nil
}

func applyProductInput(p *models.Product, in normalize.ProductInput) {
	setString(&p.ProductName, in.ProductName)
	setString(&p.ShortDescription, in.ShortDescription)
	setString(&p.LongDescription, in.LongDescription)
	setString(&p.FabricType, in.FabricType)
	setString(&p.CoverImage, in.CoverImage)
	setString(&p.Video, in.Video)
	setStrings(&p.OtherImages, in.OtherImages)
	setStrings(&p.Sizes, in.Sizes)
	setStrings(&p.Colors, in.Colors)
	setStrings(&p.Categories, in.Categories)
	setStrings(&p.Sections, in.Sections)

	if in.PriceGHC != nil {
		p.PriceGHC = *in.PriceGHC
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.Promo != nil {
		p.Promo = *in.Promo
	}
	if in.PromoPrice != nil {
		v := *in.PromoPrice
		p.PromoPrice = &v
	}
	if !p.Promo {
		p.PromoPrice = nil
	}

	switch {
	case in.StockQuantity != nil:
		p.StockQuantity = *in.StockQuantity
		p.StockStatus = models.StatusForQuantity(p.StockQuantity)
	case in.StockStatus != nil:
		p.StockStatus = *in.StockStatus
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setStrings(dst *[]string, v *[]string) {
	if v != nil {
		*dst = append([]string{}, (*v)...)
	}
}
