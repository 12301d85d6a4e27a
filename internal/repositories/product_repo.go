package repositories

import (
	"context"

	"boutique/internal/models"
)

// ProductRepository defines the interface for product data access.
// Not found lookups return an apperrors NotFound error; storage failures
// are wrapped as Upstream.
type ProductRepository interface {
	// List returns every product ordered by creation time, oldest first.
	List(ctx context.Context) ([]models.Product, error)
	// ListLowStock returns products whose stock_quantity <= low_stock_threshold.
	ListLowStock(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// Create assigns an ID and timestamps, then stores product.
	Create(ctx context.Context, product *models.Product) error
	// Update replaces the stored product with the same ID.
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
