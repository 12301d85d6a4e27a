package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"boutique/internal/apperrors"
	"boutique/internal/models"
	"boutique/internal/normalize"
	"boutique/internal/repositories"
	"boutique/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) ListLowStock(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func mustNormalize(t *testing.T, raw normalize.Payload) normalize.ProductInput {
	t.Helper()
	in, err := normalize.Product(raw)
	require.NoError(t, err)
	return in
}

func validPayload() normalize.Payload {
	return normalize.Payload{
		"product_name":      "Kente Wrap Dress",
		"short_description": "Handwoven",
		"price_ghc":         "250",
		"sizes":             "S,M,L",
		"categories":        `["Dresses"]`,
		"sections":          `["New Arrivals","Top Deals"]`,
		"stock_quantity":    "4",
		"promo":             "true",
		"promo_price":       "199.99",
	}
}

func TestProductService_CreateThenGetReturnsNormalizedInput(t *testing.T) {
	ctx := context.Background()
	service := services.NewProductService(repositories.NewMemoryProductRepository(), nil)

	created, err := service.CreateProduct(ctx, mustNormalize(t, validPayload()))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := service.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, "Kente Wrap Dress", got.ProductName)
	assert.Equal(t, 250.0, got.PriceGHC)
	assert.Equal(t, []string{"S", "M", "L"}, got.Sizes)
	assert.Equal(t, models.InStock, got.StockStatus)
	assert.Equal(t, models.DefaultLowStockThreshold, got.LowStockThreshold)
	require.NotNil(t, got.PromoPrice)
	assert.Equal(t, 199.99, *got.PromoPrice)
	assert.Equal(t, []string{}, got.Colors)
}

func TestProductService_CreateRequiresFields(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	for _, field := range []string{"product_name", "short_description", "price_ghc"} {
		raw := validPayload()
		delete(raw, field)
		_, err := service.CreateProduct(context.Background(), mustNormalize(t, raw))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		assert.Equal(t, field, apperrors.FieldOf(err))
	}
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductService_CreateDefaultsToOutOfStock(t *testing.T) {
	service := services.NewProductService(repositories.NewMemoryProductRepository(), nil)
	raw := validPayload()
	delete(raw, "stock_quantity")

	p, err := service.CreateProduct(context.Background(), mustNormalize(t, raw))
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQuantity)
	assert.Equal(t, models.OutOfStock, p.StockStatus)
}

func TestProductService_CreateIgnoresStatusWithoutQuantity(t *testing.T) {
	service := services.NewProductService(repositories.NewMemoryProductRepository(), nil)
	raw := validPayload()
	delete(raw, "stock_quantity")
	raw["stock_status"] = "In Stock"

	p, err := service.CreateProduct(context.Background(), mustNormalize(t, raw))
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQuantity)
	assert.Equal(t, models.OutOfStock, p.StockStatus)
}

func TestProductService_CreateSurfacesRepositoryFailure(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Product")).
		Return(apperrors.Upstream("create product", errors.New("database error"))).Once()

	_, err := service.CreateProduct(context.Background(), mustNormalize(t, validPayload()))
	assert.True(t, apperrors.Is(err, apperrors.KindUpstream))
	mockRepo.AssertExpectations(t)
}

func TestProductService_StockStatusFollowsQuantity(t *testing.T) {
	ctx := context.Background()
	service := services.NewProductService(repositories.NewMemoryProductRepository(), nil)
	p, err := service.CreateProduct(ctx, mustNormalize(t, validPayload()))
	require.NoError(t, err)

	for _, tc := range []struct {
		qty    string
		status string
	}{
		{"0", models.OutOfStock},
		{"7", models.InStock},
		{"1", models.InStock},
	} {
		updated, err := service.UpdateProduct(ctx, p.ID, mustNormalize(t, normalize.Payload{
			"stock_quantity": tc.qty,
			"stock_status":   "In Stock",
		}))
		require.NoError(t, err)
		assert.Equal(t, tc.status, updated.StockStatus, "qty %s", tc.qty)
		assert.Equal(t, updated.StockQuantity > 0, updated.StockStatus == models.InStock)
	}
}

func TestProductService_EmptyUpdateChangesNothing(t *testing.T) {
	ctx := context.Background()
	service := services.NewProductService(repositories.NewMemoryProductRepository(), nil)
	p, err := service.CreateProduct(ctx, mustNormalize(t, validPayload()))
	require.NoError(t, err)

	updated, err := service.UpdateProduct(ctx, p.ID, mustNormalize(t, normalize.Payload{"id": "hijack"}))
	require.NoError(t, err)
	assert.Equal(t, p, updated)

	got, err := service.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestProductService_UpdateMergesSuppliedFieldsOnly(t *testing.T) {
	ctx := context.Background()
	service := services.NewProductService(repositories.NewMemoryProductRepository(), nil)
	p, err := service.CreateProduct(ctx, mustNormalize(t, validPayload()))
	require.NoError(t, err)

	updated, err := service.UpdateProduct(ctx, p.ID, mustNormalize(t, normalize.Payload{
		"long_description": "Now with pockets",
		"colors":           "gold,green",
	}))
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, "Now with pockets", updated.LongDescription)
	assert.Equal(t, []string{"gold", "green"}, updated.Colors)
	assert.Equal(t, p.ProductName, updated.ProductName)
	assert.Equal(t, p.Sizes, updated.Sizes)
	assert.Equal(t, p.PromoPrice, updated.PromoPrice)
}

func TestProductService_PromoFalseClearsPromoPrice(t *testing.T) {
	ctx := context.Background()
	service := services.NewProductService(repositories.NewMemoryProductRepository(), nil)
	p, err := service.CreateProduct(ctx, mustNormalize(t, validPayload()))
	require.NoError(t, err)
	require.NotNil(t, p.PromoPrice)

	updated, err := service.UpdateProduct(ctx, p.ID, mustNormalize(t, normalize.Payload{
		"promo":       "false",
		"promo_price": "150",
	}))
	require.NoError(t, err)
	assert.False(t, updated.Promo)
	assert.Nil(t, updated.PromoPrice)

	// A promo price without re-enabling promo is still dropped.
	updated, err = service.UpdateProduct(ctx, p.ID, mustNormalize(t, normalize.Payload{"promo_price": "120"}))
	require.NoError(t, err)
	assert.Nil(t, updated.PromoPrice)
}

func TestProductService_UpdateAndDeleteUnknownID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("GetByID", mock.Anything, "99").Return(nil, apperrors.NotFound("product", "99")).Once()
	_, err := service.UpdateProduct(context.Background(), "99", mustNormalize(t, validPayload()))
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	mockRepo.On("Delete", mock.Anything, "99").Return(apperrors.NotFound("product", "99")).Once()
	err = service.DeleteProduct(context.Background(), "99")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteThenGetIsNotFound(t *testing.T) {
	ctx := context.Background()
	service := services.NewProductService(repositories.NewMemoryProductRepository(), nil)
	p, err := service.CreateProduct(ctx, mustNormalize(t, validPayload()))
	require.NoError(t, err)

	require.NoError(t, service.DeleteProduct(ctx, p.ID))
	_, err = service.GetProduct(ctx, p.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestProductService_ListLowStock(t *testing.T) {
	ctx := context.Background()
	service := services.NewProductService(repositories.NewMemoryProductRepository(), nil)

	low := validPayload()
	low["product_name"] = "Low"
	low["stock_quantity"] = "3"
	low["low_stock_threshold"] = "5"
	plenty := validPayload()
	plenty["product_name"] = "Plenty"
	plenty["stock_quantity"] = "10"
	plenty["low_stock_threshold"] = "5"

	_, err := service.CreateProduct(ctx, mustNormalize(t, low))
	require.NoError(t, err)
	_, err = service.CreateProduct(ctx, mustNormalize(t, plenty))
	require.NoError(t, err)

	products, err := service.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Low", products[0].ProductName)
}

func TestProductService_ListFiltersBySectionAndCategory(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	expectedProducts := []models.Product{
		{ID: "1", ProductName: "A", Categories: []string{"Dresses"}, Sections: []string{models.SectionTopDeals}},
		{ID: "2", ProductName: "B", Categories: []string{"Shirts"}, Sections: []string{models.SectionNewArrivals}},
		{ID: "3", ProductName: "C", Categories: []string{"dresses"}, Sections: []string{models.SectionNewArrivals}},
	}
	mockRepo.On("List", mock.Anything).Return(expectedProducts, nil)

	all, err := service.ListProducts(context.Background(), services.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	newDresses, err := service.ListProducts(context.Background(), services.ProductFilter{
		Category: "Dresses",
		Section:  "new arrivals",
	})
	require.NoError(t, err)
	require.Len(t, newDresses, 1)
	assert.Equal(t, "3", newDresses[0].ID)
}

func TestProductService_SeedFromYAMLOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryProductRepository()
	service := services.NewProductService(repo, nil)

	seed := `
- product_name: Kente Wrap Dress
  short_description: Handwoven
  price_ghc: 250
  stock_quantity: 2
  sections: [New Arrivals]
- name: Ankara Shirt
  short_description: Cotton
  price: 120.5
`
	n, err := service.SeedFromYAML(ctx, strings.NewReader(seed))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	products, err := service.ListProducts(ctx, services.ProductFilter{Section: models.SectionNewArrivals})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, models.InStock, products[0].StockStatus)

	n, err = service.SeedFromYAML(ctx, strings.NewReader(seed))
	require.NoError(t, err)
	assert.Zero(t, n)
}
