package repositories

import (
	"context"
	"sort"
	"strings"
	"time"

	"boutique/internal/apperrors"
	"boutique/internal/models"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products *collection[models.Product]
	now      func() time.Time
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: newCollection(func(p *models.Product) string { return p.ID }, models.Product.Clone),
		now:      time.Now,
	}
}

// List returns all products in creation order.
func (r *MemoryProductRepository) List(_ context.Context) ([]models.Product, error) {
	return r.products.all(), nil
}

// ListLowStock returns products at or below their low stock threshold.
func (r *MemoryProductRepository) ListLowStock(_ context.Context) ([]models.Product, error) {
	all := r.products.all()
	out := make([]models.Product, 0, len(all))
	for _, p := range all {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	p, ok := r.products.get(id)
	if !ok {
		return nil, errProductNotFound(id)
	}
	return &p, nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := r.now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	if err := r.products.insert(*product, nil); err != nil {
		return apperrors.Upstream("create product", err)
	}
	return nil
}

// Update replaces an existing product.
func (r *MemoryProductRepository) Update(_ context.Context, product *models.Product) error {
	product.UpdatedAt = r.now().UTC()
	updated, ok, err := r.products.modify(product.ID, func(stored *models.Product) {
		createdAt := stored.CreatedAt
		*stored = product.Clone()
		stored.CreatedAt = createdAt
	})
	if !ok {
		return errProductNotFound(product.ID)
	}
	if err != nil {
		return apperrors.Upstream("update product", err)
	}
	*product = updated
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id string) error {
	ok, err := r.products.remove(id)
	if !ok {
		return errProductNotFound(id)
	}
	if err != nil {
		return apperrors.Upstream("delete product", err)
	}
	return nil
}

// Count returns the number of stored products.
func (r *MemoryProductRepository) Count(_ context.Context) (int64, error) {
	return int64(r.products.size()), nil
}

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
type MemoryOrderRepository struct {
	orders *collection[models.Order]
	now    func() time.Time
}

// NewMemoryOrderRepository creates a new instance of MemoryOrderRepository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: newCollection(func(o *models.Order) string { return o.ID }, models.Order.Clone),
		now:    time.Now,
	}
}

// List returns all orders, newest first.
func (r *MemoryOrderRepository) List(_ context.Context) ([]models.Order, error) {
	orders := r.orders.all()
	for i, j := 0, len(orders)-1; i < j; i, j = i+1, j-1 {
		orders[i], orders[j] = orders[j], orders[i]
	}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

// GetByID returns an order by its ID.
func (r *MemoryOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	o, ok := r.orders.get(id)
	if !ok {
		return nil, errOrderNotFound(id)
	}
	return &o, nil
}

// Create adds a new order.
func (r *MemoryOrderRepository) Create(_ context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := r.now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if err := r.orders.insert(*order, nil); err != nil {
		return apperrors.Upstream("create order", err)
	}
	return nil
}

// UpdateStatus updates the status of an order.
func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, id, status string) (*models.Order, error) {
	now := r.now().UTC()
	updated, ok, err := r.orders.modify(id, func(o *models.Order) {
		o.Status = status
		o.UpdatedAt = now
	})
	if !ok {
		return nil, errOrderNotFound(id)
	}
	if err != nil {
		return nil, apperrors.Upstream("update order status", err)
	}
	return &updated, nil
}

// MemoryAccountRepository is an in-memory implementation of AccountRepository.
type MemoryAccountRepository struct {
	accounts *collection[models.Account]
	now      func() time.Time
}

// NewMemoryAccountRepository creates a new instance of MemoryAccountRepository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: newCollection(func(a *models.Account) string { return a.ID }, models.Account.Clone),
		now:      time.Now,
	}
}

// Create adds a new account, rejecting duplicate emails.
func (r *MemoryAccountRepository) Create(_ context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := r.now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	err := r.accounts.insert(*account, func(existing models.Account) error {
		if strings.EqualFold(existing.Email, account.Email) {
			return errEmailTaken()
		}
		return nil
	})
	if err != nil {
		if apperrors.Is(err, apperrors.KindConflict) {
			return err
		}
		return apperrors.Upstream("create account", err)
	}
	return nil
}

// GetByID returns an account by its ID.
func (r *MemoryAccountRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	a, ok := r.accounts.get(id)
	if !ok {
		return nil, errAccountNotFound(id)
	}
	return &a, nil
}

// GetByEmail returns the account registered with email.
func (r *MemoryAccountRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	for _, a := range r.accounts.all() {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, errAccountNotFound(email)
}

// Update replaces an existing account.
func (r *MemoryAccountRepository) Update(_ context.Context, account *models.Account) error {
	account.UpdatedAt = r.now().UTC()
	updated, ok, err := r.accounts.modify(account.ID, func(stored *models.Account) {
		createdAt := stored.CreatedAt
		*stored = account.Clone()
		stored.CreatedAt = createdAt
	})
	if !ok {
		return errAccountNotFound(account.ID)
	}
	if err != nil {
		return apperrors.Upstream("update account", err)
	}
	*account = updated
	return nil
}
