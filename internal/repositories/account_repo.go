package repositories

import (
	"context"

	"boutique/internal/models"
)

// AccountRepository defines the interface for customer account data access.
type AccountRepository interface {
	// Create stores a new account. A duplicate email yields a Conflict error.
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
}
