package repositories

import (
	"context"
	"time"

	"boutique/internal/apperrors"
)

const opTimeout = 5 * time.Second

// withTimeout bounds a single storage operation.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

func errProductNotFound(id string) error { return apperrors.NotFound("product", id) }
func errOrderNotFound(id string) error   { return apperrors.NotFound("order", id) }
func errAccountNotFound(id string) error { return apperrors.NotFound("account", id) }

func errEmailTaken() error {
	return apperrors.Conflict("email", "email already registered")
}
