package repositories

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"boutique/internal/models"

	"github.com/natefinch/atomic"
)

const (
	productsFile = "products.json"
	ordersFile   = "orders.json"
	accountsFile = "accounts.json"
)

// FileStore keeps each entity kind as a single JSON array document under dir.
// Every mutation rewrites the whole document with an atomic file replace, so a
// crash never leaves a partially written file behind.
type FileStore struct {
	Products *MemoryProductRepository
	Orders   *MemoryOrderRepository
	Accounts *MemoryAccountRepository
}

// accountRecord is the on-disk form of an account; unlike the API form it
// keeps the password hash.
type accountRecord struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"password_hash"`
	Phone        string          `json:"phone"`
	Address      *models.Address `json:"address,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// OpenFileStore loads (or initialises) the JSON documents in dir.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: create %s: %w", dir, err)
	}

	products := NewMemoryProductRepository()
	var storedProducts []models.Product
	if err := readDocument(filepath.Join(dir, productsFile), &storedProducts); err != nil {
		return nil, err
	}
	products.products.load(storedProducts)
	products.products.persist = func(all []models.Product) error {
		return writeDocument(filepath.Join(dir, productsFile), all)
	}

	orders := NewMemoryOrderRepository()
	var storedOrders []models.Order
	if err := readDocument(filepath.Join(dir, ordersFile), &storedOrders); err != nil {
		return nil, err
	}
	orders.orders.load(storedOrders)
	orders.orders.persist = func(all []models.Order) error {
		return writeDocument(filepath.Join(dir, ordersFile), all)
	}

	accounts := NewMemoryAccountRepository()
	var storedAccounts []accountRecord
	if err := readDocument(filepath.Join(dir, accountsFile), &storedAccounts); err != nil {
		return nil, err
	}
	loaded := make([]models.Account, len(storedAccounts))
	for i, rec := range storedAccounts {
		loaded[i] = models.Account(rec)
	}
	accounts.accounts.load(loaded)
	accounts.accounts.persist = func(all []models.Account) error {
		recs := make([]accountRecord, len(all))
		for i, a := range all {
			recs[i] = accountRecord(a)
		}
		return writeDocument(filepath.Join(dir, accountsFile), recs)
	}

	return &FileStore{Products: products, Orders: orders, Accounts: accounts}, nil
}

func readDocument(path string, dst any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("file store: read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("file store: decode %s: %w", path, err)
	}
	return nil
}

func writeDocument[T any](path string, all []T) error {
	if all == nil {
		all = []T{}
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("file store: encode %s: %w", path, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("file store: write %s: %w", path, err)
	}
	return nil
}
