package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"boutique/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectTimeout = 10 * time.Second

// Backend names reported by Store.Backend.
const (
	BackendMongo    = "mongodb"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendFile     = "file"
	BackendMemory   = "memory"
)

// ErrUnsupportedURL is returned for a connection string with an unknown scheme.
var ErrUnsupportedURL = errors.New("repositories: unsupported DATABASE_URL scheme")

// Store bundles the repositories of one persistence backend.
type Store struct {
	Backend  string
	Products ProductRepository
	Orders   OrderRepository
	Accounts AccountRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return s.ping(ctx)
}

// Close releases backend connections.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open selects a backend from the scheme of databaseURL:
// mongodb:// and mongodb+srv:// (dbName names the database), postgres:// and
// postgresql://, sqlite://<dsn>, file://<dir> and memory://.
func Open(ctx context.Context, databaseURL, dbName string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	u := strings.TrimSpace(databaseURL)
	switch {
	case strings.HasPrefix(u, "mongodb://"), strings.HasPrefix(u, "mongodb+srv://"):
		return openMongo(ctx, u, dbName)
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return openGORM(BackendPostgres, postgres.Open(u), log)
	case strings.HasPrefix(u, "sqlite://"):
		return openGORM(BackendSQLite, sqlite.Open(strings.TrimPrefix(u, "sqlite://")), log)
	case strings.HasPrefix(u, "file://"):
		dir := strings.TrimPrefix(u, "file://")
		fs, err := OpenFileStore(dir)
		if err != nil {
			return nil, err
		}
		return &Store{Backend: BackendFile, Products: fs.Products, Orders: fs.Orders, Accounts: fs.Accounts}, nil
	case strings.HasPrefix(u, "memory://"):
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, redact(u))
	}
}

// NewMemoryStore returns a Store whose state lives only in process memory.
func NewMemoryStore() *Store {
	return &Store{
		Backend:  BackendMemory,
		Products: NewMemoryProductRepository(),
		Orders:   NewMemoryOrderRepository(),
		Accounts: NewMemoryAccountRepository(),
	}
}

// NewGORMStore wraps an already opened GORM connection and migrates the schema.
func NewGORMStore(backend string, db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&models.Product{}, &models.Order{}, &models.Account{}); err != nil {
		return nil, fmt.Errorf("auto-migrate %s: %w", backend, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open %s pool: %w", backend, err)
	}
	return &Store{
		Backend:  backend,
		Products: NewGORMProductRepository(db),
		Orders:   NewGORMOrderRepository(db),
		Accounts: NewGORMAccountRepository(db),
		ping:     sqlDB.PingContext,
		close:    func(context.Context) error { return sqlDB.Close() },
	}, nil
}

func openGORM(backend string, dialector gorm.Dialector, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", backend, err)
	}
	log.Info("connected to database", zap.String("backend", backend))
	return NewGORMStore(backend, db)
}

func openMongo(ctx context.Context, uri, dbName string) (*Store, error) {
	if dbName == "" {
		dbName = "boutique"
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	accounts := NewMongoAccountRepository(db.Collection(AccountsCollection))
	if err := accounts.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create account indexes: %w", err)
	}

	return &Store{
		Backend:  BackendMongo,
		Products: NewMongoProductRepository(db.Collection(ProductsCollection)),
		Orders:   NewMongoOrderRepository(db.Collection(OrdersCollection)),
		Accounts: accounts,
		ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
		close:    client.Disconnect,
	}, nil
}

// redact hides credentials embedded in a connection string.
func redact(u string) string {
	scheme, rest, ok := strings.Cut(u, "://")
	if !ok {
		return "<invalid>"
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}
	return scheme + "://" + rest
}
