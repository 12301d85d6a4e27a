package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boutique/internal/config"
	"boutique/internal/handlers"
	"boutique/internal/logging"
	"boutique/internal/media"
	"boutique/internal/repositories"
	"boutique/internal/services"
	"boutique/internal/session"
	"boutique/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server gracefully stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.close()

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("backend", srv.store.Backend))
		listenErr <- srv.app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	if err := srv.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// server owns the HTTP app and every resource it was built from.
type server struct {
	app     *fiber.App
	store   *repositories.Store
	closers []func() error
	logger  *zap.Logger
}

func (s *server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("failed to release resource", zap.Error(err))
		}
	}
}

// newServer opens the store, seeds the catalog and wires the optional
// integrations: GCS media, RabbitMQ events and Redis rate limiting.
func newServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *server, err error) {
	srv := &server{logger: logger}
	defer func() {
		if err != nil {
			srv.close()
		}
	}()

	if cfg.UsesDevSecrets() {
		logger.Warn("using built-in development secrets; set SESSION_SECRET and JWT_SECRET")
	}

	store, err := repositories.Open(ctx, cfg.DatabaseURL, cfg.DatabaseName, logger)
	if err != nil {
		return nil, err
	}
	srv.store = store
	srv.closers = append(srv.closers, func() error {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return store.Close(closeCtx)
	})

	productService := services.NewProductService(store.Products, logger)
	if cfg.SeedFile != "" {
		if err := seedCatalog(ctx, productService, cfg.SeedFile, logger); err != nil {
			return nil, err
		}
	}

	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			return nil, err
		}
		srv.closers = append(srv.closers, mq.Close)
		publisher = mq
	}

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := blobs.(interface{ Close() error }); ok {
		srv.closers = append(srv.closers, c.Close)
	}

	admin, err := services.NewAdminAuthenticator(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewManager(session.Config{
		HashKey:  []byte(cfg.SessionSecret),
		Lifetime: cfg.SessionTTL,
	})
	if err != nil {
		return nil, err
	}

	deps := handlers.Deps{
		Logger:   logger,
		Store:    store,
		Products: productService,
		Orders:   services.NewOrderService(store.Orders, publisher, logger),
		Auth:     services.NewAuthService(store.Accounts, cfg.JWTSecret, cfg.TokenTTL, logger),
		Admin:    admin,
		Sessions: sessions,
		Uploads:  media.NewGateway(blobs, media.DefaultLimits(cfg.MaxUploadBytes), logger),
	}
	if cfg.BlobDriver == "local" {
		deps.UploadDir = cfg.UploadDir
		deps.UploadURL = cfg.PublicBaseURL
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable; rate limiting will fail open", zap.Error(err))
		}
		srv.closers = append(srv.closers, rdb.Close)
		deps.Redis = rdb
	}

	srv.app = handlers.NewRouter(deps)
	return srv, nil
}

func openBlobStore(ctx context.Context, cfg *config.Config) (media.BlobStore, error) {
	switch cfg.BlobDriver {
	case "gcs":
		return media.NewGCSStore(ctx, cfg.BlobBucket, cfg.BlobCredentialsFile)
	case "local":
		return media.NewLocalStore(afero.NewOsFs(), cfg.UploadDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported blob driver %q", cfg.BlobDriver)
	}
}

func seedCatalog(ctx context.Context, products *services.ProductService, path string, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("seed file not found", zap.String("path", path))
			return nil
		}
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	n, err := products.SeedFromYAML(ctx, f)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info("seeded catalog", zap.Int("products", n), zap.String("path", path))
	}
	return nil
}
