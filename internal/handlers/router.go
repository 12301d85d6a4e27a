package handlers

import (
	"context"
	"time"

	"boutique/internal/logging"
	"boutique/internal/media"
	"boutique/internal/middleware"
	"boutique/internal/services"
	"boutique/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultBodyLimit leaves room for a full set of product attachments.
const DefaultBodyLimit = 64 << 20

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Logger   *zap.Logger
	Store    Pinger
	Products *services.ProductService
	Orders   *services.OrderService
	Auth     *services.AuthService
	Admin    *services.AdminAuthenticator
	Sessions *session.Manager
	Uploads  *media.Gateway

	// Redis enables rate limiting of credential endpoints when set.
	Redis redis.Cmdable
	// UploadDir and UploadURL serve locally stored media when both are set.
	UploadDir string
	UploadURL string
	BodyLimit int
}

// NewRouter builds the fiber application with every route registered.
func NewRouter(deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	bodyLimit := deps.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:               "boutique",
		BodyLimit:             bodyLimit,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(requestid.New())
	app.Use(logging.Middleware(deps.Logger))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Store != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := deps.Store.Ping(ctx); err != nil {
				logging.FromCtx(c).Error("health check failed", zap.Error(err))
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unavailable",
					"time":   time.Now().UTC().Format(time.RFC3339),
				})
			}
		}
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	if deps.UploadDir != "" && deps.UploadURL != "" {
		app.Static(deps.UploadURL, deps.UploadDir, fiber.Static{MaxAge: 3600})
	}

	var (
		adminAPI  = middleware.AdminGate(deps.Sessions, middleware.CategoryAPI)
		adminPage = middleware.AdminGate(deps.Sessions, middleware.CategoryPage)
		bearer    = middleware.AuthRequired(deps.Auth)
		optional  = middleware.OptionalAuth(deps.Auth)
	)

	NewProductHandler(deps.Products, deps.Uploads).RegisterRoutes(app, adminAPI)
	NewOrderHandler(deps.Orders).RegisterRoutes(app, adminAPI, optional)
	NewAuthHandler(deps.Auth).RegisterRoutes(app,
		middleware.RateLimiter(deps.Redis, "auth", 0, 0), bearer)
	NewAdminHandler(deps.Admin, deps.Sessions, deps.Products, deps.Orders).RegisterRoutes(app,
		middleware.RateLimiter(deps.Redis, "admin", 0, 0), adminPage)

	return app
}
