package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"boutique/internal/apperrors"
	"boutique/internal/logging"
	"boutique/internal/middleware"
	"boutique/internal/models"
	"boutique/internal/services"
	"boutique/internal/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const dashboardPath = "/dashboard"

// AdminHandler serves the admin login flow and dashboard pages.
type AdminHandler struct {
	admin    *services.AdminAuthenticator
	sessions *session.Manager
	products *services.ProductService
	orders   *services.OrderService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *services.AdminAuthenticator, sessions *session.Manager, products *services.ProductService, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{admin: admin, sessions: sessions, products: products, orders: orders}
}

// RegisterRoutes registers the admin pages. pageGate guards the dashboard.
func (h *AdminHandler) RegisterRoutes(router fiber.Router, limiter, pageGate fiber.Handler) {
	router.Get("/", h.HandleLoginPage)
	router.Post("/login", limiter, h.HandleLogin)
	router.Post("/logout", h.HandleLogout)
	router.Get(dashboardPath, pageGate, h.HandleDashboard)
}

type loginPage struct {
	Error    string
	Username string
}

type loginCredentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// HandleLoginPage renders the sign-in form, or sends signed-in admins to the dashboard.
func (h *AdminHandler) HandleLoginPage(c *fiber.Ctx) error {
	if _, err := h.sessions.Load(c); err == nil {
		return c.Redirect(dashboardPath, fiber.StatusFound)
	}
	return render(c, fiber.StatusOK, "login.html", loginPage{})
}

// HandleLogin checks the admin credentials and issues the session cookie.
// JSON clients get a JSON answer; form posts are redirected.
func (h *AdminHandler) HandleLogin(c *fiber.Ctx) error {
	wantsJSON := strings.HasPrefix(strings.ToLower(string(c.Request().Header.ContentType())), fiber.MIMEApplicationJSON)

	var creds loginCredentials
	if err := c.BodyParser(&creds); err != nil {
		return writeError(c, badBody(err))
	}

	if err := h.admin.Verify(creds.Username, creds.Password); err != nil {
		logging.FromCtx(c).Info("admin login failed")
		if wantsJSON {
			return writeError(c, err)
		}
		return render(c, fiber.StatusUnauthorized, "login.html", loginPage{
			Error:    apperrors.PublicMessage(err),
			Username: creds.Username,
		})
	}

	data, err := h.sessions.Issue(c, strings.TrimSpace(creds.Username))
	if err != nil {
		return writeError(c, err)
	}
	logging.FromCtx(c).Info("admin signed in", zap.String("session_id", data.ID))

	if wantsJSON {
		return c.JSON(fiber.Map{"message": "login successful", "redirect": dashboardPath})
	}
	return c.Redirect(dashboardPath, fiber.StatusFound)
}

// HandleLogout clears the session cookie.
func (h *AdminHandler) HandleLogout(c *fiber.Ctx) error {
	h.sessions.Destroy(c)
	if strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// HandleDashboard renders the catalog, low stock and order overview.
func (h *AdminHandler) HandleDashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var (
		products []models.Product
		lowStock []models.Product
		orders   []models.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = h.products.ListProducts(gctx, services.ProductFilter{})
		return err
	})
	g.Go(func() (err error) {
		lowStock, err = h.products.ListLowStock(gctx)
		return err
	})
	g.Go(func() (err error) {
		orders, err = h.orders.GetAllOrders(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return writeError(c, err)
	}

	username := ""
	if data, ok := middleware.AdminSession(c); ok {
		username = data.Username
	}
	return render(c, fiber.StatusOK, "dashboard.html", fiber.Map{
		"Username": username,
		"Products": products,
		"LowStock": lowStock,
		"Orders":   orders,
	})
}

func render(c *fiber.Ctx, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
