package handlers

import (
	"boutique/internal/middleware"
	"boutique/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes. Checkout and quotes are public;
// checkout links the order to the customer account when a bearer token is
// presented. Reading and updating orders runs behind adminAPI.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, adminAPI, optionalBearer fiber.Handler) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", optionalBearer, h.HandleCreateOrder)
	orderRoutes.Post("/quote", h.HandleQuote)
	orderRoutes.Get("/", adminAPI, h.HandleGetOrders)
	orderRoutes.Get("/:id", adminAPI, h.HandleGetOrderByID)
	orderRoutes.Put("/:id", adminAPI, h.HandleUpdateOrderStatus)
}

// HandleGetOrders retrieves all orders, newest first.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(order)
}

// HandleCreateOrder places an order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, badBody(err))
	}

	createdOrder, err := h.service.CreateOrder(c.UserContext(), req, middleware.AccountID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(createdOrder)
}

// HandleQuote prices a cart without placing an order.
func (h *OrderHandler) HandleQuote(c *fiber.Ctx) error {
	var req services.QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, badBody(err))
	}
	quote, err := h.service.QuoteOrder(req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(quote)
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var updateData struct {
		Status string `json:"status" form:"status"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return writeError(c, badBody(err))
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), c.Params("id"), updateData.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(order)
}
