package services

import (
	"context"
	"strings"
	"time"

	"boutique/internal/apperrors"
	"boutique/internal/models"
	"boutique/internal/normalize"
	"boutique/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Routing keys of published order events.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

var taxRate = decimal.RequireFromString("0.12")

// EventPublisher delivers order events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// AddressInput is the shipping address of a checkout request.
type AddressInput struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	Country string `json:"country" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
}

// OrderItemInput is one cart line as sent by the storefront.
type OrderItemInput struct {
	ProductID   string   `json:"productId" validate:"required"`
	ProductName string   `json:"productName" validate:"required"`
	Quantity    *int     `json:"quantity" validate:"required,min=1"`
	Price       *float64 `json:"price" validate:"required,min=0"`
	Image       string   `json:"image"`
}

// CreateOrderRequest is the checkout payload. Field order matters: the first
// missing field in declaration order is the one reported.
type CreateOrderRequest struct {
	CustomerName    string           `json:"customerName" validate:"required"`
	CustomerEmail   string           `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string           `json:"customerPhone" validate:"required"`
	ShippingAddress AddressInput     `json:"shippingAddress"`
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	Subtotal        *float64         `json:"subtotal" validate:"required,min=0"`
	Tax             *float64         `json:"tax" validate:"required,min=0"`
	Total           *float64         `json:"total" validate:"required,min=0"`
	ShippingFee     *float64         `json:"shippingFee" validate:"omitempty,min=0"`
	PaymentMethod   string           `json:"paymentMethod"`
	Notes           string           `json:"notes"`
}

// QuoteItem is a cart line used to price an order.
type QuoteItem struct {
	Quantity *int     `json:"quantity" validate:"required,min=1"`
	Price    *float64 `json:"price" validate:"required,min=0"`
}

// QuoteRequest asks for the totals of a cart.
type QuoteRequest struct {
	Items []QuoteItem `json:"items" validate:"required,dive"`
}

// Quote holds cart totals rounded to two decimal places.
type Quote struct {
	Subtotal    float64 `json:"subtotal"`
	Tax         float64 `json:"tax"`
	ShippingFee float64 `json:"shippingFee"`
	Total       float64 `json:"total"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	publisher EventPublisher
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService. publisher may be nil, in which
// case no events are emitted.
func NewOrderService(orderRepo repositories.OrderRepository, publisher EventPublisher, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo: orderRepo,
		publisher: publisher,
		validate:  newValidator(),
		logger:    logger,
	}
}

// GetAllOrders retrieves all orders, newest first.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.orderRepo.List(ctx)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// CreateOrder validates a checkout request and stores its line items as
// snapshots. accountID is empty for guest checkouts.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest, accountID string) (*models.Order, error) {
	trimOrderRequest(&req)
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = models.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    *it.Quantity,
			Price:       *it.Price,
			Image:       it.Image,
		}
	}

	order := &models.Order{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		ShippingAddress: models.Address{
			Street:  req.ShippingAddress.Street,
			City:    req.ShippingAddress.City,
			Country: req.ShippingAddress.Country,
			ZipCode: req.ShippingAddress.ZipCode,
		},
		Items:         items,
		Subtotal:      *req.Subtotal,
		Tax:           *req.Tax,
		ShippingFee:   models.DefaultShippingFee,
		Total:         *req.Total,
		Status:        models.OrderPending,
		PaymentMethod: models.DefaultPaymentMethod,
		Notes:         req.Notes,
		AccountID:     accountID,
	}
	if req.ShippingFee != nil {
		order.ShippingFee = *req.ShippingFee
	}
	if req.PaymentMethod != "" {
		order.PaymentMethod = req.PaymentMethod
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info("order created", zap.String("order_id", order.ID), zap.Int("items", len(order.Items)))

	s.publish(ctx, EventOrderCreated, map[string]any{
		"orderId":       order.ID,
		"accountId":     order.AccountID,
		"customerEmail": order.CustomerEmail,
		"status":        order.Status,
		"total":         order.Total,
		"createdAt":     order.CreatedAt.Format(time.RFC3339),
	})
	return order, nil
}

// UpdateOrderStatus sets the status of an order. Any status may follow any other.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error) {
	canonical, ok := canonicalStatus(status)
	if !ok {
		if strings.TrimSpace(status) == "" {
			return nil, apperrors.Missing("status")
		}
		return nil, apperrors.Validation("status", "status must be one of: "+strings.Join(models.OrderStatuses, ", "))
	}

	order, err := s.orderRepo.UpdateStatus(ctx, id, canonical)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status updated", zap.String("order_id", id), zap.String("status", canonical))

	s.publish(ctx, EventOrderStatusChanged, map[string]any{
		"orderId": order.ID,
		"status":  order.Status,
	})
	return order, nil
}

// QuoteOrder prices a cart: 12% tax on the subtotal plus a flat shipping fee
// for non-empty carts.
func (s *OrderService) QuoteOrder(req QuoteRequest) (Quote, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return Quote{}, err
	}
	subtotal := decimal.Zero
	for _, it := range req.Items {
		line := decimal.NewFromFloat(*it.Price).Mul(decimal.NewFromInt(int64(*it.Quantity)))
		subtotal = subtotal.Add(line)
	}
	if len(req.Items) == 0 {
		return Quote{}, nil
	}
	tax := subtotal.Mul(taxRate).Round(2)
	shipping := decimal.NewFromFloat(models.DefaultShippingFee)
	return Quote{
		Subtotal:    normalize.RoundMoney(subtotal),
		Tax:         normalize.RoundMoney(tax),
		ShippingFee: normalize.RoundMoney(shipping),
		Total:       normalize.RoundMoney(subtotal.Round(2).Add(tax).Add(shipping)),
	}, nil
}

// publish never fails the caller; broker errors are only logged.
func (s *OrderService) publish(ctx context.Context, routingKey string, payload map[string]any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		s.logger.Warn("failed to publish order event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

func canonicalStatus(status string) (string, bool) {
	status = strings.TrimSpace(status)
	for _, s := range models.OrderStatuses {
		if strings.EqualFold(s, status) {
			return s, true
		}
	}
	return "", false
}

func trimOrderRequest(req *CreateOrderRequest) {
	for _, f := range []*string{
		&req.CustomerName, &req.CustomerEmail, &req.CustomerPhone,
		&req.ShippingAddress.Street, &req.ShippingAddress.City,
		&req.ShippingAddress.Country, &req.ShippingAddress.ZipCode,
		&req.PaymentMethod, &req.Notes,
	} {
		*f = strings.TrimSpace(*f)
	}
	for i := range req.Items {
		req.Items[i].ProductID = strings.TrimSpace(req.Items[i].ProductID)
		req.Items[i].ProductName = strings.TrimSpace(req.Items[i].ProductName)
	}
}
