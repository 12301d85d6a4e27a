package models

import "time"

// Order statuses.
const (
	OrderPending    = "Pending"
	OrderProcessing = "Processing"
	OrderShipped    = "Shipped"
	OrderDelivered  = "Delivered"
	OrderCancelled  = "Cancelled"

	DefaultShippingFee   = 15.0
	DefaultPaymentMethod = "Cash on Delivery"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

// ValidOrderStatus reports whether s is one of OrderStatuses.
func ValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Address is a postal address used for shipping and account profiles.
type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	Country string `json:"country" bson:"country"`
	ZipCode string `json:"zipCode" bson:"zipCode"`
}

// OrderItem is a snapshot of a product taken at checkout. It is never
// resolved against the live catalog.
type OrderItem struct {
	ProductID   string  `json:"productId" bson:"productId"`
	ProductName string  `json:"productName" bson:"productName"`
	Quantity    int     `json:"quantity" bson:"quantity"`
	Price       float64 `json:"price" bson:"price"`
	Image       string  `json:"image,omitempty" bson:"image,omitempty"`
}

// Order represents a customer order.
type Order struct {
	ID              string      `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	CustomerName    string      `json:"customerName" bson:"customerName"`
	CustomerEmail   string      `json:"customerEmail" bson:"customerEmail"`
	CustomerPhone   string      `json:"customerPhone" bson:"customerPhone"`
	ShippingAddress Address     `json:"shippingAddress" bson:"shippingAddress" gorm:"embedded;embeddedPrefix:shipping_"`
	Items           []OrderItem `json:"items" bson:"items" gorm:"serializer:json;type:text"`
	Subtotal        float64     `json:"subtotal" bson:"subtotal"`
	Tax             float64     `json:"tax" bson:"tax"`
	ShippingFee     float64     `json:"shippingFee" bson:"shippingFee"`
	Total           float64     `json:"total" bson:"total"`
	Status          string      `json:"status" bson:"status" gorm:"index"`
	PaymentMethod   string      `json:"paymentMethod" bson:"paymentMethod"`
	Notes           string      `json:"notes" bson:"notes"`
	AccountID       string      `json:"accountId,omitempty" bson:"accountId,omitempty" gorm:"index;type:varchar(36)"`
	CreatedAt       time.Time   `json:"createdAt" bson:"createdAt" gorm:"index"`
	UpdatedAt       time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	if o.Items != nil {
		items := make([]OrderItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}
