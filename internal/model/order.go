package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending" // cash on delivery, awaiting confirmation
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusPaymentFailed  OrderStatus = "PAYMENT_FAILED"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

type PaymentMethod string

const (
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodCOD     PaymentMethod = "cod"
	PaymentMethodPhonePe PaymentMethod = "phonepe"
)

type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"size:32;uniqueIndex;not null" json:"orderNumber"`
	UserID      string `gorm:"size:64;index;not null" json:"userId"`

	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `gorm:"size:16;not null" json:"paymentMethod"`

	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	ShippingCost decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shippingCost"`
	MethodFee    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"methodFee"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`

	Status        OrderStatus   `gorm:"size:32;index;not null" json:"status"`
	PaymentStatus PaymentStatus `gorm:"size:16;not null" json:"paymentStatus"`

	TrackingNumber string `gorm:"size:64" json:"trackingNumber,omitempty"`
	Notes          string `gorm:"size:512" json:"notes,omitempty"`

	TestMode bool `gorm:"not null;default:false" json:"testMode"`
	// guards the one-time stock decrement, flipped with a conditional update
	StockAdjusted bool `gorm:"not null;default:false" json:"stockAdjusted"`

	OrderDate time.Time `gorm:"index;not null" json:"orderDate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderItem is a snapshot of the product at checkout time, never joined back to the catalog.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"index;not null" json:"-"`
	ProductID string          `gorm:"size:64;not null" json:"productId"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Image     string          `gorm:"size:512" json:"image,omitempty"`
	Category  string          `gorm:"size:64" json:"category,omitempty"`
	Size      string          `gorm:"size:16" json:"size,omitempty"`
	Color     string          `gorm:"size:32" json:"color,omitempty"`
}

type ShippingAddress struct {
	FullName   string `gorm:"size:128" json:"fullName"`
	Phone      string `gorm:"size:20" json:"phone"`
	Email      string `gorm:"size:128" json:"email"`
	Line1      string `gorm:"size:255" json:"line1"`
	Line2      string `gorm:"size:255" json:"line2,omitempty"`
	City       string `gorm:"size:64" json:"city"`
	State      string `gorm:"size:64" json:"state"`
	PostalCode string `gorm:"size:16" json:"postalCode"`
	Country    string `gorm:"size:64" json:"country"`
}

// HasVariant reports whether the line item is tracked by the shared size/color stock.
func (i OrderItem) HasVariant() bool {
	return i.Size != "" && i.Color != "" && i.Quantity > 0
}
