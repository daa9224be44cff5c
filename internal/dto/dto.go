package dto

import "time"

// -------- checkout --------

type OrderItem struct {
	ProductID string `json:"productId" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Price     string `json:"price" validate:"required,numeric"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Image     string `json:"image"`
	Category  string `json:"category"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country"`
}

type CreateOrderRequest struct {
	Items           []*OrderItem    `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress `json:"shippingAddress" validate:"required"`
	PaymentMethod   string          `json:"paymentMethod" validate:"required,oneof=card cod phonepe"`
	Notes           string          `json:"notes" validate:"max=500"`
	TestMode        bool            `json:"testMode"`
}

type UpdateOrderStatusRequest struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"trackingNumber"`
	Notes          string `json:"notes" validate:"max=500"`
}

// -------- cart --------

type CartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Price     string `json:"price" validate:"required"`
	Image     string `json:"image"`
	Category  string `json:"category"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	InStock   *bool  `json:"inStock"`
}

type UpdateCartItemRequest struct {
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}

// -------- payments --------

type InitiatePaymentRequest struct {
	Amount                string `json:"amount" validate:"required,numeric"` // rupees
	MerchantTransactionID string `json:"merchantTransactionId" validate:"omitempty,max=63"`
	OrderNumber           string `json:"orderId"`
	Name                  string `json:"name"`
	MobileNumber          string `json:"mobileNumber"`
	Email                 string `json:"email" validate:"omitempty,email"`
	RedirectURL           string `json:"redirectUrl" validate:"omitempty,url"`
	CallbackURL           string `json:"callbackUrl" validate:"omitempty,url"`
}

type InitiatePaymentResponse struct {
	Success               bool   `json:"success"`
	RedirectURL           string `json:"redirectUrl"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	GatewayOrderID        string `json:"gatewayOrderId,omitempty"`
	OrderNumber           string `json:"orderId,omitempty"`
}

type PaymentStatusResponse struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	GatewayState          string `json:"gatewayState"`
	Status                string `json:"status"`
	Amount                int64  `json:"amount"`
	GatewayTransactionID  string `json:"gatewayTransactionId,omitempty"`
}

type RefundRequest struct {
	MerchantTransactionID string `json:"merchantTransactionId" validate:"required"`
	RefundID              string `json:"refundId" validate:"omitempty,max=63"`
	Amount                string `json:"amount" validate:"required,numeric"`
}

type CardPaymentRequest struct {
	OrderNumber string `json:"orderId" validate:"required"`
	Nonce       string `json:"nonce" validate:"required"`
}

type CardPaymentResponse struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	Status                string `json:"status"`
	OrderNumber           string `json:"orderId"`
}

type PaymentMethodsResponse struct {
	PhonePe bool `json:"phonepe"`
	COD     bool `json:"cod"`
}

type UpdatePaymentSettingsRequest struct {
	PhonePeEnabled *bool `json:"phonepeEnabled"`
	CODEnabled     *bool `json:"codEnabled"`
}

// -------- admin --------

type StockRequest struct {
	Size              string `json:"size" validate:"required"`
	Color             string `json:"color" validate:"required"`
	ProductType       string `json:"productType"`
	Quantity          int    `json:"quantity" validate:"min=0"`
	LowStockThreshold int    `json:"lowStockThreshold" validate:"min=0"`
}

type SchedulerStatus struct {
	Running       bool       `json:"running"`
	Interval      string     `json:"interval"`
	LastRunAt     *time.Time `json:"lastRunAt,omitempty"`
	LastCancelled int64      `json:"lastCancelled"`
	LastError     string     `json:"lastError,omitempty"`
	NextRunAt     *time.Time `json:"nextRunAt,omitempty"`
}
