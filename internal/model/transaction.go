package model

import "time"

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusSuccess   TransactionStatus = "SUCCESS"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed || s == TransactionStatusCancelled
}

// Transaction is one payment attempt against an order.
type Transaction struct {
	ID                    uint   `gorm:"primaryKey" json:"id"`
	MerchantTransactionID string `gorm:"size:64;uniqueIndex;not null" json:"merchantTransactionId"`
	GatewayOrderID        string `gorm:"size:64;index" json:"gatewayOrderId,omitempty"`
	GatewayTransactionID  string `gorm:"size:64;index" json:"gatewayTransactionId,omitempty"`

	OrderID *uint  `gorm:"index" json:"orderId,omitempty"`
	UserID  string `gorm:"size:64;index" json:"userId,omitempty"`

	Amount        int64             `gorm:"not null" json:"amount"` // minor units (paise)
	Currency      string            `gorm:"size:8;not null" json:"currency"`
	PaymentMethod PaymentMethod     `gorm:"size:16;not null" json:"paymentMethod"`
	Status        TransactionStatus `gorm:"size:16;index;not null" json:"status"`

	ResponseCode    string `gorm:"size:64" json:"responseCode,omitempty"`
	ResponseMessage string `gorm:"size:512" json:"responseMessage,omitempty"`
	RawPayload      string `gorm:"type:text" json:"-"`

	RedirectURL string `gorm:"size:512" json:"redirectUrl,omitempty"`
	CallbackURL string `gorm:"size:512" json:"callbackUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
