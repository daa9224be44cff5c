package model

import "time"

// Stock is the shared inventory counter for one size/color variant.
type Stock struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Size              string    `gorm:"size:16;not null;uniqueIndex:idx_stock_variant" json:"size"`
	Color             string    `gorm:"size:32;not null;uniqueIndex:idx_stock_variant" json:"color"`
	ProductType       string    `gorm:"size:32" json:"productType,omitempty"`
	Quantity          int       `gorm:"not null" json:"quantity"`
	LowStockThreshold int       `gorm:"not null;default:5" json:"lowStockThreshold"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (s Stock) IsLow() bool {
	return s.Quantity <= s.LowStockThreshold
}

// StockAdjustment records that one order line has been applied to stock.
type StockAdjustment struct {
	ID          uint `gorm:"primaryKey"`
	OrderID     uint `gorm:"not null;uniqueIndex:idx_adjustment_line"`
	OrderItemID uint `gorm:"not null;uniqueIndex:idx_adjustment_line"`
	StockID     uint `gorm:"index;not null"`
	Quantity    int  `gorm:"not null"`
	CreatedAt   time.Time
}
