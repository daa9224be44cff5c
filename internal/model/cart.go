package model

import "time"

// Cart is one row per user; an emptied cart is deleted rather than kept empty.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"size:64;uniqueIndex;not null" json:"userId"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	CartID    uint   `gorm:"index;not null" json:"-"`
	ProductID string `gorm:"size:64;not null" json:"productId"`
	Name      string `gorm:"size:255;not null" json:"name"`
	Price     string `gorm:"size:32;not null" json:"price"` // display snapshot
	Image     string `gorm:"size:512" json:"image,omitempty"`
	Category  string `gorm:"size:64" json:"category,omitempty"`
	Size      string `gorm:"size:16" json:"size,omitempty"`
	Color     string `gorm:"size:32" json:"color,omitempty"`
	Quantity  int    `gorm:"not null" json:"quantity"`
	InStock   bool   `gorm:"not null;default:true" json:"inStock"`
}

// SameLine reports whether two items describe the same product variant.
func (i CartItem) SameLine(productID, size, color string) bool {
	return i.ProductID == productID && i.Size == size && i.Color == color
}
