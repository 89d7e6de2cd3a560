package domain

// Item Model
type Item struct {
	ID          uint     `gorm:"primaryKey" json:"id"`                 // Primary key
	Name        string   `gorm:"not null" json:"name"`                 // Item name
	Description string   `json:"description"`                          // Item description
	Price       float64  `gorm:"not null" json:"price"`                // Unit price, non-negative
	Tax         *float64 `json:"tax,omitempty"`                        // Optional tax amount
	MerchantID  uint     `gorm:"not null" json:"merchant_id"`          // Owning merchant, immutable after creation
	Merchant    Merchant `gorm:"constraint:OnDelete:CASCADE" json:"-"` // Merchant relation
}

// UpdatedItem enumerates the mutable fields of an Item.
// The merchant link is deliberately absent: it never changes after creation.
type UpdatedItem struct {
	Name        *string  `json:"name,omitempty"`        // New name
	Description *string  `json:"description,omitempty"` // New description
	Price       *float64 `json:"price,omitempty"`       // New price
	Tax         *float64 `json:"tax,omitempty"`         // New tax amount
}
