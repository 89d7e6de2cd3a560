package domain

// Merchant Model
type Merchant struct {
	ID          uint   `gorm:"primaryKey" json:"id"`       // Primary key
	Name        string `gorm:"not null" json:"name"`       // Store name
	Description string `json:"description"`                // Store description
	TaxID       string `json:"tax_id"`                     // Tax registration number
	UserID      uint   `gorm:"uniqueIndex" json:"user_id"` // Owning merchant-role User
	Items       []Item `json:"-"`                          // Items listed by this merchant
}
