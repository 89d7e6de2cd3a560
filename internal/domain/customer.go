package domain

// Customer Model
type Customer struct {
	ID          uint   `gorm:"primaryKey" json:"id"`       // Primary key
	Name        string `gorm:"not null" json:"name"`       // Display name
	Description string `json:"description"`                // Profile description
	TaxID       string `json:"tax_id"`                     // Tax registration number
	UserID      uint   `gorm:"uniqueIndex" json:"user_id"` // Owning customer-role User
}
