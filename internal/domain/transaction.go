package domain

// Transaction Model.
// Rows are insert-only: a transaction is created by the purchase workflow
// and never updated or deleted afterwards. Price is a snapshot of the item
// price at purchase time, so later item edits never alter past transactions.
type Transaction struct {
	ID          uint    `gorm:"primaryKey" json:"id"`                   // Primary key
	ItemID      uint    `gorm:"not null" json:"item_id"`                // Purchased item
	Description string  `json:"description"`                            // Optional note from the buyer
	Price       float64 `gorm:"not null" json:"price"`                  // Price charged, snapshot at purchase time
	MerchantID  uint    `gorm:"not null;index" json:"merchant_id"`      // Selling merchant
	CustomerID  uint    `gorm:"not null;index" json:"customer_id"`      // Buying customer profile
	CreatedAt   int64   `gorm:"autoCreateTime:milli" json:"created_at"` // Timestamp of creation in milliseconds
}
