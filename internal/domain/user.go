package domain

// Role is the closed set of principal roles in the marketplace
type Role string

// Role values
const (
	RoleCustomer Role = "customer" // Buys items
	RoleMerchant Role = "merchant" // Lists items for sale
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleMerchant
}

// User Model
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`                 // Primary key
	Username string `gorm:"unique;not null" json:"username"`      // Unique username
	Password string `gorm:"not null" json:"-"`                    // Hashed password, never serialized
	Role     Role   `gorm:"not null" json:"role"`                 // Role: customer or merchant
	Wallet   Wallet `gorm:"constraint:OnDelete:CASCADE" json:"-"` // One-to-one relationship with Wallet
}

// Principal is the authenticated identity attached to a request
type Principal struct {
	ID   uint // User ID
	Role Role // Role carried in the token claims
}
