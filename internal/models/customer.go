package models

// Customer represents a storefront shopper.
type Customer struct {
	BaseModel
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Phone        string     `gorm:"uniqueIndex" json:"phone"`
	Email        string     `gorm:"index" json:"email"`
	PasswordHash string     `json:"-"`
	Address      string     `json:"address"`
	City         string     `json:"city"`
	CartItems    []CartItem `json:"cart_items,omitempty"`
	Orders       []Order    `json:"orders,omitempty"`
}
