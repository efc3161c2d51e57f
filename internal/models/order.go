package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	BaseModel
	CustomerID      uuid.UUID       `gorm:"type:uuid;index" json:"customer_id"`
	Customer        *Customer       `json:"customer,omitempty"`
	OrderNumber     string          `gorm:"uniqueIndex" json:"order_number"`
	Status          string          `json:"status"`
	PlacedAt        time.Time       `json:"placed_at"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_amount"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryCity    string          `json:"delivery_city"`
	Notes           string          `json:"notes"`
	Items           []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	ItemID    *uuid.UUID      `gorm:"type:uuid" json:"item_id"`
	ItemName  string          `json:"item_name"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2)" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:numeric(12,2)" json:"line_total"`
}

// CartItem is a line in a customer's cart, one row per item.
type CartItem struct {
	BaseModel
	CustomerID uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	ItemID     uuid.UUID `gorm:"type:uuid;index" json:"item_id"`
	Item       *Item     `json:"item,omitempty"`
	Quantity   int       `json:"quantity"`
}
