package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a ticketed match or showcase.
type Event struct {
	BaseModel
	Name         string          `json:"name"`
	Venue        string          `json:"venue"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	RegularPrice decimal.Decimal `gorm:"type:numeric(12,2)" json:"regular_price"`
	VIPPrice     decimal.Decimal `gorm:"type:numeric(12,2)" json:"vip_price"`
	ImageURL     string          `json:"image_url"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
}
