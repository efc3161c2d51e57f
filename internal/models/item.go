package models

import "github.com/shopspring/decimal"

// Item is a piece of merchandise in the storefront catalog.
type Item struct {
	BaseModel
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `gorm:"index" json:"category"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	ImageURL    string          `json:"image_url"`
	Stock       int             `json:"stock"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
}
