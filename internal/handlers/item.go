package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/models"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/utils"
)

// ItemHandler manages merchandise catalog endpoints.
type ItemHandler struct {
	db *gorm.DB
}

// NewItemHandler constructs ItemHandler.
func NewItemHandler(db *gorm.DB) *ItemHandler {
	return &ItemHandler{db: db}
}

type itemRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	ImageURL    string          `json:"image_url"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// CreateItem persists a new merchandise item.
func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	var req itemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := utils.ValidateStruct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if !req.Price.IsPositive() {
		return fiber.NewError(fiber.StatusBadRequest, "price must be positive")
	}

	item := models.Item{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Size:        req.Size,
		Color:       req.Color,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
		IsActive:    true,
	}

	if err := h.db.Create(&item).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// ListItems returns paginated items with optional filters.
func (h *ItemHandler) ListItems(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Item{})

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if size := c.Query("size"); size != "" {
		query = query.Where("size = ?", size)
	}
	if color := c.Query("color"); color != "" {
		query = query.Where("color = ?", color)
	}
	if c.Query("in_stock") == "true" {
		query = query.Where("stock > 0")
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var items []models.Item
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetItem returns a single item by ID.
func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.Item
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "item not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

// UpdateItem updates item fields.
func (h *ItemHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.Item
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "item not found")
		}
		return err
	}

	var req itemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Price.IsPositive() {
		updates["price"] = req.Price
	}
	if req.Size != "" {
		updates["size"] = req.Size
	}
	if req.Color != "" {
		updates["color"] = req.Color
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}
	if req.Stock >= 0 {
		updates["stock"] = req.Stock
	}

	if len(updates) > 0 {
		if err := h.db.Model(&item).Updates(updates).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

// DeleteItem deactivates an item rather than removing rows that orders
// may reference.
func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Model(&models.Item{}).
		Where("id = ?", id).
		Update("is_active", false).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}
