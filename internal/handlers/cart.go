package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/middleware"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/models"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/utils"
)

// CartHandler manages the authenticated customer's cart.
type CartHandler struct {
	db *gorm.DB
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{db: db}
}

type addToCartRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid4"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// AddToCart adds an item to the customer's cart, merging quantities when
// the item is already present.
func (h *CartHandler) AddToCart(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentSubjectID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := utils.ValidateStruct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item_id")
	}

	var item models.Item
	if err := h.db.First(&item, "id = ? AND is_active = ?", itemID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "item not found")
		}
		return err
	}

	if item.Stock < req.Quantity {
		return fiber.NewError(fiber.StatusBadRequest, "insufficient stock")
	}

	var line models.CartItem
	err = h.db.First(&line, "customer_id = ? AND item_id = ?", customerID, itemID).Error
	switch {
	case err == nil:
		line.Quantity += req.Quantity
		if err := h.db.Model(&line).Update("quantity", line.Quantity).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		line = models.CartItem{
			CustomerID: customerID,
			ItemID:     itemID,
			Quantity:   req.Quantity,
		}
		if err := h.db.Create(&line).Error; err != nil {
			return err
		}
	default:
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": line})
}

// ListCart returns the customer's cart lines with item details.
func (h *CartHandler) ListCart(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentSubjectID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var lines []models.CartItem
	if err := h.db.Preload("Item").
		Where("customer_id = ?", customerID).
		Order("created_at asc").
		Find(&lines).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": lines})
}

type updateCartRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// UpdateCartItem changes the quantity on one cart line.
func (h *CartHandler) UpdateCartItem(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentSubjectID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateCartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := utils.ValidateStruct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var line models.CartItem
	if err := h.db.First(&line, "id = ? AND customer_id = ?", id, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "cart item not found")
		}
		return err
	}

	if err := h.db.Model(&line).Update("quantity", req.Quantity).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": line})
}

// RemoveCartItem deletes one cart line.
func (h *CartHandler) RemoveCartItem(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentSubjectID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.CartItem{}, "id = ? AND customer_id = ?", id, customerID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// ClearCart empties the customer's cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentSubjectID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.db.Delete(&models.CartItem{}, "customer_id = ?", customerID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}
