package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/middleware"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/models"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	db *gorm.DB
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB) *OrderHandler {
	return &OrderHandler{db: db}
}

type orderLineRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid4"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type createOrderRequest struct {
	Items           []orderLineRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress string             `json:"delivery_address"`
	DeliveryCity    string             `json:"delivery_city"`
	Notes           string             `json:"notes"`
}

// CreateOrder places an order for the authenticated customer. Stock is
// checked and decremented inside the same transaction that creates the
// order, so concurrent orders cannot oversell an item.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentSubjectID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := utils.ValidateStruct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	order := models.Order{
		CustomerID:      customerID,
		OrderNumber:     generateOrderNumber(),
		Status:          "pending",
		PlacedAt:        time.Now(),
		DeliveryAddress: req.DeliveryAddress,
		DeliveryCity:    req.DeliveryCity,
		Notes:           req.Notes,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		total := decimal.Zero

		for _, line := range req.Items {
			itemID, err := uuid.Parse(line.ItemID)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid item_id")
			}

			var item models.Item
			if err := tx.First(&item, "id = ? AND is_active = ?", itemID, true).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "item not found")
				}
				return err
			}

			// Conditional decrement guards against concurrent orders of
			// the same item.
			result := tx.Model(&models.Item{}).
				Where("id = ? AND stock >= ?", itemID, line.Quantity).
				Update("stock", gorm.Expr("stock - ?", line.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("insufficient stock for %s", item.Name))
			}

			lineTotal := item.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(lineTotal)

			order.Items = append(order.Items, models.OrderItem{
				ItemID:    &item.ID,
				ItemName:  item.Name,
				Size:      item.Size,
				Color:     item.Color,
				Quantity:  line.Quantity,
				UnitPrice: item.Price,
				LineTotal: lineTotal,
			})
		}

		order.TotalAmount = total
		return tx.Create(&order).Error
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"placed_at":    order.PlacedAt,
			"total":        order.TotalAmount,
		},
	})
}

// ListOrders returns orders; customers see their own, staff see all.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	subjectID, ok := middleware.GetCurrentSubjectID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if middleware.GetCurrentRole(c) == "customer" {
		query = query.Where("customer_id = ?", subjectID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns a single order.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	subjectID, ok := middleware.GetCurrentSubjectID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	query := h.db.Preload("Items")
	if middleware.GetCurrentRole(c) == "customer" {
		query = query.Where("customer_id = ?", subjectID)
	}

	var order models.Order
	if err := query.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid shipped delivered cancelled"`
}

// UpdateOrderStatus lets staff move an order through its lifecycle.
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := utils.ValidateStruct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var order models.Order
	if err := h.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	if err := h.db.Model(&order).Update("status", req.Status).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%d", time.Now().UnixNano()%1000000000)
}
