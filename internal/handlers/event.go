package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/models"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/utils"
)

// EventHandler manages ticketed events.
type EventHandler struct {
	db *gorm.DB
}

// NewEventHandler constructs EventHandler.
func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{db: db}
}

type eventRequest struct {
	Name         string          `json:"name" validate:"required"`
	Venue        string          `json:"venue" validate:"required"`
	Date         time.Time       `json:"date" validate:"required"`
	Description  string          `json:"description"`
	RegularPrice decimal.Decimal `json:"regular_price"`
	VIPPrice     decimal.Decimal `json:"vip_price"`
	ImageURL     string          `json:"image_url"`
}

// CreateEvent persists a new event.
func (h *EventHandler) CreateEvent(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := utils.ValidateStruct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	event := models.Event{
		Name:         req.Name,
		Venue:        req.Venue,
		Date:         req.Date,
		Description:  req.Description,
		RegularPrice: req.RegularPrice,
		VIPPrice:     req.VIPPrice,
		ImageURL:     req.ImageURL,
		IsActive:     true,
	}

	if err := h.db.Create(&event).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": event})
}

// ListEvents returns paginated events.
func (h *EventHandler) ListEvents(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Event{})

	if c.Query("upcoming") == "true" {
		query = query.Where("date >= ?", time.Now())
	}
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var events []models.Event
	if err := query.Order("date asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&events).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    events,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetEvent returns a single event by ID.
func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var event models.Event
	if err := h.db.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "event not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": event})
}

// UpdateEvent updates event fields.
func (h *EventHandler) UpdateEvent(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var event models.Event
	if err := h.db.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "event not found")
		}
		return err
	}

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Venue != "" {
		updates["venue"] = req.Venue
	}
	if !req.Date.IsZero() {
		updates["date"] = req.Date
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.RegularPrice.IsPositive() {
		updates["regular_price"] = req.RegularPrice
	}
	if req.VIPPrice.IsPositive() {
		updates["vip_price"] = req.VIPPrice
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}

	if len(updates) > 0 {
		if err := h.db.Model(&event).Updates(updates).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": event})
}

// DeleteEvent deactivates an event; sold tickets keep their reference.
func (h *EventHandler) DeleteEvent(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Model(&models.Event{}).
		Where("id = ?", id).
		Update("is_active", false).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}
