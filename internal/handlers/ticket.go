package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/models"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/services"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/utils"
)

// TicketHandler manages ticket purchase and verification endpoints.
type TicketHandler struct {
	db      *gorm.DB
	tickets *services.TicketService
}

// NewTicketHandler constructs TicketHandler.
func NewTicketHandler(db *gorm.DB, tickets *services.TicketService) *TicketHandler {
	return &TicketHandler{db: db, tickets: tickets}
}

type purchaseTicketRequest struct {
	EventID     string          `json:"event_id" validate:"required,uuid4"`
	Category    string          `json:"category" validate:"required,oneof=regular vip"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PhoneNumber string          `json:"phone_number" validate:"required,min=10,max=13"`
	FullName    string          `json:"full_name" validate:"required,min=2"`
}

// Purchase issues a ticket and runs its payment attempt.
func (h *TicketHandler) Purchase(c *fiber.Ctx) error {
	var req purchaseTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := utils.ValidateStruct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if !req.Amount.IsPositive() {
		return fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid event_id")
	}

	ticket, err := h.tickets.Purchase(c.UserContext(), services.PurchaseInput{
		EventID:     eventID,
		Category:    req.Category,
		Amount:      req.Amount,
		PhoneNumber: req.PhoneNumber,
		FullName:    req.FullName,
	})
	if err != nil {
		return writePaymentError(c, ticket, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    ticket,
	})
}

// ListTickets returns paginated tickets, optionally filtered.
func (h *TicketHandler) ListTickets(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Ticket{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if eventID := c.Query("event_id"); eventID != "" {
		if id, err := uuid.Parse(eventID); err == nil {
			query = query.Where("event_id = ?", id)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var tickets []models.Ticket
	if err := query.Preload("Event").Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&tickets).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    tickets,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetTicket returns a single ticket by ID.
func (h *TicketHandler) GetTicket(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var ticket models.Ticket
	if err := h.db.Preload("Event").First(&ticket, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "ticket not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": ticket})
}

// Verify checks a ticket number's security hash and payment state, for
// gate scanning.
func (h *TicketHandler) Verify(c *fiber.Ctx) error {
	number := c.Params("number")
	if number == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing ticket number")
	}

	ticket, valid, err := h.tickets.Verify(c.UserContext(), number)
	if err != nil {
		return err
	}
	if ticket == nil {
		return fiber.NewError(fiber.StatusNotFound, "ticket not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"ticket_number": ticket.TicketNumber,
			"holder_name":   ticket.HolderName,
			"category":      ticket.Category,
			"event":         ticket.Event,
			"status":        ticket.Status,
			"valid":         valid,
		},
	})
}
