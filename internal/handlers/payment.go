package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/models"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/mpesa"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/services"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/utils"
)

// PaymentHandler manages payment endpoints and the gateway callback.
type PaymentHandler struct {
	db       *gorm.DB
	payments *services.PaymentService
	tickets  *services.TicketService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(db *gorm.DB, payments *services.PaymentService, tickets *services.TicketService) *PaymentHandler {
	return &PaymentHandler{db: db, payments: payments, tickets: tickets}
}

type payRequest struct {
	OrderID     string          `json:"order_id" validate:"required,uuid4"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PhoneNumber string          `json:"phone_number" validate:"required,min=10,max=13"`
}

// Pay initiates an STK push for an order and blocks until the attempt is
// reconciled or times out.
func (h *PaymentHandler) Pay(c *fiber.Ctx) error {
	var req payRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := utils.ValidateStruct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if !req.Amount.IsPositive() {
		return fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order_id")
	}

	payment, err := h.payments.Pay(c.UserContext(), orderID, req.Amount, req.PhoneNumber)
	if err != nil {
		return writePaymentError(c, payment, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    payment,
	})
}

// ListPayments returns paginated payments, optionally filtered by status.
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Payment{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if phone := c.Query("phone"); phone != "" {
		query = query.Where("phone_number = ?", phone)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var payments []models.Payment
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&payments).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    payments,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetPayment returns a single payment by ID.
func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var payment models.Payment
	if err := h.db.First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "payment not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": payment})
}

// Callback receives the gateway's asynchronous result. It always responds
// 200 so the gateway does not retry; match/no-match outcomes are internal.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	result := mpesa.ParseCallback(c.Body())
	if result.CheckoutRequestID == "" {
		log.Printf("[Callback] malformed callback payload, acknowledging anyway")
		return c.JSON(fiber.Map{"ResultCode": 0, "ResultDesc": "Accepted"})
	}

	if !result.Success {
		log.Printf("[Callback] non-success callback for %s: code %d (%s)",
			result.CheckoutRequestID, result.ResultCode, result.ResultDesc)
		return c.JSON(fiber.Map{"ResultCode": 0, "ResultDesc": "Accepted"})
	}

	if h.payments.ApplyCallback(result) {
		log.Printf("[Callback] payment confirmed for %s", result.CheckoutRequestID)
	} else if h.tickets.ApplyCallback(result) {
		log.Printf("[Callback] ticket confirmed for %s", result.CheckoutRequestID)
	} else {
		log.Printf("[Callback] no matching record for %s", result.CheckoutRequestID)
	}

	return c.JSON(fiber.Map{"ResultCode": 0, "ResultDesc": "Accepted"})
}

// writePaymentError maps service errors to the HTTP taxonomy shared by the
// payment and ticket purchase endpoints.
func writePaymentError(c *fiber.Ctx, record interface{}, err error) error {
	var pushErr *services.PushError
	var uncertainErr *services.UncertainError

	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	case errors.Is(err, services.ErrEventNotFound):
		return fiber.NewError(fiber.StatusNotFound, "event not found")
	case errors.As(err, &pushErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": pushErr.GatewayMessage,
			"data":    record,
		})
	case errors.As(err, &uncertainErr):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success":    false,
			"message":    "Payment status uncertain. Contact support with the payment reference.",
			"payment_id": uncertainErr.RecordID,
		})
	default:
		return err
	}
}
