package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment statuses. Completed and failed are terminal: once a payment reaches
// either, no further transition is permitted.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
)

// TerminalStatuses lists states that freeze a payment record.
var TerminalStatuses = []string{PaymentStatusCompleted, PaymentStatusFailed}

// IsTerminalStatus reports whether a status permits no further transitions.
func IsTerminalStatus(status string) bool {
	return status == PaymentStatusCompleted || status == PaymentStatusFailed
}

// Payment records one STK push attempt against an order.
type Payment struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	Order       *Order          `json:"order,omitempty"`
	OrderNumber string          `json:"order_number"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	PhoneNumber string          `gorm:"index" json:"phone_number"`

	// Assigned by the gateway when the push request is accepted. Immutable
	// once set.
	CheckoutRequestID *string `gorm:"uniqueIndex" json:"checkout_request_id"`
	MerchantRequestID string  `gorm:"index" json:"merchant_request_id"`

	// Set only on confirmed success.
	MpesaReceipt string `json:"mpesa_receipt"`

	Status        string `gorm:"index" json:"status"`
	StatusMessage string `json:"status_message"`
}

// IsTerminal reports whether the payment has reached a final state.
func (p *Payment) IsTerminal() bool {
	return IsTerminalStatus(p.Status)
}
