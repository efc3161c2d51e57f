package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ticket is an event ticket purchase. It carries the same payment state
// machine as Payment plus the issued ticket details.
type Ticket struct {
	BaseModel
	EventID      uuid.UUID       `gorm:"type:uuid;index" json:"event_id"`
	Event        *Event          `json:"event,omitempty"`
	TicketNumber string          `gorm:"uniqueIndex" json:"ticket_number"`
	Category     string          `json:"category"`
	HolderName   string          `json:"holder_name"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	PhoneNumber  string          `gorm:"index" json:"phone_number"`

	// SecurityHash covers the ticket's identifying fields; QRCode is a
	// base64 PNG data URL embedding that hash for gate scanning.
	SecurityHash string `json:"security_hash"`
	QRCode       string `gorm:"type:text" json:"qr_code"`

	CheckoutRequestID *string `gorm:"uniqueIndex" json:"checkout_request_id"`
	MerchantRequestID string  `gorm:"index" json:"merchant_request_id"`
	MpesaReceipt      string  `json:"mpesa_receipt"`

	Status        string `gorm:"index" json:"status"`
	StatusMessage string `json:"status_message"`
}

// IsTerminal reports whether the ticket's payment has reached a final state.
func (t *Ticket) IsTerminal() bool {
	return IsTerminalStatus(t.Status)
}
