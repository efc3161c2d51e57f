package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/models"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/mpesa"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/reconcile"
)

// TicketService runs the event-ticket purchase flow. It mirrors the order
// payment flow exactly, plus ticket issuance: a ticket number, a security
// hash over the ticket's identifying fields, and a QR payload embedding
// that hash, all generated before the push goes out.
type TicketService struct {
	db          *gorm.DB
	coordinator *reconcile.Coordinator
}

// NewTicketService wires the service with its polling policy.
func NewTicketService(db *gorm.DB, gateway reconcile.Gateway, interval time.Duration, maxAttempts int) *TicketService {
	return &TicketService{
		db:          db,
		coordinator: reconcile.NewCoordinator(gateway, interval, maxAttempts),
	}
}

// PurchaseInput is the validated ticket purchase request.
type PurchaseInput struct {
	EventID     uuid.UUID
	Category    string
	Amount      decimal.Decimal
	PhoneNumber string
	FullName    string
}

// Purchase issues a ticket and runs its payment attempt to completion,
// blocking until a terminal outcome or the polling ceiling.
func (s *TicketService) Purchase(ctx context.Context, input PurchaseInput) (*models.Ticket, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).First(&event, "id = ?", input.EventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	ticket, pushFailed, err := s.initiate(ctx, &event, input)
	if err != nil {
		return nil, err
	}

	if pushFailed {
		return ticket, &PushError{RecordID: ticket.ID, GatewayMessage: ticket.StatusMessage}
	}

	outcome := s.coordinator.Await(context.Background(), *ticket.CheckoutRequestID)

	if err := s.finalizeTicket(ticket.ID, outcome); err != nil {
		log.Printf("[Ticket] terminal write failed for ticket %s: %v", ticket.ID, err)
		return ticket, &UncertainError{RecordID: ticket.ID, Err: err}
	}

	var final models.Ticket
	if err := s.db.First(&final, "id = ?", ticket.ID).Error; err != nil {
		return ticket, &UncertainError{RecordID: ticket.ID, Err: err}
	}

	return &final, nil
}

func (s *TicketService) initiate(ctx context.Context, event *models.Event, input PurchaseInput) (*models.Ticket, bool, error) {
	number, err := GenerateTicketNumber()
	if err != nil {
		return nil, false, err
	}

	hash := TicketSecurityHash(number, event.ID, input.FullName, input.Category, input.Amount)

	qr, err := ticketQRCode(number, event.ID, hash)
	if err != nil {
		return nil, false, err
	}

	ticket := &models.Ticket{
		EventID:      event.ID,
		TicketNumber: number,
		Category:     input.Category,
		HolderName:   input.FullName,
		Amount:       input.Amount,
		PhoneNumber:  input.PhoneNumber,
		SecurityHash: hash,
		QRCode:       qr,
		Status:       models.PaymentStatusPending,
	}

	pushFailed := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ticket).Error; err != nil {
			return err
		}

		result, failure := s.coordinator.Initiate(ctx, input.PhoneNumber, input.Amount, number, "Ticket for "+event.Name)
		if failure != nil {
			pushFailed = true
			ticket.Status = models.PaymentStatusFailed
			ticket.StatusMessage = failure.Message
			return tx.Model(ticket).Updates(map[string]interface{}{
				"status":         ticket.Status,
				"status_message": ticket.StatusMessage,
			}).Error
		}

		ticket.CheckoutRequestID = &result.CheckoutRequestID
		ticket.MerchantRequestID = result.MerchantRequestID
		ticket.Status = models.PaymentStatusProcessing
		ticket.StatusMessage = result.CustomerMessage
		return tx.Model(ticket).Updates(map[string]interface{}{
			"checkout_request_id": result.CheckoutRequestID,
			"merchant_request_id": result.MerchantRequestID,
			"status":              ticket.Status,
			"status_message":      ticket.StatusMessage,
		}).Error
	})
	if err != nil {
		return nil, false, err
	}

	return ticket, pushFailed, nil
}

func (s *TicketService) finalizeTicket(ticketID uuid.UUID, outcome reconcile.Outcome) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var ticket models.Ticket
		if err := tx.First(&ticket, "id = ?", ticketID).Error; err != nil {
			return err
		}

		if ticket.IsTerminal() {
			log.Printf("[Ticket] ticket %s already terminal (%s), skipping poll outcome %s",
				ticketID, ticket.Status, outcome.Status)
			return nil
		}

		return tx.Model(&models.Ticket{}).
			Where("id = ? AND status NOT IN ?", ticketID, models.TerminalStatuses).
			Updates(map[string]interface{}{
				"status":         statusForOutcome(outcome),
				"status_message": outcome.Message,
			}).Error
	})
}

// ApplyCallback reconciles a gateway callback against the ticket table.
// Same contract as the payment path: checkout id is the match key, the
// rest corroborates, and terminal records are never downgraded.
func (s *TicketService) ApplyCallback(result mpesa.CallbackResult) bool {
	if !result.Success || result.Transaction == nil {
		return false
	}

	applied := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ticket models.Ticket
		if err := tx.First(&ticket, "checkout_request_id = ?", result.CheckoutRequestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if ticket.MerchantRequestID != "" && result.MerchantRequestID != "" &&
			ticket.MerchantRequestID != result.MerchantRequestID {
			log.Printf("[Ticket] callback %s matched ticket %s but merchant id disagrees, ignoring",
				result.CheckoutRequestID, ticket.ID)
			return nil
		}
		if result.Transaction.PhoneNumber != "" && ticket.PhoneNumber != result.Transaction.PhoneNumber {
			log.Printf("[Ticket] callback %s matched ticket %s but phone disagrees, ignoring",
				result.CheckoutRequestID, ticket.ID)
			return nil
		}

		if ticket.Status == models.PaymentStatusCompleted {
			applied = true
			return nil
		}

		update := tx.Model(&models.Ticket{}).
			Where("id = ? AND status NOT IN ?", ticket.ID, models.TerminalStatuses).
			Updates(map[string]interface{}{
				"status":         models.PaymentStatusCompleted,
				"mpesa_receipt":  result.Transaction.MpesaReceipt,
				"status_message": "Payment confirmed via callback",
			})
		if update.Error != nil {
			return update.Error
		}

		applied = update.RowsAffected > 0
		return nil
	})
	if err != nil {
		log.Printf("[Ticket] callback apply failed for %s: %v", result.CheckoutRequestID, err)
		return false
	}

	return applied
}

// Verify checks a presented ticket number against its stored security hash
// and payment state.
func (s *TicketService) Verify(ctx context.Context, ticketNumber string) (*models.Ticket, bool, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).Preload("Event").
		First(&ticket, "ticket_number = ?", ticketNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	expected := TicketSecurityHash(ticket.TicketNumber, ticket.EventID, ticket.HolderName, ticket.Category, ticket.Amount)
	valid := expected == ticket.SecurityHash && ticket.Status == models.PaymentStatusCompleted
	return &ticket, valid, nil
}

// GenerateTicketNumber produces a unique human-readable ticket reference.
func GenerateTicketNumber() (string, error) {
	suffix, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("GKT-%s-%06d", time.Now().Format("20060102"), suffix.Int64()), nil
}

// TicketSecurityHash covers the ticket's identifying fields. Any change to
// the number, event, holder, category, or amount invalidates the hash.
func TicketSecurityHash(ticketNumber string, eventID uuid.UUID, holderName, category string, amount decimal.Decimal) string {
	payload := strings.Join([]string{
		ticketNumber,
		eventID.String(),
		holderName,
		category,
		amount.StringFixed(2),
	}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ticketQRCode renders the scannable payload as a base64 PNG data URL.
func ticketQRCode(ticketNumber string, eventID uuid.UUID, hash string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"ticket_number": ticketNumber,
		"event_id":      eventID.String(),
		"hash":          hash,
	})
	if err != nil {
		return "", err
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
