package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/models"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/mpesa"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/reconcile"
)

// PaymentService owns the order-payment flow: it creates the payment
// record, drives the STK push and polling through the coordinator, and
// translates outcomes into durable state changes.
//
// The flow is deliberately two-phase. The first transaction commits the
// record (with gateway identifiers, or already failed) before polling
// starts; the second, independent transaction writes the terminal result
// after polling ends. No transaction is ever held open across the poll
// loop.
type PaymentService struct {
	db          *gorm.DB
	coordinator *reconcile.Coordinator
}

// NewPaymentService wires the service with its polling policy.
func NewPaymentService(db *gorm.DB, gateway reconcile.Gateway, interval time.Duration, maxAttempts int) *PaymentService {
	return &PaymentService{
		db:          db,
		coordinator: reconcile.NewCoordinator(gateway, interval, maxAttempts),
	}
}

// Pay runs one complete payment attempt for an order and blocks until the
// outcome is known or the polling ceiling is reached. Polling and the
// terminal write run on a background context: once the push is out, the
// attempt is reconciled to completion even if the caller goes away.
func (s *PaymentService) Pay(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, phone string) (*models.Payment, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	payment, pushFailed, err := s.initiate(ctx, &order, amount, phone)
	if err != nil {
		return nil, err
	}

	if pushFailed {
		return payment, &PushError{RecordID: payment.ID, GatewayMessage: payment.StatusMessage}
	}

	outcome := s.coordinator.Await(context.Background(), *payment.CheckoutRequestID)

	if err := s.finalizePayment(payment.ID, outcome); err != nil {
		log.Printf("[Payment] terminal write failed for payment %s: %v", payment.ID, err)
		return payment, &UncertainError{RecordID: payment.ID, Err: err}
	}

	var final models.Payment
	if err := s.db.First(&final, "id = ?", payment.ID).Error; err != nil {
		return payment, &UncertainError{RecordID: payment.ID, Err: err}
	}

	return &final, nil
}

// initiate is the first phase: create the record in pending state, issue
// the push, and commit. A rejected push still commits the record, marked
// failed, so no attempt is ever left unrepresented.
func (s *PaymentService) initiate(ctx context.Context, order *models.Order, amount decimal.Decimal, phone string) (*models.Payment, bool, error) {
	payment := &models.Payment{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Amount:      amount,
		PhoneNumber: phone,
		Status:      models.PaymentStatusPending,
	}

	pushFailed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		result, failure := s.coordinator.Initiate(ctx, phone, amount, order.OrderNumber, "Goalkeepers merchandise order "+order.OrderNumber)
		if failure != nil {
			pushFailed = true
			payment.Status = models.PaymentStatusFailed
			payment.StatusMessage = failure.Message
			return tx.Model(payment).Updates(map[string]interface{}{
				"status":         payment.Status,
				"status_message": payment.StatusMessage,
			}).Error
		}

		payment.CheckoutRequestID = &result.CheckoutRequestID
		payment.MerchantRequestID = result.MerchantRequestID
		payment.Status = models.PaymentStatusProcessing
		payment.StatusMessage = result.CustomerMessage
		return tx.Model(payment).Updates(map[string]interface{}{
			"checkout_request_id": result.CheckoutRequestID,
			"merchant_request_id": result.MerchantRequestID,
			"status":              payment.Status,
			"status_message":      payment.StatusMessage,
		}).Error
	})
	if err != nil {
		return nil, false, err
	}

	return payment, pushFailed, nil
}

// finalizePayment is the second phase: an independent transaction applying
// the coordinator's outcome. The update is conditional on the record not
// already being terminal, which makes it idempotent and lets it lose
// cleanly to a callback that got there first.
func (s *PaymentService) finalizePayment(paymentID uuid.UUID, outcome reconcile.Outcome) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.First(&payment, "id = ?", paymentID).Error; err != nil {
			return err
		}

		if payment.IsTerminal() {
			log.Printf("[Payment] payment %s already terminal (%s), skipping poll outcome %s",
				paymentID, payment.Status, outcome.Status)
			return nil
		}

		result := tx.Model(&models.Payment{}).
			Where("id = ? AND status NOT IN ?", paymentID, models.TerminalStatuses).
			Updates(map[string]interface{}{
				"status":         statusForOutcome(outcome),
				"status_message": outcome.Message,
			})
		return result.Error
	})
}

// ApplyCallback reconciles an out-of-band gateway callback against the
// payment table. Matching is by the gateway's checkout request id; phone
// and amount only corroborate. An unmatched or already-terminal record is
// a logged no-op, never an error.
func (s *PaymentService) ApplyCallback(result mpesa.CallbackResult) bool {
	if !result.Success || result.Transaction == nil {
		return false
	}

	applied := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.First(&payment, "checkout_request_id = ?", result.CheckoutRequestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if !callbackMatchesPayment(&payment, result) {
			log.Printf("[Payment] callback %s matched payment %s but phone/amount disagree, ignoring",
				result.CheckoutRequestID, payment.ID)
			return nil
		}

		if payment.Status == models.PaymentStatusCompleted {
			// Terminal fields already hold this outcome; reapplying is a no-op.
			applied = true
			return nil
		}

		update := tx.Model(&models.Payment{}).
			Where("id = ? AND status NOT IN ?", payment.ID, models.TerminalStatuses).
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
		log.Printf("[Payment] callback apply failed for %s: %v", result.CheckoutRequestID, err)
		return false
	}

	return applied
}

// callbackMatchesPayment corroborates the callback against the stored
// record. The checkout id already matched; merchant id, phone, and amount
// must not contradict it.
func callbackMatchesPayment(payment *models.Payment, result mpesa.CallbackResult) bool {
	if payment.MerchantRequestID != "" && result.MerchantRequestID != "" &&
		payment.MerchantRequestID != result.MerchantRequestID {
		return false
	}
	if result.Transaction.PhoneNumber != "" && payment.PhoneNumber != result.Transaction.PhoneNumber {
		return false
	}
	if !result.Transaction.Amount.IsZero() && !payment.Amount.Equal(result.Transaction.Amount) {
		return false
	}
	return true
}

func statusForOutcome(outcome reconcile.Outcome) string {
	if outcome.Status == reconcile.StatusCompleted {
		return models.PaymentStatusCompleted
	}
	// timedOut persists as failed; the status message keeps the distinction.
	return models.PaymentStatusFailed
}
