package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/database"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/models"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/mpesa"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/services"
)

// stubGateway lets each test script the gateway's behavior. queryFunc is
// invoked for every status query, so tests can change answers mid-flow.
type stubGateway struct {
	pushResult mpesa.PushResult
	pushErr    error
	queryFunc  func(ctx context.Context, checkoutRequestID string) (mpesa.QueryResult, error)
}

func (g *stubGateway) InitiatePush(ctx context.Context, phone string, amount decimal.Decimal, reference, description string) (mpesa.PushResult, error) {
	return g.pushResult, g.pushErr
}

func (g *stubGateway) QueryStatus(ctx context.Context, checkoutRequestID string) (mpesa.QueryResult, error) {
	return g.queryFunc(ctx, checkoutRequestID)
}

func acceptedPush() mpesa.PushResult {
	return mpesa.PushResult{
		Success:           true,
		CheckoutRequestID: "ws_CO_test_1",
		MerchantRequestID: "mr-test-1",
		CustomerMessage:   "Success. Request accepted for processing",
	}
}

func completedQuery(ctx context.Context, checkoutRequestID string) (mpesa.QueryResult, error) {
	return mpesa.QueryResult{ResultCode: "0", ResultDesc: "The service request is processed successfully."}, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(conn))
	return conn
}

func seedOrder(t *testing.T, db *gorm.DB) *models.Order {
	t.Helper()

	order := &models.Order{
		CustomerID:  uuid.New(),
		OrderNumber: "ORD-1001",
		Status:      "pending",
		PlacedAt:    time.Now(),
		TotalAmount: decimal.NewFromInt(1500),
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestPay_CompletedAfterPolling(t *testing.T) {
	db := openTestDB(t)
	gateway := &stubGateway{pushResult: acceptedPush(), queryFunc: completedQuery}
	service := services.NewPaymentService(db, gateway, 0, 3)

	order := seedOrder(t, db)

	payment, err := service.Pay(context.Background(), order.ID, decimal.NewFromInt(1500), "254712345678")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, order.OrderNumber, payment.OrderNumber)
	require.NotNil(t, payment.CheckoutRequestID)
	assert.Equal(t, "ws_CO_test_1", *payment.CheckoutRequestID)
	assert.Equal(t, "mr-test-1", payment.MerchantRequestID)
}

func TestPay_OrderNotFound(t *testing.T) {
	db := openTestDB(t)
	gateway := &stubGateway{pushResult: acceptedPush(), queryFunc: completedQuery}
	service := services.NewPaymentService(db, gateway, 0, 3)

	_, err := service.Pay(context.Background(), uuid.New(), decimal.NewFromInt(100), "254712345678")

	assert.ErrorIs(t, err, services.ErrOrderNotFound)
}

func TestPay_PushRejectionCommitsFailedRecord(t *testing.T) {
	db := openTestDB(t)
	gateway := &stubGateway{
		pushResult: mpesa.PushResult{Success: false, Error: "Bad Request - Invalid PhoneNumber"},
		queryFunc: func(ctx context.Context, id string) (mpesa.QueryResult, error) {
			t.Fatal("rejected push must not be polled")
			return mpesa.QueryResult{}, nil
		},
	}
	service := services.NewPaymentService(db, gateway, 0, 3)

	order := seedOrder(t, db)

	payment, err := service.Pay(context.Background(), order.ID, decimal.NewFromInt(100), "0712")

	var pushErr *services.PushError
	require.ErrorAs(t, err, &pushErr)
	assert.Equal(t, payment.ID, pushErr.RecordID)

	// The failed attempt is still committed.
	var stored models.Payment
	require.NoError(t, db.First(&stored, "id = ?", payment.ID).Error)
	assert.Equal(t, models.PaymentStatusFailed, stored.Status)
	assert.Equal(t, "Bad Request - Invalid PhoneNumber", stored.StatusMessage)
	assert.Nil(t, stored.CheckoutRequestID)
}

func TestPay_CancelledByUser(t *testing.T) {
	db := openTestDB(t)
	gateway := &stubGateway{
		pushResult: acceptedPush(),
		queryFunc: func(ctx context.Context, id string) (mpesa.QueryResult, error) {
			return mpesa.QueryResult{ResultCode: "1032", ResultDesc: "Request cancelled by user"}, nil
		},
	}
	service := services.NewPaymentService(db, gateway, 0, 3)

	order := seedOrder(t, db)

	payment, err := service.Pay(context.Background(), order.ID, decimal.NewFromInt(1500), "254712345678")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	assert.Equal(t, "Request cancelled by user", payment.StatusMessage)
}

func TestPay_TimeoutPersistsAsFailed(t *testing.T) {
	db := openTestDB(t)
	gateway := &stubGateway{
		pushResult: acceptedPush(),
		queryFunc: func(ctx context.Context, id string) (mpesa.QueryResult, error) {
			return mpesa.QueryResult{Pending: true}, nil
		},
	}
	service := services.NewPaymentService(db, gateway, 0, 2)

	order := seedOrder(t, db)

	payment, err := service.Pay(context.Background(), order.ID, decimal.NewFromInt(1500), "254712345678")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	assert.Contains(t, payment.StatusMessage, "timed out")
}

func TestPay_CallbackBeatsPoll(t *testing.T) {
	db := openTestDB(t)

	gateway := &stubGateway{pushResult: acceptedPush()}
	service := services.NewPaymentService(db, gateway, 0, 3)

	// The callback lands while the poll is still in flight; the poll then
	// reports a contradictory failure which must not downgrade the record.
	gateway.queryFunc = func(ctx context.Context, id string) (mpesa.QueryResult, error) {
		applied := service.ApplyCallback(confirmedCallback(id, "254712345678", decimal.NewFromInt(1500)))
		assert.True(t, applied)
		return mpesa.QueryResult{ResultCode: "1037", ResultDesc: "DS timeout"}, nil
	}

	order := seedOrder(t, db)

	payment, err := service.Pay(context.Background(), order.ID, decimal.NewFromInt(1500), "254712345678")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, "NLJ7RT61SV", payment.MpesaReceipt)
}

func confirmedCallback(checkoutRequestID, phone string, amount decimal.Decimal) mpesa.CallbackResult {
	return mpesa.CallbackResult{
		Success:           true,
		MerchantRequestID: "mr-test-1",
		CheckoutRequestID: checkoutRequestID,
		ResultCode:        0,
		ResultDesc:        "The service request is processed successfully.",
		Transaction: &mpesa.CallbackTransaction{
			Amount:       amount,
			MpesaReceipt: "NLJ7RT61SV",
			PhoneNumber:  phone,
		},
	}
}

func seedProcessingPayment(t *testing.T, db *gorm.DB, checkoutRequestID string) *models.Payment {
	t.Helper()

	order := seedOrder(t, db)
	payment := &models.Payment{
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		Amount:            decimal.NewFromInt(1500),
		PhoneNumber:       "254712345678",
		CheckoutRequestID: &checkoutRequestID,
		MerchantRequestID: "mr-test-1",
		Status:            models.PaymentStatusProcessing,
	}
	require.NoError(t, db.Create(payment).Error)
	return payment
}

func TestApplyCallback_CompletesProcessingPayment(t *testing.T) {
	db := openTestDB(t)
	service := services.NewPaymentService(db, &stubGateway{}, 0, 3)

	payment := seedProcessingPayment(t, db, "ws_CO_cb_1")

	applied := service.ApplyCallback(confirmedCallback("ws_CO_cb_1", "254712345678", decimal.NewFromInt(1500)))

	assert.True(t, applied)

	var stored models.Payment
	require.NoError(t, db.First(&stored, "id = ?", payment.ID).Error)
	assert.Equal(t, models.PaymentStatusCompleted, stored.Status)
	assert.Equal(t, "NLJ7RT61SV", stored.MpesaReceipt)
	assert.Equal(t, "Payment confirmed via callback", stored.StatusMessage)
}

func TestApplyCallback_IdempotentOnCompleted(t *testing.T) {
	db := openTestDB(t)
	service := services.NewPaymentService(db, &stubGateway{}, 0, 3)

	payment := seedProcessingPayment(t, db, "ws_CO_cb_2")
	callback := confirmedCallback("ws_CO_cb_2", "254712345678", decimal.NewFromInt(1500))

	require.True(t, service.ApplyCallback(callback))
	assert.True(t, service.ApplyCallback(callback))

	var stored models.Payment
	require.NoError(t, db.First(&stored, "id = ?", payment.ID).Error)
	assert.Equal(t, models.PaymentStatusCompleted, stored.Status)
	assert.Equal(t, "NLJ7RT61SV", stored.MpesaReceipt)
}

func TestApplyCallback_UnmatchedIsNoOp(t *testing.T) {
	db := openTestDB(t)
	service := services.NewPaymentService(db, &stubGateway{}, 0, 3)

	payment := seedProcessingPayment(t, db, "ws_CO_cb_3")

	applied := service.ApplyCallback(confirmedCallback("ws_CO_unknown", "254712345678", decimal.NewFromInt(1500)))

	assert.False(t, applied)

	var stored models.Payment
	require.NoError(t, db.First(&stored, "id = ?", payment.ID).Error)
	assert.Equal(t, models.PaymentStatusProcessing, stored.Status)
}

func TestApplyCallback_AmountMismatchIgnored(t *testing.T) {
	db := openTestDB(t)
	service := services.NewPaymentService(db, &stubGateway{}, 0, 3)

	payment := seedProcessingPayment(t, db, "ws_CO_cb_4")

	applied := service.ApplyCallback(confirmedCallback("ws_CO_cb_4", "254712345678", decimal.NewFromInt(9999)))

	assert.False(t, applied)

	var stored models.Payment
	require.NoError(t, db.First(&stored, "id = ?", payment.ID).Error)
	assert.Equal(t, models.PaymentStatusProcessing, stored.Status)
	assert.Empty(t, stored.MpesaReceipt)
}

func TestApplyCallback_FailedRecordNotUpgraded(t *testing.T) {
	db := openTestDB(t)
	service := services.NewPaymentService(db, &stubGateway{}, 0, 3)

	payment := seedProcessingPayment(t, db, "ws_CO_cb_6")
	require.NoError(t, db.Model(payment).Updates(map[string]interface{}{
		"status":         models.PaymentStatusFailed,
		"status_message": "Transaction timed out. Contact support if your payment went through.",
	}).Error)

	// A late success callback must not revive a record that already failed.
	applied := service.ApplyCallback(confirmedCallback("ws_CO_cb_6", "254712345678", decimal.NewFromInt(1500)))

	assert.False(t, applied)

	var stored models.Payment
	require.NoError(t, db.First(&stored, "id = ?", payment.ID).Error)
	assert.Equal(t, models.PaymentStatusFailed, stored.Status)
	assert.Empty(t, stored.MpesaReceipt)
	assert.Equal(t, "Transaction timed out. Contact support if your payment went through.", stored.StatusMessage)
}

func TestApplyCallback_FailureResultIgnored(t *testing.T) {
	db := openTestDB(t)
	service := services.NewPaymentService(db, &stubGateway{}, 0, 3)

	payment := seedProcessingPayment(t, db, "ws_CO_cb_5")

	applied := service.ApplyCallback(mpesa.CallbackResult{
		Success:           false,
		CheckoutRequestID: "ws_CO_cb_5",
		ResultCode:        1032,
		ResultDesc:        "Request cancelled by user",
	})

	assert.False(t, applied)

	var stored models.Payment
	require.NoError(t, db.First(&stored, "id = ?", payment.ID).Error)
	assert.Equal(t, models.PaymentStatusProcessing, stored.Status)
}

func TestPay_GatewayTransportErrorsExhaustAttempts(t *testing.T) {
	db := openTestDB(t)
	gateway := &stubGateway{
		pushResult: acceptedPush(),
		queryFunc: func(ctx context.Context, id string) (mpesa.QueryResult, error) {
			return mpesa.QueryResult{}, errors.New("connection refused")
		},
	}
	service := services.NewPaymentService(db, gateway, 0, 2)

	order := seedOrder(t, db)

	payment, err := service.Pay(context.Background(), order.ID, decimal.NewFromInt(1500), "254712345678")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	assert.Contains(t, payment.StatusMessage, "connection refused")
}
