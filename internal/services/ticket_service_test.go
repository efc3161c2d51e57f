package services_test

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/models"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/mpesa"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/services"
)

func seedEvent(t *testing.T, db *gorm.DB) *models.Event {
	t.Helper()

	event := &models.Event{
		Name:         "Goalkeepers Showcase",
		Venue:        "Nyayo Stadium",
		Date:         time.Now().Add(72 * time.Hour),
		RegularPrice: decimal.NewFromInt(500),
		VIPPrice:     decimal.NewFromInt(2000),
		IsActive:     true,
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

func purchaseInput(eventID uuid.UUID) services.PurchaseInput {
	return services.PurchaseInput{
		EventID:     eventID,
		Category:    "regular",
		Amount:      decimal.NewFromInt(500),
		PhoneNumber: "254712345678",
		FullName:    "Jane Wanjiru",
	}
}

func TestGenerateTicketNumber_Format(t *testing.T) {
	number, err := services.GenerateTicketNumber()

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^GKT-\d{8}-\d{6}$`), number)
}

func TestTicketSecurityHash_SensitiveToEveryField(t *testing.T) {
	eventID := uuid.New()
	amount := decimal.NewFromInt(500)

	base := services.TicketSecurityHash("GKT-20260830-000001", eventID, "Jane Wanjiru", "regular", amount)

	assert.Equal(t, base,
		services.TicketSecurityHash("GKT-20260830-000001", eventID, "Jane Wanjiru", "regular", amount))

	assert.NotEqual(t, base,
		services.TicketSecurityHash("GKT-20260830-000002", eventID, "Jane Wanjiru", "regular", amount))
	assert.NotEqual(t, base,
		services.TicketSecurityHash("GKT-20260830-000001", uuid.New(), "Jane Wanjiru", "regular", amount))
	assert.NotEqual(t, base,
		services.TicketSecurityHash("GKT-20260830-000001", eventID, "John Otieno", "regular", amount))
	assert.NotEqual(t, base,
		services.TicketSecurityHash("GKT-20260830-000001", eventID, "Jane Wanjiru", "vip", amount))
	assert.NotEqual(t, base,
		services.TicketSecurityHash("GKT-20260830-000001", eventID, "Jane Wanjiru", "regular", decimal.NewFromInt(2000)))
}

func TestPurchase_CompletedAfterPolling(t *testing.T) {
	db := openTestDB(t)
	gateway := &stubGateway{pushResult: acceptedPush(), queryFunc: completedQuery}
	service := services.NewTicketService(db, gateway, 0, 3)

	event := seedEvent(t, db)

	ticket, err := service.Purchase(context.Background(), purchaseInput(event.ID))

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, ticket.Status)
	assert.Equal(t, event.ID, ticket.EventID)
	assert.Equal(t, "Jane Wanjiru", ticket.HolderName)
	assert.NotEmpty(t, ticket.SecurityHash)
	assert.True(t, strings.HasPrefix(ticket.QRCode, "data:image/png;base64,"))
	require.NotNil(t, ticket.CheckoutRequestID)
	assert.Equal(t, "ws_CO_test_1", *ticket.CheckoutRequestID)
}

func TestPurchase_EventNotFound(t *testing.T) {
	db := openTestDB(t)
	service := services.NewTicketService(db, &stubGateway{pushResult: acceptedPush(), queryFunc: completedQuery}, 0, 3)

	_, err := service.Purchase(context.Background(), purchaseInput(uuid.New()))

	assert.ErrorIs(t, err, services.ErrEventNotFound)
}

func TestPurchase_PushRejectionCommitsFailedTicket(t *testing.T) {
	db := openTestDB(t)
	gateway := &stubGateway{
		pushResult: mpesa.PushResult{Success: false, Error: "Unable to lock subscriber"},
	}
	service := services.NewTicketService(db, gateway, 0, 3)

	event := seedEvent(t, db)

	ticket, err := service.Purchase(context.Background(), purchaseInput(event.ID))

	var pushErr *services.PushError
	require.ErrorAs(t, err, &pushErr)
	assert.Equal(t, ticket.ID, pushErr.RecordID)

	var stored models.Ticket
	require.NoError(t, db.First(&stored, "id = ?", ticket.ID).Error)
	assert.Equal(t, models.PaymentStatusFailed, stored.Status)
	assert.Equal(t, "Unable to lock subscriber", stored.StatusMessage)
}

func TestVerify_CompletedTicket(t *testing.T) {
	db := openTestDB(t)
	gateway := &stubGateway{pushResult: acceptedPush(), queryFunc: completedQuery}
	service := services.NewTicketService(db, gateway, 0, 3)

	event := seedEvent(t, db)
	ticket, err := service.Purchase(context.Background(), purchaseInput(event.ID))
	require.NoError(t, err)

	found, valid, err := service.Verify(context.Background(), ticket.TicketNumber)

	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, valid)
	assert.Equal(t, ticket.ID, found.ID)
}

func TestVerify_UnpaidTicketIsInvalid(t *testing.T) {
	db := openTestDB(t)
	gateway := &stubGateway{
		pushResult: acceptedPush(),
		queryFunc: func(ctx context.Context, id string) (mpesa.QueryResult, error) {
			return mpesa.QueryResult{ResultCode: "1032", ResultDesc: "Request cancelled by user"}, nil
		},
	}
	service := services.NewTicketService(db, gateway, 0, 3)

	event := seedEvent(t, db)
	ticket, err := service.Purchase(context.Background(), purchaseInput(event.ID))
	require.NoError(t, err)

	found, valid, err := service.Verify(context.Background(), ticket.TicketNumber)

	require.NoError(t, err)
	require.NotNil(t, found)
	assert.False(t, valid)
}

func TestVerify_TamperedHolderIsInvalid(t *testing.T) {
	db := openTestDB(t)
	gateway := &stubGateway{pushResult: acceptedPush(), queryFunc: completedQuery}
	service := services.NewTicketService(db, gateway, 0, 3)

	event := seedEvent(t, db)
	ticket, err := service.Purchase(context.Background(), purchaseInput(event.ID))
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Ticket{}).
		Where("id = ?", ticket.ID).
		Update("holder_name", "Someone Else").Error)

	_, valid, err := service.Verify(context.Background(), ticket.TicketNumber)

	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerify_UnknownTicketNumber(t *testing.T) {
	db := openTestDB(t)
	service := services.NewTicketService(db, &stubGateway{}, 0, 3)

	found, valid, err := service.Verify(context.Background(), "GKT-20260101-000000")

	require.NoError(t, err)
	assert.Nil(t, found)
	assert.False(t, valid)
}

func seedTicket(t *testing.T, db *gorm.DB, checkout, number, status string) *models.Ticket {
	t.Helper()

	event := seedEvent(t, db)
	ticket := &models.Ticket{
		EventID:           event.ID,
		TicketNumber:      number,
		Category:          "regular",
		HolderName:        "Jane Wanjiru",
		Amount:            decimal.NewFromInt(500),
		PhoneNumber:       "254712345678",
		SecurityHash:      "irrelevant-here",
		CheckoutRequestID: &checkout,
		MerchantRequestID: "mr-test-1",
		Status:            status,
	}
	require.NoError(t, db.Create(ticket).Error)
	return ticket
}

func TestTicketApplyCallback_CompletesProcessingTicket(t *testing.T) {
	db := openTestDB(t)
	service := services.NewTicketService(db, &stubGateway{}, 0, 3)

	ticket := seedTicket(t, db, "ws_CO_ticket_1", "GKT-20260830-000042", models.PaymentStatusProcessing)

	applied := service.ApplyCallback(confirmedCallback("ws_CO_ticket_1", "254712345678", decimal.NewFromInt(500)))

	assert.True(t, applied)

	var stored models.Ticket
	require.NoError(t, db.First(&stored, "id = ?", ticket.ID).Error)
	assert.Equal(t, models.PaymentStatusCompleted, stored.Status)
	assert.Equal(t, "NLJ7RT61SV", stored.MpesaReceipt)
}

func TestTicketApplyCallback_FailedTicketNotUpgraded(t *testing.T) {
	db := openTestDB(t)
	service := services.NewTicketService(db, &stubGateway{}, 0, 3)

	ticket := seedTicket(t, db, "ws_CO_ticket_2", "GKT-20260830-000043", models.PaymentStatusFailed)

	// A late success callback must not revive a ticket that already failed.
	applied := service.ApplyCallback(confirmedCallback("ws_CO_ticket_2", "254712345678", decimal.NewFromInt(500)))

	assert.False(t, applied)

	var stored models.Ticket
	require.NoError(t, db.First(&stored, "id = ?", ticket.ID).Error)
	assert.Equal(t, models.PaymentStatusFailed, stored.Status)
	assert.Empty(t, stored.MpesaReceipt)
}
