package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/mpesa"
)

// Status is the terminal classification of one payment attempt.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timedOut"
)

// Outcome is what a coordinator run reports back to its caller. The
// coordinator itself performs no persistence.
type Outcome struct {
	Status  Status
	Message string
}

// Succeeded reports whether the attempt reached confirmed completion.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusCompleted
}

// Gateway is the subset of the push-payment API the coordinator drives.
type Gateway interface {
	InitiatePush(ctx context.Context, phone string, amount decimal.Decimal, reference, description string) (mpesa.PushResult, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (mpesa.QueryResult, error)
}

// Coordinator owns the state machine for a single payment attempt:
// created -> pushed -> polling -> {completed | failed | timedOut}.
type Coordinator struct {
	gateway     Gateway
	interval    time.Duration
	maxAttempts int
}

// NewCoordinator builds a coordinator with the given polling policy.
func NewCoordinator(gateway Gateway, interval time.Duration, maxAttempts int) *Coordinator {
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	return &Coordinator{
		gateway:     gateway,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Initiate drives the created -> pushed transition. A push the gateway
// rejects, or one that cannot be delivered at all, maps straight to a
// failed outcome; no polling is attempted for it.
func (co *Coordinator) Initiate(ctx context.Context, phone string, amount decimal.Decimal, reference, description string) (mpesa.PushResult, *Outcome) {
	result, err := co.gateway.InitiatePush(ctx, phone, amount, reference, description)
	if err != nil {
		return mpesa.PushResult{}, &Outcome{
			Status:  StatusFailed,
			Message: fmt.Sprintf("Push initiation failed: %v", err),
		}
	}

	if !result.Success {
		return result, &Outcome{
			Status:  StatusFailed,
			Message: result.Error,
		}
	}

	return result, nil
}

// Await runs the bounded polling loop against the gateway until a terminal
// result code arrives or the attempt ceiling is reached. A transport error
// on a single query is transient: the loop keeps going and only reports
// timedOut once every attempt is spent.
func (co *Coordinator) Await(ctx context.Context, checkoutRequestID string) Outcome {
	var lastErr error

	for attempt := 1; attempt <= co.maxAttempts; attempt++ {
		result, err := co.gateway.QueryStatus(ctx, checkoutRequestID)
		if err != nil {
			lastErr = err
			log.Printf("[Reconcile] query attempt %d/%d for %s failed: %v",
				attempt, co.maxAttempts, checkoutRequestID, err)
		} else if result.Pending {
			lastErr = nil
		} else if result.ResultCode == "0" {
			return Outcome{
				Status:  StatusCompleted,
				Message: "Payment completed successfully",
			}
		} else {
			message := result.ResultDesc
			if message == "" {
				message = fmt.Sprintf("Payment failed with result code %s", result.ResultCode)
			}
			return Outcome{Status: StatusFailed, Message: message}
		}

		if attempt < co.maxAttempts {
			time.Sleep(co.interval)
		}
	}

	if lastErr != nil {
		return Outcome{
			Status:  StatusTimedOut,
			Message: fmt.Sprintf("Transaction timed out: %v", lastErr),
		}
	}

	return Outcome{
		Status:  StatusTimedOut,
		Message: "Transaction timed out. Contact support if your payment went through.",
	}
}
