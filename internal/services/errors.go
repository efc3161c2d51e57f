package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Subject lookup failures, surfaced as 404s at the HTTP boundary.
var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEventNotFound = errors.New("event not found")
)

// PushError means the gateway rejected the push or it never reached the
// gateway. The record exists and is committed as failed.
type PushError struct {
	RecordID       uuid.UUID
	GatewayMessage string
}

func (e *PushError) Error() string {
	return fmt.Sprintf("push initiation failed: %s", e.GatewayMessage)
}

// UncertainError means the terminal write after polling failed. The true
// payment outcome is unknown; the record id is carried for support
// follow-up and later reconciliation by the callback path.
type UncertainError struct {
	RecordID uuid.UUID
	Err      error
}

func (e *UncertainError) Error() string {
	return fmt.Sprintf("payment status uncertain for record %s: %v", e.RecordID, e.Err)
}

func (e *UncertainError) Unwrap() error {
	return e.Err
}
