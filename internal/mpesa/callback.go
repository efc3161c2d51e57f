package mpesa

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CallbackTransaction is the flattened metadata of a confirmed payment.
type CallbackTransaction struct {
	Amount          decimal.Decimal
	MpesaReceipt    string
	PhoneNumber     string
	TransactionDate string
}

// CallbackResult is the parsed form of the gateway's callback envelope.
// Success is true only when the payload parsed cleanly and the gateway
// reported a completed transaction (result code 0).
type CallbackResult struct {
	Success           bool
	MerchantRequestID string
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	Transaction       *CallbackTransaction
}

type callbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        *int   `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string          `json:"Name"`
					Value json.RawMessage `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// ParseCallback extracts the nested stkCallback result without doing any
// I/O. Malformed payloads yield Success=false rather than an error.
func ParseCallback(body []byte) CallbackResult {
	var envelope callbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return CallbackResult{}
	}

	stk := envelope.Body.StkCallback
	if stk.CheckoutRequestID == "" || stk.ResultCode == nil {
		return CallbackResult{}
	}

	result := CallbackResult{
		MerchantRequestID: stk.MerchantRequestID,
		CheckoutRequestID: stk.CheckoutRequestID,
		ResultCode:        *stk.ResultCode,
		ResultDesc:        stk.ResultDesc,
	}

	if result.ResultCode != 0 {
		return result
	}

	txn := &CallbackTransaction{}
	for _, item := range stk.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			var amount float64
			if err := json.Unmarshal(item.Value, &amount); err == nil {
				txn.Amount = decimal.NewFromFloat(amount)
			}
		case "MpesaReceiptNumber":
			var receipt string
			if err := json.Unmarshal(item.Value, &receipt); err == nil {
				txn.MpesaReceipt = receipt
			}
		case "PhoneNumber":
			txn.PhoneNumber = rawToString(item.Value)
		case "TransactionDate":
			txn.TransactionDate = rawToString(item.Value)
		}
	}

	result.Success = true
	result.Transaction = txn
	return result
}

// rawToString renders a metadata value that the gateway sends as either a
// JSON number or a string.
func rawToString(raw json.RawMessage) string {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber.String()
	}

	return string(raw)
}
