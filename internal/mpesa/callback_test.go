package mpesa_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/mpesa"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

const successCallback = `{
	"Body": {
		"stkCallback": {
			"MerchantRequestID": "29115-34620561-1",
			"CheckoutRequestID": "ws_CO_191220191020363925",
			"ResultCode": 0,
			"ResultDesc": "The service request is processed successfully.",
			"CallbackMetadata": {
				"Item": [
					{"Name": "Amount", "Value": 1500.00},
					{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
					{"Name": "TransactionDate", "Value": 20191219102115},
					{"Name": "PhoneNumber", "Value": 254712345678}
				]
			}
		}
	}
}`

const failedCallback = `{
	"Body": {
		"stkCallback": {
			"MerchantRequestID": "29115-34620561-1",
			"CheckoutRequestID": "ws_CO_191220191020363925",
			"ResultCode": 1032,
			"ResultDesc": "Request cancelled by user."
		}
	}
}`

func TestParseCallback_Success(t *testing.T) {
	result := mpesa.ParseCallback([]byte(successCallback))

	assert.True(t, result.Success)
	assert.Equal(t, "29115-34620561-1", result.MerchantRequestID)
	assert.Equal(t, "ws_CO_191220191020363925", result.CheckoutRequestID)
	assert.Equal(t, 0, result.ResultCode)

	require.NotNil(t, result.Transaction)
	assert.True(t, result.Transaction.Amount.Equal(decimalFromString(t, "1500")))
	assert.Equal(t, "NLJ7RT61SV", result.Transaction.MpesaReceipt)
	assert.Equal(t, "254712345678", result.Transaction.PhoneNumber)
	assert.Equal(t, "20191219102115", result.Transaction.TransactionDate)
}

func TestParseCallback_Cancelled(t *testing.T) {
	result := mpesa.ParseCallback([]byte(failedCallback))

	assert.False(t, result.Success)
	assert.Equal(t, "ws_CO_191220191020363925", result.CheckoutRequestID)
	assert.Equal(t, 1032, result.ResultCode)
	assert.Equal(t, "Request cancelled by user.", result.ResultDesc)
	assert.Nil(t, result.Transaction)
}

func TestParseCallback_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":             `<xml>nope</xml>`,
		"empty object":         `{}`,
		"missing result code":  `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_1"}}}`,
		"missing checkout id":  `{"Body":{"stkCallback":{"ResultCode":0}}}`,
		"wrong envelope shape": `{"stkCallback":{"CheckoutRequestID":"ws_CO_1","ResultCode":0}}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			result := mpesa.ParseCallback([]byte(payload))
			assert.False(t, result.Success)
			assert.Empty(t, result.CheckoutRequestID)
		})
	}
}

func TestParseCallback_StringMetadataValues(t *testing.T) {
	payload := `{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "mr-1",
				"CheckoutRequestID": "ws_CO_1",
				"ResultCode": 0,
				"ResultDesc": "ok",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 250},
						{"Name": "MpesaReceiptNumber", "Value": "ABC123"},
						{"Name": "PhoneNumber", "Value": "254700000000"}
					]
				}
			}
		}
	}`

	result := mpesa.ParseCallback([]byte(payload))

	require.True(t, result.Success)
	require.NotNil(t, result.Transaction)
	assert.Equal(t, "254700000000", result.Transaction.PhoneNumber)
	assert.True(t, result.Transaction.Amount.Equal(decimalFromString(t, "250")))
}
