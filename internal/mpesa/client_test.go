package mpesa_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/config"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/mpesa"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		MpesaBaseURL:        baseURL,
		MpesaConsumerKey:    "key",
		MpesaConsumerSecret: "secret",
		MpesaShortcode:      "174379",
		MpesaPasskey:        "passkey",
		MpesaCallbackURL:    "https://example.com/api/payments/mpesa/callback?token=t",
	}
}

func TestStkPassword(t *testing.T) {
	at := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)

	password, timestamp := mpesa.StkPassword("174379", "passkey", at)

	assert.Equal(t, "20240315103045", timestamp)
	decoded, err := base64.StdEncoding.DecodeString(password)
	require.NoError(t, err)
	assert.Equal(t, "174379passkey20240315103045", string(decoded))
}

func TestAuthenticate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/v1/generate", r.URL.Path)
		assert.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))

		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("key:secret"))
		assert.Equal(t, expected, r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "token-abc",
			"expires_in":   "3599",
		})
	}))
	defer server.Close()

	client := mpesa.NewClient(testConfig(server.URL))
	token, err := client.Authenticate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "token-abc", token)
}

func TestAuthenticate_RejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorMessage":"Invalid credentials"}`))
	}))
	defer server.Close()

	client := mpesa.NewClient(testConfig(server.URL))
	_, err := client.Authenticate(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestInitiatePush_Accepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
			return
		}

		assert.Equal(t, "/mpesa/stkpush/v1/processrequest", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "174379", body["BusinessShortCode"])
		assert.Equal(t, "CustomerPayBillOnline", body["TransactionType"])
		assert.Equal(t, "1500", body["Amount"])
		assert.Equal(t, "254712345678", body["PhoneNumber"])
		assert.Equal(t, "ORD-42", body["AccountReference"])
		assert.NotEmpty(t, body["Password"])
		assert.NotEmpty(t, body["Timestamp"])

		json.NewEncoder(w).Encode(map[string]string{
			"MerchantRequestID":   "mr-1",
			"CheckoutRequestID":   "ws_CO_1",
			"ResponseCode":        "0",
			"ResponseDescription": "Success. Request accepted for processing",
			"CustomerMessage":     "Success. Request accepted for processing",
		})
	}))
	defer server.Close()

	client := mpesa.NewClient(testConfig(server.URL))
	result, err := client.InitiatePush(context.Background(), "254712345678", decimal.NewFromInt(1500), "ORD-42", "order payment")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ws_CO_1", result.CheckoutRequestID)
	assert.Equal(t, "mr-1", result.MerchantRequestID)
}

func TestInitiatePush_GatewayRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
			return
		}

		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"errorCode":    "400.002.02",
			"errorMessage": "Bad Request - Invalid PhoneNumber",
		})
	}))
	defer server.Close()

	client := mpesa.NewClient(testConfig(server.URL))
	result, err := client.InitiatePush(context.Background(), "0712", decimal.NewFromInt(100), "ORD-1", "order payment")

	// Business rejection is data, not an error.
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Bad Request - Invalid PhoneNumber", result.Error)
}

func TestInitiatePush_NonZeroResponseCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"ResponseCode":        "1",
			"ResponseDescription": "Unable to lock subscriber",
		})
	}))
	defer server.Close()

	client := mpesa.NewClient(testConfig(server.URL))
	result, err := client.InitiatePush(context.Background(), "254712345678", decimal.NewFromInt(100), "ORD-1", "order payment")

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Unable to lock subscriber", result.Error)
}

func TestQueryStatus_Completed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
			return
		}

		assert.Equal(t, "/mpesa/stkpushquery/v1/query", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ws_CO_1", body["CheckoutRequestID"])

		json.NewEncoder(w).Encode(map[string]string{
			"ResultCode": "0",
			"ResultDesc": "The service request is processed successfully.",
		})
	}))
	defer server.Close()

	client := mpesa.NewClient(testConfig(server.URL))
	result, err := client.QueryStatus(context.Background(), "ws_CO_1")

	require.NoError(t, err)
	assert.False(t, result.Pending)
	assert.Equal(t, "0", result.ResultCode)
}

func TestQueryStatus_StillProcessing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
			return
		}

		// Daraja reports an in-flight transaction as an error payload.
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"errorCode":    "500.001.1001",
			"errorMessage": "The transaction is being processed",
		})
	}))
	defer server.Close()

	client := mpesa.NewClient(testConfig(server.URL))
	result, err := client.QueryStatus(context.Background(), "ws_CO_1")

	require.NoError(t, err)
	assert.True(t, result.Pending)
}

func TestQueryStatus_TerminalFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"ResultCode": "1032",
			"ResultDesc": "Request cancelled by user",
		})
	}))
	defer server.Close()

	client := mpesa.NewClient(testConfig(server.URL))
	result, err := client.QueryStatus(context.Background(), "ws_CO_1")

	require.NoError(t, err)
	assert.False(t, result.Pending)
	assert.Equal(t, "1032", result.ResultCode)
	assert.Equal(t, "Request cancelled by user", result.ResultDesc)
}
