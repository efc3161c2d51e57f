package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/config"
)

// queryPendingErrorCode is Daraja's signal that the transaction is still
// being processed when the status query arrives before the payer responds.
const queryPendingErrorCode = "500.001.1001"

// Client is a stateless adapter over the Daraja STK push API. Every
// operation re-authenticates; tokens are never cached across calls.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortcode      string
	passkey        string
	callbackURL    string
	httpClient     *http.Client
}

// NewClient builds a gateway client from application configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:        strings.TrimRight(cfg.MpesaBaseURL, "/"),
		consumerKey:    cfg.MpesaConsumerKey,
		consumerSecret: cfg.MpesaConsumerSecret,
		shortcode:      cfg.MpesaShortcode,
		passkey:        cfg.MpesaPasskey,
		callbackURL:    cfg.MpesaCallbackURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// PushResult is the outcome of an STK push initiation. Gateway-reported
// rejections land here as Success=false, not as Go errors.
type PushResult struct {
	Success           bool
	CheckoutRequestID string
	MerchantRequestID string
	CustomerMessage   string
	Error             string
}

// QueryResult is a point-in-time view of a previously initiated push.
type QueryResult struct {
	// Pending means the gateway has no terminal result yet.
	Pending    bool
	ResultCode string
	ResultDesc string
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type pushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type pushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}

type queryRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type queryResponse struct {
	ResultCode   string `json:"ResultCode"`
	ResultDesc   string `json:"ResultDesc"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// StkPassword derives the Daraja request password and timestamp pair:
// base64(shortcode + passkey + timestamp) with timestamp YYYYMMDDHHmmss.
func StkPassword(shortcode, passkey string, t time.Time) (password, timestamp string) {
	timestamp = t.Format("20060102150405")
	password = base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
	return password, timestamp
}

// Authenticate exchanges the configured consumer credentials for a
// short-lived bearer token.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", fmt.Errorf("create auth request: %w", err)
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(c.consumerKey + ":" + c.consumerSecret))
	req.Header.Set("Authorization", "Basic "+credentials)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute auth request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read auth response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("auth request rejected: status %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed authResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal auth response: %w", err)
	}

	if parsed.AccessToken == "" {
		return "", fmt.Errorf("auth response missing access_token")
	}

	return parsed.AccessToken, nil
}

// InitiatePush submits an STK push request for the given phone and amount.
// A gateway business rejection is returned as PushResult{Success: false};
// only transport and encoding failures produce a Go error.
func (c *Client) InitiatePush(ctx context.Context, phone string, amount decimal.Decimal, reference, description string) (PushResult, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return PushResult{}, err
	}

	password, timestamp := StkPassword(c.shortcode, c.passkey, time.Now())

	payload := pushRequest{
		BusinessShortCode: c.shortcode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount.Round(0).String(),
		PartyA:            phone,
		PartyB:            c.shortcode,
		PhoneNumber:       phone,
		CallBackURL:       c.callbackURL,
		AccountReference:  reference,
		TransactionDesc:   description,
	}

	status, body, err := c.post(ctx, "/mpesa/stkpush/v1/processrequest", token, payload)
	if err != nil {
		return PushResult{}, err
	}

	var parsed pushResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return PushResult{}, fmt.Errorf("unmarshal push response: %w", err)
	}

	if status < 200 || status >= 300 {
		msg := parsed.ErrorMessage
		if msg == "" {
			msg = fmt.Sprintf("push rejected with status %d", status)
		}
		return PushResult{Success: false, Error: msg}, nil
	}

	if parsed.ResponseCode != "0" {
		msg := parsed.ResponseDescription
		if msg == "" {
			msg = "push request not accepted by gateway"
		}
		return PushResult{Success: false, Error: msg}, nil
	}

	return PushResult{
		Success:           true,
		CheckoutRequestID: parsed.CheckoutRequestID,
		MerchantRequestID: parsed.MerchantRequestID,
		CustomerMessage:   parsed.CustomerMessage,
	}, nil
}

// QueryStatus checks the point-in-time state of a previously initiated push.
func (c *Client) QueryStatus(ctx context.Context, checkoutRequestID string) (QueryResult, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return QueryResult{}, err
	}

	password, timestamp := StkPassword(c.shortcode, c.passkey, time.Now())

	payload := queryRequest{
		BusinessShortCode: c.shortcode,
		Password:          password,
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	status, body, err := c.post(ctx, "/mpesa/stkpushquery/v1/query", token, payload)
	if err != nil {
		return QueryResult{}, err
	}

	var parsed queryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return QueryResult{}, fmt.Errorf("unmarshal query response: %w", err)
	}

	// An in-flight transaction is reported as an error payload rather than
	// a result code.
	if parsed.ErrorCode == queryPendingErrorCode {
		return QueryResult{Pending: true, ResultDesc: parsed.ErrorMessage}, nil
	}

	if status < 200 || status >= 300 {
		return QueryResult{}, fmt.Errorf("query rejected: status %d, body: %s", status, string(body))
	}

	if parsed.ResultCode == "" {
		return QueryResult{Pending: true, ResultDesc: parsed.ResultDesc}, nil
	}

	return QueryResult{
		ResultCode: parsed.ResultCode,
		ResultDesc: parsed.ResultDesc,
	}, nil
}

func (c *Client) post(ctx context.Context, path, token string, payload interface{}) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
