package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/frontdesk/config"
	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/sirupsen/logrus"
)

// ErrCheckoutRejected is wrapped whenever the gateway refuses a push request.
var ErrCheckoutRejected = errors.New("push payment rejected")

// Client sends mobile-money push requests to the payment gateway.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logrus.Logger
}

// CheckoutRequest asks the gateway to push a payment prompt to the guest's phone.
type CheckoutRequest struct {
	AccountNumber string      `json:"accountNumber"`
	ReferenceID   string      `json:"referenceId"`
	Amount        json.Number `json:"amount"`
}

// CheckoutResponse only acknowledges the push; settlement is confirmed by the
// hotel backend, never by this response.
type CheckoutResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
}

func NewClient(cfg config.GatewayConfig, logger *logrus.Logger) *Client {
	return NewClientWithHTTP(cfg.BaseURL, cfg.APIKey, &http.Client{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, logger)
}

func NewClientWithHTTP(baseURL, apiKey string, httpClient *http.Client, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  httpClient,
		logger:  logger,
	}
}

// IsConfigured returns true if the gateway has somewhere to send requests.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	if !c.IsConfigured() {
		return nil, domain.NewRejectedError("checkout", "payment gateway not configured", ErrCheckoutRejected)
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.WithFields(logrus.Fields{
		"reference_id": req.ReferenceID,
		"amount":       req.Amount.String(),
		"account":      maskAccount(req.AccountNumber),
	}).Info("Initiating push payment")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.WithError(err).Error("Failed to call payment gateway")
		return nil, domain.NewTransientError("checkout", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTransientError("checkout", fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":  resp.StatusCode,
		"reference_id": req.ReferenceID,
	}).Info("Payment gateway response received")

	if resp.StatusCode >= 500 {
		return nil, domain.NewTransientError("checkout", fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, string(body)))
	}

	var checkout CheckoutResponse
	if err := json.Unmarshal(body, &checkout); err != nil {
		if resp.StatusCode >= 400 {
			return nil, domain.NewRejectedError("checkout", fmt.Sprintf("payment gateway returned status %d", resp.StatusCode), ErrCheckoutRejected)
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode >= 400 || !checkout.Success || checkout.TransactionID == "" {
		msg := checkout.Message
		if msg == "" {
			msg = "payment gateway declined the request"
		}
		c.logger.WithFields(logrus.Fields{
			"reference_id": req.ReferenceID,
			"message":      msg,
		}).Warn("Push payment rejected")
		return nil, domain.NewRejectedError("checkout", msg, ErrCheckoutRejected)
	}

	c.logger.WithFields(logrus.Fields{
		"reference_id":   req.ReferenceID,
		"transaction_id": checkout.TransactionID,
	}).Info("Push payment initiated successfully")

	return &checkout, nil
}

// maskAccount keeps the last four digits for logs.
func maskAccount(account string) string {
	if len(account) <= 4 {
		return account
	}
	return strings.Repeat("*", len(account)-4) + account[len(account)-4:]
}
