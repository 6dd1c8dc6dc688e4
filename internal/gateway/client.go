package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type createSessionRequest struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

type createSessionResponse struct {
	SessionRef string `json:"session_ref"`
}

// Client talks to the external payment processor over HTTP. Session creation
// goes through a circuit breaker; signature verification is local to the
// shared secret and needs no network round trip.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[string]
	logger    *zap.Logger
}

func NewClient(baseURL, keyID, keySecret string, timeout time.Duration, logger *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		http:      &http.Client{Timeout: timeout},
		breaker:   breaker,
		logger:    logger,
	}
}

func (c *Client) CreateSession(ctx context.Context, orderID string, amount int64, currency string) (string, error) {
	if amount <= 0 {
		return "", ErrInvalidAmount
	}

	sessionRef, err := c.breaker.Execute(func() (string, error) {
		return c.createSession(ctx, orderID, amount, currency)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: circuit open", ErrGatewayUnavailable)
		}
		return "", err
	}
	return sessionRef, nil
}

func (c *Client) createSession(ctx context.Context, orderID string, amount int64, currency string) (string, error) {
	body, err := json.Marshal(createSessionRequest{
		OrderID:  orderID,
		Amount:   amount,
		Currency: currency,
		KeyID:    c.keyID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failures and timeouts are retryable by the caller.
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("%w: gateway returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("gateway rejected session request: %d", resp.StatusCode)
	}

	var sessionResp createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sessionResp); err != nil {
		return "", fmt.Errorf("decode session response: %w", err)
	}
	if sessionResp.SessionRef == "" {
		return "", fmt.Errorf("gateway returned empty session ref")
	}

	return sessionResp.SessionRef, nil
}

func (c *Client) Verify(callback *Callback) (*VerifiedOutcome, error) {
	if callback == nil ||
		callback.SessionRef == "" ||
		callback.TransactionID == "" ||
		callback.Signature == "" {
		return nil, ErrVerificationFailed
	}

	if !verifySignature(callback, c.keySecret) {
		c.logger.Warn("callback signature mismatch",
			zap.String("gateway_session_ref", callback.SessionRef),
			zap.String("gateway_txn_id", callback.TransactionID))
		return nil, ErrVerificationFailed
	}

	method := callback.PaymentMethod
	if method == "" {
		method = "UNKNOWN"
	}

	return &VerifiedOutcome{
		SessionRef:    callback.SessionRef,
		TransactionID: callback.TransactionID,
		Amount:        callback.Amount,
		Success:       callback.Success,
		PaymentMethod: method,
	}, nil
}
