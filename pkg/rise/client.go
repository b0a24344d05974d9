package rise

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

	"github.com/angelmondragon/giftcard-checkout-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/metrics"
)

const (
	txTypeRedeem = "REDEEM"
	txTypeVoid   = "VOID"

	headerAPIVersion = "Rise-API-Version"
	headerAccountID  = "rise-account-id"
)

var (
	errAPITokenRequired  = errors.New("rise api token is required")
	errAccountIDRequired = errors.New("rise account id is required")
	errBaseURLRequired   = errors.New("rise base url is required")
	errLoggerRequired    = errors.New("rise logger is required")
)

// Client exposes the three gift-card primitives with centralized auth,
// logging, contract checks, and error mapping. It performs no retries;
// retry policy belongs to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	accountID  string
	apiVersion string
	source     SourceInfo
	logger     *logger.Logger
	metrics    *metrics.CheckoutMetrics
}

// NewClient initializes the gift-card service wrapper and validates credentials.
func NewClient(ctx context.Context, cfg config.RiseConfig, logg *logger.Logger, met *metrics.CheckoutMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	apiToken := strings.TrimSpace(cfg.APIToken)
	if apiToken == "" {
		return nil, errAPITokenRequired
	}

	accountID := strings.TrimSpace(cfg.AccountID)
	if accountID == "" {
		return nil, errAccountIDRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiToken:   apiToken,
		accountID:  accountID,
		apiVersion: cfg.APIVersion,
		source: SourceInfo{
			SourceTenantID:   cfg.SourceTenantID,
			SourceChannelID:  cfg.SourceChannelID,
			SourceLocationID: cfg.SourceLocationID,
		},
		logger:  logg,
		metrics: met,
	}

	logg.Info(ctx, "rise client initialized")
	return c, nil
}

// DefaultSourceInfo returns the configured tenant attribution, used when a
// gift card record carries none of its own.
func (c *Client) DefaultSourceInfo() SourceInfo {
	if c == nil {
		return SourceInfo{}
	}
	return c.source
}

// QueryByCode looks up a gift card by its code. Returns CodeNotFound when
// the service has no record for the code.
func (c *Client) QueryByCode(ctx context.Context, code string) (*GiftCard, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gift card code is required")
	}

	c.log(ctx, "request", "query_gift_card", map[string]any{"code": code})

	body, err := c.do(ctx, "query_gift_card", c.baseURL+"/query", queryRequest{
		Query: queryBody{Filter: queryFilter{Code: code}},
	})
	if err != nil {
		return nil, err
	}

	card, err := decodeGiftCardPayload(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gift card lookup response")
	}
	if card == nil || card.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift card not found")
	}

	c.log(ctx, "response", "query_gift_card", map[string]any{"gift_card_id": card.ID})
	return card, nil
}

// Decrease debits a gift card (redeem). The amount must be positive and the
// idempotency key non-empty; both are rejected before any network call.
func (c *Client) Decrease(ctx context.Context, params DecreaseParams) (*Transaction, error) {
	if strings.TrimSpace(params.GiftCardID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gift card id is required")
	}
	if !params.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "debit amount must be positive")
	}
	if strings.TrimSpace(params.IdempotencyKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required to prevent duplicate transactions")
	}

	c.log(ctx, "request", "decrease_balance", map[string]any{
		"gift_card_id": params.GiftCardID,
		"amount":       params.Amount.StringFixed(2),
		"order_id":     params.Redeem.OrderID,
	})

	tx, err := c.doTransaction(ctx, "decrease_balance", params.GiftCardID+"/decrease", params.toRequest())
	if err != nil {
		return nil, err
	}

	c.log(ctx, "response", "decrease_balance", map[string]any{"transaction_id": tx.TransactionID})
	return tx, nil
}

// Increase credits a gift card back (void). A void must reference the
// transaction it reverses; a missing transaction id is rejected locally.
func (c *Client) Increase(ctx context.Context, params IncreaseParams) (*Transaction, error) {
	if strings.TrimSpace(params.GiftCardID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gift card id is required")
	}
	if !params.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	if strings.TrimSpace(params.IdempotencyKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required to prevent duplicate transactions")
	}
	if strings.TrimSpace(params.Void.TransactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required for void operations")
	}

	c.log(ctx, "request", "increase_balance", map[string]any{
		"gift_card_id":   params.GiftCardID,
		"amount":         params.Amount.StringFixed(2),
		"transaction_id": params.Void.TransactionID,
	})

	tx, err := c.doTransaction(ctx, "increase_balance", params.GiftCardID+"/increase", params.toRequest())
	if err != nil {
		return nil, err
	}

	c.log(ctx, "response", "increase_balance", map[string]any{"transaction_id": tx.TransactionID})
	return tx, nil
}

func (c *Client) doTransaction(ctx context.Context, op, path string, payload transactionRequest) (*Transaction, error) {
	body, err := c.do(ctx, op, c.baseURL+"/"+path, payload)
	if err != nil {
		return nil, err
	}

	var tx Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", op))
	}
	// A 2xx without a transaction id cannot be correlated with a later
	// void, so it is treated as a failure.
	if tx.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gift card service returned no transaction id")
	}
	return &tx, nil
}

func (c *Client) do(ctx context.Context, op, url string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("encode %s request", op))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("build %s request", op))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set(headerAPIVersion, c.apiVersion)
	req.Header.Set(headerAccountID, c.accountID)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveGatewayDuration(op, time.Since(start))
	if err != nil {
		c.metrics.IncGatewayCall(op, "transport_error")
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("gift card service %s failed", op))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.IncGatewayCall(op, "read_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("read %s response", op))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.IncGatewayCall(op, "api_error")
		apiErr := apiErrorFromBody(resp.StatusCode, body)
		c.log(ctx, "error", op, map[string]any{"status": resp.StatusCode, "error": apiErr.Error()})
		return nil, apiErr
	}

	c.metrics.IncGatewayCall(op, "ok")
	return body, nil
}

// decodeGiftCardPayload normalizes the shapes the service has been observed
// to return for a lookup: a collection wrapped in "data", a bare array, or
// a single object. The first matching record wins.
func decodeGiftCardPayload(body []byte) (*GiftCard, error) {
	var wrapped struct {
		Data []GiftCard `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Data) > 0 {
		return &wrapped.Data[0], nil
	}

	var list []GiftCard
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return nil, nil
		}
		return &list[0], nil
	}

	var single GiftCard
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	if single.Code == "" {
		return nil, nil
	}
	return &single, nil
}

type serviceError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// apiErrorFromBody surfaces the service's structured error messages joined
// with ", ", falling back to a bare message field, then to the HTTP status.
func apiErrorFromBody(status int, body []byte) *pkgerrors.Error {
	code := domainCodeForStatus(status)

	var payload struct {
		Errors  []serviceError `json:"errors"`
		Message string         `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Errors) > 0 {
			parts := make([]string, 0, len(payload.Errors))
			for _, svcErr := range payload.Errors {
				if svcErr.Message != "" {
					parts = append(parts, svcErr.Message)
					continue
				}
				if svcErr.Code != "" {
					parts = append(parts, svcErr.Code)
				}
			}
			if len(parts) > 0 {
				return pkgerrors.New(code, strings.Join(parts, ", "))
			}
		}
		if payload.Message != "" {
			return pkgerrors.New(code, payload.Message)
		}
	}

	return pkgerrors.New(code, fmt.Sprintf("gift card service returned status %d", status))
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("rise %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("rise %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"code", "token", "secret"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
