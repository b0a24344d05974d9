package rise

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/giftcard-checkout-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
)

type recordedRequest struct {
	path    string
	headers http.Header
	body    []byte
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), config.RiseConfig{
		APIToken:        "test-token",
		AccountID:       "account-1",
		APIVersion:      "2020-07-16",
		BaseURL:         server.URL,
		Timeout:         2 * time.Second,
		SourceTenantID:  "tenant-1",
		SourceChannelID: "channel-1",
	}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}), nil)
	require.NoError(t, err)
	return client, server
}

func capture(rec *recordedRequest, status int, response string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec.path = r.URL.Path
		rec.headers = r.Header.Clone()
		rec.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	_, err := NewClient(context.Background(), config.RiseConfig{AccountID: "a", BaseURL: "http://x"}, logg, nil)
	assert.ErrorIs(t, err, errAPITokenRequired)

	_, err = NewClient(context.Background(), config.RiseConfig{APIToken: "t", BaseURL: "http://x"}, logg, nil)
	assert.ErrorIs(t, err, errAccountIDRequired)

	_, err = NewClient(context.Background(), config.RiseConfig{APIToken: "t", AccountID: "a"}, logg, nil)
	assert.ErrorIs(t, err, errBaseURLRequired)

	_, err = NewClient(context.Background(), config.RiseConfig{APIToken: "t", AccountID: "a", BaseURL: "http://x"}, nil, nil)
	assert.ErrorIs(t, err, errLoggerRequired)
}

func TestQueryByCodeShapes(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"data wrapped", `{"data":[{"id":"gc-1","code":"CODE1","balance":"50.00"}]}`},
		{"bare array", `[{"id":"gc-1","code":"CODE1","balance":"50.00"}]`},
		{"bare object", `{"id":"gc-1","code":"CODE1","balance":"50.00"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec recordedRequest
			client, _ := newTestClient(t, capture(&rec, http.StatusOK, tt.response))

			card, err := client.QueryByCode(context.Background(), "CODE1")
			require.NoError(t, err)
			assert.Equal(t, "gc-1", card.ID)
			assert.Equal(t, "50.00", card.Balance)
			assert.Equal(t, "/query", rec.path)
		})
	}
}

func TestQueryByCodeSendsAuthHeaders(t *testing.T) {
	var rec recordedRequest
	client, _ := newTestClient(t, capture(&rec, http.StatusOK, `{"id":"gc-1","code":"CODE1","balance":"50.00"}`))

	_, err := client.QueryByCode(context.Background(), "CODE1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", rec.headers.Get("Authorization"))
	assert.Equal(t, "2020-07-16", rec.headers.Get("Rise-API-Version"))
	assert.Equal(t, "account-1", rec.headers.Get("rise-account-id"))

	var payload queryRequest
	require.NoError(t, json.Unmarshal(rec.body, &payload))
	assert.Equal(t, "CODE1", payload.Query.Filter.Code)
}

func TestQueryByCodeNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.QueryByCode(context.Background(), "MISSING")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestQueryByCodeRequiresCode(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.QueryByCode(context.Background(), " ")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.False(t, called, "no network call for a missing code")
}

func TestDecreaseSendsRedeemTransaction(t *testing.T) {
	var rec recordedRequest
	client, _ := newTestClient(t, capture(&rec, http.StatusOK, `{"transactionId":"tx-1","success":true}`))

	tx, err := client.Decrease(context.Background(), DecreaseParams{
		GiftCardID:     "gc-1",
		Amount:         decimal.RequireFromString("40.5"),
		IdempotencyKey: "redeem-key-1",
		SourceInfo:     SourceInfo{SourceTenantID: "tenant-1", SourceChannelID: "channel-1"},
		Redeem: RedeemOptions{
			OrderID:    "cart-1",
			TotalPrice: "100.00",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-1", tx.TransactionID)
	assert.Equal(t, "/gc-1/decrease", rec.path)

	var payload transactionRequest
	require.NoError(t, json.Unmarshal(rec.body, &payload))
	assert.Equal(t, "REDEEM", payload.Transaction.Type)
	assert.Equal(t, "40.50", payload.Transaction.Amount)
	assert.Equal(t, "redeem-key-1", payload.Transaction.IdempotencyKey)
	require.NotNil(t, payload.Transaction.RedeemOptions)
	assert.Equal(t, "cart-1", payload.Transaction.RedeemOptions.OrderID)
	assert.Nil(t, payload.Transaction.VoidOptions)
}

func TestDecreaseLocalContractChecks(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	amount := decimal.RequireFromString("10.00")

	tests := []struct {
		name   string
		params DecreaseParams
	}{
		{"missing gift card id", DecreaseParams{Amount: amount, IdempotencyKey: "k"}},
		{"zero amount", DecreaseParams{GiftCardID: "gc-1", IdempotencyKey: "k"}},
		{"negative amount", DecreaseParams{GiftCardID: "gc-1", Amount: amount.Neg(), IdempotencyKey: "k"}},
		{"missing idempotency key", DecreaseParams{GiftCardID: "gc-1", Amount: amount}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Decrease(context.Background(), tt.params)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
	assert.False(t, called, "contract violations must be rejected before any network call")
}

func TestIncreaseRequiresVoidTransactionID(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.Increase(context.Background(), IncreaseParams{
		GiftCardID:     "gc-1",
		Amount:         decimal.RequireFromString("10.00"),
		IdempotencyKey: "void-key-1",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.False(t, called)
}

func TestIncreaseSendsVoidTransaction(t *testing.T) {
	var rec recordedRequest
	client, _ := newTestClient(t, capture(&rec, http.StatusOK, `{"transactionId":"tx-2","success":true}`))

	tx, err := client.Increase(context.Background(), IncreaseParams{
		GiftCardID:     "gc-1",
		Amount:         decimal.RequireFromString("40.00"),
		IdempotencyKey: "void-key-1",
		Void:           VoidOptions{TransactionID: "tx-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-2", tx.TransactionID)
	assert.Equal(t, "/gc-1/increase", rec.path)

	var payload transactionRequest
	require.NoError(t, json.Unmarshal(rec.body, &payload))
	assert.Equal(t, "VOID", payload.Transaction.Type)
	require.NotNil(t, payload.Transaction.VoidOptions)
	assert.Equal(t, "tx-1", payload.Transaction.VoidOptions.TransactionID)
	assert.Nil(t, payload.Transaction.RedeemOptions)
}

func TestTransactionWithoutIDIsFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	_, err := client.Decrease(context.Background(), DecreaseParams{
		GiftCardID:     "gc-1",
		Amount:         decimal.RequireFromString("10.00"),
		IdempotencyKey: "k",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
	assert.Equal(t, "gift card service returned no transaction id", typed.Message())
}

func TestAPIErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode pkgerrors.Code
		wantMsg  string
	}{
		{
			"structured errors joined",
			http.StatusUnprocessableEntity,
			`{"errors":[{"message":"insufficient balance"},{"code":"CARD_DISABLED"}]}`,
			pkgerrors.CodeStateConflict,
			"insufficient balance, CARD_DISABLED",
		},
		{
			"bare message",
			http.StatusBadRequest,
			`{"message":"bad amount"}`,
			pkgerrors.CodeValidation,
			"bad amount",
		},
		{
			"status fallback",
			http.StatusInternalServerError,
			`not json`,
			pkgerrors.CodeDependency,
			"gift card service returned status 500",
		},
		{
			"unauthorized",
			http.StatusUnauthorized,
			`{}`,
			pkgerrors.CodeUnauthorized,
			"gift card service returned status 401",
		},
		{
			"conflict",
			http.StatusConflict,
			`{}`,
			pkgerrors.CodeConflict,
			"gift card service returned status 409",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.QueryByCode(context.Background(), "CODE1")
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, tt.wantCode, typed.Code())
			assert.Equal(t, tt.wantMsg, typed.Message())
		})
	}
}
