package rise

import (
	"github.com/shopspring/decimal"
)

// SourceInfo carries the tenant/channel/location attribution attached to
// every transaction at the gift-card service.
type SourceInfo struct {
	SourceTenantID   string `json:"sourceTenantId"`
	SourceChannelID  string `json:"sourceChannelId"`
	SourceLocationID string `json:"sourceLocationId,omitempty"`
}

// GiftCard is the service-side record returned by a lookup.
type GiftCard struct {
	ID         string      `json:"id"`
	Code       string      `json:"code"`
	Balance    string      `json:"balance"`
	SourceInfo *SourceInfo `json:"sourceInfo,omitempty"`
}

// Transaction correlates a debit with its compensating void.
type Transaction struct {
	TransactionID string `json:"transactionId"`
	Success       bool   `json:"success"`
}

// RedeemOptions describes the order context sent with a debit.
type RedeemOptions struct {
	OrderID     string `json:"orderId"`
	Liability   bool   `json:"liability"`
	TotalPrice  string `json:"totalPrice"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

// VoidOptions references the transaction being reversed.
type VoidOptions struct {
	TransactionID string `json:"transactionId"`
}

// DecreaseParams describes a balance debit (redeem).
type DecreaseParams struct {
	GiftCardID     string
	Amount         decimal.Decimal
	IdempotencyKey string
	SourceInfo     SourceInfo
	Redeem         RedeemOptions
}

// IncreaseParams describes a balance credit (void of a prior redeem).
type IncreaseParams struct {
	GiftCardID     string
	Amount         decimal.Decimal
	IdempotencyKey string
	SourceInfo     SourceInfo
	Void           VoidOptions
}

type queryRequest struct {
	Query queryBody `json:"query"`
}

type queryBody struct {
	Filter queryFilter `json:"filter"`
}

type queryFilter struct {
	Code string `json:"code"`
}

type transactionRequest struct {
	Transaction transactionBody `json:"transaction"`
}

type transactionBody struct {
	Type           string         `json:"type"`
	GiftCardID     string         `json:"giftCardId"`
	Amount         string         `json:"amount"`
	IdempotencyKey string         `json:"idempotencyKey"`
	SourceInfo     SourceInfo     `json:"sourceInfo"`
	RedeemOptions  *RedeemOptions `json:"redeemOptions,omitempty"`
	VoidOptions    *VoidOptions   `json:"voidOptions,omitempty"`
}

func (p DecreaseParams) toRequest() transactionRequest {
	redeem := p.Redeem
	return transactionRequest{
		Transaction: transactionBody{
			Type:           txTypeRedeem,
			GiftCardID:     p.GiftCardID,
			Amount:         p.Amount.StringFixed(2),
			IdempotencyKey: p.IdempotencyKey,
			SourceInfo:     p.SourceInfo,
			RedeemOptions:  &redeem,
		},
	}
}

func (p IncreaseParams) toRequest() transactionRequest {
	void := p.Void
	return transactionRequest{
		Transaction: transactionBody{
			Type:           txTypeVoid,
			GiftCardID:     p.GiftCardID,
			Amount:         p.Amount.StringFixed(2),
			IdempotencyKey: p.IdempotencyKey,
			SourceInfo:     p.SourceInfo,
			VoidOptions:    &void,
		},
	}
}
