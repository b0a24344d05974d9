package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/giftcard-checkout-backend/internal/cart"
	"github.com/angelmondragon/giftcard-checkout-backend/internal/giftcards"
	"github.com/angelmondragon/giftcard-checkout-backend/internal/orders"
	"github.com/angelmondragon/giftcard-checkout-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/metrics"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/rise"
)

// Outcome is the terminal state of a settlement attempt.
type Outcome string

const (
	OutcomeCompleted                        Outcome = "COMPLETED"
	OutcomeValidationFailed                 Outcome = "VALIDATION_FAILED"
	OutcomeDebitFailed                      Outcome = "DEBIT_FAILED"
	OutcomeSecondaryFailed                  Outcome = "SECONDARY_FAILED"
	OutcomeSecondaryFailedCompensated       Outcome = "SECONDARY_FAILED_AND_COMPENSATED"
	OutcomeSecondaryFailedCompensationError Outcome = "SECONDARY_FAILED_COMPENSATION_ERROR"
	OutcomeUnexpectedFailure                Outcome = "UNEXPECTED_FAILURE"
	OutcomeUnexpectedFailureCompensated     Outcome = "UNEXPECTED_FAILURE_COMPENSATED"
)

type giftCardGateway interface {
	Decrease(ctx context.Context, params rise.DecreaseParams) (*rise.Transaction, error)
	Increase(ctx context.Context, params rise.IncreaseParams) (*rise.Transaction, error)
}

type cartGetter interface {
	Get(ctx context.Context, cartID string) (*cart.Cart, error)
}

type orderConfirmer interface {
	Confirm(ctx context.Context, confirmation orders.Confirmation) (string, error)
}

// CompleteInput carries the settlement request for one checkout session.
type CompleteInput struct {
	CartID   string
	GiftCard *giftcards.AppliedGiftCard
	Payment  *payments.CardData
}

// Result reports the terminal state of a settlement attempt.
type Result struct {
	Outcome               Outcome
	OrderID               string
	GiftCardTransactionID string
	GiftCardAmount        decimal.Decimal
	ChargedAmount         decimal.Decimal
}

// Service executes checkout settlement: debit the gift card, charge the
// remainder, and reverse the debit if anything after it fails.
type Service interface {
	Complete(ctx context.Context, input CompleteInput) (*Result, error)
}

// ServiceParams collects the orchestrator's collaborators.
type ServiceParams struct {
	Gateway   giftCardGateway
	Carts     cartGetter
	Processor payments.Processor
	Orders    orderConfirmer
	Keys      KeyIssuer
	Logger    *logger.Logger
	Metrics   *metrics.CheckoutMetrics
}

type service struct {
	gateway   giftCardGateway
	carts     cartGetter
	processor payments.Processor
	orders    orderConfirmer
	keys      KeyIssuer
	logger    *logger.Logger
	metrics   *metrics.CheckoutMetrics
}

// NewService builds the checkout orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("gift card gateway required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Processor == nil {
		return nil, fmt.Errorf("payment processor required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if params.Keys == nil {
		params.Keys = TimestampKeyIssuer{}
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		gateway:   params.Gateway,
		carts:     params.Carts,
		processor: params.Processor,
		orders:    params.Orders,
		keys:      params.Keys,
		logger:    params.Logger,
		metrics:   params.Metrics,
	}, nil
}

func (s *service) Complete(ctx context.Context, input CompleteInput) (*Result, error) {
	if strings.TrimSpace(input.CartID) == "" {
		return s.fail(ctx, OutcomeValidationFailed, pkgerrors.New(pkgerrors.CodeValidation, "cart id required"))
	}

	crt, err := s.carts.Get(ctx, input.CartID)
	if err != nil {
		return s.fail(ctx, OutcomeValidationFailed, err)
	}

	ctx = s.logger.WithCartID(ctx, crt.ID)
	total := crt.Subtotal.Round(2)

	applied := decimal.Zero
	if input.GiftCard != nil {
		applied = input.GiftCard.AppliedAmount.Round(2)
	}
	if applied.IsNegative() {
		return s.fail(ctx, OutcomeValidationFailed, pkgerrors.New(pkgerrors.CodeValidation, "applied gift card amount cannot be negative"))
	}
	// The applied amount was computed against the cart as it stood at
	// application time; it is re-checked against the authoritative cart
	// here rather than trusted from the client.
	if applied.GreaterThan(total) {
		return s.fail(ctx, OutcomeValidationFailed, pkgerrors.New(pkgerrors.CodeStateConflict, "applied gift card amount exceeds the cart total"))
	}

	var debitTx *rise.Transaction
	if input.GiftCard != nil && applied.IsPositive() {
		tx, debitErr := s.gateway.Decrease(ctx, rise.DecreaseParams{
			GiftCardID:     input.GiftCard.GiftCardID,
			Amount:         applied,
			IdempotencyKey: s.keys.Issue("redeem"),
			SourceInfo:     input.GiftCard.SourceInfo,
			Redeem: rise.RedeemOptions{
				OrderID:     crt.ID,
				Liability:   false,
				TotalPrice:  total.StringFixed(2),
				OrderNumber: crt.ID,
			},
		})
		if debitErr != nil {
			// Nothing succeeded yet, so there is nothing to reverse.
			return s.fail(ctx, OutcomeDebitFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, debitErr, "failed to debit gift card"))
		}
		debitTx = tx
		ctx = s.logger.WithField(ctx, "gift_card_transaction_id", tx.TransactionID)
		s.logger.Info(ctx, "checkout.gift_card_debited")
	}

	remaining := total.Sub(applied)
	charged := decimal.Zero
	if remaining.IsPositive() && input.Payment != nil {
		approved, chargeErr := s.processor.Charge(ctx, *input.Payment, remaining)
		if chargeErr != nil || !approved {
			if chargeErr == nil {
				chargeErr = pkgerrors.New(pkgerrors.CodePayment, "payment was declined")
			}
			if debitTx == nil {
				return s.fail(ctx, OutcomeSecondaryFailed, pkgerrors.Wrap(pkgerrors.CodePayment, chargeErr, "payment failed"))
			}
			outcome := OutcomeSecondaryFailedCompensated
			if !s.compensate(ctx, input.GiftCard, debitTx, applied, chargeErr) {
				outcome = OutcomeSecondaryFailedCompensationError
			}
			// The caller sees one coherent message either way; a failed
			// void is an operational problem, not the buyer's.
			return s.fail(ctx, outcome, pkgerrors.Wrap(pkgerrors.CodePayment, chargeErr, "payment failed, gift card transaction has been voided"))
		}
		charged = remaining
	}

	orderID, confirmErr := s.orders.Confirm(ctx, orders.Confirmation{
		CartID:         crt.ID,
		Total:          total,
		GiftCardAmount: applied,
		ChargedAmount:  charged,
	})
	if confirmErr != nil {
		// Any failure downstream of a successful debit takes the same
		// compensation path; the original error is what surfaces.
		if debitTx != nil {
			s.compensate(ctx, input.GiftCard, debitTx, applied, confirmErr)
			return s.fail(ctx, OutcomeUnexpectedFailureCompensated, confirmErr)
		}
		return s.fail(ctx, OutcomeUnexpectedFailure, confirmErr)
	}

	result := &Result{
		Outcome:        OutcomeCompleted,
		OrderID:        orderID,
		GiftCardAmount: applied,
		ChargedAmount:  charged,
	}
	if debitTx != nil {
		result.GiftCardTransactionID = debitTx.TransactionID
	}

	s.metrics.IncOutcome(string(OutcomeCompleted))
	ctx = s.logger.WithField(ctx, "order_id", orderID)
	s.logger.Info(ctx, "checkout.completed")
	return result, nil
}

// compensate issues exactly one restorative credit for a debit that can no
// longer settle. It reports success; a failed credit is logged together
// with the original failure and never surfaced in its place.
func (s *service) compensate(ctx context.Context, giftCard *giftcards.AppliedGiftCard, debitTx *rise.Transaction, amount decimal.Decimal, cause error) bool {
	// Once a debit has been issued the session must reach a reconciled
	// state even if the caller has gone away.
	ctx = context.WithoutCancel(ctx)

	_, err := s.gateway.Increase(ctx, rise.IncreaseParams{
		GiftCardID:     giftCard.GiftCardID,
		Amount:         amount,
		IdempotencyKey: s.keys.Issue("void"),
		SourceInfo:     giftCard.SourceInfo,
		Void: rise.VoidOptions{
			TransactionID: debitTx.TransactionID,
		},
	})
	if err != nil {
		s.metrics.IncCompensation("error")
		s.logger.Error(ctx, "checkout.compensation_failed", multierr.Append(cause, err))
		return false
	}

	s.metrics.IncCompensation("ok")
	s.logger.Info(ctx, "checkout.gift_card_voided")
	return true
}

func (s *service) fail(ctx context.Context, outcome Outcome, err error) (*Result, error) {
	s.metrics.IncOutcome(string(outcome))
	s.logger.Warn(s.logger.WithField(ctx, "outcome", string(outcome)), "checkout.failed")
	return &Result{Outcome: outcome}, err
}
