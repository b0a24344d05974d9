package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/giftcard-checkout-backend/api/responses"
	"github.com/angelmondragon/giftcard-checkout-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/giftcard-checkout-backend/internal/checkout"
	"github.com/angelmondragon/giftcard-checkout-backend/internal/giftcards"
	"github.com/angelmondragon/giftcard-checkout-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/rise"
)

// CheckoutComplete settles a checkout session: the applied gift card is
// debited and the remainder is charged to the submitted card.
func CheckoutComplete(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutCompleteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Complete(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}

type checkoutCompleteRequest struct {
	CartID   string                  `json:"cart_id" validate:"required"`
	GiftCard *appliedGiftCardPayload `json:"gift_card,omitempty" validate:"omitempty"`
	Payment  *paymentCardDataPayload `json:"payment,omitempty" validate:"omitempty"`
}

type appliedGiftCardPayload struct {
	Code          string          `json:"code" validate:"required"`
	GiftCardID    string          `json:"gift_card_id" validate:"required"`
	Balance       string          `json:"balance,omitempty"`
	AppliedAmount decimal.Decimal `json:"applied_amount" validate:"required"`
	SourceInfo    rise.SourceInfo `json:"source_info,omitempty"`
}

type paymentCardDataPayload struct {
	CardNumber string `json:"card_number" validate:"required"`
	ExpMonth   string `json:"exp_month" validate:"required"`
	ExpYear    string `json:"exp_year" validate:"required"`
	CVV        string `json:"cvv" validate:"required"`
	Name       string `json:"name,omitempty"`
}

func (p checkoutCompleteRequest) toInput() checkoutsvc.CompleteInput {
	input := checkoutsvc.CompleteInput{CartID: p.CartID}
	if p.GiftCard != nil {
		input.GiftCard = &giftcards.AppliedGiftCard{
			Code:          p.GiftCard.Code,
			GiftCardID:    p.GiftCard.GiftCardID,
			Balance:       p.GiftCard.Balance,
			AppliedAmount: p.GiftCard.AppliedAmount,
			SourceInfo:    p.GiftCard.SourceInfo,
		}
	}
	if p.Payment != nil {
		input.Payment = &payments.CardData{
			CardNumber: p.Payment.CardNumber,
			ExpMonth:   p.Payment.ExpMonth,
			ExpYear:    p.Payment.ExpYear,
			CVV:        p.Payment.CVV,
			Name:       p.Payment.Name,
		}
	}
	return input
}

type checkoutResponse struct {
	Outcome               string `json:"outcome"`
	OrderID               string `json:"order_id,omitempty"`
	GiftCardTransactionID string `json:"gift_card_transaction_id,omitempty"`
	GiftCardAmount        string `json:"gift_card_amount"`
	ChargedAmount         string `json:"charged_amount"`
}

func newCheckoutResponse(result *checkoutsvc.Result) checkoutResponse {
	if result == nil {
		return checkoutResponse{}
	}
	return checkoutResponse{
		Outcome:               string(result.Outcome),
		OrderID:               result.OrderID,
		GiftCardTransactionID: result.GiftCardTransactionID,
		GiftCardAmount:        result.GiftCardAmount.StringFixed(2),
		ChargedAmount:         result.ChargedAmount.StringFixed(2),
	}
}
