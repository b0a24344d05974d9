package controllers

import (
	"net/http"

	"github.com/angelmondragon/giftcard-checkout-backend/api/responses"
	"github.com/angelmondragon/giftcard-checkout-backend/api/validators"
	"github.com/angelmondragon/giftcard-checkout-backend/internal/giftcards"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/rise"
)

// GiftCardApply resolves a gift card code and computes the amount it
// covers for the cart.
func GiftCardApply(svc giftcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gift card service unavailable"))
			return
		}

		var payload giftCardApplyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		applied, err := svc.Apply(r.Context(), payload.CartID, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newGiftCardApplyResponse(applied))
	}
}

type giftCardApplyRequest struct {
	CartID string `json:"cart_id" validate:"required"`
	Code   string `json:"code" validate:"required"`
}

type giftCardApplyResponse struct {
	Code          string          `json:"code"`
	GiftCardID    string          `json:"gift_card_id"`
	Balance       string          `json:"balance"`
	AppliedAmount string          `json:"applied_amount"`
	SourceInfo    rise.SourceInfo `json:"source_info"`
}

func newGiftCardApplyResponse(applied *giftcards.AppliedGiftCard) giftCardApplyResponse {
	if applied == nil {
		return giftCardApplyResponse{}
	}
	return giftCardApplyResponse{
		Code:          applied.Code,
		GiftCardID:    applied.GiftCardID,
		Balance:       applied.Balance,
		AppliedAmount: applied.AppliedAmount.StringFixed(2),
		SourceInfo:    applied.SourceInfo,
	}
}
