package giftcards

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/giftcard-checkout-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/rise"
)

// AppliedGiftCard is the checkout-session-scoped record produced when a
// gift card passes validation. AppliedAmount = min(balance, subtotal),
// rounded to 2 decimal places.
type AppliedGiftCard struct {
	Code          string          `json:"code"`
	GiftCardID    string          `json:"gift_card_id"`
	Balance       string          `json:"balance"`
	AppliedAmount decimal.Decimal `json:"applied_amount"`
	SourceInfo    rise.SourceInfo `json:"source_info"`
}

type gateway interface {
	QueryByCode(ctx context.Context, code string) (*rise.GiftCard, error)
	DefaultSourceInfo() rise.SourceInfo
}

type cartGetter interface {
	Get(ctx context.Context, cartID string) (*cart.Cart, error)
}

// Service resolves a gift card code against the external service and
// validates its application to a cart.
type Service interface {
	Apply(ctx context.Context, cartID, code string) (*AppliedGiftCard, error)
}

type service struct {
	gateway gateway
	carts   cartGetter
	logger  *logger.Logger
}

// NewService builds the gift card application service.
func NewService(gw gateway, carts cartGetter, logg *logger.Logger) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("gift card gateway required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{gateway: gw, carts: carts, logger: logg}, nil
}

func (s *service) Apply(ctx context.Context, cartID, code string) (*AppliedGiftCard, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gift card code is required")
	}

	crt, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	card, err := s.gateway.QueryByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := ValidateApplication(*crt, card.Balance); err != nil {
		return nil, err
	}

	balance, err := decimal.NewFromString(strings.TrimSpace(card.Balance))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gift card balance")
	}

	applied := decimal.Min(balance, crt.Subtotal).Round(2)

	sourceInfo := s.gateway.DefaultSourceInfo()
	if card.SourceInfo != nil {
		sourceInfo = *card.SourceInfo
	}

	ctx = s.logger.WithCartID(ctx, crt.ID)
	ctx = s.logger.WithFields(ctx, map[string]any{
		"gift_card_id":   card.ID,
		"applied_amount": applied.StringFixed(2),
	})
	s.logger.Info(ctx, "giftcard.applied")

	return &AppliedGiftCard{
		Code:          card.Code,
		GiftCardID:    card.ID,
		Balance:       card.Balance,
		AppliedAmount: applied,
		SourceInfo:    sourceInfo,
	}, nil
}
