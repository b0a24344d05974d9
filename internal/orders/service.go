package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
)

// Confirmation is the record emitted when a checkout completes. The core
// does not own order persistence; this demo store keeps confirmations in
// Redis so completed checkouts can be inspected.
type Confirmation struct {
	OrderID        string          `json:"order_id"`
	CartID         string          `json:"cart_id"`
	Total          decimal.Decimal `json:"total"`
	GiftCardAmount decimal.Decimal `json:"gift_card_amount"`
	ChargedAmount  decimal.Decimal `json:"charged_amount"`
	CreatedAt      time.Time       `json:"created_at"`
}

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	OrderKey(orderID string) string
}

// Service records order confirmations.
type Service interface {
	Confirm(ctx context.Context, confirmation Confirmation) (string, error)
}

type service struct {
	store  store
	logger *logger.Logger
}

// NewService builds the order confirmation recorder.
func NewService(store store, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("order logger required")
	}
	return &service{store: store, logger: logg}, nil
}

func (s *service) Confirm(ctx context.Context, confirmation Confirmation) (string, error) {
	if strings.TrimSpace(confirmation.OrderID) == "" {
		confirmation.OrderID = "order-" + uuid.NewString()
	}
	if confirmation.CreatedAt.IsZero() {
		confirmation.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(confirmation)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order confirmation")
	}
	if err := s.store.Set(ctx, s.store.OrderKey(confirmation.OrderID), string(payload), 0); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store order confirmation")
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"order_id": confirmation.OrderID,
		"cart_id":  confirmation.CartID,
		"total":    confirmation.Total.StringFixed(2),
	})
	s.logger.Info(ctx, "order.confirmed")
	return confirmation.OrderID, nil
}
