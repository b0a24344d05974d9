package payments

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/giftcard-checkout-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
)

// CardData is the opaque payment payload forwarded to the processor.
type CardData struct {
	CardNumber string `json:"card_number"`
	ExpMonth   string `json:"exp_month"`
	ExpYear    string `json:"exp_year"`
	CVV        string `json:"cvv"`
	Name       string `json:"name,omitempty"`
}

// Processor charges the remaining balance after a gift card is applied.
// The boolean reports whether the charge was approved; an error reports a
// transport-level failure. A real processor integration sits behind this.
type Processor interface {
	Charge(ctx context.Context, card CardData, amount decimal.Decimal) (bool, error)
}

// SimulatedProcessor approves or declines charges at a configured rate
// after a configured latency.
type SimulatedProcessor struct {
	declineRate float64
	latency     time.Duration
	logger      *logger.Logger
}

// NewSimulatedProcessor builds the stub processor.
func NewSimulatedProcessor(cfg config.PaymentConfig, logg *logger.Logger) *SimulatedProcessor {
	rate := cfg.DeclineRate
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return &SimulatedProcessor{
		declineRate: rate,
		latency:     cfg.Latency,
		logger:      logg,
	}
}

func (p *SimulatedProcessor) Charge(ctx context.Context, card CardData, amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}

	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "payment processor call canceled")
		case <-timer.C:
		}
	}

	approved := rand.Float64() >= p.declineRate

	if p.logger != nil {
		logCtx := p.logger.WithFields(ctx, map[string]any{
			"amount":      amount.StringFixed(2),
			"card_number": redactCardNumber(card.CardNumber),
			"approved":    approved,
		})
		p.logger.Info(logCtx, "payment.simulated_charge")
	}

	return approved, nil
}

func redactCardNumber(number string) string {
	if len(number) < 4 {
		return "****"
	}
	return number[:4] + "****"
}
