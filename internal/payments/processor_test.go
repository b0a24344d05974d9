package payments

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/giftcard-checkout-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
)

func TestChargeAlwaysApproves(t *testing.T) {
	p := NewSimulatedProcessor(config.PaymentConfig{DeclineRate: 0}, nil)

	for i := 0; i < 50; i++ {
		approved, err := p.Charge(context.Background(), CardData{CardNumber: "4111111111111111"}, decimal.NewFromInt(10))
		if err != nil {
			t.Fatalf("Charge: %v", err)
		}
		if !approved {
			t.Fatal("decline rate 0 must always approve")
		}
	}
}

func TestChargeAlwaysDeclines(t *testing.T) {
	p := NewSimulatedProcessor(config.PaymentConfig{DeclineRate: 1}, nil)

	approved, err := p.Charge(context.Background(), CardData{CardNumber: "4111111111111111"}, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if approved {
		t.Fatal("decline rate 1 must always decline")
	}
}

func TestChargeClampsDeclineRate(t *testing.T) {
	p := NewSimulatedProcessor(config.PaymentConfig{DeclineRate: -3}, nil)
	approved, err := p.Charge(context.Background(), CardData{}, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if !approved {
		t.Fatal("negative decline rate clamps to 0")
	}
}

func TestChargeRejectsNonPositiveAmount(t *testing.T) {
	p := NewSimulatedProcessor(config.PaymentConfig{}, nil)

	_, err := p.Charge(context.Background(), CardData{}, decimal.Zero)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRedactCardNumber(t *testing.T) {
	if got := redactCardNumber("4111111111111111"); got != "4111****" {
		t.Fatalf("unexpected redaction %q", got)
	}
	if got := redactCardNumber("41"); got != "****" {
		t.Fatalf("short numbers fully redacted, got %q", got)
	}
}
