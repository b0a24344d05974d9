package giftcards

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/giftcard-checkout-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/rise"
)

type fakeGateway struct {
	card       *rise.GiftCard
	err        error
	sourceInfo rise.SourceInfo
	queries    []string
}

func (f *fakeGateway) QueryByCode(_ context.Context, code string) (*rise.GiftCard, error) {
	f.queries = append(f.queries, code)
	if f.err != nil {
		return nil, f.err
	}
	return f.card, nil
}

func (f *fakeGateway) DefaultSourceInfo() rise.SourceInfo {
	return f.sourceInfo
}

type fakeCarts struct {
	crt *cart.Cart
	err error
}

func (f *fakeCarts) Get(context.Context, string) (*cart.Cart, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.crt, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestApplyCapsAtSubtotal(t *testing.T) {
	gw := &fakeGateway{card: &rise.GiftCard{ID: "gc-1", Code: "CODE1", Balance: "150.00"}}
	carts := &fakeCarts{crt: &cart.Cart{ID: "cart-1", Subtotal: decimal.NewFromInt(100)}}
	svc, err := NewService(gw, carts, testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	applied, err := svc.Apply(context.Background(), "cart-1", "CODE1")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := applied.AppliedAmount.StringFixed(2); got != "100.00" {
		t.Fatalf("expected applied 100.00 got %s", got)
	}
}

func TestApplyCapsAtBalance(t *testing.T) {
	gw := &fakeGateway{card: &rise.GiftCard{ID: "gc-1", Code: "CODE1", Balance: "25.505"}}
	carts := &fakeCarts{crt: &cart.Cart{ID: "cart-1", Subtotal: decimal.NewFromInt(100)}}
	svc, _ := NewService(gw, carts, testLogger())

	applied, err := svc.Apply(context.Background(), "cart-1", "CODE1")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Applied amount is rounded to two decimal places.
	if got := applied.AppliedAmount.StringFixed(2); got != "25.51" {
		t.Fatalf("expected applied 25.51 got %s", got)
	}
}

func TestApplyRequiresCode(t *testing.T) {
	gw := &fakeGateway{}
	carts := &fakeCarts{crt: &cart.Cart{ID: "cart-1", Subtotal: decimal.NewFromInt(100)}}
	svc, _ := NewService(gw, carts, testLogger())

	_, err := svc.Apply(context.Background(), "cart-1", "   ")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(gw.queries) != 0 {
		t.Fatal("gateway should not be called without a code")
	}
}

func TestApplyPropagatesNotFound(t *testing.T) {
	gw := &fakeGateway{err: pkgerrors.New(pkgerrors.CodeNotFound, "gift card not found")}
	carts := &fakeCarts{crt: &cart.Cart{ID: "cart-1", Subtotal: decimal.NewFromInt(100)}}
	svc, _ := NewService(gw, carts, testLogger())

	_, err := svc.Apply(context.Background(), "cart-1", "MISSING")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplyRejectsDiscountedCart(t *testing.T) {
	gw := &fakeGateway{card: &rise.GiftCard{ID: "gc-1", Code: "CODE1", Balance: "50.00"}}
	carts := &fakeCarts{crt: &cart.Cart{
		ID:             "cart-1",
		Subtotal:       decimal.NewFromInt(100),
		DiscountAmount: decimal.NewFromInt(10),
	}}
	svc, _ := NewService(gw, carts, testLogger())

	_, err := svc.Apply(context.Background(), "cart-1", "CODE1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestApplySourceInfoFallback(t *testing.T) {
	fallback := rise.SourceInfo{SourceTenantID: "tenant-1", SourceChannelID: "channel-1"}
	gw := &fakeGateway{
		card:       &rise.GiftCard{ID: "gc-1", Code: "CODE1", Balance: "50.00"},
		sourceInfo: fallback,
	}
	carts := &fakeCarts{crt: &cart.Cart{ID: "cart-1", Subtotal: decimal.NewFromInt(100)}}
	svc, _ := NewService(gw, carts, testLogger())

	applied, err := svc.Apply(context.Background(), "cart-1", "CODE1")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied.SourceInfo != fallback {
		t.Fatalf("expected fallback source info, got %+v", applied.SourceInfo)
	}

	own := rise.SourceInfo{SourceTenantID: "tenant-2", SourceChannelID: "channel-2"}
	gw.card.SourceInfo = &own
	applied, err = svc.Apply(context.Background(), "cart-1", "CODE1")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied.SourceInfo != own {
		t.Fatalf("expected card source info, got %+v", applied.SourceInfo)
	}
}
