package giftcards

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/giftcard-checkout-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
)

func boolPtr(v bool) *bool { return &v }

func TestClassifyCartGiftCardDetection(t *testing.T) {
	tests := []struct {
		name string
		item cart.LineItem
		want bool
	}{
		{"plain product", cart.LineItem{Title: "Blue Hoodie"}, false},
		{"tagged gift", cart.LineItem{Title: "Hoodie", Tags: []string{"Gift"}}, true},
		{"tagged giftcard", cart.LineItem{Title: "Hoodie", Tags: []string{"GiftCard"}}, true},
		{"product type", cart.LineItem{Title: "Hoodie", ProductType: "Gift Card"}, true},
		{"title gift card", cart.LineItem{Title: "$50 Gift Card"}, true},
		{"title giftcard", cart.LineItem{Title: "GIFTCARD deluxe"}, true},
		{"attribute key", cart.LineItem{Title: "Hoodie", Attributes: []cart.Attribute{{Key: "gift_wrap", Value: "yes"}}}, true},
		{"attribute value", cart.LineItem{Title: "Hoodie", Attributes: []cart.Attribute{{Key: "kind", Value: "gift"}}}, true},
		{"unrelated attribute", cart.LineItem{Title: "Hoodie", Attributes: []cart.Attribute{{Key: "size", Value: "L"}}}, false},
	}

	for _, tt := range tests {
		got := ClassifyCart(cart.Cart{Items: []cart.LineItem{tt.item}})
		if got.ContainsGiftCardProduct != tt.want {
			t.Fatalf("%s: expected ContainsGiftCardProduct=%v got %v", tt.name, tt.want, got.ContainsGiftCardProduct)
		}
	}
}

func TestClassifyCartDiscountDetection(t *testing.T) {
	tests := []struct {
		name string
		crt  cart.Cart
		want bool
	}{
		{
			"no discounts",
			cart.Cart{Subtotal: decimal.NewFromInt(100), Total: decimal.NewFromInt(100)},
			false,
		},
		{
			"discount entry without applicable flag",
			cart.Cart{Subtotal: decimal.NewFromInt(100), Discounts: []cart.Discount{{Code: "SAVE10"}}},
			true,
		},
		{
			"discount entry explicitly applicable",
			cart.Cart{Subtotal: decimal.NewFromInt(100), Discounts: []cart.Discount{{Code: "SAVE10", Applicable: boolPtr(true)}}},
			true,
		},
		{
			"discount entry explicitly inapplicable",
			cart.Cart{Subtotal: decimal.NewFromInt(100), Discounts: []cart.Discount{{Code: "SAVE10", Applicable: boolPtr(false)}}},
			false,
		},
		{
			"positive discount amount",
			cart.Cart{Subtotal: decimal.NewFromInt(100), DiscountAmount: decimal.NewFromInt(5)},
			true,
		},
		{
			"total below subtotal",
			cart.Cart{Subtotal: decimal.NewFromInt(100), Total: decimal.NewFromInt(90)},
			true,
		},
	}

	for _, tt := range tests {
		got := ClassifyCart(tt.crt)
		if got.HasDiscount != tt.want {
			t.Fatalf("%s: expected HasDiscount=%v got %v", tt.name, tt.want, got.HasDiscount)
		}
	}
}

func TestValidateApplicationOrdering(t *testing.T) {
	discounted := cart.Cart{
		Subtotal:       decimal.NewFromInt(100),
		DiscountAmount: decimal.NewFromInt(10),
		Items:          []cart.LineItem{{Title: "$25 Gift Card"}},
	}

	// Both conditions hold; the discount rejection must win.
	err := ValidateApplication(discounted, "50.00")
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if typed.Message() != "cannot purchase a gift card with a discount" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestValidateApplication(t *testing.T) {
	clean := cart.Cart{Subtotal: decimal.NewFromInt(100)}
	withGiftCard := cart.Cart{
		Subtotal: decimal.NewFromInt(100),
		Items:    []cart.LineItem{{Title: "Gift Card"}},
	}

	tests := []struct {
		name     string
		crt      cart.Cart
		balance  string
		wantCode pkgerrors.Code
		wantMsg  string
	}{
		{"valid", clean, "25.00", "", ""},
		{"gift card in cart", withGiftCard, "25.00", pkgerrors.CodeStateConflict, "cannot purchase a gift card with a gift card"},
		{"unparseable balance", clean, "not-a-number", pkgerrors.CodeValidation, "invalid gift card balance"},
		{"zero balance", clean, "0.00", pkgerrors.CodeValidation, "gift card has no balance"},
		{"negative balance", clean, "-5.00", pkgerrors.CodeValidation, "gift card has no balance"},
	}

	for _, tt := range tests {
		err := ValidateApplication(tt.crt, tt.balance)
		if tt.wantCode == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tt.name, err)
			}
			continue
		}
		typed := pkgerrors.As(err)
		if typed == nil {
			t.Fatalf("%s: expected typed error, got %v", tt.name, err)
		}
		if typed.Code() != tt.wantCode {
			t.Fatalf("%s: expected code %s got %s", tt.name, tt.wantCode, typed.Code())
		}
		if typed.Message() != tt.wantMsg {
			t.Fatalf("%s: expected message %q got %q", tt.name, tt.wantMsg, typed.Message())
		}
	}
}
