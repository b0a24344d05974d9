package giftcards

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/giftcard-checkout-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
)

// Classification summarizes the two fraud signals derived from a cart.
type Classification struct {
	ContainsGiftCardProduct bool
	HasDiscount             bool
}

// ClassifyCart inspects a cart for the two conditions that block applying
// a gift card. Detection is deliberately substring-based: upstream systems
// tag gift card products inconsistently, and a false positive only forces
// the buyer onto a regular payment method.
func ClassifyCart(crt cart.Cart) Classification {
	return Classification{
		ContainsGiftCardProduct: cartContainsGiftCard(crt),
		HasDiscount:             cartHasDiscounts(crt),
	}
}

func cartContainsGiftCard(crt cart.Cart) bool {
	for _, item := range crt.Items {
		if itemLooksLikeGiftCard(item) {
			return true
		}
	}
	return false
}

func itemLooksLikeGiftCard(item cart.LineItem) bool {
	for _, tag := range item.Tags {
		lower := strings.ToLower(tag)
		if strings.Contains(lower, "gift") || strings.Contains(lower, "giftcard") {
			return true
		}
	}
	if strings.Contains(strings.ToLower(item.ProductType), "gift") {
		return true
	}
	title := strings.ToLower(item.Title)
	if strings.Contains(title, "gift card") || strings.Contains(title, "giftcard") {
		return true
	}
	for _, attr := range item.Attributes {
		if strings.Contains(strings.ToLower(attr.Key), "gift") ||
			strings.Contains(strings.ToLower(attr.Value), "gift") {
			return true
		}
	}
	return false
}

// cartHasDiscounts checks three independent signals because upstream
// systems represent "discount applied" inconsistently; any one is enough.
func cartHasDiscounts(crt cart.Cart) bool {
	for _, discount := range crt.Discounts {
		if discount.Applicable == nil || *discount.Applicable {
			return true
		}
	}
	if crt.DiscountAmount.IsPositive() {
		return true
	}
	return crt.Subtotal.GreaterThan(crt.EffectiveTotal())
}

// ValidateApplication applies the fraud and balance rules in a fixed
// order: discount check, then gift-card-in-cart check, then balance.
// The first failing rule wins and only one reason is ever returned.
func ValidateApplication(crt cart.Cart, balance string) error {
	classification := ClassifyCart(crt)
	if classification.HasDiscount {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot purchase a gift card with a discount")
	}
	if classification.ContainsGiftCardProduct {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot purchase a gift card with a gift card")
	}

	parsed, err := decimal.NewFromString(strings.TrimSpace(balance))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid gift card balance")
	}
	if !parsed.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "gift card has no balance")
	}
	return nil
}
