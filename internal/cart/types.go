package cart

import (
	"github.com/shopspring/decimal"
)

// Attribute is a free-form key/value pair attached to a line item.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// LineItem carries only the fields the fraud classifier inspects.
type LineItem struct {
	Title       string      `json:"title"`
	Tags        []string    `json:"tags,omitempty"`
	ProductType string      `json:"product_type,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

// Discount mirrors the upstream cart system's discount entries. Applicable
// is a pointer because upstream omits the field for discounts it considers
// applied; only an explicit false marks an inapplicable entry.
type Discount struct {
	Code       string `json:"code,omitempty"`
	Applicable *bool  `json:"applicable,omitempty"`
}

// Cart is the checkout-session cart. It is read-only for the checkout
// core; the demo store owns its lifecycle.
type Cart struct {
	ID             string          `json:"id"`
	Items          []LineItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Total          decimal.Decimal `json:"total,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount,omitempty"`
	Discounts      []Discount      `json:"discounts,omitempty"`
}

// EffectiveTotal returns the payable total, defaulting to the subtotal
// when the upstream system did not supply one.
func (c Cart) EffectiveTotal() decimal.Decimal {
	if c.Total.IsPositive() {
		return c.Total
	}
	return c.Subtotal
}
