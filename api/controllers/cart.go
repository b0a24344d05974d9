package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/giftcard-checkout-backend/api/responses"
	"github.com/angelmondragon/giftcard-checkout-backend/api/validators"
	cartsvc "github.com/angelmondragon/giftcard-checkout-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
)

// CartCreate stores a demo cart so the checkout flow has something to
// settle against.
func CartCreate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), payload.toCart())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(created))
	}
}

// CartFetch returns a stored cart by id.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		crt, err := svc.Get(r.Context(), chi.URLParam(r, "cartId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(crt))
	}
}

type cartCreateRequest struct {
	Items          []cartItemPayload     `json:"items" validate:"omitempty,dive"`
	Subtotal       decimal.Decimal       `json:"subtotal" validate:"required"`
	Total          decimal.Decimal       `json:"total,omitempty"`
	DiscountAmount decimal.Decimal       `json:"discount_amount,omitempty"`
	Discounts      []cartDiscountPayload `json:"discounts,omitempty" validate:"omitempty,dive"`
}

type cartItemPayload struct {
	Title       string                 `json:"title" validate:"required"`
	Tags        []string               `json:"tags,omitempty"`
	ProductType string                 `json:"product_type,omitempty"`
	Attributes  []cartAttributePayload `json:"attributes,omitempty" validate:"omitempty,dive"`
}

type cartAttributePayload struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

type cartDiscountPayload struct {
	Code       string `json:"code,omitempty"`
	Applicable *bool  `json:"applicable,omitempty"`
}

func (p cartCreateRequest) toCart() cartsvc.Cart {
	items := make([]cartsvc.LineItem, 0, len(p.Items))
	for _, item := range p.Items {
		attrs := make([]cartsvc.Attribute, 0, len(item.Attributes))
		for _, attr := range item.Attributes {
			attrs = append(attrs, cartsvc.Attribute{Key: attr.Key, Value: attr.Value})
		}
		items = append(items, cartsvc.LineItem{
			Title:       item.Title,
			Tags:        item.Tags,
			ProductType: item.ProductType,
			Attributes:  attrs,
		})
	}

	discounts := make([]cartsvc.Discount, 0, len(p.Discounts))
	for _, discount := range p.Discounts {
		discounts = append(discounts, cartsvc.Discount{Code: discount.Code, Applicable: discount.Applicable})
	}

	return cartsvc.Cart{
		Items:          items,
		Subtotal:       p.Subtotal,
		Total:          p.Total,
		DiscountAmount: p.DiscountAmount,
		Discounts:      discounts,
	}
}

type cartResponse struct {
	ID             string                `json:"id"`
	Items          []cartsvc.LineItem    `json:"items"`
	Subtotal       string                `json:"subtotal"`
	Total          string                `json:"total"`
	DiscountAmount string                `json:"discount_amount"`
	Discounts      []cartDiscountPayload `json:"discounts,omitempty"`
}

func newCartResponse(crt *cartsvc.Cart) cartResponse {
	if crt == nil {
		return cartResponse{}
	}
	discounts := make([]cartDiscountPayload, 0, len(crt.Discounts))
	for _, discount := range crt.Discounts {
		discounts = append(discounts, cartDiscountPayload{Code: discount.Code, Applicable: discount.Applicable})
	}
	return cartResponse{
		ID:             crt.ID,
		Items:          crt.Items,
		Subtotal:       crt.Subtotal.StringFixed(2),
		Total:          crt.EffectiveTotal().StringFixed(2),
		DiscountAmount: crt.DiscountAmount.StringFixed(2),
		Discounts:      discounts,
	}
}
