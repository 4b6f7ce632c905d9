package domain

import (
	"github.com/shopspring/decimal"
)

// Cart domain errors.
var (
	ErrEmptyCart       = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrInvalidCartLine = &Error{Code: EINVALID, Message: "Cart line has an invalid price"}
	ErrInvalidQuantity = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
)

// CartSessionKey is the key under which the cart payload is stored in the
// session bag.
const CartSessionKey = "cart"

// Cart is the session-held cart payload: a mapping from product key (slug)
// to one line per product. The JSON shape is the wire format persisted in
// plain session storage, so Price stays a string-decimal and must go through
// money.Parse before any arithmetic.
type Cart map[string]CartLine

// CartLine is one product entry in the session cart.
type CartLine struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	Grind       string `json:"grind"`
	WeightGrams int    `json:"weight_grams"`
	SKU         string `json:"sku"`
	ImageURL    string `json:"image_url"`
}

// PricedLine is a cart line normalized through the pricing engine, with the
// parsed unit price and computed line total.
type PricedLine struct {
	Key         string
	Name        string
	SKU         string
	Grind       string
	GrindLabel  string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	WeightGrams int
	ImageURL    string
}

// CartSummary aggregates priced lines with cart-level totals.
// Invariant: Total = Subtotal + Shipping, all quantized to two decimals.
type CartSummary struct {
	Items     []PricedLine
	Subtotal  decimal.Decimal
	Shipping  decimal.Decimal
	Total     decimal.Decimal
	ItemCount int
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c) == 0
}
