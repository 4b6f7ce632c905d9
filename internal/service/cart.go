package service

import (
	"sort"
	"strings"

	"github.com/dukerupert/embla/internal/domain"
	"github.com/dukerupert/embla/internal/money"
)

// ComputeCartSummary normalizes a session cart mapping into priced line items
// with cart-level totals. Pure: no side effects, no persistence.
//
// Each line total, the subtotal, and the grand total are quantized to two
// decimals with half-up rounding. Shipping is free for an empty cart and at
// or above the free-shipping threshold, otherwise the flat rate applies.
func ComputeCartSummary(cart domain.Cart) (*domain.CartSummary, error) {
	keys := make([]string, 0, len(cart))
	for key := range cart {
		keys = append(keys, key)
	}
	// Map iteration order is random; sort for a stable item sequence.
	sort.Strings(keys)

	items := make([]domain.PricedLine, 0, len(cart))
	subtotal := money.Zero()
	itemCount := 0

	for _, key := range keys {
		line := cart[key]

		price, err := money.Parse(line.Price)
		if err != nil {
			return nil, &domain.Error{
				Code:    domain.EINVALID,
				Op:      "cart.compute_summary",
				Message: domain.ErrInvalidCartLine.Message,
				Err:     err,
			}
		}

		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}

		lineTotal := money.LineTotal(price, qty)
		subtotal = subtotal.Add(lineTotal)
		itemCount += qty

		grind := line.Grind
		if grind == "" {
			grind = "whole"
		}

		items = append(items, domain.PricedLine{
			Key:         key,
			Name:        line.Name,
			SKU:         line.SKU,
			Grind:       grind,
			GrindLabel:  GrindLabel(grind),
			Quantity:    qty,
			UnitPrice:   money.Round2(price),
			LineTotal:   lineTotal,
			WeightGrams: line.WeightGrams,
			ImageURL:    line.ImageURL,
		})
	}

	subtotal = money.Round2(subtotal)
	shipping := money.Round2(money.ShippingFor(subtotal))
	total := money.Round2(subtotal.Add(shipping))

	return &domain.CartSummary{
		Items:     items,
		Subtotal:  subtotal,
		Shipping:  shipping,
		Total:     total,
		ItemCount: itemCount,
	}, nil
}

// GrindLabel makes a human-friendly label from a grind key like "french_press".
func GrindLabel(value string) string {
	if value == "" {
		value = "whole"
	}
	words := strings.Split(strings.ReplaceAll(value, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// AddToCart merges a product into the cart mapping: at most one line per
// product key, quantities accumulate, grind and pricing fields refresh from
// the current catalog values.
func AddToCart(cart domain.Cart, key string, p *domain.Product, quantity int, grind string) (domain.Cart, error) {
	if quantity < 1 {
		return cart, domain.ErrInvalidQuantity
	}
	if cart == nil {
		cart = domain.Cart{}
	}

	grind = strings.TrimSpace(grind)
	if grind == "" {
		grind = "whole"
	}

	line, ok := cart[key]
	if !ok {
		line = domain.CartLine{Name: p.Name}
	}
	line.Quantity += quantity
	line.Name = p.Name
	line.Price = p.Price.StringFixed(2)
	line.Grind = grind
	line.WeightGrams = p.WeightGrams
	line.SKU = p.SKU
	line.ImageURL = p.ImageURL
	cart[key] = line

	return cart, nil
}

// UpdateCartLine sets quantity (floored at 1) and optionally grind for an
// existing line. Unknown keys are ignored, matching the permissive behavior
// of the cart forms.
func UpdateCartLine(cart domain.Cart, key string, quantity int, grind string) domain.Cart {
	line, ok := cart[key]
	if !ok {
		return cart
	}
	if quantity < 1 {
		quantity = 1
	}
	line.Quantity = quantity
	if g := strings.TrimSpace(grind); g != "" {
		line.Grind = g
	}
	cart[key] = line
	return cart
}

// RemoveFromCart deletes a line. Unknown keys are ignored.
func RemoveFromCart(cart domain.Cart, key string) domain.Cart {
	delete(cart, key)
	return cart
}
