package storefront

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/dukerupert/embla/internal/domain"
)

// cartCookieName holds the serialized cart. The payload is the plain JSON
// wire shape of domain.Cart, base64url-encoded to survive cookie encoding
// rules. Prices inside are re-validated on every read, so a tampered cookie
// can at worst break its own cart.
const cartCookieName = "vv_cart"

// cartCookieMaxAge keeps carts for 30 days.
const cartCookieMaxAge = 30 * 24 * 60 * 60

// ReadCart decodes the cart cookie. A missing or undecodable cookie yields
// an empty cart, never an error.
func ReadCart(r *http.Request) domain.Cart {
	c, err := r.Cookie(cartCookieName)
	if err != nil || c.Value == "" {
		return domain.Cart{}
	}

	raw, err := base64.URLEncoding.DecodeString(c.Value)
	if err != nil {
		return domain.Cart{}
	}

	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return domain.Cart{}
	}
	return cart
}

// WriteCart encodes the cart into the cookie.
func WriteCart(w http.ResponseWriter, cart domain.Cart, secure bool) {
	raw, err := json.Marshal(cart)
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cartCookieName,
		Value:    base64.URLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   cartCookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCart expires the cart cookie.
func ClearCart(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
