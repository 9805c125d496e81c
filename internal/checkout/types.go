package checkout

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// CartItem references one catalog entry in the snapshot the storefront sends.
// CatalogItemRef is the payment processor's price id for the product.
type CartItem struct {
	CatalogItemRef string `json:"catalogItemRef" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required,min=1"`
}

// Cart is the client-side cart snapshot. The ledger core treats it as opaque
// input; only shape and non-emptiness are checked here.
type Cart struct {
	Items         []CartItem `json:"items" validate:"dive"`
	CartReference string     `json:"cartReference"`
}

// Address mirrors the ledger's shipping address shape; every field optional.
type Address struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// SessionRequest is the payload for POST /api/checkout.
type SessionRequest struct {
	Cart            Cart     `json:"cart"`
	ShippingAddress *Address `json:"shippingAddress,omitempty"`
	RedirectBase    string   `json:"redirectBase,omitempty" validate:"omitempty,url"`
}

// Session is the gateway's answer: where to send the customer, and the
// reference to poll order status with later.
type Session struct {
	RedirectURL      string `json:"redirectUrl"`
	SessionReference string `json:"sessionReference"`
}

// newValidator returns a configured validator with the cart struct-level rule
// registered.
func newValidator() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterStructValidation(sessionRequestStructValidation, SessionRequest{})
	return v
}

// sessionRequestStructValidation rejects carts that repeat a catalog
// reference; quantities must be merged client-side so the session's line
// items stay unambiguous.
func sessionRequestStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(SessionRequest)

	seen := map[string]bool{}
	for _, it := range req.Cart.Items {
		if seen[it.CatalogItemRef] {
			sl.ReportError(req.Cart.Items, "cart.items", "Items", "unique_catalog_refs", it.CatalogItemRef)
			return
		}
		seen[it.CatalogItemRef] = true
	}
}
