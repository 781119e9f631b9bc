package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for CheckoutRequest so a selection
	// that names products cannot also be empty-after-dedup.
	v.RegisterStructValidation(checkoutStructValidation, CheckoutRequest{})

	return v
}

// checkoutStructValidation rejects selections with duplicate product ids,
// which would double-charge a line when the cart is filtered.
func checkoutStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CheckoutRequest)

	seen := make(map[int]bool, len(req.ProductIDs))
	for _, id := range req.ProductIDs {
		if seen[id] {
			sl.ReportError(req.ProductIDs, "productosSeleccionados", "ProductIDs", "unique_products", "")
			return
		}
		seen[id] = true
	}
}
