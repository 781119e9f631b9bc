package normalize

import "github.com/mitienda/storefront/internal/pricing"

// Address is a shipping address as used for display and notifications.
type Address struct {
	AddressID  int    `json:"addressId"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// PaymentMethod is a stored payment method summary.
type PaymentMethod struct {
	PaymentMethodID int    `json:"paymentMethodId"`
	Holder          string `json:"holder"`
	LastFourDigits  string `json:"lastFourDigits"`
}

// NormalizeCartLine maps a server-side cart item into a CartLine. Cart items
// usually embed their product; lines missing image or description are left
// for the async enrichment step to backfill.
func NormalizeCartLine(raw map[string]any) pricing.CartLine {
	productID, _ := firstInt(raw, "productoId", "ProductoId", "producto.productoId", "producto.id")
	quantity, ok := firstInt(raw, "cantidad", "Cantidad")
	if !ok || quantity == 0 {
		quantity = 1
	}
	name, _ := firstString(raw, "producto.nombre", "producto.Nombre", "producto.name")
	price, _ := firstNumber(raw, "producto.precio", "producto.Precio", "producto.price")
	imageURL, _ := firstString(raw, "producto.imagenUrl", "producto.ImagenUrl", "producto.imagen", "producto.Imagen")
	description, _ := firstString(raw, "producto.descripcion", "producto.Descripcion", "producto.description")

	return pricing.CartLine{
		ProductID:   productID,
		Quantity:    quantity,
		UnitPrice:   price,
		Name:        name,
		ImageURL:    imageURL,
		Description: description,
	}
}

// NormalizeProduct maps a raw catalog product record.
func NormalizeProduct(raw map[string]any) Product {
	p := normalizeProduct(raw, 0)
	return *p
}

// NormalizeAddress maps a raw address record.
func NormalizeAddress(raw map[string]any) Address {
	addressID, _ := firstInt(raw, "direccionId", "DireccionId", "id")
	street, _ := firstString(raw, "calle", "Calle")
	city, _ := firstString(raw, "ciudad", "Ciudad")
	postalCode, _ := firstString(raw, "codigoPostal", "CodigoPostal")
	return Address{
		AddressID:  addressID,
		Street:     street,
		City:       city,
		PostalCode: postalCode,
	}
}

// NormalizePaymentMethod maps a raw payment-method record.
func NormalizePaymentMethod(raw map[string]any) PaymentMethod {
	paymentMethodID, _ := firstInt(raw, "metodoPagoId", "MetodoPagoId", "id")
	holder, _ := firstString(raw, "titular", "Titular")
	lastFour, _ := firstString(raw, "ultimosCuatroDigitos", "UltimosCuatroDigitos")
	return PaymentMethod{
		PaymentMethodID: paymentMethodID,
		Holder:          holder,
		LastFourDigits:  lastFour,
	}
}
