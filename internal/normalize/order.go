// Package normalize maps the loosely-typed records returned by the commerce
// backend into canonical internal shapes. The backend's field names vary by
// endpoint and era (detalles/items/productos, precio/Precio/precioUnitario),
// so every field is resolved through an ordered candidate-key table.
//
// Everything in this package is deterministic and side-effect free: no
// network calls happen here. Filling in missing product details is a
// separate, explicitly asynchronous concern (see internal/commerce).
package normalize

import "time"

// Order statuses as the backend speaks them. The default for absent status
// is the Spanish "pendiente" while other call paths use different casing;
// preserved as-is for backend compatibility.
const (
	StatusPending    = "pendiente"
	StatusProcessing = "procesando"
	StatusShipped    = "enviado"
	StatusDelivered  = "entregado"
	StatusCancelled  = "cancelado"
)

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Product is the nested product record attached to an order line when the
// source carried one.
type Product struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

// OrderLine is one canonical order line.
type OrderLine struct {
	LineID    int      `json:"lineId"`
	OrderID   int      `json:"orderId"`
	ProductID int      `json:"productId"`
	Quantity  int      `json:"quantity"`
	UnitPrice float64  `json:"unitPrice"`
	Product   *Product `json:"product"`
}

// Order is the canonical order shape.
type Order struct {
	OrderID         int         `json:"orderId"`
	UserID          int         `json:"userId"`
	AddressID       int         `json:"addressId"`
	PaymentMethodID int         `json:"paymentMethodId"`
	Subtotal        float64     `json:"subtotal"`
	Taxes           float64     `json:"taxes"`
	Total           float64     `json:"total"`
	Status          string      `json:"status"`
	OrderDate       string      `json:"orderDate"`
	TrackingNumber  *string     `json:"trackingNumber"`
	Lines           []OrderLine `json:"lines"`

	// HasExplicitTotals reports whether the source record itself carried
	// numeric subtotal, taxes and total. The preview calculation uses the
	// stored values verbatim in that case instead of re-deriving them.
	HasExplicitTotals bool `json:"-"`
}

// lineContainerKeys lists every property the backend has been seen using to
// hold an order's line items, in probe order.
var lineContainerKeys = []string{
	"detalles", "Detalles", "items", "Items", "productos", "Productos",
	"lineItems", "orderItems", "detalle", "Detalle", "articulos", "Articulos",
}

// nestedContainerKeys are one-level wrappers some endpoints put around the
// actual order record.
var nestedContainerKeys = []string{"detalle", "Detalle", "order", "Order"}

// ExtractOrderLines locates the raw line-items array inside an order record,
// probing top-level containers first and then one level of nesting. It
// returns an empty slice when nothing matches and never panics on malformed
// input.
func ExtractOrderLines(raw map[string]any) []any {
	if arr, ok := firstArray(raw, lineContainerKeys...); ok {
		return arr
	}
	for _, outer := range nestedContainerKeys {
		if obj, ok := firstObject(raw, outer); ok {
			if arr, ok := firstArray(obj, lineContainerKeys...); ok {
				return arr
			}
		}
	}
	return []any{}
}

// NormalizeOrder maps a raw order record into the canonical Order. Missing
// numeric fields default to 0, status defaults to "pendiente" and the order
// date defaults to the current time — both defaults mirror the backend's
// historic behavior even though they can mask data problems. Lines is always
// non-nil.
func NormalizeOrder(raw map[string]any) Order {
	orderID, _ := firstInt(raw, "pedidoId", "id")

	rawLines := ExtractOrderLines(raw)
	lines := make([]OrderLine, 0, len(rawLines))
	for _, rl := range rawLines {
		entry, ok := rl.(map[string]any)
		if !ok {
			continue
		}
		lines = append(lines, normalizeLine(entry, orderID))
	}

	userID, _ := firstInt(raw, "usuarioId", "UsuarioId", "userId")
	addressID, _ := firstInt(raw, "direccionId", "DireccionId")
	paymentMethodID, _ := firstInt(raw, "metodoPagoId", "MetodoPagoId")
	subtotal, hasSubtotal := firstNumber(raw, "subtotal", "Subtotal", "montoSubtotal")
	taxes, hasTaxes := firstNumber(raw, "impuestos", "Impuestos", "montoImpuestos")
	total, hasTotal := firstNumber(raw, "total", "Total", "montoTotal", "importe")

	status, ok := firstString(raw, "estado", "Estado")
	if !ok {
		status = StatusPending
	}

	orderDate, ok := firstString(raw, "fechaPedido", "FechaPedido", "fecha", "createdAt")
	if !ok {
		orderDate = time.Now().UTC().Format(time.RFC3339)
	}

	var tracking *string
	if tn, ok := firstString(raw, "numeroSeguimiento", "NumeroSeguimiento"); ok {
		tracking = &tn
	}

	return Order{
		OrderID:           orderID,
		UserID:            userID,
		AddressID:         addressID,
		PaymentMethodID:   paymentMethodID,
		Subtotal:          subtotal,
		Taxes:             taxes,
		Total:             total,
		Status:            status,
		OrderDate:         orderDate,
		TrackingNumber:    tracking,
		Lines:             lines,
		HasExplicitTotals: hasSubtotal && hasTaxes && hasTotal,
	}
}

func normalizeLine(raw map[string]any, parentOrderID int) OrderLine {
	lineID, _ := firstInt(raw, "detallePedidoId", "id")
	orderID, ok := firstInt(raw, "pedidoId")
	if !ok {
		orderID = parentOrderID
	}
	productID, _ := firstInt(raw, "productoId", "ProductoId", "producto.productoId", "producto.id")
	quantity, ok := firstInt(raw, "cantidad", "Cantidad")
	if !ok || quantity == 0 {
		quantity = 1
	}
	unitPrice, _ := firstNumber(raw, "precioUnitario", "PrecioUnitario", "precio", "Precio")

	var product *Product
	if obj, ok := firstObject(raw, "producto", "Producto"); ok {
		product = normalizeProduct(obj, productID)
		if productID == 0 {
			productID = product.ProductID
		}
	}

	return OrderLine{
		LineID:    lineID,
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Product:   product,
	}
}

func normalizeProduct(raw map[string]any, lineProductID int) *Product {
	productID, ok := firstInt(raw, "productoId", "id")
	if !ok {
		productID = lineProductID
	}
	name, ok := firstString(raw, "nombre", "Nombre", "name")
	if !ok {
		name = "Producto"
	}
	price, _ := firstNumber(raw, "precio", "Precio", "price")
	imageURL, _ := firstString(raw, "imagenUrl", "imagen", "imageUrl", "image")

	return &Product{
		ProductID: productID,
		Name:      name,
		Price:     price,
		ImageURL:  imageURL,
	}
}
