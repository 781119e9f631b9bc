package normalize

import "github.com/shopspring/decimal"

// InvoiceItem is one display line on an invoice.
type InvoiceItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

// Invoice is the canonical invoice-display shape. Provisional marks invoices
// synthesized client-side from order data; they have not been persisted by
// the backend and must not be presented as confirmed.
type Invoice struct {
	InvoiceID    int           `json:"invoiceId,omitempty"`
	Number       string        `json:"number,omitempty"`
	IssuedAt     string        `json:"issuedAt,omitempty"`
	PaymentState string        `json:"paymentState,omitempty"`
	OrderID      int           `json:"orderId,omitempty"`
	Items        []InvoiceItem `json:"items"`
	Subtotal     float64       `json:"subtotal"`
	Taxes        float64       `json:"taxes"`
	Discount     float64       `json:"discount"`
	Shipping     float64       `json:"shipping"`
	CouponEarned bool          `json:"couponEarned"`
	Total        float64       `json:"total"`
	Provisional  bool          `json:"provisional"`
}

// NormalizeInvoice maps a raw invoice record into the canonical Invoice.
// Items is always non-nil. When the invoice embeds its order, lines missing
// from the invoice itself are taken from the embedded order.
func NormalizeInvoice(raw map[string]any) Invoice {
	invoiceID, _ := firstInt(raw, "facturaId", "id")
	number, _ := firstString(raw, "numeroFactura", "numero", "numero_factura")
	issuedAt, _ := firstString(raw, "fechaEmision", "fecha de emision", "fecha de emisión", "fecha", "fecha_emision", "createdAt", "issuedAt")
	paymentState, _ := firstString(raw, "estadoPago", "estado", "status", "paymentStatus")
	orderID, _ := firstInt(raw, "pedidoId", "PedidoId")
	subtotal, _ := firstNumber(raw, "subtotal", "Subtotal")
	taxes, _ := firstNumber(raw, "impuestos", "Impuestos")
	total, _ := firstNumber(raw, "total", "Total", "monto")

	items := make([]InvoiceItem, 0)
	if rawItems, ok := firstArray(raw, "items", "detalles", "lineItems", "detallesPedido"); ok {
		items = invoiceItemsFromRaw(rawItems)
	} else if embedded, ok := firstObject(raw, "pedido", "Pedido", "order"); ok {
		order := NormalizeOrder(embedded)
		items = invoiceItemsFromLines(order.Lines)
		if subtotal == 0 {
			subtotal = sumLineAmounts(order.Lines)
		}
		if orderID == 0 {
			orderID = order.OrderID
		}
	}

	return Invoice{
		InvoiceID:    invoiceID,
		Number:       number,
		IssuedAt:     issuedAt,
		PaymentState: paymentState,
		OrderID:      orderID,
		Items:        items,
		Subtotal:     subtotal,
		Taxes:        taxes,
		Total:        total,
	}
}

// ReconcileInvoiceFromOrder synthesizes a provisional invoice for an order
// that has no confirmed invoice yet. Order lines become invoice items, the
// subtotal is recomputed from them, and monetary adjustments carry over from
// the partial invoice first and the order second.
func ReconcileInvoiceFromOrder(order Order, partial *Invoice) Invoice {
	inv := Invoice{}
	if partial != nil {
		inv = *partial
	}

	inv.Items = invoiceItemsFromLines(order.Lines)
	inv.Subtotal = sumLineAmounts(order.Lines)
	inv.OrderID = order.OrderID
	inv.Provisional = true

	if inv.Taxes == 0 {
		inv.Taxes = order.Taxes
	}
	if inv.Total == 0 {
		if order.Total != 0 {
			inv.Total = order.Total
		} else {
			total, _ := decimal.NewFromFloat(inv.Subtotal).
				Add(decimal.NewFromFloat(inv.Taxes)).
				Round(2).Float64()
			inv.Total = total
		}
	}
	return inv
}

func invoiceItemsFromLines(lines []OrderLine) []InvoiceItem {
	items := make([]InvoiceItem, 0, len(lines))
	for _, line := range lines {
		item := InvoiceItem{
			Name:      "Producto",
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
		if line.Product != nil {
			item.Name = line.Product.Name
			item.ImageURL = line.Product.ImageURL
			if item.UnitPrice == 0 {
				item.UnitPrice = line.Product.Price
			}
		}
		items = append(items, item)
	}
	return items
}

func invoiceItemsFromRaw(rawItems []any) []InvoiceItem {
	items := make([]InvoiceItem, 0, len(rawItems))
	for _, ri := range rawItems {
		entry, ok := ri.(map[string]any)
		if !ok {
			continue
		}
		name, ok := firstString(entry, "nombre", "Nombre", "producto.nombre", "producto.Nombre", "productoNombre")
		if !ok {
			name = "Producto"
		}
		qty, ok := firstInt(entry, "cantidad", "Cantidad", "qty")
		if !ok || qty == 0 {
			qty = 1
		}
		unitPrice, _ := firstNumber(entry, "precioUnitario", "precio", "Precio", "producto.precio", "producto.price")
		imageURL, _ := firstString(entry, "imagen", "image", "producto.imagen", "producto.imagenUrl", "producto.image")
		items = append(items, InvoiceItem{
			Name:      name,
			Quantity:  qty,
			UnitPrice: unitPrice,
			ImageURL:  imageURL,
		})
	}
	return items
}

func sumLineAmounts(lines []OrderLine) float64 {
	sum := decimal.Zero
	for _, line := range lines {
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		price := line.UnitPrice
		if price == 0 && line.Product != nil {
			price = line.Product.Price
		}
		sum = sum.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty))))
	}
	f, _ := sum.Float64()
	return f
}
