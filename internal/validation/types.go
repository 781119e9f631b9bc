package validation

// AddCartItemRequest is the payload for adding a product to the cart. The
// display fields ride along so the cart can render without a catalog round
// trip; enrichment backfills whatever the client omits.
type AddCartItemRequest struct {
	ProductID   int     `json:"productoId" validate:"required,gt=0"`
	Quantity    int     `json:"cantidad" validate:"omitempty,min=1,max=100"`
	UnitPrice   float64 `json:"precio" validate:"omitempty,gte=0"`
	Name        string  `json:"nombre"`
	ImageURL    string  `json:"imagenUrl"`
	Description string  `json:"descripcion"`
}

// UpdateQuantityRequest is the payload for changing a cart line's quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"cantidad" validate:"required,min=1,max=100"`
}

// CartSelectionRequest names the cart lines a summary or checkout applies
// to. An empty selection means the whole cart.
type CartSelectionRequest struct {
	ProductIDs []int `json:"productosSeleccionados" validate:"omitempty,dive,gt=0"`
}

// CheckoutRequest is the payload for placing an order from the cart.
// Customer fields are display-only; they feed the notification email.
type CheckoutRequest struct {
	AddressID       int    `json:"direccionId" validate:"required,gt=0"`
	PaymentMethodID *int   `json:"metodoPagoId" validate:"omitempty,gt=0"`
	ProductIDs      []int  `json:"productosSeleccionados" validate:"omitempty,dive,gt=0"`
	CustomerName    string `json:"usuarioNombre"`
	CustomerEmail   string `json:"usuarioEmail" validate:"omitempty,email"`
	AddressText     string `json:"direccionTexto"`
}

// UpdateStatusRequest is the payload for patching an order's status. The
// allowed values are checked against the backend's vocabulary downstream.
type UpdateStatusRequest struct {
	Status string `json:"estado" validate:"required"`
}
