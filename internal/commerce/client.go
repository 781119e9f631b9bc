// Package commerce is the HTTP client for the external commerce API. The
// backend is inconsistently documented and its routes have drifted over
// time, so read operations lean on fallback chains (see fallback.go) and
// every response passes through internal/normalize before anything else
// touches it.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mitienda/storefront/internal/metrics"
	"github.com/mitienda/storefront/internal/normalize"
	"github.com/mitienda/storefront/internal/pricing"
)

// recentProbeLimit bounds the last-resort order probe: when every listing
// endpoint fails, the most recent order ids are fetched one by one.
const recentProbeLimit = 10

// Client talks to the commerce API.
type Client struct {
	base    string
	http    *http.Client
	metrics *metrics.Registry
}

// NewClient returns a client for the given base URL. metrics may be nil.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Registry) *Client {
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: m,
	}
}

type requestIDKey struct{}

// WithRequestID stores a correlation id that outgoing requests forward as
// X-Request-Id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, payload any, token string) (*http.Request, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, data, nil
}

// Order fetches a single order by id. Unlike the listing operations this
// one surfaces errors: the order-detail view needs to tell the user when a
// specific order cannot be loaded.
func (c *Client) Order(ctx context.Context, orderID int, token string) (normalize.Order, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/Pedidos/%d", orderID), nil, nil, token)
	if err != nil {
		return normalize.Order{}, err
	}
	status, body, err := c.do(req)
	if err != nil {
		return normalize.Order{}, fmt.Errorf("fetch order %d: %w", orderID, err)
	}
	if status < 200 || status > 299 {
		return normalize.Order{}, fmt.Errorf("fetch order %d: %s", orderID, extractErrorMessage(status, body))
	}
	raw, err := decodeObject(body)
	if err != nil {
		return normalize.Order{}, fmt.Errorf("fetch order %d: %w", orderID, err)
	}
	return normalize.NormalizeOrder(raw), nil
}

// OrdersForUser lists a user's orders, walking the known endpoint variants
// in priority order. When every candidate fails it degrades to an empty
// list: the storefront prefers "no orders" over an error page even though
// that can mask a backend outage.
func (c *Client) OrdersForUser(ctx context.Context, userID int, token string) []normalize.Order {
	uid := fmt.Sprintf("%d", userID)
	parseable := func(body []byte) bool { return json.Valid(bytes.TrimSpace(body)) && len(bytes.TrimSpace(body)) > 0 }

	attempts := []Attempt{
		{
			Name: "by-user-route",
			Build: func(ctx context.Context) (*http.Request, error) {
				return c.newRequest(ctx, http.MethodGet, "/Pedidos/usuario/"+uid, nil, nil, token)
			},
			Accept: parseable,
		},
		{
			Name: "with-user-query",
			Build: func(ctx context.Context) (*http.Request, error) {
				return c.newRequest(ctx, http.MethodGet, "/Pedidos/with-user", url.Values{"usuarioId": {uid}}, nil, token)
			},
			Accept: parseable,
		},
		{
			Name: "usuario-query",
			Build: func(ctx context.Context) (*http.Request, error) {
				return c.newRequest(ctx, http.MethodGet, "/Pedidos", url.Values{"usuarioId": {uid}}, nil, token)
			},
			Accept: parseable,
		},
		{
			Name: "list-all",
			Build: func(ctx context.Context) (*http.Request, error) {
				return c.newRequest(ctx, http.MethodGet, "/Pedidos", nil, nil, token)
			},
			Accept: parseable,
		},
	}

	body, winner, ok := c.runFallback(ctx, "orders_for_user", attempts)
	if ok {
		orders := make([]normalize.Order, 0)
		for _, rec := range decodeList(body) {
			order := normalize.NormalizeOrder(rec)
			// list-all returns everyone's orders; keep the user's plus any
			// record that carries no user id at all.
			if winner == "list-all" && order.UserID != 0 && order.UserID != userID {
				continue
			}
			orders = append(orders, order)
		}
		return orders
	}

	// Last resort: probe recent order ids individually.
	orders := make([]normalize.Order, 0)
	for id := 1; id <= recentProbeLimit; id++ {
		order, err := c.Order(ctx, id, token)
		if err != nil {
			continue
		}
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	return orders
}

// OrderItem is one line of an order-creation request, in the exact wire
// shape the backend expects.
type OrderItem struct {
	ProductID int `json:"ProductoId"`
	Quantity  int `json:"Cantidad"`
}

type createOrderPayload struct {
	AddressID       int         `json:"DireccionId"`
	PaymentMethodID *int        `json:"MetodoPagoId"`
	Items           []OrderItem `json:"Items"`
}

// CreateOrder submits a new order for the user. The backend accepts a null
// payment method; the invoice is generated later by PayOrder.
func (c *Client) CreateOrder(ctx context.Context, userID, addressID int, paymentMethodID *int, items []OrderItem, token string) (normalize.Order, error) {
	if len(items) == 0 {
		return normalize.Order{}, fmt.Errorf("create order: at least one item is required")
	}

	payload := createOrderPayload{
		AddressID:       addressID,
		PaymentMethodID: paymentMethodID,
		Items:           items,
	}
	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/Pedidos/usuario/%d", userID), nil, payload, token)
	if err != nil {
		return normalize.Order{}, err
	}
	status, body, err := c.do(req)
	if err != nil {
		return normalize.Order{}, fmt.Errorf("create order: %w", err)
	}
	if status < 200 || status > 299 {
		return normalize.Order{}, fmt.Errorf("create order: %s", extractErrorMessage(status, body))
	}

	raw, err := decodeObject(body)
	if err != nil {
		return normalize.Order{}, fmt.Errorf("create order: %w", err)
	}
	if c.metrics != nil {
		c.metrics.OrdersCreated.Inc()
	}
	return normalize.NormalizeOrder(raw), nil
}

// UpdateOrderStatus patches an order's status. Only the statuses the
// backend knows are accepted.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int, status string, token string) error {
	if !normalize.ValidStatus(status) {
		return fmt.Errorf("update order %d: unknown status %q", orderID, status)
	}
	req, err := c.newRequest(ctx, http.MethodPatch, fmt.Sprintf("/Pedidos/%d", orderID), nil, map[string]string{"estado": status}, token)
	if err != nil {
		return err
	}
	code, body, err := c.do(req)
	if err != nil {
		return fmt.Errorf("update order %d: %w", orderID, err)
	}
	if code < 200 || code > 299 {
		return fmt.Errorf("update order %d: %s", orderID, extractErrorMessage(code, body))
	}
	return nil
}

// PayOrder marks an order as paid; the backend responds with the generated
// invoice.
func (c *Client) PayOrder(ctx context.Context, orderID int, token string) (normalize.Invoice, error) {
	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/Pedidos/%d/pagar", orderID), nil, nil, token)
	if err != nil {
		return normalize.Invoice{}, err
	}
	status, body, err := c.do(req)
	if err != nil {
		return normalize.Invoice{}, fmt.Errorf("pay order %d: %w", orderID, err)
	}
	if status < 200 || status > 299 {
		return normalize.Invoice{}, fmt.Errorf("pay order %d: %s", orderID, extractErrorMessage(status, body))
	}
	raw, err := decodeObject(body)
	if err != nil {
		return normalize.Invoice{}, fmt.Errorf("pay order %d: %w", orderID, err)
	}
	return normalize.NormalizeInvoice(raw), nil
}

// Invoice fetches an invoice by its own id.
func (c *Client) Invoice(ctx context.Context, invoiceID int, token string) (normalize.Invoice, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/Facturas/%d", invoiceID), nil, nil, token)
	if err != nil {
		return normalize.Invoice{}, err
	}
	status, body, err := c.do(req)
	if err != nil {
		return normalize.Invoice{}, fmt.Errorf("fetch invoice %d: %w", invoiceID, err)
	}
	if status < 200 || status > 299 {
		return normalize.Invoice{}, fmt.Errorf("fetch invoice %d: %s", invoiceID, extractErrorMessage(status, body))
	}
	raw, err := decodeObject(body)
	if err != nil {
		return normalize.Invoice{}, fmt.Errorf("fetch invoice %d: %w", invoiceID, err)
	}
	return normalize.NormalizeInvoice(raw), nil
}

// InvoiceForOrder locates the invoice belonging to an order, walking every
// route shape the backend has ever exposed for it. ok is false when no
// candidate produced an invoice; callers then synthesize a provisional one
// from the order itself.
func (c *Client) InvoiceForOrder(ctx context.Context, orderID int, token string) (normalize.Invoice, bool) {
	oid := fmt.Sprintf("%d", orderID)
	attempts := []Attempt{
		{
			Name: "pedido-query",
			Build: func(ctx context.Context) (*http.Request, error) {
				return c.newRequest(ctx, http.MethodGet, "/Facturas", url.Values{"pedidoId": {oid}}, nil, token)
			},
		},
		{
			Name: "order-query",
			Build: func(ctx context.Context) (*http.Request, error) {
				return c.newRequest(ctx, http.MethodGet, "/Facturas", url.Values{"orderId": {oid}}, nil, token)
			},
		},
		{
			Name: "pedido-route",
			Build: func(ctx context.Context) (*http.Request, error) {
				return c.newRequest(ctx, http.MethodGet, "/Facturas/pedido/"+oid, nil, nil, token)
			},
		},
		{
			Name: "find-by-pedido",
			Build: func(ctx context.Context) (*http.Request, error) {
				return c.newRequest(ctx, http.MethodPost, "/Facturas/findByPedido", nil, map[string]int{"pedidoId": orderID}, token)
			},
		},
		{
			Name: "post-facturas",
			Build: func(ctx context.Context) (*http.Request, error) {
				return c.newRequest(ctx, http.MethodPost, "/Facturas", nil, map[string]int{"pedidoId": orderID}, token)
			},
		},
	}

	body, _, ok := c.runFallback(ctx, "invoice_for_order", attempts)
	if !ok {
		return normalize.Invoice{}, false
	}
	records := decodeList(body)
	if len(records) == 0 {
		return normalize.Invoice{}, false
	}
	return normalize.NormalizeInvoice(records[0]), true
}

// Product fetches a catalog product, used to backfill missing line details.
func (c *Client) Product(ctx context.Context, productID int, token string) (normalize.Product, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/Productos/%d", productID), nil, nil, token)
	if err != nil {
		return normalize.Product{}, err
	}
	status, body, err := c.do(req)
	if err != nil {
		return normalize.Product{}, fmt.Errorf("fetch product %d: %w", productID, err)
	}
	if status < 200 || status > 299 {
		return normalize.Product{}, fmt.Errorf("fetch product %d: %s", productID, extractErrorMessage(status, body))
	}
	raw, err := decodeObject(body)
	if err != nil {
		return normalize.Product{}, fmt.Errorf("fetch product %d: %w", productID, err)
	}
	return normalize.NormalizeProduct(raw), nil
}

// AddressesForUser lists a user's shipping addresses. Failures degrade to
// an empty list; the checkout form shows "no addresses" instead of an error.
func (c *Client) AddressesForUser(ctx context.Context, userID int, token string) []normalize.Address {
	addresses := make([]normalize.Address, 0)
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/Direcciones/usuario/%d", userID), nil, nil, token)
	if err != nil {
		return addresses
	}
	status, body, err := c.do(req)
	if err != nil || status < 200 || status > 299 {
		return addresses
	}
	for _, rec := range decodeList(body) {
		addresses = append(addresses, normalize.NormalizeAddress(rec))
	}
	return addresses
}

// PaymentMethodsForUser lists a user's stored payment methods, degrading to
// an empty list on failure.
func (c *Client) PaymentMethodsForUser(ctx context.Context, userID int, token string) []normalize.PaymentMethod {
	methods := make([]normalize.PaymentMethod, 0)
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/MetodosPago/usuario/%d", userID), nil, nil, token)
	if err != nil {
		return methods
	}
	status, body, err := c.do(req)
	if err != nil || status < 200 || status > 299 {
		return methods
	}
	for _, rec := range decodeList(body) {
		methods = append(methods, normalize.NormalizePaymentMethod(rec))
	}
	return methods
}

// CartForUser loads the user's server-side cart, degrading to an empty list
// on failure so the local cart keeps working offline.
func (c *Client) CartForUser(ctx context.Context, userID int, token string) []pricing.CartLine {
	lines := make([]pricing.CartLine, 0)
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/Carrito/usuario/%d", userID), nil, nil, token)
	if err != nil {
		return lines
	}
	status, body, err := c.do(req)
	if err != nil || status < 200 || status > 299 {
		return lines
	}
	for _, rec := range decodeList(body) {
		lines = append(lines, normalize.NormalizeCartLine(rec))
	}
	return lines
}

func decodeObject(body []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return m, nil
}

// decodeList tolerates the three list shapes the backend uses: a bare
// array, an envelope {"data": [...]}, or a single object.
func decodeList(body []byte) []map[string]any {
	var arr []map[string]any
	if err := json.Unmarshal(body, &arr); err == nil {
		return arr
	}

	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data
	}

	var single map[string]any
	if err := json.Unmarshal(body, &single); err == nil && single != nil {
		return []map[string]any{single}
	}
	return nil
}

// extractErrorMessage digs the most useful message out of an error
// response: JSON message/detail fields first, raw text second.
func extractErrorMessage(status int, body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Detail != "" {
			return parsed.Detail
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 512 {
		return fmt.Sprintf("status %d: %s", status, text)
	}
	return fmt.Sprintf("status %d", status)
}
