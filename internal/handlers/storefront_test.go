package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitienda/storefront/internal/cart"
	"github.com/mitienda/storefront/internal/commerce"
	"github.com/mitienda/storefront/internal/idempotency"
	"github.com/mitienda/storefront/internal/notify"
)

type testEnv struct {
	router  *gin.Engine
	carts   *cart.Store
	backend *httptest.Server
	events  chan []byte
}

// newTestEnv wires the handlers against a fake commerce backend and a fake
// notification service.
func newTestEnv(t *testing.T, backend http.Handler) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	events := make(chan []byte, 4)
	notifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		buf.ReadFrom(r.Body)
		events <- buf.Bytes()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(notifier.Close)

	carts := cart.NewStore()
	r := gin.New()
	r.Use(RequestIDMiddleware())
	RegisterStorefrontRoutes(r, HandlerConfig{
		Commerce:    commerce.NewClient(srv.URL, 5*time.Second, nil),
		Carts:       carts,
		Notifier:    notify.NewClient(notifier.URL),
		Idempotency: idempotency.NewStore(time.Hour),
	})

	return &testEnv{router: r, carts: carts, backend: srv, events: events}
}

func (e *testEnv) do(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestCartFlow_AddAndSummarize(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	w := env.do(t, http.MethodPost, "/api/users/3/cart/items", map[string]any{
		"productoId": 1, "cantidad": 6, "precio": 100.0, "nombre": "Collar",
	})
	require.Equal(t, http.StatusOK, w.Code)

	res := decodeBody(t, w)
	summary := res["summary"].(map[string]any)
	assert.Equal(t, 600.0, summary["subtotal"])
	assert.Equal(t, 180.0, summary["discountTotal"])
	assert.Equal(t, true, summary["couponEarned"])
	assert.Equal(t, 0.0, summary["shippingFee"])
	assert.Equal(t, 420.0, summary["total"])
}

func TestCartFlow_AddSameProductIncrementsQuantity(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	env.do(t, http.MethodPost, "/api/users/3/cart/items", map[string]any{"productoId": 1, "cantidad": 2, "precio": 10.0})
	w := env.do(t, http.MethodPost, "/api/users/3/cart/items", map[string]any{"productoId": 1, "cantidad": 3, "precio": 10.0})

	res := decodeBody(t, w)
	items := res["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, 5.0, items[0].(map[string]any)["quantity"])
}

func TestCartFlow_UpdateQuantityMissingProduct(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	w := env.do(t, http.MethodPatch, "/api/users/3/cart/items/99", map[string]any{"cantidad": 2})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartFlow_InvalidQuantityRejected(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	w := env.do(t, http.MethodPost, "/api/users/3/cart/items", map[string]any{"productoId": 1, "cantidad": 101})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartSummary_SelectionOnly(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())
	env.do(t, http.MethodPost, "/api/users/3/cart/items", map[string]any{"productoId": 1, "cantidad": 1, "precio": 30.0})
	env.do(t, http.MethodPost, "/api/users/3/cart/items", map[string]any{"productoId": 2, "cantidad": 1, "precio": 50.0})

	w := env.do(t, http.MethodPost, "/api/users/3/cart/summary", map[string]any{"productosSeleccionados": []int{2}})

	res := decodeBody(t, w)
	summary := res["summary"].(map[string]any)
	assert.Equal(t, 50.0, summary["subtotal"])
	items := res["items"].([]any)
	require.Len(t, items, 1)
}

func TestCheckout_CreatesOrderAndClearsPurchasedLines(t *testing.T) {
	var orderPayload map[string]any
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/Pedidos/usuario/3" {
			json.NewDecoder(r.Body).Decode(&orderPayload)
			json.NewEncoder(w).Encode(map[string]any{"pedidoId": 55, "estado": "pendiente"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	env.do(t, http.MethodPost, "/api/users/3/cart/items", map[string]any{"productoId": 1, "cantidad": 6, "precio": 100.0, "nombre": "Collar"})
	env.do(t, http.MethodPost, "/api/users/3/cart/items", map[string]any{"productoId": 2, "cantidad": 1, "precio": 10.0, "nombre": "Correa"})

	w := env.do(t, http.MethodPost, "/api/users/3/checkout", map[string]any{
		"direccionId":            4,
		"productosSeleccionados": []int{1},
		"usuarioNombre":          "Ana",
		"usuarioEmail":           "ana@example.com",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	res := decodeBody(t, w)
	order := res["order"].(map[string]any)
	assert.Equal(t, 55.0, order["orderId"])
	summary := res["summary"].(map[string]any)
	assert.Equal(t, 420.0, summary["total"])

	assert.Equal(t, 4.0, orderPayload["DireccionId"])
	assert.Nil(t, orderPayload["MetodoPagoId"])
	items := orderPayload["Items"].([]any)
	require.Len(t, items, 1, "only the selected line is purchased")

	remaining := env.carts.Lines(3)
	require.Len(t, remaining, 1)
	assert.Equal(t, 2, remaining[0].ProductID, "unselected line survives checkout")

	select {
	case raw := <-env.events:
		var ev map[string]any
		require.NoError(t, json.Unmarshal(raw, &ev))
		assert.Equal(t, 55.0, ev["pedidoId"])
		assert.Equal(t, "Ana", ev["usuarioNombre"])
		assert.Equal(t, 420.0, ev["total"])
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never sent")
	}
}

func TestCheckout_DuplicateIdempotencyKeyReplaysResponse(t *testing.T) {
	var creates int
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/Pedidos/usuario/3" {
			creates++
			json.NewEncoder(w).Encode(map[string]any{"pedidoId": 55, "estado": "pendiente"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	env.do(t, http.MethodPost, "/api/users/3/cart/items", map[string]any{"productoId": 1, "cantidad": 1, "precio": 10.0})

	checkout := func() *httptest.ResponseRecorder {
		data, err := json.Marshal(map[string]any{"direccionId": 4})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/users/3/checkout", bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "chk-1")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	first := checkout()
	require.Equal(t, http.StatusCreated, first.Code)

	// restock the cart to prove the replay never reaches it
	env.do(t, http.MethodPost, "/api/users/3/cart/items", map[string]any{"productoId": 1, "cantidad": 1, "precio": 10.0})

	second := checkout()
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, creates, "the backend must see a single order")
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	w := env.do(t, http.MethodPost, "/api/users/3/checkout", map[string]any{"direccionId": 4})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "empty_cart")
}

func TestCheckout_BackendRejectionKeepsCart(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "stock insuficiente"})
	}))
	env.do(t, http.MethodPost, "/api/users/3/cart/items", map[string]any{"productoId": 1, "cantidad": 1, "precio": 10.0})

	w := env.do(t, http.MethodPost, "/api/users/3/checkout", map[string]any{"direccionId": 4})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "stock insuficiente")
	assert.Len(t, env.carts.Lines(3), 1, "failed checkout must not drop the cart")
}

func TestOrderDetail_ExplicitTotalsWinOverDerivation(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Pedidos/7" {
			json.NewEncoder(w).Encode(map[string]any{
				"pedidoId": 7, "usuarioId": 3,
				"subtotal": 100.0, "impuestos": 5.0, "total": 105.0,
				"detalles": []map[string]any{
					{"productoId": 1, "cantidad": 2, "precioUnitario": 60.0,
						"producto": map[string]any{"productoId": 1, "nombre": "Collar", "imagenUrl": "http://img/1.jpg"}},
				},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	w := env.do(t, http.MethodGet, "/api/orders/7", nil)

	require.Equal(t, http.StatusOK, w.Code)
	res := decodeBody(t, w)
	totals := res["totals"].(map[string]any)
	assert.Equal(t, 100.0, totals["subtotal"])
	assert.Equal(t, 5.0, totals["taxes"], "stored taxes are never recomputed")
	assert.Equal(t, 105.0, totals["total"])
}

func TestOrderDetail_DerivesTotalsFromLines(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Pedidos/7" {
			json.NewEncoder(w).Encode(map[string]any{
				"pedidoId": 7, "usuarioId": 3,
				"detalles": []map[string]any{
					{"productoId": 1, "cantidad": 5, "precioUnitario": 25.0,
						"producto": map[string]any{"productoId": 1, "nombre": "Collar", "imagenUrl": "http://img/1.jpg"}},
				},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	w := env.do(t, http.MethodGet, "/api/orders/7", nil)

	require.Equal(t, http.StatusOK, w.Code)
	res := decodeBody(t, w)
	totals := res["totals"].(map[string]any)
	assert.Equal(t, 125.0, totals["subtotal"])
	assert.Equal(t, 22.5, totals["taxes"])
	assert.Equal(t, 147.5, totals["total"])
}

func TestOrderDetail_NotFound(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	w := env.do(t, http.MethodGet, "/api/orders/7", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	w := env.do(t, http.MethodPatch, "/api/orders/7/status", map[string]any{"estado": "pagado"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_status")
}

func TestOrderInvoice_SynthesizesProvisionalInvoice(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Pedidos/7" {
			json.NewEncoder(w).Encode(map[string]any{
				"pedidoId": 7, "usuarioId": 3, "impuestos": 3.0,
				"subtotal": 50.0, "total": 53.0,
				"detalles": []map[string]any{
					{"productoId": 1, "cantidad": 2, "precioUnitario": 25.0,
						"producto": map[string]any{"productoId": 1, "nombre": "Collar", "imagenUrl": "http://img/1.jpg"}},
				},
			})
			return
		}
		// every invoice route fails
		w.WriteHeader(http.StatusNotFound)
	}))

	w := env.do(t, http.MethodGet, "/api/orders/7/invoice", nil)

	require.Equal(t, http.StatusOK, w.Code)
	res := decodeBody(t, w)
	invoice := res["invoice"].(map[string]any)
	assert.Equal(t, true, invoice["provisional"])
	assert.Equal(t, 7.0, invoice["orderId"])
	items := invoice["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Collar", items[0].(map[string]any)["name"])
}

func TestRequestIDMiddleware_EchoesHeader(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/users/3/cart", nil)
	req.Header.Set("X-Request-Id", "req-42")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-Id"))
}
