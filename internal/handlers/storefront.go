// Package handlers is the storefront BFF's HTTP surface. It owns route
// wiring and request validation; pricing, normalization and upstream access
// live in their own packages.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mitienda/storefront/internal/cart"
	"github.com/mitienda/storefront/internal/commerce"
	"github.com/mitienda/storefront/internal/idempotency"
	"github.com/mitienda/storefront/internal/normalize"
	"github.com/mitienda/storefront/internal/notify"
	"github.com/mitienda/storefront/internal/pricing"
	"github.com/mitienda/storefront/internal/validation"
)

// HandlerConfig groups dependencies for the storefront handlers.
type HandlerConfig struct {
	Commerce    *commerce.Client
	Carts       *cart.Store
	Notifier    *notify.Client
	Idempotency *idempotency.Store
}

// RequestIDMiddleware tags every request with a correlation id that the
// commerce client forwards upstream.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-Id", id)
		c.Request = c.Request.WithContext(commerce.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// RegisterStorefrontRoutes registers the BFF routes.
func RegisterStorefrontRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	api := r.Group("/api")

	users := api.Group("/users/:userId")
	users.GET("/cart", cfg.getCart)
	users.POST("/cart/items", func(c *gin.Context) { cfg.addCartItem(c, v) })
	users.PATCH("/cart/items/:productId", func(c *gin.Context) { cfg.updateQuantity(c, v) })
	users.DELETE("/cart/items/:productId", cfg.removeCartItem)
	users.DELETE("/cart", cfg.clearCart)
	users.POST("/cart/load", cfg.loadServerCart)
	users.POST("/cart/summary", func(c *gin.Context) { cfg.cartSummary(c, v) })
	users.POST("/checkout", func(c *gin.Context) { cfg.checkout(c, v) })
	users.GET("/orders", cfg.listOrders)
	users.GET("/addresses", cfg.listAddresses)
	users.GET("/payment-methods", cfg.listPaymentMethods)

	ordersGroup := api.Group("/orders/:orderId")
	ordersGroup.GET("", cfg.orderDetail)
	ordersGroup.PATCH("/status", func(c *gin.Context) { cfg.updateOrderStatus(c, v) })
	ordersGroup.POST("/pay", cfg.payOrder)
	ordersGroup.GET("/invoice", cfg.orderInvoice)

	api.GET("/invoices/:invoiceId", cfg.invoiceByID)
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_" + strings.ToLower(name)})
		return 0, false
	}
	return id, true
}

func bearerToken(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

func (cfg HandlerConfig) getCart(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	lines := cfg.Carts.Lines(userID)
	c.JSON(http.StatusOK, gin.H{
		"items":   lines,
		"summary": pricing.ComputeSummary(lines),
	})
}

func (cfg HandlerConfig) addCartItem(c *gin.Context, v *validatorv10.Validate) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req validation.AddCartItemRequest
	if err := validation.BindAndValidate(c, &req, v); err != nil {
		return
	}

	cfg.Carts.Add(userID, pricing.CartLine{
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		Name:        req.Name,
		ImageURL:    req.ImageURL,
		Description: req.Description,
	})

	lines := cfg.Carts.Lines(userID)
	c.JSON(http.StatusOK, gin.H{
		"items":   lines,
		"summary": pricing.ComputeSummary(lines),
	})
}

func (cfg HandlerConfig) updateQuantity(c *gin.Context, v *validatorv10.Validate) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	var req validation.UpdateQuantityRequest
	if err := validation.BindAndValidate(c, &req, v); err != nil {
		return
	}

	if !cfg.Carts.UpdateQuantity(userID, productID, req.Quantity) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product_not_in_cart"})
		return
	}

	lines := cfg.Carts.Lines(userID)
	c.JSON(http.StatusOK, gin.H{
		"items":   lines,
		"summary": pricing.ComputeSummary(lines),
	})
}

func (cfg HandlerConfig) removeCartItem(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	if !cfg.Carts.Remove(userID, productID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product_not_in_cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cfg.Carts.Lines(userID)})
}

func (cfg HandlerConfig) clearCart(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	cfg.Carts.Clear(userID)
	c.JSON(http.StatusOK, gin.H{"items": []pricing.CartLine{}})
}

// loadServerCart replaces the local cart with the server-side one, enriched
// with catalog data the cart endpoint leaves out.
func (cfg HandlerConfig) loadServerCart(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	token := bearerToken(c)

	lines := cfg.Commerce.CartForUser(ctx, userID, token)
	lines = cfg.Commerce.EnrichCartLines(ctx, lines, token)
	cfg.Carts.Replace(userID, lines)

	c.JSON(http.StatusOK, gin.H{
		"items":   lines,
		"summary": pricing.ComputeSummary(lines),
	})
}

func (cfg HandlerConfig) cartSummary(c *gin.Context, v *validatorv10.Validate) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req validation.CartSelectionRequest
	if err := validation.BindAndValidate(c, &req, v); err != nil {
		return
	}
	selected := cfg.Carts.Select(userID, req.ProductIDs)
	c.JSON(http.StatusOK, gin.H{
		"items":   selected,
		"summary": pricing.ComputeSummary(selected),
	})
}

func (cfg HandlerConfig) checkout(c *gin.Context, v *validatorv10.Validate) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req validation.CheckoutRequest
	if err := validation.BindAndValidate(c, &req, v); err != nil {
		return
	}

	selected := cfg.Carts.Select(userID, req.ProductIDs)
	if len(selected) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty_cart"})
		return
	}

	items := make([]commerce.OrderItem, 0, len(selected))
	for _, line := range selected {
		items = append(items, commerce.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	// Duplicate submissions with the same Idempotency-Key replay the first
	// response instead of placing a second order.
	idempKey := c.GetHeader("Idempotency-Key")
	if idempKey != "" && cfg.Idempotency != nil {
		rec, started := cfg.Idempotency.Begin(idempKey)
		if !started {
			if rec.Status == idempotency.StatusDone {
				c.Data(rec.ResponseStatus, "application/json", rec.ResponseBody)
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
			return
		}
	}

	order, err := cfg.Commerce.CreateOrder(c.Request.Context(), userID, req.AddressID, req.PaymentMethodID, items, bearerToken(c))
	if err != nil {
		if idempKey != "" && cfg.Idempotency != nil {
			cfg.Idempotency.Release(idempKey)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	purchased := make([]int, 0, len(selected))
	for _, line := range selected {
		purchased = append(purchased, line.ProductID)
	}
	cfg.Carts.RemoveMany(userID, purchased)

	summary := pricing.ComputeSummary(selected)

	ev := notify.NewOrderEvent{
		OrderID:       order.OrderID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Total:         summary.Total,
		Address:       req.AddressText,
	}
	for _, line := range selected {
		ev.Items = append(ev.Items, notify.NewOrderItem{
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	cfg.Notifier.Notify(ev)

	response, err := json.Marshal(gin.H{"order": order, "summary": summary})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode_response_failed"})
		return
	}
	if idempKey != "" && cfg.Idempotency != nil {
		cfg.Idempotency.MarkDone(idempKey, order.OrderID, http.StatusCreated, response)
	}
	c.Data(http.StatusCreated, "application/json", response)
}

func (cfg HandlerConfig) listOrders(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	orders := cfg.Commerce.OrdersForUser(c.Request.Context(), userID, bearerToken(c))
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (cfg HandlerConfig) listAddresses(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	addresses := cfg.Commerce.AddressesForUser(c.Request.Context(), userID, bearerToken(c))
	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

func (cfg HandlerConfig) listPaymentMethods(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	methods := cfg.Commerce.PaymentMethodsForUser(c.Request.Context(), userID, bearerToken(c))
	c.JSON(http.StatusOK, gin.H{"paymentMethods": methods})
}

// orderDetail loads one order, backfills product data and attaches display
// totals. Orders that carried explicit totals keep them verbatim; otherwise
// totals are derived from the lines.
func (cfg HandlerConfig) orderDetail(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	token := bearerToken(c)

	order, err := cfg.Commerce.Order(ctx, orderID, token)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	cfg.Commerce.EnrichOrderLines(ctx, &order, token)

	var explicit *pricing.Totals
	if order.HasExplicitTotals {
		explicit = &pricing.Totals{Subtotal: order.Subtotal, Taxes: order.Taxes, Total: order.Total}
	}
	previewLines := make([]pricing.PreviewLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		previewLines = append(previewLines, pricing.PreviewLine{UnitPrice: line.UnitPrice, Quantity: line.Quantity})
	}

	c.JSON(http.StatusOK, gin.H{
		"order":  order,
		"totals": pricing.ComputePreviewTotals(explicit, previewLines),
	})
}

func (cfg HandlerConfig) updateOrderStatus(c *gin.Context, v *validatorv10.Validate) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}
	var req validation.UpdateStatusRequest
	if err := validation.BindAndValidate(c, &req, v); err != nil {
		return
	}
	if !normalize.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status"})
		return
	}
	if err := cfg.Commerce.UpdateOrderStatus(c.Request.Context(), orderID, req.Status, bearerToken(c)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": orderID, "status": req.Status})
}

func (cfg HandlerConfig) payOrder(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}
	invoice, err := cfg.Commerce.PayOrder(c.Request.Context(), orderID, bearerToken(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

func (cfg HandlerConfig) invoiceByID(c *gin.Context) {
	invoiceID, ok := pathID(c, "invoiceId")
	if !ok {
		return
	}
	invoice, err := cfg.Commerce.Invoice(c.Request.Context(), invoiceID, bearerToken(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// orderInvoice locates the order's invoice, reconciling incomplete records
// against the order and synthesizing a provisional invoice when the backend
// has none.
func (cfg HandlerConfig) orderInvoice(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	token := bearerToken(c)

	invoice, found := cfg.Commerce.InvoiceForOrder(ctx, orderID, token)
	if found && len(invoice.Items) > 0 {
		c.JSON(http.StatusOK, gin.H{"invoice": invoice})
		return
	}

	order, err := cfg.Commerce.Order(ctx, orderID, token)
	if err != nil {
		if found {
			// incomplete invoice is better than none when the order itself
			// cannot be loaded
			c.JSON(http.StatusOK, gin.H{"invoice": invoice})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	cfg.Commerce.EnrichOrderLines(ctx, &order, token)

	var partial *normalize.Invoice
	if found {
		partial = &invoice
	}
	c.JSON(http.StatusOK, gin.H{"invoice": normalize.ReconcileInvoiceFromOrder(order, partial)})
}
