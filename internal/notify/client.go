package notify

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

// Client posts new-order events to the notification service from the BFF.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a notification client, or nil when no service URL is
// configured. A nil client is safe to use; Notify becomes a no-op.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify sends the event in the background. Checkout must never wait on or
// fail because of email delivery, so errors are only logged.
func (c *Client) Notify(ev NewOrderEvent) {
	if c == nil {
		return
	}
	go func() {
		body, err := json.Marshal(ev)
		if err != nil {
			log.Printf("[notify] encode event for order %d: %v", ev.OrderID, err)
			return
		}
		res, err := c.http.Post(c.baseURL+"/notify/new-order", "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("[notify] post event for order %d: %v", ev.OrderID, err)
			return
		}
		res.Body.Close()
		if res.StatusCode < 200 || res.StatusCode > 299 {
			log.Printf("[notify] event for order %d rejected: status %d", ev.OrderID, res.StatusCode)
		}
	}()
}
