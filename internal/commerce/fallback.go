package commerce

import (
	"context"
	"io"
	"log"
	"net/http"
)

// The commerce backend has accumulated several route shapes for the same
// logical operation. Instead of inline try/catch chains at every call site,
// an operation declares its candidate endpoints as an ordered Attempt list
// and runFallback walks it: first success wins, a failed attempt simply
// advances to the next candidate, and there are no per-attempt retries.

// Attempt is one candidate endpoint for a logical operation.
type Attempt struct {
	// Name identifies the candidate in logs and metrics.
	Name string
	// Build constructs the request for this candidate.
	Build func(ctx context.Context) (*http.Request, error)
	// Accept judges the body of a 2xx response; nil accepts any body.
	Accept func(body []byte) bool
}

// runFallback executes attempts sequentially and returns the body of the
// first accepted 2xx response along with the winning attempt's name. ok is
// false when every candidate failed; callers are expected to degrade to an
// empty result rather than surface an error (the UI depends on it).
func (c *Client) runFallback(ctx context.Context, operation string, attempts []Attempt) (body []byte, name string, ok bool) {
	for _, attempt := range attempts {
		if ctx.Err() != nil {
			break
		}

		req, err := attempt.Build(ctx)
		if err != nil {
			log.Printf("[commerce] %s: building %s: %v", operation, attempt.Name, err)
			c.countAttempt(operation, "build_error")
			continue
		}

		res, err := c.http.Do(req)
		if err != nil {
			log.Printf("[commerce] %s: %s failed: %v", operation, attempt.Name, err)
			c.countAttempt(operation, "transport_error")
			continue
		}

		data, readErr := io.ReadAll(res.Body)
		res.Body.Close()
		if readErr != nil || res.StatusCode < 200 || res.StatusCode > 299 {
			log.Printf("[commerce] %s: %s returned status %d", operation, attempt.Name, res.StatusCode)
			c.countAttempt(operation, "rejected")
			continue
		}
		if attempt.Accept != nil && !attempt.Accept(data) {
			c.countAttempt(operation, "unparseable")
			continue
		}

		c.countAttempt(operation, "success")
		return data, attempt.Name, true
	}

	log.Printf("[commerce] %s: all %d candidates failed", operation, len(attempts))
	c.countExhausted(operation)
	return nil, "", false
}

func (c *Client) countAttempt(operation, outcome string) {
	if c.metrics != nil {
		c.metrics.FallbackAttempts.WithLabelValues(operation, outcome).Inc()
	}
}

func (c *Client) countExhausted(operation string) {
	if c.metrics != nil {
		c.metrics.FallbackExhausted.WithLabelValues(operation).Inc()
	}
}
