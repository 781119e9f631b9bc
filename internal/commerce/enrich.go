package commerce

import (
	"context"
	"log"
	"sync"

	"github.com/mitienda/storefront/internal/normalize"
	"github.com/mitienda/storefront/internal/pricing"
)

// Enrichment backfills product details the order and cart endpoints leave
// out. All lookups for one record are issued concurrently and awaited as a
// batch; a failed lookup leaves its line untouched and never fails the
// batch. This is deliberately separate from the normalizer, which must stay
// side-effect free.

// EnrichOrderLines fills in missing nested product records on an order.
func (c *Client) EnrichOrderLines(ctx context.Context, order *normalize.Order, token string) {
	var wg sync.WaitGroup
	for i := range order.Lines {
		line := &order.Lines[i]
		if line.ProductID == 0 {
			continue
		}
		if line.Product != nil && line.Product.Name != "" && line.Product.ImageURL != "" {
			continue
		}

		wg.Add(1)
		go func(line *normalize.OrderLine) {
			defer wg.Done()
			product, err := c.Product(ctx, line.ProductID, token)
			if err != nil {
				log.Printf("[commerce] enrich: product %d: %v", line.ProductID, err)
				c.countEnrichmentFailure()
				return
			}
			if line.Product == nil {
				line.Product = &product
				return
			}
			if line.Product.Name == "" || line.Product.Name == "Producto" {
				line.Product.Name = product.Name
			}
			if line.Product.ImageURL == "" {
				line.Product.ImageURL = product.ImageURL
			}
			if line.Product.Price == 0 {
				line.Product.Price = product.Price
			}
		}(line)
	}
	wg.Wait()
}

// EnrichCartLines returns a copy of lines with missing display fields
// backfilled from the catalog.
func (c *Client) EnrichCartLines(ctx context.Context, lines []pricing.CartLine, token string) []pricing.CartLine {
	enriched := make([]pricing.CartLine, len(lines))
	copy(enriched, lines)

	var wg sync.WaitGroup
	for i := range enriched {
		line := &enriched[i]
		if line.ProductID == 0 || (line.ImageURL != "" && line.Name != "") {
			continue
		}

		wg.Add(1)
		go func(line *pricing.CartLine) {
			defer wg.Done()
			product, err := c.Product(ctx, line.ProductID, token)
			if err != nil {
				log.Printf("[commerce] enrich: product %d: %v", line.ProductID, err)
				c.countEnrichmentFailure()
				return
			}
			if line.Name == "" {
				line.Name = product.Name
			}
			if line.UnitPrice == 0 {
				line.UnitPrice = product.Price
			}
			if line.ImageURL == "" {
				line.ImageURL = product.ImageURL
			}
		}(line)
	}
	wg.Wait()
	return enriched
}

func (c *Client) countEnrichmentFailure() {
	if c.metrics != nil {
		c.metrics.EnrichmentFailures.Inc()
	}
}
