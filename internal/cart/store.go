// Package cart holds the in-memory, per-user shopping carts. Carts are
// session state, not durable data: the commerce backend owns persistence and
// this store only mirrors what the user is currently assembling.
package cart

import (
	"sync"

	"github.com/mitienda/storefront/internal/pricing"
)

// Quantity bounds applied on explicit quantity updates.
const (
	minQuantity = 1
	maxQuantity = 100
)

// Store is a concurrency-safe map of user id -> cart lines.
type Store struct {
	mu    sync.RWMutex
	carts map[int][]pricing.CartLine
}

// NewStore returns an empty cart store.
func NewStore() *Store {
	return &Store{carts: map[int][]pricing.CartLine{}}
}

// Add upserts a line into the user's cart. A cart holds at most one line per
// product: adding an already-present product increments its quantity and
// refreshes any display fields the new line carries.
func (s *Store) Add(userID int, line pricing.CartLine) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i].Quantity += line.Quantity
			if line.Name != "" {
				lines[i].Name = line.Name
			}
			if line.ImageURL != "" {
				lines[i].ImageURL = line.ImageURL
			}
			if line.Description != "" {
				lines[i].Description = line.Description
			}
			if line.UnitPrice > 0 {
				lines[i].UnitPrice = line.UnitPrice
			}
			return
		}
	}
	s.carts[userID] = append(lines, line)
}

// UpdateQuantity sets the quantity of a line, clamped to [1, 100]. It
// reports whether the product was present.
func (s *Store) UpdateQuantity(userID, productID, quantity int) bool {
	if quantity < minQuantity {
		quantity = minQuantity
	}
	if quantity > maxQuantity {
		quantity = maxQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = quantity
			return true
		}
	}
	return false
}

// Remove deletes a line by product id and reports whether it was present.
func (s *Store) Remove(userID, productID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			s.carts[userID] = append(lines[:i], lines[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveMany deletes the given products, e.g. the purchased selection after
// a successful checkout.
func (s *Store) RemoveMany(userID int, productIDs []int) {
	for _, id := range productIDs {
		s.Remove(userID, id)
	}
}

// Clear empties the user's cart.
func (s *Store) Clear(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}

// Replace swaps the user's cart wholesale, e.g. after loading the
// server-side cart at login.
func (s *Store) Replace(userID int, lines []pricing.CartLine) {
	copied := make([]pricing.CartLine, len(lines))
	copy(copied, lines)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = copied
}

// Lines returns a copy of the user's cart lines.
func (s *Store) Lines(userID int) []pricing.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := s.carts[userID]
	copied := make([]pricing.CartLine, len(lines))
	copy(copied, lines)
	return copied
}

// Select returns the lines matching the given product ids, preserving cart
// order. An empty selection means "everything", matching the storefront's
// behavior when no checkbox is ticked.
func (s *Store) Select(userID int, productIDs []int) []pricing.CartLine {
	lines := s.Lines(userID)
	if len(productIDs) == 0 {
		return lines
	}

	wanted := make(map[int]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}

	selected := make([]pricing.CartLine, 0, len(productIDs))
	for _, line := range lines {
		if wanted[line.ProductID] {
			selected = append(selected, line)
		}
	}
	return selected
}
