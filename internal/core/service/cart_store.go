package service

import (
	"fmt"
	"math"
	"sync"

	"github.com/storefront-labs/storefront-client/internal/core/domain"
	"github.com/storefront-labs/storefront-client/internal/core/ports"
)

// CartStore owns the cart line items and their quantity invariants. Quantity
// bounds are enforced at every mutation point, never only at read time: no
// line ever holds quantity < 0 or > MaxQuantity. Lines keep insertion order,
// one per product. A zero-quantity line may remain physically present but is
// never counted, charged, or projected into a checkout payload.
type CartStore struct {
	mu    sync.Mutex
	lines []domain.CartLine
}

func NewCartStore() *CartStore {
	return &CartStore{}
}

// AddItem inserts the line, or overwrites the existing line for the same
// product. Quantity is taken from the new line as-is (last write wins),
// clamped into [0, MaxQuantity].
func (c *CartStore) AddItem(line domain.CartLine) {
	line = line.Clamped()

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ProductID == line.ProductID {
			c.lines[i] = line
			return
		}
	}
	c.lines = append(c.lines, line)
}

// IncrementItem raises the line's quantity by one. At MaxQuantity it is a
// no-op and returns false so the caller can surface a "max reached" notice.
func (c *CartStore) IncrementItem(productID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ProductID != productID {
			continue
		}
		if c.lines[i].Quantity >= c.lines[i].MaxQuantity {
			return false
		}
		c.lines[i].Quantity++
		return true
	}
	return false
}

// DecrementItem lowers the line's quantity by one. The floor is 1, not 0:
// removal is explicit via RemoveItem. Returns false on a no-op.
func (c *CartStore) DecrementItem(productID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ProductID != productID {
			continue
		}
		if c.lines[i].Quantity <= 1 {
			return false
		}
		c.lines[i].Quantity--
		return true
	}
	return false
}

// RemoveItem deletes the line unconditionally. Unknown ids are a no-op.
func (c *CartStore) RemoveItem(productID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// TotalPrice returns the sum of unit price times quantity over all lines,
// formatted to two decimal places. Recomputed fresh on every call.
func (c *CartStore) TotalPrice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%.2f", c.total())
}

// ItemCount returns the summed quantity across all lines, for badge display.
func (c *CartStore) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Lines returns a copy of the current lines in insertion order.
func (c *CartStore) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Reset clears all lines. Called after a confirmed checkout.
func (c *CartStore) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// BuildCheckoutPayload projects the cart into the gateway's order placement
// body. The store is not mutated; zero-quantity lines are excluded.
func (c *CartStore) BuildCheckoutPayload(description string) ports.CheckoutPayload {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]ports.CheckoutItem, 0, len(c.lines))
	for _, l := range c.lines {
		if l.Quantity <= 0 {
			continue
		}
		items = append(items, ports.CheckoutItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return ports.CheckoutPayload{
		Description: description,
		Status:      string(domain.StatusPending),
		TotalPrice:  math.Round(c.total()*100) / 100,
		Items:       items,
	}
}

// total must be called with the mutex held.
func (c *CartStore) total() float64 {
	t := 0.0
	for _, l := range c.lines {
		if l.Quantity <= 0 {
			continue
		}
		t += l.Subtotal()
	}
	return t
}
