package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/Zhima-Mochi/minishop-cart/internal/domain/product"
	"github.com/shopspring/decimal"
)

var (
	ErrCartNotFound    = errors.New("cart: not found")
	ErrNotFound        = errors.New("cart: product not in cart")
	ErrNilProduct      = errors.New("cart: product is required")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
	ErrEmptyCart       = errors.New("cart: cart is empty")
	// ErrQuantityOverflow wraps ErrInvalidQuantity.
	ErrQuantityOverflow = fmt.Errorf("%w: total exceeds the maximum", ErrInvalidQuantity)
)

// Entry pairs a product reference with the quantity requested for it.
type Entry struct {
	Product  *product.Product
	Quantity int
}

// Cart holds entries keyed by product ID. Every entry quantity is positive.
type Cart struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	entries map[string]*Entry
	order   []string // product IDs in insertion order
}

func New(id string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		entries:   make(map[string]*Entry),
	}
}

// Add puts a single unit of p in the cart.
func (c *Cart) Add(p *product.Product) error {
	return c.AddProduct(p, 1)
}

// AddProduct raises the requested quantity of p by count. Stock is not
// checked here; Buy does that.
func (c *Cart) AddProduct(p *product.Product, count int) error {
	if p == nil {
		return ErrNilProduct
	}
	if count <= 0 {
		return ErrInvalidQuantity
	}
	if e, ok := c.entries[p.ID]; ok {
		if count > math.MaxInt-e.Quantity {
			return ErrQuantityOverflow
		}
		e.Product = p
		e.Quantity += count
	} else {
		c.entries[p.ID] = &Entry{Product: p, Quantity: count}
		c.order = append(c.order, p.ID)
	}
	c.touch()
	return nil
}

// RemoveProduct drops the whole entry for productID.
func (c *Cart) RemoveProduct(productID string) error {
	if _, ok := c.entries[productID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, productID)
	}
	c.drop(productID)
	return nil
}

// RemoveQuantity takes count units of productID out of the cart. The entry
// goes away once count reaches the stored quantity.
func (c *Cart) RemoveQuantity(productID string, count int) error {
	e, ok := c.entries[productID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, productID)
	}
	if count <= 0 {
		return ErrInvalidQuantity
	}
	if count >= e.Quantity {
		c.drop(productID)
		return nil
	}
	e.Quantity -= count
	c.touch()
	return nil
}

func (c *Cart) Clear() {
	clear(c.entries)
	c.order = c.order[:0]
	c.touch()
}

// TotalPrice sums price * quantity over all entries.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, id := range c.order {
		e := c.entries[id]
		total = total.Add(e.Product.Price.Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return total
}

// Buy deducts every entry from stock in insertion order and clears the cart.
//
// It stops at the first failing entry. Entries deducted before it stay
// deducted and the cart keeps all of its entries.
func (c *Cart) Buy(ctx context.Context, stock Stock) error {
	if c.IsEmpty() {
		return ErrEmptyCart
	}
	for _, id := range c.order {
		e := c.entries[id]
		if err := stock.Deduct(ctx, id, e.Quantity); err != nil {
			return fmt.Errorf("cart: buy %q: %w", id, err)
		}
	}
	c.Clear()
	return nil
}

// Quantity returns the requested quantity for productID.
func (c *Cart) Quantity(productID string) (int, bool) {
	e, ok := c.entries[productID]
	if !ok {
		return 0, false
	}
	return e.Quantity, true
}

func (c *Cart) Len() int { return len(c.order) }

func (c *Cart) IsEmpty() bool { return len(c.order) == 0 }

// Lines snapshots the entries in insertion order.
func (c *Cart) Lines() []Line {
	lines := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		lines = append(lines, newLine(c.entries[id]))
	}
	return lines
}

// Clone copies the entry table. Product references are shared.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.entries = make(map[string]*Entry, len(c.entries))
	for id, e := range c.entries {
		entry := *e
		clone.entries[id] = &entry
	}
	clone.order = slices.Clone(c.order)
	return &clone
}

func (c *Cart) drop(productID string) {
	delete(c.entries, productID)
	c.order = slices.DeleteFunc(c.order, func(id string) bool { return id == productID })
	c.touch()
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
