package product

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("product: not found")
	ErrInvalidID         = errors.New("product: id is required")
	ErrInvalidPrice      = errors.New("product: price must be zero or greater")
	ErrInvalidQuantity   = errors.New("product: quantity must be zero or greater")
	ErrInsufficientStock = errors.New("product: insufficient stock")
)

// Product is a purchasable item with a finite stock level.
// Stock only goes down, through Buy.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Description string
	UpdatedAt   time.Time

	quantity int
}

func New(id, name string, price decimal.Decimal, description string, quantity int) (*Product, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Product{
		ID:          id,
		Name:        name,
		Price:       price,
		Description: description,
		UpdatedAt:   time.Now().UTC(),
		quantity:    quantity,
	}, nil
}

// Quantity reports the units currently in stock.
func (p *Product) Quantity() int {
	return p.quantity
}

// CheckQuantity reports whether at least requested units are in stock.
func (p *Product) CheckQuantity(requested int) (bool, error) {
	if requested < 0 {
		return false, ErrInvalidQuantity
	}
	return p.quantity >= requested, nil
}

// Buy takes requested units out of stock. Stock is left untouched on error.
func (p *Product) Buy(requested int) error {
	ok, err := p.CheckQuantity(requested)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientStock
	}
	p.quantity -= requested
	p.touch()
	return nil
}

// IdentityKey is the name+description key. Distinct products sharing both
// collide on it, so nothing in this module keys maps by it; use ID instead.
func (p *Product) IdentityKey() string {
	return p.Name + p.Description
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
