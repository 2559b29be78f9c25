package order

import (
	"errors"
	"slices"
	"time"

	"github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("order: not found")
	ErrConflict  = errors.New("order: already recorded")
	ErrInvalidID = errors.New("order: id is required")
	ErrNoLines   = errors.New("order: at least one line is required")
)

type Status string

const (
	StatusCompleted Status = "completed"
)

// Order is the receipt of a completed checkout. Its ID is the checkout ID.
type Order struct {
	ID        string
	CartID    string
	Lines     []cart.Line
	Total     decimal.Decimal
	Status    Status
	CreatedAt time.Time
}

func New(id, cartID string, lines []cart.Line, total decimal.Decimal) (*Order, error) {
	if id == "" || cartID == "" {
		return nil, ErrInvalidID
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	return &Order{
		ID:        id,
		CartID:    cartID,
		Lines:     slices.Clone(lines),
		Total:     total,
		Status:    StatusCompleted,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Units sums the quantities over all lines.
func (o *Order) Units() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = slices.Clone(o.Lines)
	return &clone
}
