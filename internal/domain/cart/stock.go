package cart

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-cart/internal/domain/product"
)

// Stock takes purchased units out of wherever product stock is tracked.
type Stock interface {
	Deduct(ctx context.Context, productID string, quantity int) error
}

// StockFunc adapts a plain function to Stock.
type StockFunc func(ctx context.Context, productID string, quantity int) error

func (f StockFunc) Deduct(ctx context.Context, productID string, quantity int) error {
	return f(ctx, productID, quantity)
}

// ProductStock deducts straight from the product references held by c.
func ProductStock(c *Cart) Stock {
	return StockFunc(func(_ context.Context, productID string, quantity int) error {
		e, ok := c.entries[productID]
		if !ok {
			return fmt.Errorf("%w: %s", product.ErrNotFound, productID)
		}
		return e.Product.Buy(quantity)
	})
}
