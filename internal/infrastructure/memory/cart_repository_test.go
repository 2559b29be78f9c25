package memory

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ cart.Repository = (*CartRepository)(nil)

func TestCartRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := NewCartRepository()

	p, err := product.New("book", "book", decimal.NewFromInt(100), "", 10)
	require.NoError(t, err)
	c := cart.New("c1")
	require.NoError(t, c.AddProduct(p, 2))
	require.NoError(t, r.Save(ctx, c))

	// Mutating the caller's copy does not leak into the store.
	require.NoError(t, c.Add(p))

	got, err := r.Get(ctx, "c1")
	require.NoError(t, err)
	n, ok := got.Quantity("book")
	require.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestCartRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	r := NewCartRepository()

	_, err := r.Get(ctx, "nope")
	require.ErrorIs(t, err, cart.ErrCartNotFound)
	require.ErrorIs(t, r.Delete(ctx, "nope"), cart.ErrCartNotFound)
	require.Error(t, r.Save(ctx, cart.New("")))
}

func TestCartRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	r := NewCartRepository()
	require.NoError(t, r.Save(ctx, cart.New("c1")))

	require.NoError(t, r.Delete(ctx, "c1"))
	_, err := r.Get(ctx, "c1")
	require.ErrorIs(t, err, cart.ErrCartNotFound)
}
