package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ cart.Stock = (*ProductRepository)(nil)
var _ product.Repository = (*ProductRepository)(nil)

func seed(t *testing.T, r *ProductRepository, id string, quantity int) *product.Product {
	t.Helper()
	p, err := product.New(id, id, decimal.NewFromInt(10), "", quantity)
	require.NoError(t, err)
	require.NoError(t, r.Save(context.Background(), p))
	return p
}

func TestProductRepositoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	r := NewProductRepository()
	seed(t, r, "book", 5)

	got, err := r.Get(ctx, "book")
	require.NoError(t, err)
	require.NoError(t, got.Buy(5))

	again, err := r.Get(ctx, "book")
	require.NoError(t, err)
	assert.Equal(t, 5, again.Quantity())

	_, err = r.Get(ctx, "missing")
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestProductRepositoryDeduct(t *testing.T) {
	ctx := context.Background()
	r := NewProductRepository()
	seed(t, r, "book", 5)

	require.NoError(t, r.Deduct(ctx, "book", 3))
	require.ErrorIs(t, r.Deduct(ctx, "book", 3), product.ErrInsufficientStock)
	require.ErrorIs(t, r.Deduct(ctx, "ghost", 1), product.ErrNotFound)

	got, err := r.Get(ctx, "book")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity())
}

func TestProductRepositoryDeductHonoursContext(t *testing.T) {
	r := NewProductRepository()
	seed(t, r, "book", 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, r.Deduct(ctx, "book", 1), context.Canceled)
}

func TestProductRepositoryConcurrentDeductNeverOversells(t *testing.T) {
	ctx := context.Background()
	r := NewProductRepository()
	seed(t, r, "book", 100)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int
	)
	for range 150 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Deduct(ctx, "book", 1) == nil {
				mu.Lock()
				sold++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, err := r.Get(ctx, "book")
	require.NoError(t, err)
	assert.Equal(t, 100, sold)
	assert.Equal(t, 0, got.Quantity())
}

func TestProductRepositoryListSortedByID(t *testing.T) {
	r := NewProductRepository()
	for _, id := range []string{"c", "a", "b"} {
		seed(t, r, id, 1)
	}

	list, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, "c", list[2].ID)
}

func TestProductRepositorySaveRequiresID(t *testing.T) {
	r := NewProductRepository()
	require.Error(t, r.Save(context.Background(), nil))
	require.Error(t, r.Save(context.Background(), &product.Product{}))
}
