package memory

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ order.Repository = (*OrderRepository)(nil)

func newOrder(t *testing.T, id string) *order.Order {
	t.Helper()
	lines := []cart.Line{{ProductID: "book", Name: "book", UnitPrice: decimal.NewFromInt(100), Quantity: 2}}
	o, err := order.New(id, "c1", lines, cart.Total(lines))
	require.NoError(t, err)
	return o
}

func TestOrderRepositoryInsertAndGet(t *testing.T) {
	ctx := context.Background()
	r := NewOrderRepository()
	require.NoError(t, r.Insert(ctx, newOrder(t, "o1")))

	got, err := r.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, got.Status)
	assert.True(t, decimal.NewFromInt(200).Equal(got.Total))

	got.Lines[0].Quantity = 99
	again, err := r.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Lines[0].Quantity)
}

func TestOrderRepositoryConflict(t *testing.T) {
	ctx := context.Background()
	r := NewOrderRepository()
	require.NoError(t, r.Insert(ctx, newOrder(t, "o1")))
	require.ErrorIs(t, r.Insert(ctx, newOrder(t, "o1")), order.ErrConflict)

	_, err := r.Get(ctx, "o2")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestOrderRepositoryList(t *testing.T) {
	ctx := context.Background()
	r := NewOrderRepository()
	require.NoError(t, r.Insert(ctx, newOrder(t, "o1")))
	require.NoError(t, r.Insert(ctx, newOrder(t, "o2")))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "o1", list[0].ID)
	assert.Equal(t, "o2", list[1].ID)
}
