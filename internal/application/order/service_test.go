package order

import (
	"context"
	"testing"

	domcart "github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkedOut(checkoutID string, quantity int) domcart.CheckedOutEvent {
	lines := []domcart.Line{{
		ProductID: "book",
		Name:      "book",
		UnitPrice: decimal.NewFromInt(100),
		Quantity:  quantity,
	}}
	return domcart.NewCheckedOutEvent(checkoutID, "cart-1", lines)
}

func TestServiceRecord(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewOrderRepository(), nil)

	o, replay, err := svc.Record(ctx, checkedOut("co-1", 10))
	require.NoError(t, err)
	assert.False(t, replay)
	assert.Equal(t, "co-1", o.ID)
	assert.Equal(t, 10, o.Units())
	assert.True(t, decimal.NewFromInt(1000).Equal(o.Total))

	again, replay, err := svc.Record(ctx, checkedOut("co-1", 10))
	require.NoError(t, err)
	assert.True(t, replay)
	assert.Equal(t, o.CreatedAt, again.CreatedAt)

	orders, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestServiceRecordRejectsInvalidEvent(t *testing.T) {
	svc := NewService(memory.NewOrderRepository(), nil)

	_, _, err := svc.Record(context.Background(), domcart.NewCheckedOutEvent("co-1", "cart-1", nil))
	require.Error(t, err)
	_, _, err = svc.Record(context.Background(), checkedOut("", 1))
	require.Error(t, err)
}

func TestServiceGet(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewOrderRepository(), nil)

	_, err := svc.Get(ctx, "")
	require.Error(t, err)
	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, _, err = svc.Record(ctx, checkedOut("co-1", 1))
	require.NoError(t, err)
	o, err := svc.Get(ctx, "co-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", o.CartID)
}
