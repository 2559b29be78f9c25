package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FailureReasonEmptyCart         = "empty_cart"
	FailureReasonInsufficientStock = "insufficient_stock"
	FailureReasonNotFound          = "not_found"
	FailureReasonPersistenceError  = "persist_error"
	FailureReasonStockError        = "stock_error"
)

// CheckedOutEvent is emitted once a cart has been bought in full.
type CheckedOutEvent struct {
	CheckoutID string
	CartID     string
	Lines      []Line
	Total      decimal.Decimal
	OccurredAt time.Time
}

func (CheckedOutEvent) EventName() string { return "cart.checked_out" }

func NewCheckedOutEvent(checkoutID, cartID string, lines []Line) CheckedOutEvent {
	return CheckedOutEvent{
		CheckoutID: checkoutID,
		CartID:     cartID,
		Lines:      lines,
		Total:      Total(lines),
		OccurredAt: time.Now().UTC(),
	}
}

// CheckoutFailedEvent is emitted when a checkout stops before clearing the cart.
// Stock deducted before the failure is not restored.
type CheckoutFailedEvent struct {
	CheckoutID string
	CartID     string
	Reason     string
	OccurredAt time.Time
}

func (CheckoutFailedEvent) EventName() string { return "cart.checkout_failed" }

func NewCheckoutFailedEvent(checkoutID, cartID, reason string) CheckoutFailedEvent {
	return CheckoutFailedEvent{
		CheckoutID: checkoutID,
		CartID:     cartID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}
