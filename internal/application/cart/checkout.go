package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-cart/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	domoutbox "github.com/Zhima-Mochi/minishop-cart/internal/domain/outbox"
	domproduct "github.com/Zhima-Mochi/minishop-cart/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability/logctx"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	useCaseCheckout    = "cart.checkout"
	spanPrefix         = "UC."
	publishPeer        = "outbox"
	endpointCheckedOut = "cart.checked_out"
	endpointFailed     = "cart.checkout_failed"
	publishTimeout     = 300 * time.Millisecond
)

type CheckoutInput struct {
	CartID string
}

type CheckoutResult struct {
	CheckoutID    string
	CartID        string
	Lines         []domcart.Line
	Total         decimal.Decimal
	Units         int
	FailureReason string
}

// CheckoutUseCase buys a stored cart against the stock ledger.
//
// A failed checkout does not roll back: products deducted before the failing
// entry stay deducted and the stored cart keeps all of its entries.
//
// Checkouts of the same cart are serialized, so a second concurrent call sees
// the emptied cart. Service mutations are not covered by that lock.
type CheckoutUseCase struct {
	carts       domcart.Repository
	stock       domcart.Stock
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	locks       cartLocks

	log    observability.Logger
	tracer observability.Tracer

	reqCounter   observability.Counter        // usecase_requests_total{use_case,outcome}
	durHistogram observability.BoundHistogram // usecase_duration_seconds{use_case="cart.checkout"}
	extCounter   observability.Counter        // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram      // external_request_duration_seconds{peer,endpoint}
	unitsSold    observability.BoundCounter   // stock_units_sold_total
}

var _ application.UseCase[CheckoutInput, *CheckoutResult] = (*CheckoutUseCase)(nil)

func NewCheckoutUseCase(
	carts domcart.Repository,
	stock domcart.Stock,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *CheckoutUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()

	return &CheckoutUseCase{
		carts:        carts,
		stock:        stock,
		idGenerator:  idGen,
		publisher:    publisher,
		log:          tel.Logger().With(observability.F("service", cartService)),
		tracer:       tel.Tracer(),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration).Bind(observability.L("use_case", useCaseCheckout)),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
		unitsSold:    metrics.Counter(observability.MStockUnitsSold).Bind(),
	}
}

// Execute runs the checkout and publishes its outcome as an event.
func (uc *CheckoutUseCase) Execute(ctx context.Context, cmd CheckoutInput) (_ *CheckoutResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseCheckout),
		observability.F("cart_id", cmd.CartID),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"Checkout",
		attribute.String("use_case", useCaseCheckout),
		attribute.String("cart.id", cmd.CartID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var publishErr error
	result := &CheckoutResult{CartID: cmd.CartID}

	defer func() {
		lat := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseCheckout),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("checkout_id", result.CheckoutID),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if result.FailureReason != "" {
			fields = append(fields, observability.F("failure_reason", result.FailureReason))
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	if cmd.CartID == "" {
		outcome, statusText = "error", "CART_ID_REQUIRED"
		return nil, newValidation("cart id is required")
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	unlock := uc.locks.lock(cmd.CartID)
	defer unlock()

	c, err := uc.carts.Get(ctx, cmd.CartID)
	if err != nil {
		outcome, statusText = "error", "CART_LOAD_FAILED"
		return nil, fmt.Errorf("cart: load: %w", err)
	}

	result.CheckoutID = uc.idGenerator.NewID()
	result.Lines = c.Lines()
	result.Total = c.TotalPrice()
	for _, l := range result.Lines {
		result.Units += l.Quantity
	}
	span.SetAttributes(
		attribute.String("checkout.id", result.CheckoutID),
		attribute.Int("cart.lines", len(result.Lines)),
		attribute.String("cart.total", result.Total.String()),
	)

	if err = c.Buy(ctx, uc.stock); err != nil {
		outcome, statusText = "error", "BUY_FAILED"
		result.FailureReason = failureReasonFromError(err)
		publishErr = uc.publish(ctx, endpointFailed,
			domcart.NewCheckoutFailedEvent(result.CheckoutID, c.ID, result.FailureReason))
		return result, err
	}

	if err = uc.carts.Save(ctx, c); err != nil {
		outcome, statusText = "error", "REPO_SAVE_FAILED"
		result.FailureReason = domcart.FailureReasonPersistenceError
		publishErr = uc.publish(ctx, endpointFailed,
			domcart.NewCheckoutFailedEvent(result.CheckoutID, c.ID, result.FailureReason))
		return result, fmt.Errorf("cart: save: %w", err)
	}
	uc.unitsSold.Add(float64(result.Units))

	span.AddEvent("cart.checked_out",
		trace.WithAttributes(attribute.String("checkout.id", result.CheckoutID)),
	)

	publishErr = uc.publish(ctx, endpointCheckedOut,
		domcart.NewCheckedOutEvent(result.CheckoutID, c.ID, result.Lines))
	if publishErr != nil {
		statusText = "EVENT_PUBLISH_FAILED"
	}

	return result, nil
}

func (uc *CheckoutUseCase) publish(ctx context.Context, endpoint string, event domoutbox.Event) error {
	if uc.publisher == nil || event == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	start := time.Now()
	err := uc.publisher.Publish(pubCtx, event)
	outcome := "success"
	if err != nil {
		outcome = "error"
	} else if pubCtx.Err() != nil {
		outcome = "canceled"
		err = pubCtx.Err()
	}
	cancel()

	uc.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
	)

	return err
}

func failureReasonFromError(err error) string {
	switch {
	case errors.Is(err, domcart.ErrEmptyCart):
		return domcart.FailureReasonEmptyCart
	case errors.Is(err, domproduct.ErrInsufficientStock):
		return domcart.FailureReasonInsufficientStock
	case errors.Is(err, domproduct.ErrNotFound):
		return domcart.FailureReasonNotFound
	default:
		return domcart.FailureReasonStockError
	}
}

type cartLocks struct {
	mu    sync.Mutex
	locks map[string]*cartLock
}

type cartLock struct {
	sync.Mutex
	refs int
}

// lock blocks until the caller holds the lock for cartID. Entries are removed
// once no caller holds or waits on them.
func (l *cartLocks) lock(cartID string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*cartLock)
	}
	cl, ok := l.locks[cartID]
	if !ok {
		cl = &cartLock{}
		l.locks[cartID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.Lock()
	return func() {
		cl.Unlock()
		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.locks, cartID)
		}
		l.mu.Unlock()
	}
}
