package order

import (
	"context"
	"fmt"
	"time"

	domcart "github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	domoutbox "github.com/Zhima-Mochi/minishop-cart/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	workerpresentation "github.com/Zhima-Mochi/minishop-cart/internal/presentation/worker"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	workerService     = "order-worker"
	spanPrefix        = "Worker."
	useCaseCheckedOut = "order.worker.checked_out"
)

// Worker turns cart.checked_out events into recorded orders.
type Worker struct {
	service    *Service
	subscriber domoutbox.Subscriber
	tel        observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter        // usecase_requests_total{use_case,outcome}
	durHistogram observability.BoundHistogram // usecase_duration_seconds{use_case="order.worker.checked_out"}
}

func NewWorker(service *Service, subscriber domoutbox.Subscriber, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &Worker{
		service:      service,
		subscriber:   subscriber,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", workerService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration).Bind(observability.L("use_case", useCaseCheckedOut)),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.service == nil {
		return
	}
	w.subscriber.Subscribe(domcart.CheckedOutEvent{}.EventName(), w.handleCheckedOut)
}

func (w *Worker) handleCheckedOut(ctx context.Context, e domoutbox.Event) error {
	const useCase = useCaseCheckedOut
	evt, ok := e.(domcart.CheckedOutEvent)
	if !ok {
		w.count(useCase, "ignored")
		return nil
	}

	ctx, span := w.tel.Tracer().Start(ctx, spanPrefix+"CheckedOut",
		attribute.String("use_case", useCase),
		attribute.String("event", e.EventName()),
		attribute.String("checkout.id", evt.CheckoutID),
	)
	sc := trace.SpanContextFromContext(ctx)
	ctx = workerpresentation.WithEventContext(ctx, w.log, w.tel, sc.TraceID(), sc.SpanID(), map[string]string{
		"event_id": evt.CheckoutID,
		"event":    e.EventName(),
		"use_case": useCase,
	})

	start := time.Now()
	outcome, status := "success", "OK"

	defer func() {
		w.observe(useCase, outcome, time.Since(start).Seconds())
		if outcome == "error" {
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, status)
		}
		span.End()
	}()

	_, replay, err := w.service.Record(ctx, evt)
	if err != nil {
		outcome, status = "error", "ORDER_RECORD_FAILED"
		span.RecordError(err)
		return fmt.Errorf("worker: record order: %w", err)
	}
	if replay {
		status = "IDEMPOTENT_REPLAY"
	}
	return nil
}

func (w *Worker) count(useCase, outcome string) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
}

func (w *Worker) observe(useCase string, outcome string, latencySeconds float64) {
	w.count(useCase, outcome)
	w.durHistogram.Observe(latencySeconds)
}
