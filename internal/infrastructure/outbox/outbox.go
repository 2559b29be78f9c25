package outbox

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-cart/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability/logctx"
)

const (
	componentOutbox    = "outbox"
	defaultBuffer      = 1024
	defaultConcurrency = 8
	handlerTimeout     = 30 * time.Second
)

var ErrBusStopped = errors.New("outbox: bus stopped")

// Bus is an in-memory, non-durable event bus. Events are dispatched in
// publish order by one goroutine; handlers of a single event run concurrently.
type Bus struct {
	mu          sync.RWMutex
	subs        map[string][]domoutbox.Handler
	sendMu      sync.RWMutex // guards queue close against in-flight sends
	queue       chan domoutbox.Event
	stopped     bool
	startOnce   sync.Once
	stopOnce    sync.Once
	done        chan struct{}
	cancel      context.CancelFunc
	concurrency int
	log         observability.Logger
}

// Options sizes the bus. Zero values fall back to the defaults.
type Options struct {
	Buffer      int
	Concurrency int
}

func NewBus(logger observability.Logger, opts Options) *Bus {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Bus{
		subs:        make(map[string][]domoutbox.Handler),
		queue:       make(chan domoutbox.Event, opts.Buffer),
		done:        make(chan struct{}),
		concurrency: opts.Concurrency,
		log:         logger.With(observability.F("component", componentOutbox)),
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
		b.cancel = cancel
		go b.dispatchLoop(bg)
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop refuses new events and waits until the queued ones are dispatched or
// ctx is done, whichever comes first. In the latter case running handlers see
// their context canceled.
func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		b.sendMu.Lock()
		b.stopped = true
		close(b.queue)
		b.sendMu.Unlock()

		logger := logctx.FromOr(ctx, b.log)
		started := b.cancel != nil
		if started {
			select {
			case <-b.done:
			case <-ctx.Done():
				logger.Warn("event_bus_drain_aborted", observability.F("error", ctx.Err()))
			}
			b.cancel()
		}
		logger.Info("event_bus_stopped")
	})
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	logger := logctx.FromOr(ctx, b.log).With(observability.F("event", e.EventName()))

	b.sendMu.RLock()
	defer b.sendMu.RUnlock()
	if b.stopped {
		logger.Warn("event_enqueue_rejected", observability.F("error", ErrBusStopped))
		return ErrBusStopped
	}

	select {
	case b.queue <- e:
		logger.Debug("event_enqueued")
		return nil
	case <-ctx.Done():
		logger.Warn("event_enqueue_aborted",
			observability.F("error", ctx.Err()),
		)
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-b.queue:
			if !ok {
				return
			}
			b.fanout(ctx, e)
		}
	}
}

func (b *Bus) fanout(ctx context.Context, e domoutbox.Event) {
	name := e.EventName()
	logger := b.log.With(observability.F("event", name))

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		logger.Debug("event_dropped_no_subscriber")
		return
	}

	// Handlers inherit the bus context, so an aborted Stop cancels them.
	ctx = logctx.With(ctx, logger)

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event_handler_panic",
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()

			hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
			defer cancel()
			if err := h(hctx, e); err != nil {
				logger.Warn("event_handler_error",
					observability.F("error", err),
				)
			}
		}()
	}

	wg.Wait()

	logger.Debug("event_fanned_out",
		observability.F("handlers", len(handlers)),
	)
}
