package cart

import (
	"context"
	"fmt"
	"sync"
	"testing"

	domoutbox "github.com/Zhima-Mochi/minishop-cart/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability/zaplogger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Events() []domoutbox.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domoutbox.Event(nil), p.events...)
}

type fixture struct {
	products  *memory.ProductRepository
	carts     *memory.CartRepository
	ids       *seqIDs
	publisher *recordingPublisher
	registry  *prometheus.Registry
	logs      *observer.ObservedLogs

	service  *Service
	checkout *CheckoutUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	registry := prometheus.NewRegistry()
	counters, histograms := telemetry.Instruments(prometrics.New(registry, "test", ""))
	tel := telemetry.New(oteltrace.New("test"), zaplogger.New(zap.New(core)), counters, histograms)

	f := &fixture{
		products:  memory.NewProductRepository(),
		carts:     memory.NewCartRepository(),
		ids:       &seqIDs{},
		publisher: &recordingPublisher{},
		registry:  registry,
		logs:      logs,
	}
	f.service = NewService(f.carts, f.products, f.ids, tel)
	f.checkout = NewCheckoutUseCase(f.carts, f.products, f.ids, f.publisher, tel)
	return f
}

func (f *fixture) seed(t *testing.T, id string, price int64, quantity int) {
	t.Helper()
	p, err := product.New(id, id, decimal.NewFromInt(price), "", quantity)
	require.NoError(t, err)
	require.NoError(t, f.products.Save(context.Background(), p))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity()
}

func zapString(key, value string) zapcore.Field {
	return zap.String(key, value)
}
