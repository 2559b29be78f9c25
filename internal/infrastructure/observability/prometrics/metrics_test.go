package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "shop", "cart")

	c := r.Counter("requests_total", "Requests.", "outcome")
	again := r.Counter("requests_total", "Requests.", "outcome")

	c.Add(2, observability.L("outcome", "success"))
	again.Bind(observability.L("outcome", "error")).Add(1)
	again.Add(1, observability.L("outcome", "success"))

	count, err := testutil.GatherAndCount(reg, "shop_cart_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	cv := r.(*registry).counters["requests_total"]
	assert.Equal(t, 3.0, testutil.ToFloat64(cv.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cv.WithLabelValues("error")))
}

func TestHistogramObserves(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "shop", "")

	h := r.Histogram("duration_seconds", "Duration.", []float64{0.1, 1}, "use_case")
	h.Observe(0.05, observability.L("use_case", "cart.checkout"))
	h.Bind(observability.L("use_case", "cart.open")).Observe(0.5)

	count, err := testutil.GatherAndCount(reg, "shop_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNilBoundInstrumentsAreSafe(t *testing.T) {
	var c *boundCounter
	var h *boundHistogram
	assert.NotPanics(t, func() {
		c.Add(1)
		h.Observe(1)
	})
}
