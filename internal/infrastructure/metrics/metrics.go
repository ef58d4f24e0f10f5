// Package metrics exposes prometheus counters for the consumption engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"lotledger/internal/domain/production"
)

// Compile-time check that Recorder implements production.Metrics.
var _ production.Metrics = (*Recorder)(nil)

// Recorder holds the service's prometheus collectors.
type Recorder struct {
	ordersCommitted prometheus.Counter
	ordersReversed  prometheus.Counter
	stockRejections *prometheus.CounterVec
}

// NewRecorder creates and registers the collectors on the given registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		ordersCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lotledger",
			Name:      "orders_committed_total",
			Help:      "Production orders whose consumption was committed.",
		}),
		ordersReversed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lotledger",
			Name:      "orders_reversed_total",
			Help:      "Production orders deleted with consumption reversed.",
		}),
		stockRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lotledger",
			Name:      "stock_rejections_total",
			Help:      "Order operations rejected before any stock moved.",
		}, []string{"reason"}),
	}

	reg.MustRegister(r.ordersCommitted, r.ordersReversed, r.stockRejections)
	return r
}

// OrderCommitted implements production.Metrics.
func (r *Recorder) OrderCommitted() {
	r.ordersCommitted.Inc()
}

// OrderReversed implements production.Metrics.
func (r *Recorder) OrderReversed() {
	r.ordersReversed.Inc()
}

// StockRejected implements production.Metrics.
// reason is "insufficient_stock" or "busy".
func (r *Recorder) StockRejected(reason string) {
	r.stockRejections.WithLabelValues(reason).Inc()
}
