// Package metrics holds the prometheus collectors of the signal and order pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Order outcomes used as the outcome label.
const (
	OutcomeFilled             = "filled"
	OutcomeRejected           = "rejected"
	OutcomeInvalid            = "invalid"
	OutcomeGatewayUnavailable = "gateway_unavailable"
	OutcomeQuoteUnavailable   = "quote_unavailable"
	OutcomeError              = "error"
)

var (
	SignalRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "signals_normalized_rows_total", Help: "Signal rows parsed from uploaded feeds"},
	)
	SignalUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_uploads_total", Help: "Signal feed uploads by result"},
		[]string{"result"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_submitted_total", Help: "Order submissions by outcome"},
		[]string{"symbol", "direction", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(SignalRowsTotal, SignalUploadsTotal, OrdersTotal)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
