package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 交易流水线的业务指标
type BusinessMetrics struct {
	TxSubmittedTotal   *prometheus.CounterVec
	TxRejectedTotal    *prometheus.CounterVec
	TxConfirmedTotal   *prometheus.CounterVec
	PollAttempts       prometheus.Histogram
	SignDuration       *prometheus.HistogramVec
	SignFailuresTotal  *prometheus.CounterVec
	ChainStepTotal     *prometheus.CounterVec
	RelayPendingSigns  prometheus.Gauge
	SessionRefreshTime prometheus.Histogram
}

// Business 全局业务指标
var Business = &BusinessMetrics{
	TxSubmittedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "icx_wallet_tx_submitted_total",
		Help: "Transactions accepted by icx_sendTransaction",
	}, []string{"kind"}),
	TxRejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "icx_wallet_tx_rejected_total",
		Help: "Transactions rejected on submission",
	}, []string{"kind"}),
	TxConfirmedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "icx_wallet_tx_confirmed_total",
		Help: "Transaction results fetched, by status",
	}, []string{"status"}),
	PollAttempts: promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "icx_wallet_poll_attempts",
		Help:    "Fetch attempts used per confirmation poll",
		Buckets: []float64{1, 2, 3, 5, 10, 20, 50, 100},
	}),
	SignDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "icx_wallet_sign_duration_seconds",
		Help:    "Time spent waiting for a signature",
		Buckets: []float64{0.01, 0.1, 1, 5, 15, 30, 60, 300},
	}, []string{"signer"}),
	SignFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "icx_wallet_sign_failures_total",
		Help: "Signing failures by signer and error code",
	}, []string{"signer", "code"}),
	ChainStepTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "icx_wallet_chain_step_total",
		Help: "Chained operation step outcomes",
	}, []string{"step", "status"}),
	RelayPendingSigns: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "icx_wallet_relay_pending",
		Help: "Relay requests waiting for a response",
	}),
	SessionRefreshTime: promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "icx_wallet_session_refresh_seconds",
		Help:    "Duration of account metrics refresh",
		Buckets: prometheus.DefBuckets,
	}),
}
