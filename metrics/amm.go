package metrics

import (
	"errors"
	"sync"

	"github.com/krazyTry/nft-amm-go/amm/shared"
	"github.com/prometheus/client_golang/prometheus"
)

type AMMMetrics struct {
	operations    *prometheus.CounterVec
	failures      *prometheus.CounterVec
	feesCollected *prometheus.CounterVec
	volume        *prometheus.CounterVec
	poolsAttached prometheus.Gauge
}

var (
	ammOnce     sync.Once
	ammRegistry *AMMMetrics
)

// AMM returns the process wide AMM collectors, registering them on first use.
func AMM() *AMMMetrics {
	ammOnce.Do(func() {
		ammRegistry = &AMMMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nftamm_operations_total",
				Help: "Count of committed engine operations by name.",
			}, []string{"op"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nftamm_operation_failures_total",
				Help: "Count of aborted engine operations by name and error.",
			}, []string{"op", "error"}),
			feesCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nftamm_fees_lamports_total",
				Help: "Lamports paid out as fees by kind.",
			}, []string{"kind"}),
			volume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nftamm_trade_volume_lamports_total",
				Help: "Curve price volume traded by taker side.",
			}, []string{"side"}),
			poolsAttached: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "nftamm_pools_attached",
				Help: "Pools attached to a shared escrow since process start, net of detaches.",
			}),
		}
		prometheus.MustRegister(
			ammRegistry.operations,
			ammRegistry.failures,
			ammRegistry.feesCollected,
			ammRegistry.volume,
			ammRegistry.poolsAttached,
		)
	})
	return ammRegistry
}

func (m *AMMMetrics) ObserveOperation(op string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op).Inc()
}

func (m *AMMMetrics) ObserveFailure(op string, err error) {
	if m == nil {
		return
	}
	name := "unknown"
	var e *shared.Error
	if errors.As(err, &e) {
		name = e.Name
	}
	m.failures.WithLabelValues(op, name).Inc()
}

func (m *AMMMetrics) ObserveFee(kind string, lamports uint64) {
	if m == nil || lamports == 0 {
		return
	}
	m.feesCollected.WithLabelValues(kind).Add(float64(lamports))
}

func (m *AMMMetrics) ObserveTrade(side shared.TakerSide, price uint64) {
	if m == nil {
		return
	}
	m.volume.WithLabelValues(side.String()).Add(float64(price))
}

func (m *AMMMetrics) PoolAttached() {
	if m == nil {
		return
	}
	m.poolsAttached.Inc()
}

func (m *AMMMetrics) PoolDetached() {
	if m == nil {
		return
	}
	m.poolsAttached.Dec()
}
