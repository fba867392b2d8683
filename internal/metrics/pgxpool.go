package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPgxPoolMetrics exposes pgx connection pool statistics as Prometheus
// gauges. The pool name becomes a const label so the core and zone pools can
// both register under the same metric names.
func RegisterPgxPoolMetrics(name string, pool *pgxpool.Pool) {
	labels := prometheus.Labels{"pool": name}
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "pgxpool_acquired_conns",
			Help:        "Number of currently acquired connections in the pool",
			ConstLabels: labels,
		}, func() float64 {
			return float64(pool.Stat().AcquiredConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "pgxpool_max_conns",
			Help:        "Maximum number of connections in the pool",
			ConstLabels: labels,
		}, func() float64 {
			return float64(pool.Stat().MaxConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "pgxpool_total_conns",
			Help:        "Total number of connections in the pool",
			ConstLabels: labels,
		}, func() float64 {
			return float64(pool.Stat().TotalConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "pgxpool_idle_conns",
			Help:        "Number of idle connections in the pool",
			ConstLabels: labels,
		}, func() float64 {
			return float64(pool.Stat().IdleConns())
		}),
	)
}
