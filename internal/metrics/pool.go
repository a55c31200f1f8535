package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats es un snapshot del pool de conexiones de un backend.
type PoolStats struct {
	Acquired int32
	Idle     int32
	Total    int32
	Max      int32
}

// PoolStatsFunc devuelve el snapshot actual; false si el pool no está abierto.
type PoolStatsFunc func() (PoolStats, bool)

// RegisterPool publica el estado del pool de name como gauges que se leen al
// momento del scrape.
func (p *Prometheus) RegisterPool(name string, stats PoolStatsFunc) error {
	gauge := func(metric, help string, pick func(PoolStats) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   p.namespace,
			Subsystem:   "pool",
			Name:        metric,
			Help:        help,
			ConstLabels: prometheus.Labels{"pool": name},
		}, func() float64 {
			s, ok := stats()
			if !ok {
				return 0
			}
			return float64(pick(s))
		})
	}

	collectors := []prometheus.Collector{
		gauge("acquired_conns", "Conexiones en uso", func(s PoolStats) int32 { return s.Acquired }),
		gauge("idle_conns", "Conexiones ociosas", func(s PoolStats) int32 { return s.Idle }),
		gauge("total_conns", "Conexiones abiertas", func(s PoolStats) int32 { return s.Total }),
		gauge("max_conns", "Tope de conexiones", func(s PoolStats) int32 { return s.Max }),
	}
	for _, c := range collectors {
		if err := p.registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}
