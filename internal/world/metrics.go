package world

import (
	"github.com/annel0/overworld/internal/pathfinding"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics Prometheus-метрики уровня. Счётчики поиска пути обновляются по
// приращению Finder.Stats, как у экспортера шины событий.
type Metrics struct {
	alive    prometheus.Gauge
	dying    prometheus.Gauge
	pending  prometheus.Gauge
	died     prometheus.Counter
	removed  prometheus.Counter
	expanded prometheus.Counter
	paths    *prometheus.CounterVec

	prev pathfinding.Stats
}

// NewMetrics создаёт метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		alive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "overworld",
			Name:      "actors_alive",
			Help:      "Количество живых актёров на текущем уровне.",
		}),
		dying: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "overworld",
			Name:      "actors_dying",
			Help:      "Количество умирающих актёров на текущем уровне.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "overworld",
			Name:      "path_requests_pending",
			Help:      "Запросы пути в очереди, включая начатый.",
		}),
		died: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "overworld",
			Name:      "actors_died_total",
			Help:      "Актёров, перешедших в умирающие.",
		}),
		removed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "overworld",
			Name:      "actors_removed_total",
			Help:      "Актёров, удалённых после завершения умирания.",
		}),
		expanded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "overworld",
			Name:      "path_nodes_expanded_total",
			Help:      "Раскрытых узлов A*.",
		}),
		paths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "overworld",
			Name:      "path_requests_total",
			Help:      "Завершённые запросы пути по результату.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.alive, m.dying, m.pending, m.died, m.removed, m.expanded, m.paths)
	return m
}

// Attach подписывает метрики на события уровня
func (m *Metrics) Attach(l *Level) {
	m.prev = l.Finder().Stats()
	l.Subscribe(func(ev Event) {
		switch ev.Type {
		case EventActorDied:
			m.died.Inc()
		case EventActorFinalized:
			m.removed.Inc()
		}
	})
}

// Observe снимает текущее состояние уровня. Вызывается после тика.
func (m *Metrics) Observe(l *Level) {
	m.alive.Set(float64(l.AliveCount()))
	m.dying.Set(float64(l.DyingCount()))

	stats := l.Finder().Stats()
	m.pending.Set(float64(stats.Pending))

	if d := stats.Expanded - m.prev.Expanded; d > 0 {
		m.expanded.Add(float64(d))
	}
	if d := stats.Found - m.prev.Found; d > 0 {
		m.paths.WithLabelValues("found").Add(float64(d))
	}
	if d := stats.NotFound - m.prev.NotFound; d > 0 {
		m.paths.WithLabelValues("not_found").Add(float64(d))
	}
	if d := stats.Cancelled - m.prev.Cancelled; d > 0 {
		m.paths.WithLabelValues("cancelled").Add(float64(d))
	}

	m.prev = stats
}
