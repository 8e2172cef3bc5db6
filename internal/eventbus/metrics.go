package eventbus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsExporter периодически переносит Stats шины в Prometheus.
// Stats монотонны, поэтому в счётчики добавляется приращение с прошлого снимка.
type MetricsExporter struct {
	bus  EventBus
	quit chan struct{}
	done chan struct{}

	messages *prometheus.CounterVec // result: published | consumed | dropped
	inflight prometheus.Gauge

	prev Stats
}

// NewMetricsExporter создаёт экспортер и регистрирует метрики в reg
func NewMetricsExporter(bus EventBus, reg prometheus.Registerer) *MetricsExporter {
	me := &MetricsExporter{
		bus:  bus,
		quit: make(chan struct{}),
		done: make(chan struct{}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "overworld",
			Subsystem: "eventbus",
			Name:      "messages_total",
			Help:      "События шины по результату: опубликовано, доставлено, отброшено.",
		}, []string{"result"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "overworld",
			Subsystem: "eventbus",
			Name:      "inflight",
			Help:      "События в буфере шины, ещё не разложенные подписчикам.",
		}),
	}
	reg.MustRegister(me.messages, me.inflight)
	return me
}

// Start запускает периодический сбор в отдельной горутине
func (m *MetricsExporter) Start(interval time.Duration) {
	go m.loop(interval)
}

// Stop останавливает сбор и делает последний снимок
func (m *MetricsExporter) Stop() {
	close(m.quit)
	<-m.done
}

// Collect снимает текущие Stats шины
func (m *MetricsExporter) Collect() {
	s := m.bus.Metrics()
	m.add("published", s.Published, m.prev.Published)
	m.add("consumed", s.Consumed, m.prev.Consumed)
	m.add("dropped", s.Dropped, m.prev.Dropped)
	m.inflight.Set(float64(s.InFlight))
	m.prev = s
}

func (m *MetricsExporter) add(result string, now, prev uint64) {
	if now > prev {
		m.messages.WithLabelValues(result).Add(float64(now - prev))
	}
}

func (m *MetricsExporter) loop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(m.done)

	for {
		select {
		case <-ticker.C:
			m.Collect()
		case <-m.quit:
			m.Collect()
			return
		}
	}
}
