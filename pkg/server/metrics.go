package server

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/violit-dev/violit/pkg/runtime"
)

// serverMetrics holds the Prometheus metrics for the violit server.
type serverMetrics struct {
	actionsTotal    *prometheus.CounterVec
	fullRenders     prometheus.Counter
	pushesTotal     prometheus.Counter
	evalsTotal      prometheus.Counter
	dirtySize       prometheus.Histogram
	activeChannels  prometheus.Gauge
	sessionsActive  prometheus.Gauge
	broadcastsTotal prometheus.Counter
}

// globalServerMetrics is the singleton metrics instance; Prometheus
// collectors may only be registered once per process.
var (
	globalServerMetrics     *serverMetrics
	globalServerMetricsOnce sync.Once
)

func newServerMetrics(rt *runtime.Runtime) *serverMetrics {
	globalServerMetricsOnce.Do(func() {
		factory := promauto.With(prometheus.DefaultRegisterer)

		globalServerMetrics = &serverMetrics{
			actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "violit",
				Name:      "actions_total",
				Help:      "Total number of component actions dispatched",
			}, []string{"transport", "status"}),

			fullRenders: factory.NewCounter(prometheus.CounterOpts{
				Namespace: "violit",
				Name:      "full_renders_total",
				Help:      "Total number of full page renders",
			}),

			pushesTotal: factory.NewCounter(prometheus.CounterOpts{
				Namespace: "violit",
				Name:      "push_messages_total",
				Help:      "Total number of update messages pushed over the persistent channel",
			}),

			evalsTotal: factory.NewCounter(prometheus.CounterOpts{
				Namespace: "violit",
				Name:      "eval_messages_total",
				Help:      "Total number of eval snippets delivered to clients",
			}),

			dirtySize: factory.NewHistogram(prometheus.HistogramOpts{
				Namespace: "violit",
				Name:      "dirty_components",
				Help:      "Number of components rebuilt per incremental render",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
			}),

			activeChannels: factory.NewGauge(prometheus.GaugeOpts{
				Namespace: "violit",
				Name:      "active_channels",
				Help:      "Number of open persistent push channels",
			}),

			sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
				Namespace: "violit",
				Name:      "sessions_active",
				Help:      "Number of live session stores",
			}),

			broadcastsTotal: factory.NewCounter(prometheus.CounterOpts{
				Namespace: "violit",
				Name:      "broadcasts_total",
				Help:      "Total number of cross-session broadcasts",
			}),
		}
	})

	m := globalServerMetrics
	if rt != nil {
		m.sessionsActive.Set(float64(rt.Sessions().Len()))
	}
	return m
}
