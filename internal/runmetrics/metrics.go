package runmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "telcostore"

type metrics struct {
	rowsGenerated   *prometheus.GaugeVec
	netRevenue      prometheus.Gauge
	averageOrder    prometheus.Gauge
	attachRate      prometheus.Gauge
	metricDefined   *prometheus.GaugeVec
	stageDuration   *prometheus.GaugeVec
	runSucceeded    prometheus.Gauge
	lastRunUnixTime prometheus.Gauge
	runInfo         *prometheus.GaugeVec
}

func newMetrics(registry *prometheus.Registry) *metrics {
	m := &metrics{
		rowsGenerated: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_generated",
			Help:      "Rows produced per table in the last run.",
		}, []string{"table"}),
		netRevenue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "net_revenue_total",
			Help:      "Net revenue after excluding returned items.",
		}),
		averageOrder: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "average_order_value",
			Help:      "Average net order value; 0 when undefined, see metric_defined.",
		}),
		attachRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "attach_rate",
			Help:      "Net add-on units per net device; 0 when undefined, see metric_defined.",
		}),
		metricDefined: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "metric_defined",
			Help:      "1 when the named metric has a value, 0 when undefined.",
		}, []string{"metric"}),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage in the last run.",
		}, []string{"stage"}),
		runSucceeded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success",
			Help:      "1 when the last run completed, 0 when it failed.",
		}),
		lastRunUnixTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last run finished.",
		}),
		runInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_info",
			Help:      "Always 1; run_id identifies the last run.",
		}, []string{"run_id"}),
	}

	registry.MustRegister(
		m.rowsGenerated,
		m.netRevenue,
		m.averageOrder,
		m.attachRate,
		m.metricDefined,
		m.stageDuration,
		m.runSucceeded,
		m.lastRunUnixTime,
		m.runInfo,
	)
	return m
}
