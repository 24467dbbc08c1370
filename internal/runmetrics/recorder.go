package runmetrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	netmetrics "github.com/smallbiznis/telcostore/internal/netmetrics/domain"
)

// Recorder collects the gauges of one run into a private registry.
type Recorder struct {
	registry *prometheus.Registry
	metrics  *metrics
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	return &Recorder{registry: registry, metrics: newMetrics(registry)}
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordRun marks runID as the run the registry describes.
func (r *Recorder) RecordRun(runID string) {
	if r == nil {
		return
	}
	r.metrics.runInfo.Reset()
	r.metrics.runInfo.WithLabelValues(normalizeLabel(runID)).Set(1)
}

func (r *Recorder) RecordRows(counts map[string]int) {
	if r == nil {
		return
	}
	for table, n := range counts {
		r.metrics.rowsGenerated.WithLabelValues(normalizeLabel(table)).Set(float64(n))
	}
}

func (r *Recorder) RecordStage(stage string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.metrics.stageDuration.WithLabelValues(normalizeLabel(stage)).Set(elapsed.Seconds())
}

func (r *Recorder) RecordSummary(s netmetrics.Summary) {
	if r == nil {
		return
	}
	r.metrics.netRevenue.Set(s.TotalNetRevenue.InexactFloat64())
	setNullable(r.metrics.averageOrder, r.metrics.metricDefined.WithLabelValues("average_order_value"), s.AverageOrderValue)
	setNullable(r.metrics.attachRate, r.metrics.metricDefined.WithLabelValues("attach_rate"), s.AttachRate)
}

func (r *Recorder) RecordOutcome(err error, finishedAt time.Time) {
	if r == nil {
		return
	}
	if err != nil {
		r.metrics.runSucceeded.Set(0)
	} else {
		r.metrics.runSucceeded.Set(1)
	}
	r.metrics.lastRunUnixTime.Set(float64(finishedAt.Unix()))
}

func setNullable(value, defined prometheus.Gauge, v decimal.NullDecimal) {
	if !v.Valid {
		value.Set(0)
		defined.Set(0)
		return
	}
	value.Set(v.Decimal.InexactFloat64())
	defined.Set(1)
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
