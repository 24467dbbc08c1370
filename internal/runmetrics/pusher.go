package runmetrics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/prometheus/prompb"
	"github.com/smallbiznis/telcostore/internal/config"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
)

const (
	exporterPrometheusRemoteWrite = "prometheus_remote_write"
	exporterPrometheusPushgateway = "prometheus_pushgateway"
	defaultPushTimeout            = 5 * time.Second
)

// Batch is the final state of one run: its gauges plus the labels that tell
// runs apart once they reach the backend.
type Batch struct {
	Registry *prometheus.Registry
	Job      string
	RunID    string
}

// Pusher ships a run's gauges once, at the end of the run. Batch runs never
// expose a /metrics endpoint.
type Pusher interface {
	Push(ctx context.Context, batch Batch) error
}

// NewPusher builds a pusher from config. A missing or invalid exporter is
// logged and yields nil so metrics never block a run.
func NewPusher(cfg config.Config, logger *zap.Logger) Pusher {
	if logger == nil {
		logger = zap.NewNop()
	}

	exporter := strings.ToLower(strings.TrimSpace(cfg.Metrics.Exporter))
	endpoint := strings.TrimSpace(cfg.Metrics.Endpoint)
	if exporter == "" {
		return nil
	}
	if endpoint == "" {
		logger.Warn("run metrics disabled", zap.Error(errors.New("METRICS_ENDPOINT is required")))
		return nil
	}

	switch exporter {
	case exporterPrometheusRemoteWrite:
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			logger.Warn("run metrics disabled", zap.Error(fmt.Errorf("invalid METRICS_ENDPOINT: %w", err)))
			return nil
		}
		return NewRemoteWritePusher(endpoint, cfg.Metrics.AuthToken, cfg.AppName, cfg.Environment)
	case exporterPrometheusPushgateway:
		return NewPushgatewayPusher(endpoint, cfg.AppName, cfg.Environment)
	default:
		logger.Warn("run metrics disabled", zap.String("exporter", exporter))
		return nil
	}
}

// RemoteWritePusher sends a run to a Prometheus remote_write endpoint. Every
// series carries app, environment, pipeline and run_id so runs stay distinct
// in the backend.
type RemoteWritePusher struct {
	endpoint    string
	authToken   string
	app         string
	environment string
	httpClient  *http.Client
	now         func() time.Time
}

func NewRemoteWritePusher(endpoint, authToken, app, environment string) *RemoteWritePusher {
	return &RemoteWritePusher{
		endpoint:    endpoint,
		authToken:   strings.TrimSpace(authToken),
		app:         strings.TrimSpace(app),
		environment: strings.TrimSpace(environment),
		httpClient:  &http.Client{Timeout: defaultPushTimeout},
		now:         time.Now,
	}
}

func (p *RemoteWritePusher) Push(ctx context.Context, batch Batch) error {
	if p == nil || batch.Registry == nil {
		return nil
	}

	families, err := batch.Registry.Gather()
	if err != nil {
		return fmt.Errorf("gather run metrics: %w", err)
	}
	series := runSeries(families, p.runLabels(batch), p.now().UnixMilli())
	if len(series) == 0 {
		return nil
	}

	body, err := encodeWriteRequest(series)
	if err != nil {
		return err
	}
	return p.post(ctx, body)
}

func (p *RemoteWritePusher) runLabels(batch Batch) []prompb.Label {
	candidates := []prompb.Label{
		{Name: "app", Value: p.app},
		{Name: "environment", Value: p.environment},
		{Name: "pipeline", Value: strings.TrimSpace(batch.Job)},
		{Name: "run_id", Value: strings.TrimSpace(batch.RunID)},
	}
	labels := candidates[:0]
	for _, l := range candidates {
		if l.Value != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

func encodeWriteRequest(series []prompb.TimeSeries) ([]byte, error) {
	payload, err := proto.Marshal(protoadapt.MessageV2Of(&prompb.WriteRequest{Timeseries: series}))
	if err != nil {
		return nil, fmt.Errorf("encode write request: %w", err)
	}
	return snappy.Encode(nil, payload), nil
}

func (p *RemoteWritePusher) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-protobuf")
	req.Header.Set("Content-Encoding", "snappy")
	req.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	if p.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.authToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("remote write returned %s", resp.Status)
	}
	return nil
}

// PushgatewayPusher keeps the latest run per pipeline job and environment on
// a Pushgateway. The run id travels as a run_info label since a per-run group
// would never be replaced.
type PushgatewayPusher struct {
	endpoint    string
	app         string
	environment string
}

func NewPushgatewayPusher(endpoint, app, environment string) *PushgatewayPusher {
	return &PushgatewayPusher{
		endpoint:    strings.TrimSpace(endpoint),
		app:         strings.TrimSpace(app),
		environment: strings.TrimSpace(environment),
	}
}

func (p *PushgatewayPusher) Push(ctx context.Context, batch Batch) error {
	if p == nil || batch.Registry == nil {
		return nil
	}
	if p.endpoint == "" {
		return errors.New("pushgateway endpoint is required")
	}
	if p.app == "" {
		return errors.New("pushgateway job is required")
	}

	pusher := push.New(p.endpoint, p.app).Gatherer(batch.Registry)
	if job := strings.TrimSpace(batch.Job); job != "" {
		pusher = pusher.Grouping("pipeline", job)
	}
	if p.environment != "" {
		pusher = pusher.Grouping("environment", p.environment)
	}

	// Push replaces every series of the group, so gauges of a previous run
	// that this run did not set disappear.
	return pusher.PushContext(ctx)
}

// runSeries flattens gathered gauges into remote_write series, stamping every
// sample with the run labels and one timestamp. A metric's own label wins
// over a run label of the same name.
func runSeries(families []*dto.MetricFamily, run []prompb.Label, timestampMs int64) []prompb.TimeSeries {
	series := make([]prompb.TimeSeries, 0, len(families))
	for _, family := range families {
		if family.GetType() != dto.MetricType_GAUGE {
			continue
		}
		for _, metric := range family.GetMetric() {
			if metric.GetGauge() == nil {
				continue
			}
			own := make(map[string]struct{}, len(metric.GetLabel()))
			labels := make([]prompb.Label, 0, len(metric.GetLabel())+len(run)+1)
			labels = append(labels, prompb.Label{Name: "__name__", Value: family.GetName()})
			for _, label := range metric.GetLabel() {
				own[label.GetName()] = struct{}{}
				labels = append(labels, prompb.Label{Name: label.GetName(), Value: label.GetValue()})
			}
			for _, label := range run {
				if _, ok := own[label.Name]; !ok {
					labels = append(labels, label)
				}
			}
			sort.Slice(labels, func(i, j int) bool {
				return labels[i].Name < labels[j].Name
			})

			series = append(series, prompb.TimeSeries{
				Labels: labels,
				Samples: []prompb.Sample{{
					Value:     metric.GetGauge().GetValue(),
					Timestamp: timestampMs,
				}},
			})
		}
	}
	return series
}
