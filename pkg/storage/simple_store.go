package simple_storage

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
)

// SimpleStorage holds metric samples in memory, keyed by metric name. It
// backs the local metadata provider: completion only needs the label shape of
// the data, so samples keep their labels, value and timestamp and nothing
// else.
type SimpleStorage struct {
	Metrics     map[string][]MetricSample
	MetricsHelp map[string]string // metric name -> help text
}

// MetricSample represents a single metric sample.
type MetricSample struct {
	Labels    map[string]string
	Value     float64
	Timestamp int64
}

// NewSimpleStorage creates a new empty store.
func NewSimpleStorage() *SimpleStorage {
	return &SimpleStorage{
		Metrics:     make(map[string][]MetricSample),
		MetricsHelp: make(map[string]string),
	}
}

// SampleMetrics provides a small Prometheus exposition set with a counter and a gauge.
const SampleMetrics = `
# HELP http_requests_total Total number of HTTP requests
# TYPE http_requests_total counter
http_requests_total{method="get",code="200"} 1027
http_requests_total{method="get",code="404"} 3
http_requests_total{method="post",code="200"} 52
# HELP up Whether the target is up
# TYPE up gauge
up{job="prometheus",instance="localhost:9090"} 1
up{job="node",instance="localhost:9100"} 1
# HELP temperature Temperature in Celsius
# TYPE temperature gauge
temperature{room="server"} 27.3
`

// sanitizeDirectives removes duplicate "# HELP <name> ..." and "# TYPE <name> ..."
// lines, keeping only the last occurrence for each metric name. The Prometheus
// parser errors on duplicate directives within a file; sample lines are untouched.
func sanitizeDirectives(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	include := make([]bool, len(lines))
	for i := range include {
		include[i] = true
	}
	seenHelp := make(map[string]bool)
	seenType := make(map[string]bool)
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		var seen map[string]bool
		var prefix string
		switch {
		case strings.HasPrefix(line, "# HELP "):
			seen, prefix = seenHelp, "# HELP "
		case strings.HasPrefix(line, "# TYPE "):
			seen, prefix = seenType, "# TYPE "
		default:
			continue
		}
		fields := strings.Fields(strings.TrimSpace(line[len(prefix):]))
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if seen[name] {
			include[i] = false
		} else {
			seen[name] = true
		}
	}
	var b strings.Builder
	for i, inc := range include {
		if !inc {
			continue
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(lines[i])
	}
	return []byte(b.String())
}

// LoadFromReader loads Prometheus text exposition format data using the
// official Prometheus parser. Parsing is best-effort: when some families
// parsed despite an error, they are kept.
func (s *SimpleStorage) LoadFromReader(reader io.Reader) error {
	data, rerr := io.ReadAll(reader)
	if rerr != nil {
		return fmt.Errorf("failed to read metrics: %w", rerr)
	}
	data = sanitizeDirectives(data)

	parser := expfmt.NewTextParser(model.UTF8Validation)
	metricFamilies, err := parser.TextToMetricFamilies(strings.NewReader(string(data)))
	if err != nil && len(metricFamilies) == 0 {
		return fmt.Errorf("failed to parse metrics with Prometheus parser: %w", err)
	}

	return s.processMetricFamilies(metricFamilies)
}

// processMetricFamilies flattens parsed metric families into per-name sample
// lists. Histogram and summary families expand into their _bucket/_sum/_count
// series so label completion sees the names users actually query.
func (s *SimpleStorage) processMetricFamilies(metricFamilies map[string]*dto.MetricFamily) error {
	baseTimestamp := time.Now().UnixMilli()

	for _, mf := range metricFamilies {
		metricName := mf.GetName()

		if mf.Help != nil && *mf.Help != "" {
			helpText := strings.TrimSpace(strings.ReplaceAll(*mf.Help, "\n", " "))
			s.MetricsHelp[metricName] = helpText
		}

		for _, metric := range mf.GetMetric() {
			lbls := make(map[string]string)
			lbls[model.MetricNameLabel] = metricName
			for _, labelPair := range metric.GetLabel() {
				lbls[labelPair.GetName()] = labelPair.GetValue()
			}

			timestamp := baseTimestamp
			if metric.GetTimestampMs() != 0 {
				timestamp = metric.GetTimestampMs()
			}

			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				s.add(metricName, lbls, metric.GetCounter().GetValue(), timestamp)
			case dto.MetricType_GAUGE:
				s.add(metricName, lbls, metric.GetGauge().GetValue(), timestamp)
			case dto.MetricType_UNTYPED:
				s.add(metricName, lbls, metric.GetUntyped().GetValue(), timestamp)
			case dto.MetricType_HISTOGRAM:
				h := metric.GetHistogram()
				if h == nil {
					continue
				}
				for _, bucket := range h.GetBucket() {
					bucketLabels := cloneLabels(lbls)
					bucketLabels[model.MetricNameLabel] = metricName + "_bucket"
					bucketLabels["le"] = fmt.Sprintf("%g", bucket.GetUpperBound())
					s.add(metricName+"_bucket", bucketLabels, float64(bucket.GetCumulativeCount()), timestamp)
				}
				if h.SampleSum != nil {
					s.add(metricName+"_sum", suffixed(lbls, metricName+"_sum"), h.GetSampleSum(), timestamp)
				}
				if h.SampleCount != nil {
					s.add(metricName+"_count", suffixed(lbls, metricName+"_count"), float64(h.GetSampleCount()), timestamp)
				}
			case dto.MetricType_SUMMARY:
				sm := metric.GetSummary()
				if sm == nil {
					continue
				}
				for _, q := range sm.GetQuantile() {
					qLabels := cloneLabels(lbls)
					qLabels["quantile"] = fmt.Sprintf("%g", q.GetQuantile())
					s.add(metricName, qLabels, q.GetValue(), timestamp)
				}
				if sm.SampleSum != nil {
					s.add(metricName+"_sum", suffixed(lbls, metricName+"_sum"), sm.GetSampleSum(), timestamp)
				}
				if sm.SampleCount != nil {
					s.add(metricName+"_count", suffixed(lbls, metricName+"_count"), float64(sm.GetSampleCount()), timestamp)
				}
			default:
				// Unknown types ignored.
			}
		}
	}

	return nil
}

func (s *SimpleStorage) add(name string, lbls map[string]string, value float64, ts int64) {
	s.Metrics[name] = append(s.Metrics[name], MetricSample{Labels: lbls, Value: value, Timestamp: ts})
}

func cloneLabels(lbls map[string]string) map[string]string {
	out := make(map[string]string, len(lbls)+1)
	for k, v := range lbls {
		out[k] = v
	}
	return out
}

func suffixed(lbls map[string]string, name string) map[string]string {
	out := cloneLabels(lbls)
	out[model.MetricNameLabel] = name
	return out
}

// AddSample appends a single sample to the store.
func (s *SimpleStorage) AddSample(labels map[string]string, value float64, timestampMillis int64) {
	if s.Metrics == nil {
		s.Metrics = make(map[string][]MetricSample)
	}
	name := labels[model.MetricNameLabel]
	if name == "" {
		name = "sample"
	}
	lbls := cloneLabels(labels)
	lbls[model.MetricNameLabel] = name
	s.add(name, lbls, value, timestampMillis)
}

// MetricNames returns the sorted metric names present in the store.
func (s *SimpleStorage) MetricNames() []string {
	names := make([]string, 0, len(s.Metrics))
	for name := range s.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LabelNames returns the sorted label names seen on the given metric, or on
// all metrics when metric is empty. __name__ is excluded.
func (s *SimpleStorage) LabelNames(metric string) []string {
	seen := make(map[string]bool)
	for name, samples := range s.Metrics {
		if metric != "" && name != metric {
			continue
		}
		for _, sample := range samples {
			for labelName := range sample.Labels {
				if labelName != model.MetricNameLabel {
					seen[labelName] = true
				}
			}
		}
	}
	return sortedKeys(seen)
}

// LabelValues returns the sorted values of a label across the given metric,
// or across all metrics when metric is empty. Asking for __name__ yields the
// metric names.
func (s *SimpleStorage) LabelValues(label, metric string) []string {
	if label == model.MetricNameLabel && metric == "" {
		return s.MetricNames()
	}
	seen := make(map[string]bool)
	for name, samples := range s.Metrics {
		if metric != "" && name != metric {
			continue
		}
		for _, sample := range samples {
			if value, ok := sample.Labels[label]; ok {
				seen[value] = true
			}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
