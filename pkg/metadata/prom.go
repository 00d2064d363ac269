package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
)

// defaultLookback bounds metadata queries to recent series, which keeps the
// answers relevant and the queries cheap on large servers.
const defaultLookback = time.Hour

// PromProvider answers metadata lookups from a remote Prometheus through its
// v1 HTTP API.
type PromProvider struct {
	api      v1.API
	lookback time.Duration
	log      logr.Logger
}

// NewPromProvider builds a provider for the Prometheus at the given base URL.
func NewPromProvider(endpoint string, log logr.Logger) (*PromProvider, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("remote metadata source requires a URL")
	}
	client, err := api.NewClient(api.Config{Address: endpoint})
	if err != nil {
		return nil, fmt.Errorf("building Prometheus client for %s: %w", endpoint, err)
	}
	return &PromProvider{
		api:      v1.NewAPI(client),
		lookback: defaultLookback,
		log:      log,
	}, nil
}

func (p *PromProvider) window() (time.Time, time.Time) {
	end := time.Now()
	return end.Add(-p.lookback), end
}

// LabelNames lists label names, scoped to series of the given metric when one
// is set.
func (p *PromProvider) LabelNames(ctx context.Context, metric string) ([]string, error) {
	var matches []string
	if metric != "" {
		matches = []string{metric}
	}
	start, end := p.window()
	names, warnings, err := p.api.LabelNames(ctx, matches, start, end)
	if err != nil {
		return nil, fmt.Errorf("label names lookup: %w", err)
	}
	if len(warnings) > 0 {
		p.log.V(1).Info("label names lookup returned warnings", "warnings", warnings)
	}
	return names, nil
}

// LabelValues lists the values of a label, scoped to series of the given
// metric when one is set. Metric names themselves are label values of
// __name__.
func (p *PromProvider) LabelValues(ctx context.Context, label, metric string) ([]string, error) {
	var matches []string
	if metric != "" {
		matches = []string{metric}
	}
	start, end := p.window()
	values, warnings, err := p.api.LabelValues(ctx, label, matches, start, end)
	if err != nil {
		return nil, fmt.Errorf("label values lookup for %q: %w", label, err)
	}
	if len(warnings) > 0 {
		p.log.V(1).Info("label values lookup returned warnings", "label", label, "warnings", warnings)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out, nil
}
