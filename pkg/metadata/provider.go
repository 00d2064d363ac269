// Package metadata resolves metric names, label names and label values from a
// configurable source: nothing (offline), a remote Prometheus, the local
// in-memory store, or a PromQL language server. Providers are stateless and
// re-entrant; each carries only its endpoint configuration.
package metadata

import (
	"context"

	"github.com/go-logr/logr"
)

// Provider lists label names and label values, optionally scoped to a metric.
// Metric names are label values of the reserved __name__ label. An empty
// metric means "unscoped". Implementations must be safe for concurrent use.
type Provider interface {
	LabelNames(ctx context.Context, metric string) ([]string, error)
	LabelValues(ctx context.Context, label, metric string) ([]string, error)
}

// Offline is the no-op provider: both operations return nothing immediately
// and never touch the network.
type Offline struct{}

func (Offline) LabelNames(context.Context, string) ([]string, error) {
	return nil, nil
}

func (Offline) LabelValues(context.Context, string, string) ([]string, error) {
	return nil, nil
}

// Source selects which metadata backend a session uses.
type Source string

const (
	SourceOffline    Source = "offline"
	SourceRemote     Source = "remote"
	SourceLangserver Source = "langserver"
)

// Selector is the host-chosen metadata configuration, picked once per
// session. Switching selectors means building a new provider; results are
// never merged across variants.
type Selector struct {
	Source Source
	URL    string
}

// NewProvider builds the provider for a selector. Unrecognized sources and
// broken remote configurations fall back to Offline rather than failing:
// a misconfigured session still completes from static grammar terms.
//
// SourceLangserver also yields Offline here: the language-server variant does
// not answer per-label lookups, it answers whole completion requests (see
// LangserverClient).
func NewProvider(sel Selector, log logr.Logger) Provider {
	switch sel.Source {
	case SourceRemote:
		p, err := NewPromProvider(sel.URL, log)
		if err != nil {
			log.Error(err, "remote metadata unavailable, falling back to offline", "url", sel.URL)
			return Offline{}
		}
		return p
	case SourceOffline, SourceLangserver:
		return Offline{}
	default:
		log.V(1).Info("unknown metadata source, falling back to offline", "source", string(sel.Source))
		return Offline{}
	}
}
