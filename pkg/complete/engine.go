package complete

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/prometheus/common/model"

	"github.com/jjo/promql-complete/pkg/metadata"
	"github.com/jjo/promql-complete/pkg/tree"
)

// metricNameLabel is the reserved label whose values are the metric names.
const metricNameLabel = model.MetricNameLabel

// DefaultLimit caps the assembled candidate list. Sized above the combined
// static term tables of any single branch, so truncation only ever cuts into
// long metadata result sets.
const DefaultLimit = 250

// Config configures an Engine. Zero values get sensible defaults: offline
// metadata, the fuzzy DefaultFilter, a discarding logger and DefaultLimit.
type Config struct {
	// Provider answers label-name/label-value lookups. Nil means offline.
	Provider metadata.Provider
	// Langserver, when set, answers whole completion requests and bypasses
	// tree classification entirely.
	Langserver *metadata.LangserverClient
	Filter     FilterFunc
	Logger     logr.Logger
	Limit      int
}

// Engine is the completion entry point. It holds no per-request state:
// invocations are independent and safe to run concurrently, consuming only
// the immutable tree snapshot and the static term tables. A stale result is
// the host's to discard; the engine has no cancellation beyond ctx.
type Engine struct {
	provider   metadata.Provider
	langserver *metadata.LangserverClient
	filter     FilterFunc
	log        logr.Logger
	limit      int
}

// NewEngine builds an engine from cfg.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		provider:   cfg.Provider,
		langserver: cfg.Langserver,
		filter:     cfg.Filter,
		log:        cfg.Logger,
		limit:      cfg.Limit,
	}
	if e.provider == nil {
		e.provider = metadata.Offline{}
	}
	if e.filter == nil {
		e.filter = DefaultFilter
	}
	if e.log.GetSink() == nil {
		e.log = logr.Discard()
	}
	if e.limit <= 0 {
		e.limit = DefaultLimit
	}
	return e
}

// SetProvider swaps the metadata source. Not safe to call concurrently with
// Complete; meant for interactive hosts between requests, e.g. after loading
// a metrics file.
func (e *Engine) SetProvider(p metadata.Provider) {
	if p == nil {
		p = metadata.Offline{}
	}
	e.provider = p
}

// FromSelector builds an engine for a host-chosen metadata selector,
// falling back to offline for anything unrecognized. Switching sources means
// building a fresh engine; in-flight requests against the old one are the
// host's to discard.
func FromSelector(sel metadata.Selector, log logr.Logger) *Engine {
	cfg := Config{Logger: log}
	if sel.Source == metadata.SourceLangserver && sel.URL != "" {
		cfg.Langserver = metadata.NewLangserverClient(sel.URL, DefaultLimit, log)
	} else {
		cfg.Provider = metadata.NewProvider(sel, log)
	}
	return NewEngine(cfg)
}

// Complete classifies the cursor context and returns the completion request
// for it, or nil when no grammar situation applies. root is the syntax tree
// of doc as produced by the host's parser; when a language server is
// configured it is ignored and may be nil.
//
// Failures never escape: a metadata error degrades the result to the static
// candidates of the branch, and the worst outcome is an empty request.
func (e *Engine) Complete(ctx context.Context, doc string, pos int, root *tree.Node) *Request {
	if pos < 0 {
		pos = 0
	}
	if pos > len(doc) {
		pos = len(doc)
	}

	if e.langserver != nil {
		return e.completeViaLangserver(ctx, doc, pos)
	}

	if root == nil {
		return nil
	}
	node := tree.Resolve(root, pos)
	if node == nil {
		return nil
	}

	res, ok := classify(&cursor{doc: doc, pos: pos, node: node})
	if !ok {
		return nil
	}

	candidates := res.static
	if res.snippets {
		candidates = append(candidates, snippetCandidates()...)
	}

	if res.fetch != fetchNone {
		fetched := e.fetchMetadata(ctx, res)
		if res.prepend {
			candidates = append(fetched, candidates...)
		} else {
			candidates = append(candidates, fetched...)
		}
	}

	from, to := clampSpan(res.from, res.to, pos, len(doc))
	query := doc[from:pos]
	return &Request{
		From:       from,
		To:         to,
		Query:      query,
		Candidates: assemble(candidates, query, e.filter, e.limit),
	}
}

// fetchMetadata performs the branch's metadata lookup, mapping failures to an
// empty contribution.
func (e *Engine) fetchMetadata(ctx context.Context, res resolution) []Candidate {
	var (
		names []string
		err   error
	)
	switch res.fetch {
	case fetchLabelNames:
		names, err = e.provider.LabelNames(ctx, res.metric)
	case fetchLabelValues:
		names, err = e.provider.LabelValues(ctx, res.label, res.metric)
	default:
		return nil
	}
	if err != nil {
		e.log.V(1).Info("metadata lookup failed, degrading to static candidates",
			"label", res.label, "metric", res.metric, "err", err.Error())
		return nil
	}
	out := make([]Candidate, 0, len(names))
	for _, name := range names {
		out = append(out, Candidate{Label: name, Kind: KindConstant})
	}
	return out
}

// completeViaLangserver hands the whole request to the language server. Its
// batch-wide text-edit start, when present, overrides the locally computed
// replacement start.
func (e *Engine) completeViaLangserver(ctx context.Context, doc string, pos int) *Request {
	from := wordStart(doc, pos)
	res, err := e.langserver.Complete(ctx, doc, pos)
	if err != nil {
		e.log.V(1).Info("language server completion failed", "err", err.Error())
		return &Request{From: from, To: pos, Query: doc[from:pos]}
	}
	if res.From >= 0 && res.From <= pos {
		from = res.From
	}
	candidates := make([]Candidate, 0, len(res.Items))
	for _, label := range res.Items {
		candidates = append(candidates, Candidate{Label: label, Kind: KindText})
	}
	query := doc[from:pos]
	return &Request{
		From:       from,
		To:         pos,
		Query:      query,
		Candidates: assemble(candidates, query, e.filter, e.limit),
	}
}

// wordStart scans back over identifier characters to the start of the token
// under the cursor.
func wordStart(doc string, pos int) int {
	start := pos
	for start > 0 {
		ch := doc[start-1]
		if ch == '_' || ch == ':' ||
			(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			start--
			continue
		}
		break
	}
	return start
}

// clampSpan enforces from <= pos <= to within the document bounds.
func clampSpan(from, to, pos, docLen int) (int, int) {
	if from < 0 {
		from = 0
	}
	if from > pos {
		from = pos
	}
	if to < pos {
		to = pos
	}
	if to > docLen {
		to = docLen
	}
	return from, to
}
