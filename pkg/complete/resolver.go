package complete

import (
	"github.com/jjo/promql-complete/pkg/lang"
	"github.com/jjo/promql-complete/pkg/tree"
)

// binExprAncestorDepth bounds the ascent when checking whether a vector
// selector is an operand of a binary expression. Covers the direct operand
// case plus one wrapping level (parens, function body).
const binExprAncestorDepth = 4

// fetchOp says which metadata operation a branch needs, if any.
type fetchOp uint8

const (
	fetchNone fetchOp = iota
	fetchLabelNames
	fetchLabelValues
)

// resolution is the outcome of classifying the cursor context: the
// replacement span, the static term sets that apply, whether snippets are
// offered, and the metadata fetch to perform.
type resolution struct {
	from, to int
	static   []Candidate
	snippets bool

	fetch   fetchOp
	label   string // label to list values of, fetchLabelValues only
	metric  string // scoping metric, empty = unscoped
	prepend bool   // metadata candidates go before the static ones
}

// cursor bundles the per-invocation inputs every predicate sees.
type cursor struct {
	doc  string
	pos  int
	node *tree.Node
}

// rule is one (predicate, handler) pair of the ordered classification.
type rule struct {
	name    string
	match   func(c *cursor) bool
	resolve func(c *cursor) resolution
}

// rules is the ordered classification. Predicates overlap structurally;
// evaluation is strictly top-to-bottom and the first match wins, which makes
// the precedence between ambiguous grammar situations explicit and testable
// per branch.
var rules = []rule{
	{
		// Identifier that is the metric name of a vector selector: the richest
		// position. Offers every way an expression can start, metric names from
		// the metadata source, and (only here) snippet templates.
		name: "metric-identifier",
		match: func(c *cursor) bool {
			return c.node.Kind == tree.KindIdentifier &&
				parentKind(c.node) == tree.KindMetricIdentifier &&
				grandparentKind(c.node) == tree.KindVectorSelector
		},
		resolve: func(c *cursor) resolution {
			static := termCandidates(lang.Functions(), KindFunction)
			static = append(static, termCandidates(lang.AggregateOps, KindKeyword)...)
			static = append(static, termCandidates(lang.BinOps, KindNone)...)
			if tree.HasAncestor(c.node, tree.KindBinaryExpr, binExprAncestorDepth) {
				static = append(static, termCandidates(lang.BinOpModifiers, KindKeyword)...)
			}
			return resolution{
				from:     c.node.Start,
				to:       c.node.End,
				static:   static,
				snippets: true,
				fetch:    fetchLabelValues,
				label:    metricNameLabel,
				prepend:  true,
			}
		},
	},
	{
		// Inside a by(...)/without(...) grouping list: unscoped label names.
		name: "grouping-labels",
		match: func(c *cursor) bool {
			return c.node.Kind == tree.KindGroupingLabels ||
				(c.node.Kind == tree.KindLabelName && parentKind(c.node) == tree.KindGroupingLabels)
		},
		resolve: func(c *cursor) resolution {
			from, to := listSpan(c)
			return resolution{from: from, to: to, fetch: fetchLabelNames}
		},
	},
	{
		// Inside a {...} matcher list: label names scoped to the enclosing
		// selector's metric.
		name: "label-matcher-list",
		match: func(c *cursor) bool {
			return c.node.Kind == tree.KindLabelMatchers ||
				(c.node.Kind == tree.KindLabelName &&
					tree.WalkBackward(c.node, tree.KindLabelMatchers) != nil)
		},
		resolve: func(c *cursor) resolution {
			from, to := listSpan(c)
			return resolution{
				from:   from,
				to:     to,
				fetch:  fetchLabelNames,
				metric: enclosingMetric(c),
			}
		},
	},
	{
		// Inside a matcher's string literal: values of that matcher's label,
		// scoped to the metric. Span skips the opening quote.
		name: "label-matcher-value",
		match: func(c *cursor) bool {
			return c.node.Kind == tree.KindStringLiteral &&
				parentKind(c.node) == tree.KindLabelMatcher
		},
		resolve: func(c *cursor) resolution {
			label := ""
			if ln := c.node.Parent.FirstChild; ln != nil && ln.Kind == tree.KindLabelName {
				label = ln.Text(c.doc)
			}
			return resolution{
				from:   c.node.Start + 1,
				to:     c.pos,
				fetch:  fetchLabelValues,
				label:  label,
				metric: enclosingMetric(c),
			}
		},
	},
	{
		// A half-typed matcher operator that did not lex as one (a lone "!"):
		// offer the match operators over the broken token.
		name: "partial-match-operator",
		match: func(c *cursor) bool {
			return c.node.Kind == tree.KindInvalid &&
				parentKind(c.node) == tree.KindLabelMatcher
		},
		resolve: func(c *cursor) resolution {
			return resolution{
				from:   c.node.Start,
				to:     c.node.End,
				static: termCandidates(lang.MatchOps, KindNone),
			}
		},
	},
	{
		// On a match operator token: offer all match operators so "=" can
		// widen to "=~".
		name: "match-operator",
		match: func(c *cursor) bool {
			return c.node.Kind == tree.KindMatchOp
		},
		resolve: func(c *cursor) resolution {
			return resolution{
				from:   c.node.Start,
				to:     c.node.End,
				static: termCandidates(lang.MatchOps, KindNone),
			}
		},
	},
	{
		// On a binary operator token: offer the binary operators.
		name: "binary-operator",
		match: func(c *cursor) bool {
			return c.node.Kind == tree.KindBinOp &&
				parentKind(c.node) == tree.KindBinaryExpr
		},
		resolve: func(c *cursor) resolution {
			return resolution{
				from:   c.node.Start,
				to:     c.node.End,
				static: termCandidates(lang.BinOps, KindNone),
			}
		},
	},
	{
		// Inside a recognized function call's name.
		name: "function-identifier",
		match: func(c *cursor) bool {
			return c.node.Kind == tree.KindIdentifier &&
				parentKind(c.node) == tree.KindFunctionIdentifier
		},
		resolve: func(c *cursor) resolution {
			return resolution{
				from:   c.node.Start,
				to:     c.node.End,
				static: termCandidates(lang.Functions(), KindFunction),
			}
		},
	},
	{
		// Inside an aggregation's operator name.
		name: "aggregate-operator",
		match: func(c *cursor) bool {
			return c.node.Kind == tree.KindIdentifier &&
				parentKind(c.node) == tree.KindAggregateOp
		},
		resolve: func(c *cursor) resolution {
			return resolution{
				from:   c.node.Start,
				to:     c.node.End,
				static: termCandidates(lang.AggregateOps, KindKeyword),
			}
		},
	},
	{
		// Catch-all for bare identifier-like tokens outside matcher contexts,
		// including the zero-length missing operand after a trailing binary
		// operator. Covers half-typed keywords like "by" or "unless".
		// Intentionally imprecise: over-triggers in ambiguous free-text spots.
		name: "bare-identifier",
		match: func(c *cursor) bool {
			if c.node.Kind != tree.KindIdentifier {
				return false
			}
			return tree.WalkBackward(c.node, tree.KindLabelMatchers) == nil &&
				tree.WalkBackward(c.node, tree.KindGroupingLabels) == nil
		},
		resolve: func(c *cursor) resolution {
			static := termCandidates(lang.AggregateOpModifiers, KindKeyword)
			static = append(static, termCandidates(lang.BinOps, KindNone)...)
			return resolution{from: c.node.Start, to: c.node.End, static: static}
		},
	},
}

// classify runs the ordered rules and returns the first matching resolution,
// or ok=false when no grammar situation applies.
func classify(c *cursor) (resolution, bool) {
	for _, r := range rules {
		if r.match(c) {
			return r.resolve(c), true
		}
	}
	return resolution{}, false
}

func parentKind(n *tree.Node) tree.Kind {
	if n == nil || n.Parent == nil {
		return tree.KindInvalid
	}
	return n.Parent.Kind
}

func grandparentKind(n *tree.Node) tree.Kind {
	if n == nil || n.Parent == nil {
		return tree.KindInvalid
	}
	return parentKind(n.Parent)
}

// listSpan computes the replacement span inside a grouping/matcher list. On
// the list node itself the span starts one character past the opening
// delimiter while the list is empty; once any entry ends before the cursor
// (after a comma, typically) the span collapses to the cursor, so accepting a
// candidate never overwrites entries already typed. On a label token it
// covers the token.
func listSpan(c *cursor) (from, to int) {
	if c.node.Kind == tree.KindGroupingLabels || c.node.Kind == tree.KindLabelMatchers {
		from = c.node.Start + 1
		for ch := c.node.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.End <= c.pos {
				from = c.pos
			}
		}
		return from, c.pos
	}
	return c.node.Start, c.node.End
}

// enclosingMetric extracts the literal metric name scoping the cursor's
// matcher context, or "" when the selector has no metric identifier.
func enclosingMetric(c *cursor) string {
	vs := tree.WalkBackward(c.node, tree.KindVectorSelector)
	if vs == nil {
		return ""
	}
	ident := tree.WalkThrough(vs, tree.KindMetricIdentifier, tree.KindIdentifier)
	if ident == nil {
		return ""
	}
	return ident.Text(c.doc)
}

func termCandidates(terms []lang.Term, kind CandidateKind) []Candidate {
	out := make([]Candidate, len(terms))
	for i, t := range terms {
		out[i] = Candidate{Label: t.Label, Detail: t.Detail, Kind: kind}
	}
	return out
}

func snippetCandidates() []Candidate {
	out := make([]Candidate, len(lang.Snippets))
	for i, s := range lang.Snippets {
		out[i] = Candidate{Label: s.Label, Insert: s.Expand(nil), Kind: KindNone}
	}
	return out
}
