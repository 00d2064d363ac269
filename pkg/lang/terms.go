// Package lang carries the static PromQL term tables and snippet templates
// used by completion. Everything here is fixed at init time; nothing is
// re-derived per request.
package lang

import (
	"sort"
	"strings"

	"github.com/prometheus/prometheus/promql/parser"
)

// Term is one literal completion term with its display detail.
type Term struct {
	Label  string
	Detail string
}

// MatchOps are the label-matcher operators.
var MatchOps = []Term{
	{Label: "=", Detail: "equality matcher"},
	{Label: "!=", Detail: "inequality matcher"},
	{Label: "=~", Detail: "regex matcher"},
	{Label: "!~", Detail: "negative regex matcher"},
}

// BinOps are the binary operators, arithmetic and comparison first, set
// operators last.
var BinOps = []Term{
	{Label: "+", Detail: "addition"},
	{Label: "-", Detail: "subtraction"},
	{Label: "*", Detail: "multiplication"},
	{Label: "/", Detail: "division"},
	{Label: "%", Detail: "modulo"},
	{Label: "^", Detail: "power"},
	{Label: "==", Detail: "equality comparison"},
	{Label: "!=", Detail: "inequality comparison"},
	{Label: ">", Detail: "greater than"},
	{Label: "<", Detail: "less than"},
	{Label: ">=", Detail: "greater or equal"},
	{Label: "<=", Detail: "less or equal"},
	{Label: "atan2", Detail: "arc tangent of two arguments"},
	{Label: "and", Detail: "vector intersection"},
	{Label: "or", Detail: "vector union"},
	{Label: "unless", Detail: "vector complement"},
}

// BinOpModifiers are the vector-matching keywords allowed around a binary
// operator.
var BinOpModifiers = []Term{
	{Label: "on(", Detail: "match on listed labels only"},
	{Label: "ignoring(", Detail: "ignore listed labels when matching"},
	{Label: "group_left(", Detail: "many-to-one matching, left side higher cardinality"},
	{Label: "group_right(", Detail: "one-to-many matching, right side higher cardinality"},
	{Label: "bool", Detail: "return 0/1 instead of filtering"},
}

// AggregateOps are the aggregation operators.
var AggregateOps = []Term{
	{Label: "sum", Detail: "calculate sum"},
	{Label: "min", Detail: "select minimum"},
	{Label: "max", Detail: "select maximum"},
	{Label: "avg", Detail: "calculate average"},
	{Label: "group", Detail: "group series"},
	{Label: "stddev", Detail: "calculate standard deviation"},
	{Label: "stdvar", Detail: "calculate standard variance"},
	{Label: "count", Detail: "count series"},
	{Label: "count_values", Detail: "count by value"},
	{Label: "bottomk", Detail: "smallest k elements"},
	{Label: "topk", Detail: "largest k elements"},
	{Label: "quantile", Detail: "calculate quantile"},
}

// AggregateOpModifiers are the grouping keywords of an aggregation.
var AggregateOpModifiers = []Term{
	{Label: "by(", Detail: "keep listed labels"},
	{Label: "without(", Detail: "drop listed labels"},
}

// IsAggregateOp reports whether name is an aggregation operator.
func IsAggregateOp(name string) bool {
	for _, t := range AggregateOps {
		if t.Label == name {
			return true
		}
	}
	return false
}

// IsFunction reports whether name is a known PromQL function.
func IsFunction(name string) bool {
	_, ok := parser.Functions[name]
	return ok
}

// functionTerms is built once from the upstream parser's function registry,
// so the table tracks whatever the linked Prometheus release supports.
var functionTerms = buildFunctionTerms()

// Functions returns the function term table sorted by name. Callers must not
// mutate the returned slice.
func Functions() []Term {
	return functionTerms
}

func buildFunctionTerms() []Term {
	names := make([]string, 0, len(parser.Functions))
	for name := range parser.Functions {
		names = append(names, name)
	}
	sort.Strings(names)

	terms := make([]Term, 0, len(names))
	for _, name := range names {
		fn := parser.Functions[name]
		terms = append(terms, Term{
			Label:  name + "(",
			Detail: functionSignature(fn),
		})
	}
	return terms
}

func functionSignature(fn *parser.Function) string {
	args := make([]string, len(fn.ArgTypes))
	for i, vt := range fn.ArgTypes {
		args[i] = string(vt)
	}
	sig := fn.Name + "(" + strings.Join(args, ", ")
	if fn.Variadic != 0 {
		sig += "..."
	}
	return sig + ") " + string(fn.ReturnType)
}
