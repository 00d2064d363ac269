package lang

import (
	"sort"
	"strings"
	"testing"
)

func hasLabel(terms []Term, label string) bool {
	for _, t := range terms {
		if t.Label == label {
			return true
		}
	}
	return false
}

func TestMatchOps(t *testing.T) {
	want := []string{"=", "!=", "=~", "!~"}
	if len(MatchOps) != len(want) {
		t.Fatalf("MatchOps has %d entries, want %d", len(MatchOps), len(want))
	}
	for i, label := range want {
		if MatchOps[i].Label != label {
			t.Errorf("MatchOps[%d] = %q, want %q", i, MatchOps[i].Label, label)
		}
	}
}

func TestBinOpsIncludeSetAndKeywordOperators(t *testing.T) {
	for _, label := range []string{"+", "==", "atan2", "and", "or", "unless"} {
		if !hasLabel(BinOps, label) {
			t.Errorf("BinOps missing %q", label)
		}
	}
}

func TestBinOpModifiersCarryOpeningParen(t *testing.T) {
	for _, tm := range BinOpModifiers {
		if tm.Label == "bool" {
			continue
		}
		if !strings.HasSuffix(tm.Label, "(") {
			t.Errorf("modifier %q should end with an opening paren", tm.Label)
		}
	}
}

func TestIsAggregateOp(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"sum", true},
		{"topk", true},
		{"count_values", true},
		{"rate", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAggregateOp(tt.name); got != tt.want {
			t.Errorf("IsAggregateOp(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFunctionsTable(t *testing.T) {
	fns := Functions()
	if len(fns) == 0 {
		t.Fatal("Functions() is empty")
	}
	if !sort.SliceIsSorted(fns, func(i, j int) bool { return fns[i].Label < fns[j].Label }) {
		t.Error("Functions() must be sorted by label")
	}
	if !hasLabel(fns, "rate(") {
		t.Error("Functions() missing rate(")
	}
	if !hasLabel(fns, "histogram_quantile(") {
		t.Error("Functions() missing histogram_quantile(")
	}
	for _, fn := range fns {
		if !strings.HasSuffix(fn.Label, "(") {
			t.Errorf("function label %q should end with an opening paren", fn.Label)
		}
		if fn.Detail == "" {
			t.Errorf("function %q has no signature detail", fn.Label)
		}
	}
}

func TestIsFunction(t *testing.T) {
	if !IsFunction("rate") {
		t.Error("rate should be a known function")
	}
	if IsFunction("sum") {
		t.Error("sum is an aggregator, not a function")
	}
	if IsFunction("nope") {
		t.Error("unknown name should not be a function")
	}
}

func TestSnippetExpand(t *testing.T) {
	s := Snippet{Label: "t", Template: "sum(rate(${metric}[5m])) by(${label})"}

	got := s.Expand(map[string]string{"metric": "http_requests_total", "label": "job"})
	want := "sum(rate(http_requests_total[5m])) by(job)"
	if got != want {
		t.Errorf("Expand() = %q, want %q", got, want)
	}

	// Missing names keep the placeholder name as plain text.
	got = s.Expand(nil)
	want = "sum(rate(metric[5m])) by(label)"
	if got != want {
		t.Errorf("Expand(nil) = %q, want %q", got, want)
	}
}

func TestSnippetsExpandClean(t *testing.T) {
	for _, s := range Snippets {
		out := s.Expand(nil)
		if strings.Contains(out, "${") {
			t.Errorf("snippet %q leaves raw placeholder syntax: %q", s.Label, out)
		}
	}
}
