package parse

import (
	"testing"

	"github.com/jjo/promql-complete/pkg/tree"
)

// kindPath walks from the root through first-child-of-kind links and returns
// the final node, failing the test when a link is missing.
func kindPath(t *testing.T, root *tree.Node, kinds ...tree.Kind) *tree.Node {
	t.Helper()
	n := tree.WalkThrough(root, kinds...)
	if n == nil {
		t.Fatalf("tree is missing path %v", kinds)
	}
	return n
}

func checkSpan(t *testing.T, n *tree.Node, start, end int) {
	t.Helper()
	if n.Start != start || n.End != end {
		t.Errorf("%v span = [%d,%d), want [%d,%d)", n.Kind, n.Start, n.End, start, end)
	}
}

func TestParseVectorSelector(t *testing.T) {
	root := Parse("up")
	checkSpan(t, root, 0, 2)

	ident := kindPath(t, root, tree.KindVectorSelector, tree.KindMetricIdentifier, tree.KindIdentifier)
	checkSpan(t, ident, 0, 2)
	if got := ident.Text("up"); got != "up" {
		t.Errorf("identifier text = %q", got)
	}
}

func TestParseSelectorWithMatchers(t *testing.T) {
	doc := `up{job="prom"}`
	root := Parse(doc)

	vs := kindPath(t, root, tree.KindVectorSelector)
	checkSpan(t, vs, 0, 14)

	lm := kindPath(t, vs, tree.KindLabelMatchers)
	checkSpan(t, lm, 2, 14)

	m := kindPath(t, lm, tree.KindLabelMatcher)
	name := kindPath(t, m, tree.KindLabelName)
	if name.Text(doc) != "job" {
		t.Errorf("label name = %q", name.Text(doc))
	}
	op := kindPath(t, m, tree.KindMatchOp)
	if op.Text(doc) != "=" {
		t.Errorf("match op = %q", op.Text(doc))
	}
	val := kindPath(t, m, tree.KindStringLiteral)
	if val.Text(doc) != `"prom"` {
		t.Errorf("string literal = %q", val.Text(doc))
	}
}

func TestParseOpenMatcherList(t *testing.T) {
	root := Parse("up{")
	lm := kindPath(t, root, tree.KindVectorSelector, tree.KindLabelMatchers)
	// Open-ended list runs to the end of the input.
	checkSpan(t, lm, 2, 3)
}

func TestParsePartialMatchOperator(t *testing.T) {
	doc := "up{job!"
	root := Parse(doc)
	m := kindPath(t, root, tree.KindVectorSelector, tree.KindLabelMatchers, tree.KindLabelMatcher)
	bad := kindPath(t, m, tree.KindInvalid)
	if bad.Text(doc) != "!" {
		t.Errorf("invalid token text = %q", bad.Text(doc))
	}
}

func TestParseUnterminatedString(t *testing.T) {
	doc := `metric{label="`
	root := Parse(doc)
	val := kindPath(t, root,
		tree.KindVectorSelector, tree.KindLabelMatchers, tree.KindLabelMatcher, tree.KindStringLiteral)
	checkSpan(t, val, 13, 14)
}

func TestParseFunctionCall(t *testing.T) {
	doc := "rate(x[5m])"
	root := Parse(doc)

	fc := kindPath(t, root, tree.KindFunctionCall)
	checkSpan(t, fc, 0, 11)

	ident := kindPath(t, fc, tree.KindFunctionIdentifier, tree.KindIdentifier)
	if ident.Text(doc) != "rate" {
		t.Errorf("function name = %q", ident.Text(doc))
	}

	ms := kindPath(t, fc, tree.KindFunctionBody, tree.KindMatrixSelector)
	checkSpan(t, ms, 5, 10)
	dur := kindPath(t, ms, tree.KindDurationLiteral)
	if dur.Text(doc) != "5m" {
		t.Errorf("duration = %q", dur.Text(doc))
	}
}

func TestParseAggregateExpr(t *testing.T) {
	doc := "sum by(job) (x)"
	root := Parse(doc)

	ae := kindPath(t, root, tree.KindAggregateExpr)
	checkSpan(t, ae, 0, 15)

	op := kindPath(t, ae, tree.KindAggregateOp, tree.KindIdentifier)
	if op.Text(doc) != "sum" {
		t.Errorf("aggregate op = %q", op.Text(doc))
	}

	gl := kindPath(t, ae, tree.KindGroupingLabels)
	checkSpan(t, gl, 6, 11)
	label := kindPath(t, gl, tree.KindLabelName)
	if label.Text(doc) != "job" {
		t.Errorf("grouping label = %q", label.Text(doc))
	}

	body := kindPath(t, ae, tree.KindFunctionBody)
	checkSpan(t, body, 12, 15)
}

func TestParseEmptyGroupingList(t *testing.T) {
	root := Parse("sum by()")
	gl := kindPath(t, root, tree.KindAggregateExpr, tree.KindGroupingLabels)
	checkSpan(t, gl, 6, 8)
	if gl.FirstChild != nil {
		t.Errorf("empty grouping list should have no children")
	}
}

func TestParseBinaryExpr(t *testing.T) {
	doc := "a + b"
	root := Parse(doc)

	be := kindPath(t, root, tree.KindBinaryExpr)
	checkSpan(t, be, 0, 5)

	op := kindPath(t, be, tree.KindBinOp)
	if op.Text(doc) != "+" {
		t.Errorf("operator = %q", op.Text(doc))
	}

	var selectors []*tree.Node
	for c := be.FirstChild; c != nil; c = c.NextSibling {
		if c.Kind == tree.KindVectorSelector {
			selectors = append(selectors, c)
		}
	}
	if len(selectors) != 2 {
		t.Fatalf("binary expr has %d selector operands, want 2", len(selectors))
	}
}

func TestParseKeywordBinaryOperator(t *testing.T) {
	doc := "a and b"
	root := Parse(doc)
	op := kindPath(t, root, tree.KindBinaryExpr, tree.KindBinOp)
	if op.Text(doc) != "and" {
		t.Errorf("operator = %q", op.Text(doc))
	}
}

func TestParseMissingRightOperand(t *testing.T) {
	doc := "a + "
	root := Parse(doc)

	be := kindPath(t, root, tree.KindBinaryExpr)
	missing := be.LastChild
	if missing == nil || missing.Kind != tree.KindIdentifier {
		t.Fatalf("missing operand placeholder absent, got %v", missing)
	}
	checkSpan(t, missing, 4, 4)
}

func TestParseEmptyCallBody(t *testing.T) {
	root := Parse("rate(")
	ident := kindPath(t, root,
		tree.KindFunctionCall, tree.KindFunctionBody,
		tree.KindVectorSelector, tree.KindMetricIdentifier, tree.KindIdentifier)
	checkSpan(t, ident, 5, 5)
}

func TestParseTrailingIdentifierAfterExpr(t *testing.T) {
	doc := "sum(x) b"
	root := Parse(doc)

	last := root.LastChild
	if last == nil || last.Kind != tree.KindIdentifier {
		t.Fatalf("trailing token should be a bare identifier, got %v", last)
	}
	if last.Text(doc) != "b" {
		t.Errorf("trailing identifier text = %q", last.Text(doc))
	}
}

func TestParseBinModifierGrouping(t *testing.T) {
	doc := "a / on(job) b"
	root := Parse(doc)

	be := kindPath(t, root, tree.KindBinaryExpr)
	gl := kindPath(t, be, tree.KindGroupingLabels)
	label := kindPath(t, gl, tree.KindLabelName)
	if label.Text(doc) != "job" {
		t.Errorf("matching label = %q", label.Text(doc))
	}
}

func TestParseMetricOnlySelector(t *testing.T) {
	doc := `{job="x"}`
	root := Parse(doc)
	vs := kindPath(t, root, tree.KindVectorSelector)
	if tree.WalkThrough(vs, tree.KindMetricIdentifier) != nil {
		t.Errorf("selector without metric name should have no MetricIdentifier")
	}
	kindPath(t, vs, tree.KindLabelMatchers, tree.KindLabelMatcher)
}

func TestParseNeverReturnsNil(t *testing.T) {
	docs := []string{
		"", " ", "up", "up{", `up{job=`, "sum by(", "rate(", "a + ", ")", "}", "@@", `"str`,
		"foo[", "foo[5", "1 + ", "((", "x offset 5m", "sum without(a,)(x)",
	}
	for _, doc := range docs {
		root := Parse(doc)
		if root == nil {
			t.Fatalf("Parse(%q) returned nil", doc)
		}
		if root.Kind != tree.KindPromQL || root.Start != 0 || root.End != len(doc) {
			t.Errorf("Parse(%q) root = %v [%d,%d)", doc, root.Kind, root.Start, root.End)
		}
	}
}
