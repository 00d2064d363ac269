package tree

import "testing"

// buildSelectorTree builds the tree for `up{job="x"}` by hand:
//
//	PromQL
//	  VectorSelector
//	    MetricIdentifier > Identifier   [0,2)
//	    LabelMatchers                   [2,12)
//	      LabelMatcher                  [3,11)
//	        LabelName [3,6)  MatchOp [6,7)  StringLiteral [7,10)
func buildSelectorTree() *Node {
	root := New(KindPromQL, 0, 12)
	vs := root.Append(New(KindVectorSelector, 0, 12))
	mi := vs.Append(New(KindMetricIdentifier, 0, 2))
	mi.Append(New(KindIdentifier, 0, 2))
	lm := vs.Append(New(KindLabelMatchers, 2, 12))
	m := lm.Append(New(KindLabelMatcher, 3, 10))
	m.Append(New(KindLabelName, 3, 6))
	m.Append(New(KindMatchOp, 6, 7))
	m.Append(New(KindStringLiteral, 7, 10))
	return root
}

func TestAppendLinks(t *testing.T) {
	parent := New(KindPromQL, 0, 10)
	a := parent.Append(New(KindIdentifier, 0, 3))
	b := parent.Append(New(KindBinOp, 4, 5))

	if parent.FirstChild != a || parent.LastChild != b {
		t.Fatalf("first/last child wiring broken")
	}
	if a.NextSibling != b || b.PrevSibling != a {
		t.Errorf("sibling links broken")
	}
	if a.Parent != parent || b.Parent != parent {
		t.Errorf("parent links broken")
	}
}

func TestText(t *testing.T) {
	doc := `up{job="x"}`
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{"in bounds", New(KindIdentifier, 0, 2), "up"},
		{"label name", New(KindLabelName, 3, 6), "job"},
		{"nil node", nil, ""},
		{"past end", New(KindIdentifier, 5, 100), ""},
		{"inverted span", New(KindIdentifier, 6, 3), ""},
	}
	for _, tt := range tests {
		if got := tt.node.Text(doc); got != tt.want {
			t.Errorf("%s: Text() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestWalkBackward(t *testing.T) {
	root := buildSelectorTree()
	str := root.FirstChild.LastChild.FirstChild.LastChild // StringLiteral

	if got := WalkBackward(str, KindVectorSelector); got == nil || got.Kind != KindVectorSelector {
		t.Errorf("expected to find VectorSelector ancestor, got %v", got)
	}
	if got := WalkBackward(str, KindStringLiteral); got != str {
		t.Errorf("search should match the start node itself")
	}
	if got := WalkBackward(str, KindGroupingLabels); got != nil {
		t.Errorf("expected nil for absent kind, got %v", got.Kind)
	}
	if got := WalkBackward(nil, KindPromQL); got != nil {
		t.Errorf("nil input should yield nil")
	}
}

func TestWalkThrough(t *testing.T) {
	root := buildSelectorTree()
	vs := root.FirstChild

	ident := WalkThrough(vs, KindMetricIdentifier, KindIdentifier)
	if ident == nil || ident.Kind != KindIdentifier || ident.Start != 0 || ident.End != 2 {
		t.Fatalf("WalkThrough(MetricIdentifier, Identifier) = %v", ident)
	}
	if got := WalkThrough(vs, KindGroupingLabels); got != nil {
		t.Errorf("missing link should yield nil, got %v", got.Kind)
	}
	if got := WalkThrough(nil, KindIdentifier); got != nil {
		t.Errorf("nil input should yield nil")
	}
}

func TestHasAncestor(t *testing.T) {
	root := buildSelectorTree()
	str := root.FirstChild.LastChild.FirstChild.LastChild // StringLiteral

	if !HasAncestor(str, KindLabelMatchers, 2) {
		t.Errorf("LabelMatchers is 2 levels up, should be found at depth 2")
	}
	if HasAncestor(str, KindPromQL, 2) {
		t.Errorf("PromQL is 4 levels up, must not be found at depth 2")
	}
	if !HasAncestor(str, KindPromQL, 4) {
		t.Errorf("PromQL should be found at depth 4")
	}
	if HasAncestor(str, KindStringLiteral, 10) {
		t.Errorf("the node itself is excluded from the ascent")
	}
}

func TestResolve(t *testing.T) {
	root := buildSelectorTree()

	tests := []struct {
		name string
		pos  int
		want Kind
	}{
		{"after metric ident", 2, KindIdentifier},
		{"inside metric ident", 1, KindIdentifier},
		{"after open brace", 3, KindLabelMatchers},
		{"inside label name", 5, KindLabelName},
		{"after match op", 7, KindMatchOp},
		{"inside string", 9, KindStringLiteral},
		{"document start", 0, KindIdentifier},
	}
	for _, tt := range tests {
		got := Resolve(root, tt.pos)
		if got == nil || got.Kind != tt.want {
			t.Errorf("%s: Resolve(%d) = %v, want %v", tt.name, tt.pos, got, tt.want)
		}
	}
}

func TestResolvePrefersEndingNode(t *testing.T) {
	// `a +` with a zero-length missing operand after the operator: the BinOp
	// token ending at the cursor wins over the placeholder starting there.
	root := New(KindPromQL, 0, 3)
	be := root.Append(New(KindBinaryExpr, 0, 3))
	vs := be.Append(New(KindVectorSelector, 0, 1))
	mi := vs.Append(New(KindMetricIdentifier, 0, 1))
	mi.Append(New(KindIdentifier, 0, 1))
	be.Append(New(KindBinOp, 2, 3))
	be.Append(New(KindIdentifier, 3, 3))

	got := Resolve(root, 3)
	if got == nil || got.Kind != KindBinOp {
		t.Fatalf("Resolve(3) = %v, want BinOp", got)
	}
}

func TestResolveDescendsIntoZeroLengthNode(t *testing.T) {
	// `a + ` (trailing space): only the zero-length placeholder touches the
	// cursor, so resolution descends into it.
	root := New(KindPromQL, 0, 4)
	be := root.Append(New(KindBinaryExpr, 0, 4))
	vs := be.Append(New(KindVectorSelector, 0, 1))
	mi := vs.Append(New(KindMetricIdentifier, 0, 1))
	mi.Append(New(KindIdentifier, 0, 1))
	be.Append(New(KindBinOp, 2, 3))
	missing := be.Append(New(KindIdentifier, 4, 4))

	if got := Resolve(root, 4); got != missing {
		t.Fatalf("Resolve(4) = %v, want the zero-length placeholder", got)
	}
}

func TestKindString(t *testing.T) {
	if KindVectorSelector.String() != "VectorSelector" {
		t.Errorf("KindVectorSelector.String() = %q", KindVectorSelector.String())
	}
	if Kind(250).String() != "Invalid" {
		t.Errorf("unknown kind should stringify as Invalid")
	}
}
