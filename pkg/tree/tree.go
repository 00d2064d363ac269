// Package tree holds the read-only syntax-node model the completion engine
// walks. Trees are produced by a host-owned parser (see pkg/parse for the one
// shipped with the CLI); the engine never mutates them.
package tree

// Kind identifies the grammar construct a node represents.
type Kind uint8

const (
	KindInvalid Kind = iota // unrecognized or syntactically broken token
	KindPromQL              // root
	KindVectorSelector
	KindMetricIdentifier
	KindIdentifier
	KindLabelMatchers
	KindLabelMatcher
	KindLabelName
	KindMatchOp
	KindStringLiteral
	KindBinaryExpr
	KindBinOp
	KindParenExpr
	KindNumberLiteral
	KindDurationLiteral
	KindMatrixSelector
	KindFunctionCall
	KindFunctionIdentifier
	KindFunctionBody
	KindAggregateExpr
	KindAggregateOp
	KindGroupingLabels
)

var kindNames = map[Kind]string{
	KindInvalid:            "Invalid",
	KindPromQL:             "PromQL",
	KindVectorSelector:     "VectorSelector",
	KindMetricIdentifier:   "MetricIdentifier",
	KindIdentifier:         "Identifier",
	KindLabelMatchers:      "LabelMatchers",
	KindLabelMatcher:       "LabelMatcher",
	KindLabelName:          "LabelName",
	KindMatchOp:            "MatchOp",
	KindStringLiteral:      "StringLiteral",
	KindBinaryExpr:         "BinaryExpr",
	KindBinOp:              "BinOp",
	KindParenExpr:          "ParenExpr",
	KindNumberLiteral:      "NumberLiteral",
	KindDurationLiteral:    "DurationLiteral",
	KindMatrixSelector:     "MatrixSelector",
	KindFunctionCall:       "FunctionCall",
	KindFunctionIdentifier: "FunctionIdentifier",
	KindFunctionBody:       "FunctionBody",
	KindAggregateExpr:      "AggregateExpr",
	KindAggregateOp:        "AggregateOp",
	KindGroupingLabels:     "GroupingLabels",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Invalid"
}

// Node is a single syntax-tree node. Start and End are byte offsets into the
// document the tree was parsed from; End is exclusive. A zero-length node
// (Start == End) marks a missing construct, e.g. the absent right operand of
// a trailing binary operator.
type Node struct {
	Kind       Kind
	Start, End int

	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	NextSibling *Node
	PrevSibling *Node
}

// New returns a childless node covering [start, end).
func New(kind Kind, start, end int) *Node {
	return &Node{Kind: kind, Start: start, End: end}
}

// Append links child as the last child of n and returns child.
// Builder-side helper; the completion engine treats trees as frozen.
func (n *Node) Append(child *Node) *Node {
	child.Parent = n
	if n.LastChild == nil {
		n.FirstChild = child
		n.LastChild = child
		return child
	}
	child.PrevSibling = n.LastChild
	n.LastChild.NextSibling = child
	n.LastChild = child
	return child
}

// Text returns the slice of doc covered by n, guarding against spans that
// fall outside the document.
func (n *Node) Text(doc string) string {
	if n == nil || n.Start < 0 || n.End > len(doc) || n.Start > n.End {
		return ""
	}
	return doc[n.Start:n.End]
}

// WalkBackward ascends through parent links from n (inclusive) until it finds
// a node of the wanted kind. It returns nil when the root is reached without
// a match; it never panics on nil input.
func WalkBackward(n *Node, kind Kind) *Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Kind == kind {
			return cur
		}
	}
	return nil
}

// WalkThrough descends from n through the given chain of expected child
// kinds, matching the first child of each kind at every level. It returns the
// final node reached, or nil as soon as any link in the chain is absent.
func WalkThrough(n *Node, kinds ...Kind) *Node {
	cur := n
	for _, k := range kinds {
		if cur == nil {
			return nil
		}
		var next *Node
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Kind == k {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// HasAncestor reports whether a node of the wanted kind appears within
// maxDepth parent links of n (n itself excluded). It replaces brittle
// parent.parent.parent chains with an explicit bounded ascent.
func HasAncestor(n *Node, kind Kind, maxDepth int) bool {
	if n == nil {
		return false
	}
	cur := n.Parent
	for d := 0; d < maxDepth && cur != nil; d++ {
		if cur.Kind == kind {
			return true
		}
		cur = cur.Parent
	}
	return false
}

// Resolve returns the smallest node containing pos, preferring a node that
// ends exactly at pos over one that merely starts there: for a cursor sitting
// right after a token, the token just typed is the interesting context.
// Zero-length nodes anchored at pos are still descended into, so a missing
// operand placeholder at the cursor wins over its parent expression.
func Resolve(root *Node, pos int) *Node {
	if root == nil {
		return nil
	}
	cur := root
	for {
		var into *Node
		// First pass: children genuinely covering pos (ending at or after it,
		// having started before it).
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Start < pos && pos <= c.End {
				into = c
				break
			}
		}
		// Second pass: zero-length nodes anchored exactly at pos.
		if into == nil {
			for c := cur.FirstChild; c != nil; c = c.NextSibling {
				if c.Start == pos && c.End == pos {
					into = c
					break
				}
			}
		}
		// Third pass: cursor at the very start of the document resolves into
		// the first child that begins there.
		if into == nil && pos == 0 {
			for c := cur.FirstChild; c != nil; c = c.NextSibling {
				if c.Start == 0 {
					into = c
					break
				}
			}
		}
		if into == nil {
			return cur
		}
		cur = into
	}
}
