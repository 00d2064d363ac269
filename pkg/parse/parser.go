package parse

import (
	"github.com/jjo/promql-complete/pkg/lang"
	"github.com/jjo/promql-complete/pkg/tree"
)

// Parse builds a best-effort syntax tree for doc. It always succeeds:
// unfinished constructs keep their open-ended spans running to the end of
// the input, a trailing binary operator gets a zero-length identifier node
// standing in for the missing operand, and unplaceable tokens become Invalid
// nodes.
func Parse(doc string) *tree.Node {
	p := &parser{doc: doc, toks: lex(doc)}
	root := tree.New(tree.KindPromQL, 0, len(doc))
	for p.peek().kind != tokEOF {
		if root.FirstChild == nil {
			root.Append(p.parseExpr())
			continue
		}
		// Trailing tokens after a complete expression: bare identifiers stay
		// identifier nodes so half-typed keywords still classify.
		t := p.next()
		if t.kind == tokIdent {
			root.Append(tree.New(tree.KindIdentifier, t.start, t.end))
		} else {
			root.Append(tree.New(tree.KindInvalid, t.start, t.end))
		}
	}
	return root
}

type parser struct {
	doc  string
	toks []token
	i    int
}

var eof = token{kind: tokEOF}

func (p *parser) peek() token {
	if p.i >= len(p.toks) {
		return eof
	}
	return p.toks[p.i]
}

func (p *parser) next() token {
	t := p.peek()
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func isBinOp(t token) bool {
	switch t.kind {
	case tokOp:
		switch t.text {
		case "+", "-", "*", "/", "%", "^", "==", "!=", ">", "<", ">=", "<=":
			return true
		}
	case tokIdent:
		switch t.text {
		case "and", "or", "unless", "atan2":
			return true
		}
	}
	return false
}

func isMatchOpText(text string) bool {
	switch text {
	case "=", "!=", "=~", "!~", "==":
		return true
	}
	return false
}

func startsExpr(t token) bool {
	switch t.kind {
	case tokIdent, tokNumber, tokDuration, tokString, tokLParen, tokLBrace:
		return true
	}
	return false
}

func (p *parser) parseExpr() *tree.Node {
	lhs := p.parsePrimary()
	for {
		t := p.peek()
		if !isBinOp(t) {
			break
		}
		p.next()
		be := tree.New(tree.KindBinaryExpr, lhs.Start, t.end)
		be.Append(lhs)
		be.Append(tree.New(tree.KindBinOp, t.start, t.end))
		p.parseBinModifiers(be)

		var rhs *tree.Node
		switch {
		case p.peek().kind == tokEOF:
			rhs = tree.New(tree.KindIdentifier, len(p.doc), len(p.doc))
		case startsExpr(p.peek()):
			rhs = p.parsePrimary()
		default:
			at := p.peek().start
			rhs = tree.New(tree.KindIdentifier, at, at)
		}
		be.Append(rhs)
		if rhs.End > be.End {
			be.End = rhs.End
		}
		lhs = be
	}
	return lhs
}

// parseBinModifiers consumes vector-matching keywords after a binary
// operator. Grouping lists become GroupingLabels children so completion
// works inside on(...)/ignoring(...) as well.
func (p *parser) parseBinModifiers(be *tree.Node) {
	for {
		t := p.peek()
		if t.kind != tokIdent {
			return
		}
		switch t.text {
		case "bool":
			p.next()
			if t.end > be.End {
				be.End = t.end
			}
		case "on", "ignoring", "group_left", "group_right":
			p.next()
			if t.end > be.End {
				be.End = t.end
			}
			if p.peek().kind == tokLParen {
				gl := p.parseGroupingLabels()
				be.Append(gl)
				if gl.End > be.End {
					be.End = gl.End
				}
			}
		default:
			return
		}
	}
}

func (p *parser) parsePrimary() *tree.Node {
	t := p.peek()
	switch t.kind {
	case tokEOF:
		return tree.New(tree.KindIdentifier, len(p.doc), len(p.doc))
	case tokNumber:
		p.next()
		return tree.New(tree.KindNumberLiteral, t.start, t.end)
	case tokDuration:
		p.next()
		return tree.New(tree.KindDurationLiteral, t.start, t.end)
	case tokString:
		p.next()
		return tree.New(tree.KindStringLiteral, t.start, t.end)
	case tokLParen:
		return p.parseParenExpr()
	case tokLBrace:
		// Selector with no metric name: {job="..."}.
		lm := p.parseLabelMatchers()
		vs := tree.New(tree.KindVectorSelector, lm.Start, lm.End)
		vs.Append(lm)
		return p.parseSelectorSuffix(vs)
	case tokIdent:
		return p.parseIdentExpr()
	default:
		p.next()
		return tree.New(tree.KindInvalid, t.start, t.end)
	}
}

func (p *parser) parseParenExpr() *tree.Node {
	lp := p.next()
	pe := tree.New(tree.KindParenExpr, lp.start, lp.end)
	if t := p.peek(); t.kind != tokRParen && t.kind != tokEOF {
		inner := p.parseExpr()
		pe.Append(inner)
		if inner.End > pe.End {
			pe.End = inner.End
		}
	}
	switch t := p.peek(); t.kind {
	case tokRParen:
		p.next()
		pe.End = t.end
	case tokEOF:
		pe.End = len(p.doc)
		if pe.FirstChild == nil {
			pe.Append(missingExpr(len(p.doc)))
		}
	}
	return pe
}

// missingExpr is a zero-length vector-selector scaffold standing in for an
// expression that has not been typed yet, so the cursor inside "rate(" or
// "(" classifies as an expression-start position.
func missingExpr(at int) *tree.Node {
	vs := tree.New(tree.KindVectorSelector, at, at)
	mi := tree.New(tree.KindMetricIdentifier, at, at)
	mi.Append(tree.New(tree.KindIdentifier, at, at))
	vs.Append(mi)
	return vs
}

func (p *parser) parseIdentExpr() *tree.Node {
	ident := p.next()
	nt := p.peek()

	if lang.IsAggregateOp(ident.text) && (nt.kind == tokLParen || isGroupingKeyword(nt)) {
		return p.parseAggregateExpr(ident)
	}
	if nt.kind == tokLParen {
		fc := tree.New(tree.KindFunctionCall, ident.start, ident.end)
		fi := tree.New(tree.KindFunctionIdentifier, ident.start, ident.end)
		fi.Append(tree.New(tree.KindIdentifier, ident.start, ident.end))
		fc.Append(fi)
		body := p.parseCallBody()
		fc.Append(body)
		if body.End > fc.End {
			fc.End = body.End
		}
		return fc
	}

	vs := tree.New(tree.KindVectorSelector, ident.start, ident.end)
	mi := tree.New(tree.KindMetricIdentifier, ident.start, ident.end)
	mi.Append(tree.New(tree.KindIdentifier, ident.start, ident.end))
	vs.Append(mi)
	if p.peek().kind == tokLBrace {
		lm := p.parseLabelMatchers()
		vs.Append(lm)
		if lm.End > vs.End {
			vs.End = lm.End
		}
	}
	return p.parseSelectorSuffix(vs)
}

func isGroupingKeyword(t token) bool {
	return t.kind == tokIdent && (t.text == "by" || t.text == "without")
}

func (p *parser) parseAggregateExpr(ident token) *tree.Node {
	ae := tree.New(tree.KindAggregateExpr, ident.start, ident.end)
	ao := tree.New(tree.KindAggregateOp, ident.start, ident.end)
	ao.Append(tree.New(tree.KindIdentifier, ident.start, ident.end))
	ae.Append(ao)

	seenBody, seenGrouping := false, false
	for {
		t := p.peek()
		switch {
		case isGroupingKeyword(t) && !seenGrouping:
			p.next()
			seenGrouping = true
			if t.end > ae.End {
				ae.End = t.end
			}
			if p.peek().kind == tokLParen {
				gl := p.parseGroupingLabels()
				ae.Append(gl)
				if gl.End > ae.End {
					ae.End = gl.End
				}
			}
		case t.kind == tokLParen && !seenBody:
			seenBody = true
			body := p.parseCallBody()
			ae.Append(body)
			if body.End > ae.End {
				ae.End = body.End
			}
		default:
			return ae
		}
	}
}

func (p *parser) parseCallBody() *tree.Node {
	lp := p.next()
	body := tree.New(tree.KindFunctionBody, lp.start, lp.end)
	for {
		t := p.peek()
		switch t.kind {
		case tokRParen:
			p.next()
			body.End = t.end
			return body
		case tokEOF:
			body.End = len(p.doc)
			if body.FirstChild == nil {
				body.Append(missingExpr(len(p.doc)))
			}
			return body
		case tokComma:
			p.next()
			if t.end > body.End {
				body.End = t.end
			}
		default:
			arg := p.parseExpr()
			body.Append(arg)
			if arg.End > body.End {
				body.End = arg.End
			}
		}
	}
}

func (p *parser) parseGroupingLabels() *tree.Node {
	lp := p.next()
	gl := tree.New(tree.KindGroupingLabels, lp.start, lp.end)
	for {
		t := p.peek()
		switch t.kind {
		case tokRParen:
			p.next()
			gl.End = t.end
			return gl
		case tokEOF:
			gl.End = len(p.doc)
			return gl
		case tokComma:
			p.next()
			gl.End = t.end
		case tokIdent:
			p.next()
			gl.Append(tree.New(tree.KindLabelName, t.start, t.end))
			gl.End = t.end
		default:
			p.next()
			gl.Append(tree.New(tree.KindInvalid, t.start, t.end))
			gl.End = t.end
		}
	}
}

func (p *parser) parseLabelMatchers() *tree.Node {
	lb := p.next()
	lm := tree.New(tree.KindLabelMatchers, lb.start, lb.end)
	for {
		t := p.peek()
		switch t.kind {
		case tokRBrace:
			p.next()
			lm.End = t.end
			return lm
		case tokEOF:
			lm.End = len(p.doc)
			return lm
		case tokComma:
			p.next()
			lm.End = t.end
		case tokIdent:
			m := p.parseLabelMatcher()
			lm.Append(m)
			if m.End > lm.End {
				lm.End = m.End
			}
		default:
			p.next()
			lm.Append(tree.New(tree.KindInvalid, t.start, t.end))
			if t.end > lm.End {
				lm.End = t.end
			}
		}
	}
}

func (p *parser) parseLabelMatcher() *tree.Node {
	name := p.next()
	m := tree.New(tree.KindLabelMatcher, name.start, name.end)
	m.Append(tree.New(tree.KindLabelName, name.start, name.end))

	t := p.peek()
	switch {
	case t.kind == tokOp && isMatchOpText(t.text):
		p.next()
		m.Append(tree.New(tree.KindMatchOp, t.start, t.end))
		m.End = t.end
	case t.kind == tokBang:
		// Half-typed operator: "job!" with the second character still to come.
		p.next()
		m.Append(tree.New(tree.KindInvalid, t.start, t.end))
		m.End = t.end
		return m
	default:
		return m
	}

	if s := p.peek(); s.kind == tokString {
		p.next()
		m.Append(tree.New(tree.KindStringLiteral, s.start, s.end))
		m.End = s.end
	}
	return m
}

// parseSelectorSuffix consumes a range selector and offset modifier after a
// vector selector, wrapping it in a MatrixSelector when a range is present.
func (p *parser) parseSelectorSuffix(vs *tree.Node) *tree.Node {
	out := vs
	if t := p.peek(); t.kind == tokLBracket {
		p.next()
		ms := tree.New(tree.KindMatrixSelector, vs.Start, t.end)
		ms.Append(vs)
		if d := p.peek(); d.kind == tokDuration || d.kind == tokNumber {
			p.next()
			ms.Append(tree.New(tree.KindDurationLiteral, d.start, d.end))
			ms.End = d.end
		}
		if rb := p.peek(); rb.kind == tokRBracket {
			p.next()
			ms.End = rb.end
		}
		out = ms
	}
	if t := p.peek(); t.kind == tokIdent && t.text == "offset" {
		p.next()
		if out.End < t.end {
			out.End = t.end
		}
		if d := p.peek(); d.kind == tokDuration || d.kind == tokNumber {
			p.next()
			if out.End < d.end {
				out.End = d.end
			}
		}
	}
	return out
}
