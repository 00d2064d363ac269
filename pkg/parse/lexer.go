// Package parse builds syntax trees from partially typed PromQL. It is the
// host-side collaborator the completion engine expects: unlike the upstream
// promql parser it never rejects input, producing a best-effort tree for
// every keystroke, with broken constructs surfaced as Invalid or zero-length
// nodes instead of errors.
package parse

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokDuration
	tokString // includes unterminated literals running to end of input
	tokOp     // arithmetic/comparison operator symbols
	tokBang   // a lone "!", not part of != or !~
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokComma
)

type token struct {
	kind       tokKind
	start, end int
	text       string
}

// lex tokenizes the whole input. It cannot fail: anything unrecognizable
// becomes a single-byte operator-ish token the parser treats as invalid.
func lex(input string) []token {
	var toks []token
	i := 0
	n := len(input)
	for i < n {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case isIdentStart(ch):
			start := i
			for i < n && isIdentPart(input[i]) {
				i++
			}
			toks = append(toks, token{tokIdent, start, i, input[start:i]})
		case ch >= '0' && ch <= '9' || ch == '.' && i+1 < n && input[i+1] >= '0' && input[i+1] <= '9':
			start := i
			for i < n && (input[i] >= '0' && input[i] <= '9' || input[i] == '.') {
				i++
			}
			kind := tokNumber
			// Trailing unit letters make it a duration (5m, 1h30m, 500ms).
			for i < n && isDurationUnit(input[i]) {
				kind = tokDuration
				i++
				for i < n && (input[i] >= '0' && input[i] <= '9') {
					i++
				}
			}
			toks = append(toks, token{kind, start, i, input[start:i]})
		case ch == '"' || ch == '\'':
			start := i
			quote := ch
			i++
			for i < n && input[i] != quote && input[i] != '\n' {
				if input[i] == '\\' && i+1 < n {
					i++
				}
				i++
			}
			if i < n && input[i] == quote {
				i++
			}
			toks = append(toks, token{tokString, start, i, input[start:i]})
		case ch == '(':
			toks = append(toks, token{tokLParen, i, i + 1, "("})
			i++
		case ch == ')':
			toks = append(toks, token{tokRParen, i, i + 1, ")"})
			i++
		case ch == '{':
			toks = append(toks, token{tokLBrace, i, i + 1, "{"})
			i++
		case ch == '}':
			toks = append(toks, token{tokRBrace, i, i + 1, "}"})
			i++
		case ch == '[':
			toks = append(toks, token{tokLBracket, i, i + 1, "["})
			i++
		case ch == ']':
			toks = append(toks, token{tokRBracket, i, i + 1, "]"})
			i++
		case ch == ',':
			toks = append(toks, token{tokComma, i, i + 1, ","})
			i++
		default:
			start := i
			text, width := lexOperator(input[i:])
			i += width
			if text == "!" {
				toks = append(toks, token{tokBang, start, i, text})
			} else {
				toks = append(toks, token{tokOp, start, i, text})
			}
		}
	}
	return toks
}

// lexOperator consumes the longest operator at the head of s, or a single
// byte when nothing matches.
func lexOperator(s string) (string, int) {
	two := ""
	if len(s) >= 2 {
		two = s[:2]
	}
	switch two {
	case "==", "!=", "=~", "!~", ">=", "<=":
		return two, 2
	}
	switch s[0] {
	case '=', '!', '+', '-', '*', '/', '%', '^', '>', '<', '@':
		return s[:1], 1
	}
	return s[:1], 1
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == ':' ||
		ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || ch >= '0' && ch <= '9'
}

func isDurationUnit(ch byte) bool {
	switch ch {
	case 's', 'm', 'h', 'd', 'w', 'y':
		return true
	}
	return false
}
