package lang

import "strings"

// Snippet is a multi-token template inserted in place of a single keyword
// trigger. Placeholders use ${name} syntax; Expand substitutes them and leaves
// unresolved placeholders as their bare names so the result stays readable.
type Snippet struct {
	Label    string
	Template string
}

// Snippets are the fixed expression templates offered at bare-expression
// positions. Loaded once; never re-parsed per request.
var Snippets = []Snippet{
	{
		Label:    "sum(rate(...))",
		Template: "sum(rate(${metric}[5m]))",
	},
	{
		Label:    "histogram_quantile(...)",
		Template: "histogram_quantile(${quantile}, sum by(le) (rate(${histogram_metric}[5m])))",
	},
	{
		Label:    "label_replace(...)",
		Template: "label_replace(${input_vector}, \"${dst}\", \"${replacement}\", \"${src}\", \"${regex}\")",
	},
}

// Expand substitutes named placeholders into the snippet template. Missing
// names keep the placeholder's own name as text.
func (s Snippet) Expand(values map[string]string) string {
	var b strings.Builder
	t := s.Template
	for {
		i := strings.Index(t, "${")
		if i < 0 {
			b.WriteString(t)
			return b.String()
		}
		j := strings.Index(t[i:], "}")
		if j < 0 {
			b.WriteString(t)
			return b.String()
		}
		name := t[i+2 : i+j]
		b.WriteString(t[:i])
		if v, ok := values[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(name)
		}
		t = t[i+j+1:]
	}
}
