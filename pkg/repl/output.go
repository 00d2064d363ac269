package repl

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jjo/promql-complete/pkg/complete"
)

// PrintRequest renders a completion request as a readable table. A nil
// request means the position had no completable grammar situation.
func PrintRequest(w io.Writer, doc string, req *complete.Request) {
	if req == nil {
		fmt.Fprintln(w, "(no completion at this position)")
		return
	}
	fmt.Fprintf(w, "replace [%d:%d] %q (%d candidates)\n",
		req.From, req.To, req.Query, len(req.Candidates))
	if len(req.Candidates) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	for _, c := range req.Candidates {
		detail := c.Detail
		if detail == "" {
			detail = c.Kind.String()
		}
		fmt.Fprintf(tw, "  %s\t%s\n", c.InsertText(), detail)
	}
	tw.Flush()
}
