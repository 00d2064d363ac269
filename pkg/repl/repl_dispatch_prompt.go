//go:build prompt
// +build prompt

package repl

import "fmt"

// RunDispatch selects the REPL backend for this build.
func RunDispatch(r *REPL, backend string) {
	if backend == "prompt" {
		if !r.Silent {
			fmt.Fprintln(r.Out, "Using go-prompt backend (--repl=prompt)")
		}
		runPromptREPL(r)
		return
	}
	// Default to readline
	if !r.Silent {
		fmt.Fprintln(r.Out, "Using readline backend (default)")
	}
	runReadlineREPL(r)
}
