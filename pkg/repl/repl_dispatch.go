//go:build !prompt
// +build !prompt

package repl

import (
	"fmt"
	"os"
)

// RunDispatch selects the REPL backend for this build.
func RunDispatch(r *REPL, backend string) {
	// This build does not include go-prompt. If prompt was requested, error out.
	if backend == "prompt" {
		fmt.Fprintln(r.Out, "Error: --repl=prompt requested but not compiled in.")
		fmt.Fprintln(r.Out, "To use go-prompt, build with: go build -tags prompt")
		os.Exit(1)
	}

	// Default to readline
	runReadlineREPL(r)
}
