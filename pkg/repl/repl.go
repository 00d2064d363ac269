package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/go-logr/logr"

	"github.com/jjo/promql-complete/pkg/complete"
	"github.com/jjo/promql-complete/pkg/metadata"
	"github.com/jjo/promql-complete/pkg/parse"
	sstorage "github.com/jjo/promql-complete/pkg/storage"
)

// REPL is an interactive session for exploring completions: each submitted
// line is completed at its end and the candidates are printed, while Tab
// completion inside the line goes through the same engine.
type REPL struct {
	Engine *complete.Engine
	Store  *sstorage.SimpleStorage
	Out    io.Writer
	Log    logr.Logger
	Silent bool
}

// runReadlineREPL starts an interactive session using readline for enhanced UX.
func runReadlineREPL(r *REPL) {
	if !r.Silent {
		fmt.Fprintln(r.Out, "Enter PromQL expressions (or 'quit' to exit); Tab completes, Enter lists candidates:")
		fmt.Fprintln(r.Out)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "PromQL> ",
		HistoryFile:     getHistoryFilePath(),
		AutoComplete:    newAutoCompleter(r.Engine),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		r.Log.V(1).Info("readline unavailable, falling back to basic input", "err", err.Error())
		fmt.Fprintf(r.Out, "Warning: Could not initialize readline, falling back to basic input: %v\n", err)
		runBasicREPL(r)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			} else if err == io.EOF {
				break
			}
			fmt.Fprintf(r.Out, "Error reading input: %v\n", err)
			break
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if query == "quit" || query == ".quit" {
			break
		}
		executeOne(r, line)
	}
}

// runBasicREPL provides a fallback when readline is unavailable.
func runBasicREPL(r *REPL) {
	if !r.Silent {
		fmt.Fprintln(r.Out, "Using basic input mode (readline unavailable)")
	}

	for {
		fmt.Fprint(r.Out, "PromQL> ")
		var line string
		_, err := fmt.Scanln(&line)
		if err != nil {
			if err.Error() == "unexpected newline" {
				continue
			}
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == ".quit" {
			break
		}
		executeOne(r, line)
	}
}

// executeOne handles a single submitted line: dot-commands, or a PromQL
// fragment to complete. The fragment may carry a trailing "@@ <offset>" to
// place the cursor somewhere other than the end of the text.
func executeOne(r *REPL, line string) {
	orig := strings.TrimSpace(line)
	if orig == "" {
		return
	}

	if strings.HasPrefix(orig, ".") {
		if handleDotCommand(r, orig) {
			return
		}
	}

	doc, pos := splitCursor(orig)
	printCompletions(r, doc, pos)
}

// splitCursor peels a trailing "@@ <offset>" marker off a line. Without the
// marker the cursor sits at the end of the text.
func splitCursor(line string) (string, int) {
	if idx := strings.LastIndex(line, "@@"); idx != -1 {
		rest := strings.TrimSpace(line[idx+2:])
		if n, err := strconv.Atoi(rest); err == nil {
			doc := strings.TrimRight(line[:idx], " ")
			if n < 0 {
				n = 0
			}
			if n > len(doc) {
				n = len(doc)
			}
			return doc, n
		}
	}
	return line, len(line)
}

func printCompletions(r *REPL, doc string, pos int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	root := parse.Parse(doc)
	req := r.Engine.Complete(ctx, doc, pos, root)
	PrintRequest(r.Out, doc, req)
}

// handleDotCommand dispatches ad-hoc commands. Returns true when the line was
// consumed as a command.
func handleDotCommand(r *REPL, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".help":
		fmt.Fprintln(r.Out, "Commands:")
		fmt.Fprintln(r.Out, "  .help            show this help")
		fmt.Fprintln(r.Out, "  .metrics         list metric names known to the loaded storage")
		fmt.Fprintln(r.Out, "  .load <file>     load a Prometheus text-format metrics file")
		fmt.Fprintln(r.Out, "  .quit            exit")
		fmt.Fprintln(r.Out)
		fmt.Fprintln(r.Out, "Anything else is completed at the end of the line; append '@@ N'")
		fmt.Fprintln(r.Out, "to complete at byte offset N instead.")
		return true
	case ".metrics":
		if r.Store == nil {
			fmt.Fprintln(r.Out, "No storage loaded (use .load or --metrics-file)")
			return true
		}
		names := r.Store.MetricNames()
		for _, n := range names {
			if help := r.Store.MetricsHelp[n]; help != "" {
				fmt.Fprintf(r.Out, "%s\t%s\n", n, help)
			} else {
				fmt.Fprintln(r.Out, n)
			}
		}
		fmt.Fprintf(r.Out, "(%d metrics)\n", len(names))
		return true
	case ".load":
		if len(fields) < 2 {
			fmt.Fprintln(r.Out, "Usage: .load <file>")
			return true
		}
		if err := loadMetricsFile(r, fields[1]); err != nil {
			r.Log.Error(err, "metrics file load failed", "path", fields[1])
			fmt.Fprintf(r.Out, "Error loading %s: %v\n", fields[1], err)
		}
		return true
	}
	return false
}

// loadMetricsFile reads a text-format exposition file into the session
// storage, creating it when absent, and repoints the engine at it.
func loadMetricsFile(r *REPL, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if r.Store == nil {
		r.Store = sstorage.NewSimpleStorage()
	}
	if err := r.Store.LoadFromReader(f); err != nil {
		return err
	}
	r.Engine.SetProvider(metadata.NewStorageProvider(r.Store))
	n := len(r.Store.MetricNames())
	r.Log.V(1).Info("metrics file loaded", "path", path, "metrics", n)
	if !r.Silent {
		fmt.Fprintf(r.Out, "Loaded %s: %d metrics available\n", path, n)
	}
	return nil
}

// promqlAutoCompleter implements readline.AutoCompleter on top of the
// completion engine.
type promqlAutoCompleter struct {
	engine *complete.Engine
}

func newAutoCompleter(engine *complete.Engine) readline.AutoCompleter {
	return &promqlAutoCompleter{engine: engine}
}

// Do implements the readline.AutoCompleter interface. readline wants the
// suffixes beyond the already-typed word plus the word's rune length, so
// fuzzy-only matches that do not extend the typed text are filtered out here.
func (ac *promqlAutoCompleter) Do(line []rune, pos int) ([][]rune, int) {
	doc := string(line)
	bytePos := len(string(line[:pos]))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	root := parse.Parse(doc)
	req := ac.engine.Complete(ctx, doc, bytePos, root)
	if req == nil || len(req.Candidates) == 0 {
		return nil, 0
	}

	typed := ""
	if req.From >= 0 && req.From <= bytePos {
		typed = doc[req.From:bytePos]
	}

	uniq := make(map[string]struct{}, len(req.Candidates))
	var suffixes [][]rune
	for _, cand := range req.Candidates {
		insert := cand.InsertText()
		if _, ok := uniq[insert]; ok {
			continue
		}
		uniq[insert] = struct{}{}
		if !strings.HasPrefix(insert, typed) {
			continue
		}
		suffixes = append(suffixes, []rune(insert[len(typed):]))
	}
	if len(suffixes) == 0 {
		return nil, 0
	}

	sort.Slice(suffixes, func(i, j int) bool {
		return string(suffixes[i]) < string(suffixes[j])
	})
	return suffixes, len([]rune(typed))
}

// getHistoryFilePath returns the path to the readline history file.
func getHistoryFilePath() string {
	if histPath := os.Getenv("PROMQL_COMPLETE_HISTORY"); histPath != "" {
		return histPath
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".promql-complete_history")
	}
	cwd, err := os.Getwd()
	if err == nil && cwd != "" {
		return filepath.Join(cwd, ".promql-complete_history")
	}
	return ".promql-complete_history"
}
