package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jjo/promql-complete/pkg/complete"
	"github.com/jjo/promql-complete/pkg/metadata"
	"github.com/jjo/promql-complete/pkg/parse"
	"github.com/jjo/promql-complete/pkg/repl"
	sstorage "github.com/jjo/promql-complete/pkg/storage"
)

// Version info. Overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// normalizeLongOpts converts GNU-style "--long" options to stdlib-flag style "-long".
// It leaves the "--" end-of-flags marker intact and doesn't touch single-dash or positional args.
func normalizeLongOpts(args []string) []string {
	out := make([]string, 0, len(args))
	seenTerminator := false
	for _, a := range args {
		if seenTerminator {
			out = append(out, a)
			continue
		}
		if a == "--" {
			seenTerminator = true
			out = append(out, a)
			continue
		}
		if strings.HasPrefix(a, "--") && len(a) > 2 {
			out = append(out, "-"+a[2:])
			continue
		}
		out = append(out, a)
	}
	return out
}

// newLogger builds a zap-backed logr.Logger at the requested verbosity.
func newLogger(verbosity int) logr.Logger {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	z, err := zc.Build()
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(z)
}

func main() {
	// Root (global) flags
	rootFlags := flag.NewFlagSet("promql-complete", flag.ContinueOnError)
	source := rootFlags.String("source", "offline", "metadata source: offline|remote|langserver")
	url := rootFlags.String("url", "", "endpoint for --source=remote (Prometheus base URL) or --source=langserver")
	metricsFile := rootFlags.String("metrics-file", "", "Prometheus text-format file to use as the metadata source")
	limit := rootFlags.Int("limit", complete.DefaultLimit, "maximum number of candidates")
	verbosity := rootFlags.Int("v", 0, "log verbosity (higher is more verbose)")
	silent := rootFlags.Bool("silent", false, "suppress startup output")
	rootFlags.BoolVar(silent, "s", *silent, "shorthand for --silent")

	// buildSession assembles the engine (and the backing storage, when a
	// metrics file is given) from the root flags.
	buildSession := func(log logr.Logger) (*complete.Engine, *sstorage.SimpleStorage, error) {
		if *metricsFile != "" {
			f, err := os.Open(*metricsFile)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open metrics file: %w", err)
			}
			defer func() { _ = f.Close() }()
			store := sstorage.NewSimpleStorage()
			if err := store.LoadFromReader(f); err != nil {
				return nil, nil, fmt.Errorf("failed to load metrics: %w", err)
			}
			engine := complete.NewEngine(complete.Config{
				Provider: metadata.NewStorageProvider(store),
				Logger:   log,
				Limit:    *limit,
			})
			return engine, store, nil
		}

		sel := metadata.Selector{Source: metadata.Source(*source), URL: *url}
		if sel.Source == metadata.SourceRemote && sel.URL == "" {
			return nil, nil, fmt.Errorf("--source=remote requires --url")
		}
		if sel.Source == metadata.SourceLangserver && sel.URL == "" {
			return nil, nil, fmt.Errorf("--source=langserver requires --url")
		}
		return complete.FromSelector(sel, log), nil, nil
	}

	// suggest subcommand
	suggestFlags := flag.NewFlagSet("suggest", flag.ContinueOnError)
	offset := suggestFlags.Int("offset", -1, "byte offset of the cursor (-1 = end of expression)")
	output := suggestFlags.String("output", "", "output format (json)")
	suggestFlags.StringVar(output, "o", "", "shorthand for --output")

	suggestCmd := &ffcli.Command{
		Name:       "suggest",
		ShortUsage: "promql-complete [flags] suggest [--offset N] [-o json] <expr>",
		FlagSet:    suggestFlags,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("suggest requires <expr>")
			}
			doc := args[0]
			pos := *offset
			if pos < 0 || pos > len(doc) {
				pos = len(doc)
			}

			log := newLogger(*verbosity)
			engine, _, err := buildSession(log)
			if err != nil {
				return err
			}

			root := parse.Parse(doc)
			req := engine.Complete(ctx, doc, pos, root)
			if strings.EqualFold(*output, "json") {
				return printRequestJSON(os.Stdout, req)
			}
			repl.PrintRequest(os.Stdout, doc, req)
			return nil
		},
	}

	// repl subcommand
	replFlags := flag.NewFlagSet("repl", flag.ContinueOnError)
	replBackend := replFlags.String("repl", "readline", "REPL backend: prompt|readline")

	replCmd := &ffcli.Command{
		Name:       "repl",
		ShortUsage: "promql-complete [flags] repl [--repl=prompt|readline]",
		FlagSet:    replFlags,
		Exec: func(ctx context.Context, _ []string) error {
			log := newLogger(*verbosity)
			engine, store, err := buildSession(log)
			if err != nil {
				return err
			}
			if !*silent && *metricsFile != "" && store != nil {
				fmt.Printf("Loaded %s: %d metrics available\n", *metricsFile, len(store.MetricNames()))
			}
			session := &repl.REPL{
				Engine: engine,
				Store:  store,
				Out:    os.Stdout,
				Log:    log,
				Silent: *silent,
			}
			repl.RunDispatch(session, *replBackend)
			return nil
		},
	}

	// version subcommand
	versionCmd := &ffcli.Command{
		Name: "version",
		Exec: func(ctx context.Context, _ []string) error { printVersion(); return nil },
	}

	root := &ffcli.Command{
		Name:       "promql-complete",
		ShortUsage: "promql-complete [--source=...] [--url=...] <subcommand> [flags]",
		FlagSet:    rootFlags,
		Subcommands: []*ffcli.Command{
			suggestCmd, replCmd, versionCmd,
		},
		Exec: func(ctx context.Context, _ []string) error { return flag.ErrHelp },
	}

	// Normalize GNU-style long options ("--long") to stdlib format ("-long")
	norm := normalizeLongOpts(os.Args[1:])
	if err := root.ParseAndRun(context.Background(), norm); err != nil {
		if err == flag.ErrHelp {
			root.FlagSet.Usage()
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printVersion prints a human-readable version string.
func printVersion() {
	fmt.Printf("promql-complete %s\n", version)
	fmt.Printf("  commit: %s\n", commit)
	fmt.Printf("  date:   %s\n", date)
}

type jsonCandidate struct {
	Label  string `json:"label"`
	Insert string `json:"insert,omitempty"`
	Detail string `json:"detail,omitempty"`
	Kind   string `json:"kind"`
	Score  int    `json:"score"`
}

type jsonRequest struct {
	From       int             `json:"from"`
	To         int             `json:"to"`
	Query      string          `json:"query"`
	Candidates []jsonCandidate `json:"candidates"`
}

// printRequestJSON renders a completion request as JSON. A nil request (no
// completable position) becomes JSON null so scripts can tell it apart from
// an empty candidate list.
func printRequestJSON(w *os.File, req *complete.Request) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if req == nil {
		return enc.Encode(nil)
	}
	out := jsonRequest{
		From:       req.From,
		To:         req.To,
		Query:      req.Query,
		Candidates: make([]jsonCandidate, 0, len(req.Candidates)),
	}
	for _, c := range req.Candidates {
		out.Candidates = append(out.Candidates, jsonCandidate{
			Label:  c.Label,
			Insert: c.Insert,
			Detail: c.Detail,
			Kind:   c.Kind.String(),
			Score:  c.Score,
		})
	}
	return enc.Encode(out)
}
