//go:build prompt

package repl

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"

	"github.com/jjo/promql-complete/pkg/parse"
)

// promqlWordSeparators are the characters go-prompt treats as word
// boundaries when deciding what text a selected suggestion replaces.
const promqlWordSeparators = "(){}[]\" \t\n,="

// Global session needed for prompt completions
var promptSession *REPL

// promptCompleter provides completions for go-prompt
func promptCompleter(d prompt.Document) []prompt.Suggest {
	if promptSession == nil {
		return []prompt.Suggest{}
	}

	doc := d.Text
	pos := len(d.TextBeforeCursor())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	root := parse.Parse(doc)
	req := promptSession.Engine.Complete(ctx, doc, pos, root)
	if req == nil || len(req.Candidates) == 0 {
		return []prompt.Suggest{}
	}

	suggests := make([]prompt.Suggest, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		desc := c.Detail
		if desc == "" {
			desc = c.Kind.String()
		}
		suggests = append(suggests, prompt.Suggest{Text: c.InsertText(), Description: desc})
	}

	// go-prompt replaces the word before the cursor, so narrow the engine's
	// fuzzy-matched list down to candidates that extend that word.
	word := d.GetWordBeforeCursorUntilSeparator(promqlWordSeparators)
	return prompt.FilterHasPrefix(suggests, word, true)
}

// promptExecutor handles line submission
func promptExecutor(s string) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if s == "" {
		return
	}
	if s == "quit" || s == ".quit" {
		fmt.Println("\nExiting...")
		os.Exit(0)
	}
	if promptSession != nil {
		executeOne(promptSession, s)
	}
}

// runPromptREPL runs the go-prompt based REPL
func runPromptREPL(r *REPL) {
	if !r.Silent {
		fmt.Fprintln(r.Out, "Enter PromQL expressions (or 'quit' to exit); Tab completes, Enter lists candidates:")
		fmt.Fprintln(r.Out)
	}

	promptSession = r
	p := prompt.New(
		promptExecutor,
		promptCompleter,
		prompt.OptionPrefix("PromQL> "),
		prompt.OptionTitle("PromQL Complete"),
		prompt.OptionPrefixTextColor(prompt.Blue),
		prompt.OptionPreviewSuggestionTextColor(prompt.DarkGray),
		prompt.OptionSelectedSuggestionBGColor(prompt.LightGray),
		prompt.OptionSuggestionBGColor(prompt.DarkGray),
		prompt.OptionDescriptionBGColor(prompt.DarkGray),
		prompt.OptionDescriptionTextColor(prompt.White),
		prompt.OptionMaxSuggestion(20),
		prompt.OptionCompletionWordSeparator(promqlWordSeparators),
		// Emacs-style key bindings
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlA,
			Fn: func(buf *prompt.Buffer) {
				x := []rune(buf.Document().CurrentLineBeforeCursor())
				buf.CursorLeft(len(x))
			},
		}),
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlE,
			Fn: func(buf *prompt.Buffer) {
				x := []rune(buf.Document().CurrentLineAfterCursor())
				buf.CursorRight(len(x))
			},
		}),
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlK,
			Fn: func(buf *prompt.Buffer) {
				x := []rune(buf.Document().CurrentLineAfterCursor())
				buf.Delete(len(x))
			},
		}),
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlU,
			Fn: func(buf *prompt.Buffer) {
				x := []rune(buf.Document().CurrentLineBeforeCursor())
				buf.DeleteBeforeCursor(len(x))
			},
		}),
		// Ctrl-W: delete word before cursor with PromQL word boundaries
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlW,
			Fn: func(buf *prompt.Buffer) {
				text := buf.Text()
				pos := len(buf.Document().TextBeforeCursor())
				if pos == 0 {
					return
				}
				start := pos - 1
				for start >= 0 && strings.ContainsRune(promqlWordSeparators, rune(text[start])) {
					start--
				}
				for start >= 0 && !strings.ContainsRune(promqlWordSeparators, rune(text[start])) {
					start--
				}
				start++
				if start < pos {
					buf.DeleteBeforeCursor(pos - start)
				}
			},
		}),
		// Ctrl-D: delete character under cursor, or exit on empty line
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlD,
			Fn: func(buf *prompt.Buffer) {
				if buf.Text() == "" {
					fmt.Println("\nExiting...")
					os.Exit(0)
				}
				buf.Delete(1)
			},
		}),
		// Ctrl-L: clear screen
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlL,
			Fn: func(buf *prompt.Buffer) {
				fmt.Print("\033[2J\033[H")
			},
		}),
	)
	p.Run()
	promptSession = nil
}
