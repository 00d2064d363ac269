package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// LangserverClient talks to a PromQL language server over its REST surface.
//
// It is deliberately not a Provider: the protocol takes the whole document
// and cursor and answers the whole completion request itself, bypassing the
// grammar-based classification entirely. The server is trusted to be fully
// context-aware; per-label lookups are never issued through it.
type LangserverClient struct {
	base  string
	hc    *http.Client
	limit int
	log   logr.Logger
}

// NewLangserverClient builds a client for the language server at the given
// base URL. limit caps the number of items requested per call.
func NewLangserverClient(endpoint string, limit int, log logr.Logger) *LangserverClient {
	return &LangserverClient{
		base:  strings.TrimRight(endpoint, "/"),
		hc:    &http.Client{Timeout: 10 * time.Second},
		limit: limit,
		log:   log,
	}
}

// Wire shapes. Line and character are 0-based on both axes.
type lspPosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type lspRange struct {
	Start lspPosition `json:"start"`
	End   lspPosition `json:"end"`
}

type lspTextEdit struct {
	Range   lspRange `json:"range"`
	NewText string   `json:"newText"`
}

type lspItem struct {
	Label    string       `json:"label"`
	TextEdit *lspTextEdit `json:"textEdit,omitempty"`
}

type completionBody struct {
	Expr         string `json:"expr"`
	Limit        int    `json:"limit"`
	PositionChar int    `json:"positionChar"`
	PositionLine int    `json:"positionLine"`
}

// Result is a language-server completion batch. From is the absolute
// replacement-start offset derived from the batch's text edits, or -1 when no
// edit was present; edits are uniform across a batch, so the last one
// observed stands for all of them.
type Result struct {
	From  int
	Items []string
}

// Complete requests completions for the document at the given cursor offset.
// Items carrying a text edit contribute the edit's newText as their label.
func (c *LangserverClient) Complete(ctx context.Context, doc string, pos int) (*Result, error) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(doc) {
		pos = len(doc)
	}
	line, char := positionOf(doc, pos)

	body, err := json.Marshal(completionBody{
		Expr:         doc,
		Limit:        c.limit,
		PositionChar: char,
		PositionLine: line,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/completion", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("language server request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("language server returned %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading language server response: %w", err)
	}
	var items []lspItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding language server response: %w", err)
	}

	res := &Result{From: -1, Items: make([]string, 0, len(items))}
	for _, item := range items {
		label := item.Label
		if item.TextEdit != nil {
			label = item.TextEdit.NewText
			res.From = offsetOf(doc, item.TextEdit.Range.Start.Line, item.TextEdit.Range.Start.Character)
		}
		res.Items = append(res.Items, label)
	}
	return res, nil
}

// positionOf converts an absolute byte offset to 0-based line/character
// coordinates, flooring the character at 0 when the cursor sits at the start
// of a line.
func positionOf(doc string, pos int) (line, char int) {
	before := doc[:pos]
	line = strings.Count(before, "\n")
	lineStart := strings.LastIndex(before, "\n") + 1
	char = pos - lineStart
	if char < 0 {
		char = 0
	}
	return line, char
}

// offsetOf converts 0-based line/character coordinates back to an absolute
// byte offset, clamping to the document bounds.
func offsetOf(doc string, line, char int) int {
	start := 0
	for l := 0; l < line; l++ {
		nl := strings.IndexByte(doc[start:], '\n')
		if nl < 0 {
			break
		}
		start += nl + 1
	}
	off := start + char
	if off > len(doc) {
		off = len(doc)
	}
	if off < 0 {
		off = 0
	}
	return off
}
