// Package complete implements PromQL completion: it classifies the
// grammatical situation at the cursor by walking the syntax tree, gathers
// static grammar terms and metadata-derived names, and assembles them into a
// single ranked, position-accurate candidate list.
package complete

// CandidateKind is the display category of a candidate.
type CandidateKind uint8

const (
	KindNone     CandidateKind = iota // no special rendering
	KindConstant                      // metadata-derived: metric names, label names, label values
	KindKeyword                       // aggregators, modifiers
	KindFunction                      // function names
	KindText                          // plain text, e.g. language-server results
)

func (k CandidateKind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindKeyword:
		return "keyword"
	case KindFunction:
		return "function"
	case KindText:
		return "text"
	default:
		return "none"
	}
}

// Candidate is a single completion suggestion. Insert is the text to insert
// when it differs from Label (snippet expansions); an empty Insert means the
// label itself is inserted. Score orders candidates for display, lower first.
type Candidate struct {
	Label  string
	Insert string
	Detail string
	Kind   CandidateKind
	Score  int
}

// InsertText returns the text the host should insert for this candidate.
func (c Candidate) InsertText() string {
	if c.Insert != "" {
		return c.Insert
	}
	return c.Label
}

// Request is a completion result: replace the document span [From, To) with
// the chosen candidate's insert text. From <= cursor <= To always holds and
// both ends align to token boundaries. Query is the in-progress text the
// candidates were filtered against.
//
// A nil *Request means "no completion applicable"; a non-nil request with no
// candidates means completion applied but nothing matched.
type Request struct {
	From       int
	To         int
	Query      string
	Candidates []Candidate
}
