// Package model defines core data structures for callsite.
package model

// Window is a bounded slice of a buffer. Base is added to a window-local
// position to get the buffer-absolute position.
type Window struct {
	Text string
	Base int
}

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// Contains reports whether off lies in [Start, End).
func (s Span) Contains(off int) bool {
	return off >= s.Start && off < s.End
}

// CallMatch is one syntactic call candidate found in a window.
type CallMatch struct {
	Span     Span
	Class    string // "" when the call is not qualified by a registered class
	Function string
	ArgList  string
	// ArgListOffset is the position of the first byte after "(".
	ArgListOffset int
	// Terminated is false when the argument list ran to the end of the text.
	Terminated bool
}

// Argument is one top-level slice of an argument list.
// Start and End bound the untrimmed segment between delimiters; RawText is
// the trimmed segment.
type Argument struct {
	RawText string
	Start   int
	End     int
}

// CallSite is the resolved call enclosing a cursor.
type CallSite struct {
	Class    string `json:"class,omitempty"`
	Function string `json:"function"`
	// ArgumentIndex is nil when the cursor is not inside the argument list.
	ArgumentIndex *int     `json:"argumentIndex"`
	Values        []Value  `json:"values"`
	RawArguments  []string `json:"rawArguments"`
}

// Index returns the argument index and whether one is set.
func (cs *CallSite) Index() (int, bool) {
	if cs == nil || cs.ArgumentIndex == nil {
		return 0, false
	}
	return *cs.ArgumentIndex, true
}

// Value returns the evaluated argument at i, or Unresolved when out of range.
func (cs *CallSite) Value(i int) Value {
	if cs == nil || i < 0 || i >= len(cs.Values) {
		return Value{}
	}
	return cs.Values[i]
}
