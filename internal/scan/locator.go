package scan

import (
	"strings"

	"github.com/phobologic/callsite/internal/model"
)

const (
	// DefaultMaxParenNesting is how deep parentheses may nest inside a
	// candidate's argument list before the candidate is rejected.
	DefaultMaxParenNesting = 6

	// LegacyMaxParenNesting is the bound of the regex-based matcher this
	// locator replaces: two levels of parentheses inside an argument list.
	LegacyMaxParenNesting = 2
)

// Locator finds call expressions of the form [Class::]name(args).
// Only registered classes qualify a call; any other identifier directly
// followed by "(" is matched as a bare function call.
type Locator struct {
	classes    map[string]struct{}
	maxNesting int
}

// NewLocator creates a locator recognizing the given class names.
// A maxNesting below zero selects DefaultMaxParenNesting.
func NewLocator(classes []string, maxNesting int) *Locator {
	if maxNesting < 0 {
		maxNesting = DefaultMaxParenNesting
	}
	set := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		set[c] = struct{}{}
	}
	return &Locator{classes: set, maxNesting: maxNesting}
}

// MaxNesting returns the parenthesis nesting bound.
func (l *Locator) MaxNesting() int {
	return l.maxNesting
}

// Locate scans text left to right and returns the call whose span contains
// off. Accepted candidates do not overlap: scanning resumes after each
// accepted span. When more than one span contains off the last one wins.
func (l *Locator) Locate(text string, off int) (model.CallMatch, bool) {
	var (
		best  model.CallMatch
		found bool
	)
	for _, m := range l.Matches(text) {
		if m.Span.Contains(off) || (!m.Terminated && off == m.Span.End) {
			best, found = m, true
		}
	}
	return best, found
}

// Matches returns every accepted candidate in text, in scan order.
func (l *Locator) Matches(text string) []model.CallMatch {
	toks := Tokenize(text)
	parens := pairParens(toks)
	var out []model.CallMatch
	for i := 0; i < len(toks); {
		m, next, ok := l.matchAt(text, toks, parens, i)
		if !ok {
			i++
			continue
		}
		out = append(out, m)
		i = next
	}
	return out
}

// matchAt tries to build a candidate starting at token i. It returns the
// index of the first token after the candidate.
func (l *Locator) matchAt(text string, toks []Token, parens []parenGroup, i int) (model.CallMatch, int, bool) {
	if toks[i].Type != Ident {
		return model.CallMatch{}, 0, false
	}

	// Qualified form first, then the bare name.
	if i+3 < len(toks) && toks[i+1].Type == DoubleColon && toks[i+2].Type == Ident && toks[i+3].Type == LParen {
		class := toks[i].Text(text)
		if _, ok := l.classes[class]; ok {
			if m, next, ok := l.argList(text, toks, parens, i+3); ok {
				m.Span.Start = toks[i].Start
				m.Class = class
				m.Function = toks[i+2].Text(text)
				return m, next, true
			}
		}
	}

	if i+1 < len(toks) && toks[i+1].Type == LParen && !isClosureKeyword(toks[i].Text(text)) {
		if m, next, ok := l.argList(text, toks, parens, i+1); ok {
			m.Span.Start = toks[i].Start
			m.Function = toks[i].Text(text)
			return m, next, true
		}
	}
	return model.CallMatch{}, 0, false
}

// isClosureKeyword reports whether name opens a closure signature or its
// use list rather than naming a callee.
func isClosureKeyword(name string) bool {
	switch strings.ToLower(name) {
	case "function", "fn", "use":
		return true
	}
	return false
}

// argList builds the candidate body for the parenthesis opened at toks[lp].
func (l *Locator) argList(text string, toks []Token, parens []parenGroup, lp int) (model.CallMatch, int, bool) {
	g := parens[lp]
	if !g.accepted || g.nesting > l.maxNesting {
		return model.CallMatch{}, 0, false
	}
	open := toks[lp].End
	if g.close < 0 {
		return model.CallMatch{
			Span:          model.Span{End: len(text)},
			ArgList:       text[open:],
			ArgListOffset: open,
		}, len(toks), true
	}
	rp := toks[g.close]
	return model.CallMatch{
		Span:          model.Span{End: rp.End},
		ArgList:       text[open:rp.Start],
		ArgListOffset: open,
		Terminated:    true,
	}, g.close + 1, true
}

// parenGroup describes the group opened by an LParen token.
type parenGroup struct {
	close    int // index of the matching RParen, -1 if unterminated
	nesting  int // deepest parenthesis level inside the group
	accepted bool
}

// pairParens matches parentheses in one pass with a stack. A group left open
// at the end of text is accepted only if no group inside it is also open.
func pairParens(toks []Token) []parenGroup {
	groups := make([]parenGroup, len(toks))
	var stack []int
	pop := func() {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			parent := &groups[stack[len(stack)-1]]
			parent.nesting = max(parent.nesting, groups[top].nesting+1)
		}
	}
	for j, t := range toks {
		switch t.Type {
		case LParen:
			groups[j] = parenGroup{close: -1}
			stack = append(stack, j)
		case RParen:
			if len(stack) == 0 {
				continue
			}
			g := &groups[stack[len(stack)-1]]
			g.close = j
			g.accepted = true
			pop()
		}
	}
	if len(stack) > 0 {
		groups[stack[len(stack)-1]].accepted = true
	}
	for len(stack) > 0 {
		pop()
	}
	return groups
}
