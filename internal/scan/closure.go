package scan

import "strings"

// Closure is the body of an anonymous function literal.
type Closure struct {
	Body string
	// Offset is the position of Body within the scanned text.
	Offset int
	// Arrow is true for "fn (...) => expr" literals.
	Arrow bool
}

// Contains reports whether off lies inside the body, bounds included.
func (c Closure) Contains(off int) bool {
	return off >= c.Offset && off <= c.Offset+len(c.Body)
}

// ClosureBody isolates the body when text, ignoring surrounding whitespace,
// is exactly one anonymous function literal:
//
//	[static] function [&] (params) [use (vars)] [: type] { body }
//	[static] fn [&] (params) [: type] => expr
//
// An unterminated body runs to the end of text.
func ClosureBody(text string) (Closure, bool) {
	toks := Tokenize(text)
	i := skipSpace(toks, 0)

	if isKeyword(toks[i], text, "static") {
		i = skipSpace(toks, i+1)
	}
	var arrow bool
	switch {
	case isKeyword(toks[i], text, "function"):
	case isKeyword(toks[i], text, "fn"):
		arrow = true
	default:
		return Closure{}, false
	}
	i = skipSpace(toks, i+1)
	if toks[i].Type == Other && toks[i].Text(text) == "&" {
		i = skipSpace(toks, i+1)
	}

	i, ok := skipGroup(toks, i)
	if !ok {
		return Closure{}, false
	}
	i = skipSpace(toks, i)

	if !arrow && isKeyword(toks[i], text, "use") {
		if i, ok = skipGroup(toks, skipSpace(toks, i+1)); !ok {
			return Closure{}, false
		}
		i = skipSpace(toks, i)
	}

	// Return type: everything up to the body opener.
	if toks[i].Type == Other && toks[i].Text(text) == ":" {
		for toks[i].Type != EOF && toks[i].Type != LBrace && toks[i].Type != Arrow {
			i++
		}
	}

	if arrow {
		if toks[i].Type != Arrow {
			return Closure{}, false
		}
		start := toks[i].End
		return Closure{Body: text[start:], Offset: start, Arrow: true}, true
	}

	if toks[i].Type != LBrace {
		return Closure{}, false
	}
	start := toks[i].End
	depth := 0
	for j := i + 1; j < len(toks); j++ {
		switch toks[j].Type {
		case LBrace:
			depth++
		case RBrace:
			if depth > 0 {
				depth--
				continue
			}
			if toks[skipSpace(toks, j+1)].Type != EOF {
				return Closure{}, false
			}
			return Closure{Body: text[start:toks[j].Start], Offset: start}, true
		}
	}
	return Closure{Body: text[start:], Offset: start}, true
}

// skipGroup expects a "(" at toks[i] and returns the index after its match.
func skipGroup(toks []Token, i int) (int, bool) {
	if toks[i].Type != LParen {
		return i, false
	}
	depth := 0
	for j := i; j < len(toks); j++ {
		switch toks[j].Type {
		case LParen:
			depth++
		case RParen:
			depth--
			if depth == 0 {
				return j + 1, true
			}
		case EOF:
			return j, false
		}
	}
	return len(toks) - 1, false
}

func skipSpace(toks []Token, i int) int {
	for toks[i].Type == Space {
		i++
	}
	return i
}

func isKeyword(t Token, src, kw string) bool {
	return t.Type == Ident && strings.EqualFold(t.Text(src), kw)
}
