// Package scan locates call expressions and splits their argument lists in
// partial PHP source. It works on raw text and never fails: unterminated
// strings and brackets produce best-effort spans.
package scan

// TokenType represents the kind of token.
type TokenType uint8

const (
	EOF TokenType = iota
	Ident
	DoubleColon
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Arrow  // "=>"
	String // quoted literal, possibly unterminated
	Space
	Other
)

// Token is a lexeme with its byte range in the scanned text.
type Token struct {
	Type  TokenType
	Start int
	End   int
}

// Text returns the token's source text.
func (t Token) Text(src string) string {
	return src[t.Start:t.End]
}

// Tokenize splits src into tokens. Whitespace runs are kept as Space tokens
// so adjacency can be checked by index. The final token is always EOF.
func Tokenize(src string) []Token {
	toks := make([]Token, 0, len(src)/3+1)
	i := 0
	for i < len(src) {
		start := i
		c := src[i]
		var typ TokenType
		switch {
		case isSpace(c):
			for i < len(src) && isSpace(src[i]) {
				i++
			}
			typ = Space
		case c == '@' || isIdentByte(c):
			i++
			for i < len(src) && isIdentByte(src[i]) {
				i++
			}
			typ = Ident
			if c == '@' && i == start+1 {
				typ = Other
			}
		case c == '\'' || c == '"':
			i = skipString(src, i)
			typ = String
		case c == ':' && i+1 < len(src) && src[i+1] == ':':
			i += 2
			typ = DoubleColon
		case c == '=' && i+1 < len(src) && src[i+1] == '>':
			i += 2
			typ = Arrow
		default:
			i++
			switch c {
			case '(':
				typ = LParen
			case ')':
				typ = RParen
			case '[':
				typ = LBracket
			case ']':
				typ = RBracket
			case '{':
				typ = LBrace
			case '}':
				typ = RBrace
			case ',':
				typ = Comma
			default:
				typ = Other
			}
		}
		toks = append(toks, Token{Type: typ, Start: start, End: i})
	}
	return append(toks, Token{Type: EOF, Start: len(src), End: len(src)})
}

// skipString returns the index just past the string literal opened at i.
// An unterminated literal runs to the end of src.
func skipString(src string, i int) int {
	quote := src[i]
	i++
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1
		}
		i++
	}
	return len(src)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isIdentByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
