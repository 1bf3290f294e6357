package scan

import (
	"strings"

	"github.com/phobologic/callsite/internal/model"
)

// Split breaks an argument list into its top-level arguments and returns the
// index of the argument containing off, or -1 when off is outside argList.
//
// Commas nested in (), [] or {} or inside string literals do not split, so
// array(...) and [...] literals stay whole. N top-level commas always yield
// N+1 arguments. An offset right after a comma belongs to the following
// argument.
func Split(argList string, off int) ([]model.Argument, int) {
	toks := Tokenize(argList)

	var args []model.Argument
	depth := 0
	start := 0
	emit := func(end int) {
		args = append(args, model.Argument{
			RawText: strings.TrimSpace(argList[start:end]),
			Start:   start,
			End:     end,
		})
	}
	for _, t := range toks {
		switch t.Type {
		case LParen, LBracket, LBrace:
			depth++
		case RParen, RBracket, RBrace:
			if depth > 0 {
				depth--
			}
		case Comma:
			if depth == 0 {
				emit(t.Start)
				start = t.End
			}
		case EOF:
			emit(t.Start)
		}
	}

	return args, ArgumentAt(args, off)
}

// ArgumentAt returns the index of the argument whose segment holds off.
func ArgumentAt(args []model.Argument, off int) int {
	for i, a := range args {
		if off >= a.Start && off <= a.End {
			return i
		}
	}
	return -1
}
