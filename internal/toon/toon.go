// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/callsite/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a resolved call site and the name of its call family
// into TOON format. A nil call site encodes as "callSite: null".
func Encode(cs *model.CallSite, family string) string {
	if cs == nil {
		return "callSite: null"
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("class: %s", encodeValue(cs.Class)))
	parts = append(parts, fmt.Sprintf("function: %s", encodeValue(cs.Function)))
	if family != "" {
		parts = append(parts, fmt.Sprintf("family: %s", encodeValue(family)))
	}
	if idx, ok := cs.Index(); ok {
		parts = append(parts, fmt.Sprintf("argumentIndex: %d", idx))
	} else {
		parts = append(parts, "argumentIndex: null")
	}

	var argRows [][]string
	for i, raw := range cs.RawArguments {
		v := cs.Value(i)
		var value string
		switch v.Kind {
		case model.Unresolved:
		case model.String:
			value = v.Str
		default:
			value = v.String()
		}
		argRows = append(argRows, []string{
			fmt.Sprintf("%d", i),
			v.Kind.String(),
			value,
			raw,
		})
	}
	parts = append(parts, Table("arguments", []string{"index", "kind", "value", "raw"}, argRows))

	return strings.Join(parts, "\n")
}

// List encodes a named list of strings as a TOON primitive array.
func List(name string, items []string) string {
	if len(items) == 0 {
		return fmt.Sprintf("%s[0]:", name)
	}
	encoded := make([]string, len(items))
	for i, item := range items {
		encoded[i] = encodeValue(item)
	}
	return fmt.Sprintf("%s[%d]: %s", name, len(items), strings.Join(encoded, ","))
}

// Table encodes rows under a header naming the row count and columns.
func Table(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
