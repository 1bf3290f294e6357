// Package literal evaluates PHP literal expressions into typed values using
// tree-sitter. Anything that is not a compile-time constant evaluates to
// model.Unresolved.
package literal

import (
	"context"
	"errors"
	"math/big"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/callsite/internal/lang"
	"github.com/phobologic/callsite/internal/model"
)

// Evaluator turns one argument's source text into a value.
type Evaluator interface {
	Evaluate(text string) model.Value
}

// Func adapts a function to the Evaluator interface.
type Func func(text string) model.Value

// Evaluate calls f(text).
func (f Func) Evaluate(text string) model.Value { return f(text) }

// PHP evaluates fragments with a shared, lazily created tree-sitter parser.
type PHP struct {
	handle *lang.Handle
}

// NewPHP returns an evaluator for PHP literal syntax.
func NewPHP() *PHP {
	return &PHP{handle: lang.NewHandle(lang.Languages["php"])}
}

// Evaluate parses text as a single PHP expression statement.
func (e *PHP) Evaluate(text string) model.Value {
	if strings.TrimSpace(text) == "" {
		return model.Value{}
	}

	tree, source, err := e.handle.ParseFragment(context.Background(), text)
	if err != nil {
		return model.Value{}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return model.Value{}
	}

	var stmt *sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "php_tag", "comment":
			continue
		case "expression_statement":
			if stmt != nil {
				return model.Value{}
			}
			stmt = child
		default:
			return model.Value{}
		}
	}
	if stmt == nil || stmt.NamedChildCount() == 0 {
		return model.Value{}
	}
	return evalNode(stmt.NamedChild(0), source)
}

func evalNode(node *sitter.Node, source []byte) model.Value {
	text := lang.NodeText(node, source)

	switch node.Type() {
	case "integer":
		return parseInteger(text)
	case "float":
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err != nil {
			return model.Value{}
		}
		return model.FloatValue(f)
	case "boolean":
		return model.BoolValue(strings.EqualFold(text, "true"))
	case "null":
		return model.NullValue()
	case "name", "qualified_name":
		return constant(text)
	case "string", "encapsed_string":
		s, ok := unquote(text)
		if !ok {
			return model.Value{}
		}
		return model.StringValue(s)
	case "parenthesized_expression":
		if node.NamedChildCount() != 1 {
			return model.Value{}
		}
		return evalNode(node.NamedChild(0), source)
	case "unary_op_expression":
		return evalUnary(node, source)
	case "array_creation_expression":
		return evalArray(node, source)
	}
	return model.Value{}
}

// constant resolves the case-insensitive true, false and null constants.
func constant(name string) model.Value {
	switch strings.ToLower(strings.TrimPrefix(name, `\`)) {
	case "true":
		return model.BoolValue(true)
	case "false":
		return model.BoolValue(false)
	case "null":
		return model.NullValue()
	}
	return model.Value{}
}

// parseInteger handles decimal, hex, octal and binary forms with "_"
// separators. Integers that overflow become floats.
func parseInteger(text string) model.Value {
	n, err := strconv.ParseInt(text, 0, 64)
	if err == nil {
		return model.IntValue(n)
	}
	if errors.Is(err, strconv.ErrRange) {
		return overflowFloat(text)
	}
	return model.Value{}
}

// overflowFloat converts an integer literal beyond int64 to the nearest
// float, e.g. 99999999999999999999 to 1.0E+20.
func overflowFloat(text string) model.Value {
	b, ok := new(big.Int).SetString(text, 0)
	if !ok {
		return model.Value{}
	}
	f, _ := new(big.Float).SetInt(b).Float64()
	return model.FloatValue(f)
}

func evalUnary(node *sitter.Node, source []byte) model.Value {
	if node.ChildCount() != 2 || node.NamedChildCount() != 1 {
		return model.Value{}
	}
	op := lang.NodeText(node.Child(0), source)
	v := evalNode(node.NamedChild(0), source)

	switch op {
	case "+":
		if v.Kind == model.Int || v.Kind == model.Float {
			return v
		}
	case "-":
		switch v.Kind {
		case model.Int:
			return model.IntValue(-v.Int)
		case model.Float:
			return model.FloatValue(-v.Float)
		}
	}
	return model.Value{}
}

// evalArray builds an array with PHP key semantics: positional elements take
// the next integer key, numeric string keys are cast to int and a repeated
// key overwrites the earlier element in place.
func evalArray(node *sitter.Node, source []byte) model.Value {
	arr := model.Value{Kind: model.Array, Elems: []model.Value{}, Keys: []model.Value{}}
	var next int64

	for i := 0; i < int(node.NamedChildCount()); i++ {
		elem := node.NamedChild(i)
		if elem.Type() != "array_element_initializer" {
			continue
		}

		var key, value model.Value
		hasKey := false
		for j := 0; j < int(elem.ChildCount()); j++ {
			if elem.Child(j).Type() == "=>" {
				hasKey = true
				break
			}
		}

		switch {
		case elem.NamedChildCount() == 0:
			continue
		case hasKey && elem.NamedChildCount() == 2:
			key = normalizeKey(evalNode(elem.NamedChild(0), source))
			value = evalNode(elem.NamedChild(1), source)
		case !hasKey && elem.NamedChildCount() == 1:
			key = model.IntValue(next)
			value = evalNode(elem.NamedChild(0), source)
		default:
			// Spread and by-reference elements.
			key = model.IntValue(next)
		}

		if key.Kind == model.Int && key.Int >= next {
			next = key.Int + 1
		}
		if key.Resolved() {
			if idx := indexOfKey(arr.Keys, key); idx >= 0 {
				arr.Elems[idx] = value
				continue
			}
		}
		arr.Keys = append(arr.Keys, key)
		arr.Elems = append(arr.Elems, value)
	}
	return arr
}

func normalizeKey(k model.Value) model.Value {
	switch k.Kind {
	case model.String:
		if n, err := strconv.ParseInt(k.Str, 10, 64); err == nil && strconv.FormatInt(n, 10) == k.Str {
			return model.IntValue(n)
		}
	case model.Bool:
		if k.Bool {
			return model.IntValue(1)
		}
		return model.IntValue(0)
	case model.Float:
		return model.IntValue(int64(k.Float))
	case model.Null:
		return model.StringValue("")
	}
	return k
}

func indexOfKey(keys []model.Value, key model.Value) int {
	for i, k := range keys {
		if k.Equal(key) {
			return i
		}
	}
	return -1
}
