package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	Unresolved Kind = iota
	Null
	Bool
	Int
	Float
	String
	Array
)

var kindNames = [...]string{
	Unresolved: "unresolved",
	Null:       "null",
	Bool:       "bool",
	Int:        "int",
	Float:      "float",
	String:     "string",
	Array:      "array",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Value is a literal argument value. The zero Value is Unresolved.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	// Elems and Keys are parallel for arrays. Positional elements carry
	// auto-increment Int keys.
	Elems []Value
	Keys  []Value
}

func NullValue() Value { return Value{Kind: Null} }
func BoolValue(b bool) Value { return Value{Kind: Bool, Bool: b} }
func IntValue(i int64) Value { return Value{Kind: Int, Int: i} }
func FloatValue(f float64) Value { return Value{Kind: Float, Float: f} }
func StringValue(s string) Value { return Value{Kind: String, Str: s} }
func UnresolvedValue() Value { return Value{} }

// ListValue builds a positional array.
func ListValue(elems ...Value) Value {
	keys := make([]Value, len(elems))
	for i := range elems {
		keys[i] = IntValue(int64(i))
	}
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: Array, Elems: elems, Keys: keys}
}

// Resolved reports whether v holds a constant.
func (v Value) Resolved() bool { return v.Kind != Unresolved }

// Len returns the number of array elements.
func (v Value) Len() int { return len(v.Elems) }

// Get looks up an array element by key. Keys compare by their PHP string form.
func (v Value) Get(key Value) (Value, bool) {
	if v.Kind != Array || !key.Resolved() {
		return Value{}, false
	}
	want := key.keyString()
	for i, k := range v.Keys {
		if k.Resolved() && k.keyString() == want {
			return v.Elems[i], true
		}
	}
	return Value{}, false
}

// IsList reports whether every key is the positional index of its element.
func (v Value) IsList() bool {
	if v.Kind != Array {
		return false
	}
	for i, k := range v.Keys {
		if k.Kind != Int || k.Int != int64(i) {
			return false
		}
	}
	return true
}

func (v Value) keyString() string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case String:
		return v.Str
	case Bool:
		if v.Bool {
			return "1"
		}
		return "0"
	case Null:
		return ""
	}
	return v.String()
}

// String renders v as PHP-like source.
func (v Value) String() string {
	switch v.Kind {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(v.Bool)
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case Float:
		if math.IsInf(v.Float, 0) || math.IsNaN(v.Float) {
			return phpFloatName(v.Float)
		}
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case String:
		return strconv.Quote(v.Str)
	case Array:
		parts := make([]string, len(v.Elems))
		list := v.IsList()
		for i, e := range v.Elems {
			if list {
				parts[i] = e.String()
			} else {
				parts[i] = v.Keys[i].String() + " => " + e.String()
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "?"
}

// Equal compares two values structurally.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Bool:
		return v.Bool == o.Bool
	case Int:
		return v.Int == o.Int
	case Float:
		return v.Float == o.Float
	case String:
		return v.Str == o.Str
	case Array:
		if len(v.Elems) != len(o.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equal(o.Elems[i]) || !v.Keys[i].Equal(o.Keys[i]) {
				return false
			}
		}
	}
	return true
}

type jsonValue struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
	Keys  []Value         `json:"keys,omitempty"`
}

// MarshalJSON encodes v as {"kind": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	out := jsonValue{Kind: v.Kind.String()}
	var (
		raw []byte
		err error
	)
	switch v.Kind {
	case Null:
		raw = []byte("null")
	case Bool:
		raw, err = json.Marshal(v.Bool)
	case Int:
		raw, err = json.Marshal(v.Int)
	case Float:
		if math.IsInf(v.Float, 0) || math.IsNaN(v.Float) {
			// JSON has no non-finite numbers; use PHP's spelling.
			raw, err = json.Marshal(phpFloatName(v.Float))
			break
		}
		raw, err = json.Marshal(v.Float)
	case String:
		raw, err = json.Marshal(v.Str)
	case Array:
		raw, err = json.Marshal(v.Elems)
		if !v.IsList() {
			out.Keys = v.Keys
		}
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s value: %w", v.Kind, err)
	}
	out.Value = raw
	return json.Marshal(out)
}

func phpFloatName(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case f < 0:
		return "-INF"
	}
	return "INF"
}
