package literal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/callsite/internal/model"
)

func TestEvaluateScalars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want model.Value
	}{
		{"integer", "42", model.IntValue(42)},
		{"negative integer", "-7", model.IntValue(-7)},
		{"hex", "0x1F", model.IntValue(31)},
		{"binary", "0b101", model.IntValue(5)},
		{"octal", "017", model.IntValue(15)},
		{"separators", "1_000_000", model.IntValue(1000000)},
		{"beyond int64", "18446744073709551615", model.FloatValue(18446744073709551616)},
		{"beyond uint64", "99999999999999999999", model.FloatValue(1e20)},
		{"negative beyond uint64", "-99999999999999999999", model.FloatValue(-1e20)},
		{"hex beyond uint64", "0xFFFFFFFFFFFFFFFFFF", model.FloatValue(4722366482869645213696)},
		{"binary beyond int64", "0b1" + strings.Repeat("0", 70), model.FloatValue(1180591620717411303424)},
		{"float", "3.25", model.FloatValue(3.25)},
		{"exponent", "1e3", model.FloatValue(1000)},
		{"negative float", "-0.5", model.FloatValue(-0.5)},
		{"true", "true", model.BoolValue(true)},
		{"upper false", "FALSE", model.BoolValue(false)},
		{"null", "null", model.NullValue()},
		{"single quoted", `'app.name'`, model.StringValue("app.name")},
		{"single quoted escapes", `'it\'s \\ \n'`, model.StringValue(`it's \ \n`)},
		{"double quoted", `"a\tb\x41\u{1F600}"`, model.StringValue("a\tbA\U0001F600")},
		{"double quoted dollar", `"cost: \$5"`, model.StringValue("cost: $5")},
		{"parenthesized", "(5)", model.IntValue(5)},
		{"surrounding space", "  'x'  ", model.StringValue("x")},
	}

	e := NewPHP()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := e.Evaluate(tt.in)
			assert.True(t, tt.want.Equal(got), "Evaluate(%q) = %v, want %v", tt.in, got, tt.want)
		})
	}
}

func TestEvaluateUnresolved(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"variable", "$name"},
		{"call", "foo(1)"},
		{"static call", "Str::slug('a')"},
		{"concatenation", "'a' . 'b'"},
		{"arithmetic", "1 + 2"},
		{"interpolation", `"hello $name"`},
		{"brace interpolation", `"hello {$user->name}"`},
		{"class constant", "User::class"},
		{"unterminated string", "'abc"},
		{"two statements", "1; 2"},
		{"syntax error", "[1, 2"},
		{"constant", "PHP_EOL"},
	}

	e := NewPHP()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := e.Evaluate(tt.in)
			assert.Equal(t, model.Unresolved, got.Kind, "Evaluate(%q) = %v", tt.in, got)
		})
	}
}

func TestEvaluateList(t *testing.T) {
	t.Parallel()

	got := NewPHP().Evaluate("[2, 3]")
	want := model.ListValue(model.IntValue(2), model.IntValue(3))
	assert.True(t, want.Equal(got), "got %v", got)
	assert.True(t, got.IsList())
}

func TestEvaluateLongArraySyntax(t *testing.T) {
	t.Parallel()

	got := NewPHP().Evaluate("array('a', array())")
	require.Equal(t, model.Array, got.Kind)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "a", got.Elems[0].Str)
	assert.Equal(t, model.Array, got.Elems[1].Kind)
	assert.Equal(t, 0, got.Elems[1].Len())
}

func TestEvaluateKeyedArray(t *testing.T) {
	t.Parallel()

	got := NewPHP().Evaluate(`['name' => 'required', '5' => 'five', 'x', 'name' => 'max:3']`)
	require.Equal(t, model.Array, got.Kind)
	require.Equal(t, 3, got.Len())
	assert.False(t, got.IsList())

	v, ok := got.Get(model.StringValue("name"))
	require.True(t, ok)
	assert.Equal(t, "max:3", v.Str, "a repeated key overwrites in place")

	v, ok = got.Get(model.IntValue(5))
	require.True(t, ok)
	assert.Equal(t, "five", v.Str)

	v, ok = got.Get(model.IntValue(6))
	require.True(t, ok, "positional elements continue after the largest int key")
	assert.Equal(t, "x", v.Str)
}

func TestEvaluateArrayWithUnresolvedElements(t *testing.T) {
	t.Parallel()

	got := NewPHP().Evaluate(`[1, $x, 'a' . 'b', [true, foo()]]`)
	require.Equal(t, model.Array, got.Kind)
	require.Equal(t, 4, got.Len())

	assert.Equal(t, model.Int, got.Elems[0].Kind)
	assert.Equal(t, model.Unresolved, got.Elems[1].Kind)
	assert.Equal(t, model.Unresolved, got.Elems[2].Kind)

	inner := got.Elems[3]
	require.Equal(t, model.Array, inner.Kind)
	assert.Equal(t, model.Bool, inner.Elems[0].Kind)
	assert.Equal(t, model.Unresolved, inner.Elems[1].Kind)
}

func TestUnquote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`''`, "", true},
		{`b'bin'`, "bin", true},
		{`"\101\7"`, "A\a", true},
		{`"\q"`, `\q`, true},
		{`"$"`, "$", true},
		{`"$1"`, "$1", true},
		{`"$a"`, "", false},
		{`'open`, "", false},
		{`x`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := unquote(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFuncEvaluator(t *testing.T) {
	t.Parallel()

	var calls int
	var e Evaluator = Func(func(string) model.Value {
		calls++
		return model.NullValue()
	})
	assert.Equal(t, model.Null, e.Evaluate("x").Kind)
	assert.Equal(t, 1, calls)
}
