package tracelang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, source string, bindings map[string]Value) ([]string, *EvalError) {
	t.Helper()

	program, cerr := Parse(source)
	require.NoError(t, cerr, "source: %s", source)

	return Evaluate(program, bindings)
}

func TestEvaluateLog(t *testing.T) {
	cases := []struct {
		source   string
		bindings map[string]Value
		expect   []string
	}{
		{
			"log(a)\nlog(b)",
			map[string]Value{"a": Int(3), "b": Int(5)},
			[]string{"a=3", "b=5"},
		},
		{
			"log(a, b)",
			map[string]Value{"a": Int(3), "b": Int(5)},
			[]string{"a=3 b=5"},
		},
		{
			"log(a + b)",
			map[string]Value{"a": Int(3), "b": Int(5)},
			[]string{"8"},
		},
		{
			"log(a[0], a[2])",
			map[string]Value{"a": Array{Int(1), Int(2), Int(3)}},
			[]string{"a[0]=1 a[2]=3"},
		},
		{
			"log(p.x, p.0)",
			map[string]Value{
				"p": Record{Variant: "Point", Fields: []Field{{"x", Int(3)}, {"y", Int(4)}}},
			},
			[]string{"p.x=3 p.0=3"},
		},
		{
			"log()",
			nil,
			[]string{""},
		},
		{
			`log("I'm in the loop", i)`,
			map[string]Value{"i": Int(0)},
			[]string{`"I'm in the loop" i=0`},
		},
		{
			"log(counters::hits)",
			map[string]Value{"counters::hits": Int(12)},
			[]string{"counters::hits=12"},
		},
		{
			`log("sum is {a + b}")`,
			map[string]Value{"a": Int(3), "b": Int(5)},
			[]string{`"sum is 8"`},
		},
	}

	for _, c := range cases {
		entries, err := run(t, c.source, c.bindings)
		assert.Nil(t, err, "source: %s", c.source)
		assert.Equal(t, c.expect, entries, "source: %s", c.source)
	}
}

func TestEvaluateIf(t *testing.T) {
	source := `
		if a > 2 {
			log("big")
		} else if a > 0 {
			log("small")
		} else {
			log("non-positive")
		}
	`

	entries, err := run(t, source, map[string]Value{"a": Int(1)})
	assert.Nil(t, err)
	assert.Equal(t, []string{`"small"`}, entries)

	entries, err = run(t, source, map[string]Value{"a": Int(5)})
	assert.Nil(t, err)
	assert.Equal(t, []string{`"big"`}, entries)

	entries, err = run(t, source, map[string]Value{"a": Int(-1)})
	assert.Nil(t, err)
	assert.Equal(t, []string{`"non-positive"`}, entries)
}

func TestEvaluateForRange(t *testing.T) {
	cases := []struct {
		source string
		expect []string
	}{
		{
			"for i in 0..3 { log(i) }",
			[]string{"i=0", "i=1", "i=2"},
		},
		{
			"for i in 0..<3 { log(i) }",
			[]string{"i=0", "i=1", "i=2"},
		},
		{
			"for i in 0..<=3 { log(i) }",
			[]string{"i=0", "i=1", "i=2", "i=3"},
		},
		{
			"for i in 3..>0 { log(i) }",
			[]string{"i=3", "i=2", "i=1"},
		},
		{
			"for i in 3..>=0 { log(i) }",
			[]string{"i=3", "i=2", "i=1", "i=0"},
		},
		{
			// Empty ranges iterate zero times
			"for i in 3..<3 { log(i) }",
			nil,
		},
	}

	for _, c := range cases {
		entries, err := run(t, c.source, nil)
		assert.Nil(t, err, "source: %s", c.source)
		assert.Equal(t, c.expect, entries, "source: %s", c.source)
	}
}

func TestEvaluateForArray(t *testing.T) {
	entries, err := run(t, "for x in xs { log(x) }", map[string]Value{
		"xs": Array{Int(10), Int(20)},
	})
	assert.Nil(t, err)
	assert.Equal(t, []string{"x=10", "x=20"}, entries)

	entries, err = run(t, "for (k, v in pairs) { log(k, v) }", map[string]Value{
		"pairs": Array{
			Array{String("a"), Int(1)},
			Array{String("b"), Int(2)},
		},
	})
	assert.Nil(t, err)
	assert.Equal(t, []string{`k="a" v=1`, `k="b" v=2`}, entries)
}

func TestEvaluatePatternMatch(t *testing.T) {
	opt := Record{Variant: "Some", Fields: []Field{{"", Int(42)}}}
	point := Record{Variant: "Point", Fields: []Field{{"x", Int(3)}, {"y", Int(4)}}}

	entries, err := run(t, "~Some(x) = opt\nlog(x)", map[string]Value{"opt": opt})
	assert.Nil(t, err)
	assert.Equal(t, []string{"x=42"}, entries)

	entries, err = run(t, "let Point{x: a, y, ..} = p\nlog(a, y)", map[string]Value{"p": point})
	assert.Nil(t, err)
	assert.Equal(t, []string{"a=3 y=4"}, entries)

	entries, err = run(t, "let _ = p\nlog(1)", map[string]Value{"p": point})
	assert.Nil(t, err)
	assert.Equal(t, []string{"1"}, entries)

	// Mismatched variant halts
	entries, err = run(t, "~None() = opt\nlog(1)", map[string]Value{"opt": opt})
	assert.NotNil(t, err)
	assert.Equal(t, "Pattern match failed", err.Message)
	assert.Equal(t, []string{"Error=Pattern match failed"}, entries)

	// Literal pattern matches only an equal value
	entries, err = run(t, "~42 = n\nlog(1)", map[string]Value{"n": Int(42)})
	assert.Nil(t, err)
	assert.Equal(t, []string{"1"}, entries)

	_, err = run(t, "~42 = n", map[string]Value{"n": Int(41)})
	assert.NotNil(t, err)
}

func TestEvaluateScoping(t *testing.T) {
	// let bindings stay visible for the rest of the block
	entries, err := run(t, "let x = 10\nlog(x)\nlog(x + 1)", nil)
	assert.Nil(t, err)
	assert.Equal(t, []string{"x=10", "11"}, entries)

	// loop bindings shadow outer names and vanish after the loop
	entries, err = run(t, "let x = 10\nfor x in 0..1 { log(x) }\nlog(x)", nil)
	assert.Nil(t, err)
	assert.Equal(t, []string{"x=0", "x=10"}, entries)

	// bindings made inside a loop body do not leak out of the iteration
	_, err = run(t, "for i in 0..2 { let y = i }\nlog(y)", nil)
	assert.NotNil(t, err)
	assert.Equal(t, `Variable "y" not found`, err.Message)
}

func TestEvaluateHaltPreservesPrefix(t *testing.T) {
	source := "log(a[0])\nif a[1] { log(\"x\") }\nlog(a[2])"
	bindings := map[string]Value{
		"a": Array{Int(1), Int(2), Int(3), Int(4), Int(5)},
	}

	entries, err := run(t, source, bindings)
	assert.NotNil(t, err)
	assert.Equal(t, "Non-boolean value on conditional jump", err.Message)
	assert.Equal(t, []string{"a[0]=1", "Error=Non-boolean value on conditional jump"}, entries)
}

func TestEvaluateHaltMidStatement(t *testing.T) {
	// Values already rendered on the failing statement stay in the entry
	entries, err := run(t, "log(a[0], a[7])", map[string]Value{
		"a": Array{Int(1), Int(2), Int(3), Int(4), Int(5)},
	})
	assert.NotNil(t, err)
	assert.Equal(t, []string{"a[0]=1 Error=Index 7 out of range 0..5."}, entries)
}

func TestEvaluateRuntimeErrors(t *testing.T) {
	cases := []struct {
		source   string
		bindings map[string]Value
		message  string
	}{
		{
			"log(1 < \"2\")",
			nil,
			"Comparison requires numeric operands",
		},
		{
			"if n { log(1) }",
			map[string]Value{"n": Int(1)},
			"Non-boolean value on conditional jump",
		},
		{
			"log(missing)",
			nil,
			`Variable "missing" not found`,
		},
		{
			"log(n and true)",
			map[string]Value{"n": Int(1)},
			"Logic operator received non-boolean argument",
		},
		{
			"log(1 / 0)",
			nil,
			"Division by zero",
		},
		{
			"log(0..<3)",
			nil,
			"Range is only valid as a for loop iterable",
		},
		{
			"log(frobnicate(1))",
			nil,
			`Unknown function "frobnicate"`,
		},
		{
			"for x in n { log(x) }",
			map[string]Value{"n": Int(3)},
			"For loop expects a range or an array",
		},
	}

	for _, c := range cases {
		entries, err := run(t, c.source, c.bindings)
		require.NotNil(t, err, "source: %s", c.source)
		assert.Equal(t, c.message, err.Message, "source: %s", c.source)
		assert.Equal(t, "Error="+c.message, entries[len(entries)-1], "source: %s", c.source)
	}
}

func TestEvaluateCoercions(t *testing.T) {
	cases := []struct {
		source string
		expect string
	}{
		{"log(1.0 == 1)", "true"},
		{"log(\"1\" == 1)", "false"},
		{"log(2 + 3.0)", "5.0"},
		{"log(7 / 3)", "2"},
		{"log(7 / 3.0)", "2.3333333333333335"},
		{"log(7 % 3)", "1"},
		{"log(-7 / 3)", "-2"},
	}

	for _, c := range cases {
		entries, err := run(t, c.source, nil)
		assert.Nil(t, err, "source: %s", c.source)
		assert.Equal(t, []string{c.expect}, entries, "source: %s", c.source)
	}
}

func TestEvaluateDoesNotMutateBindings(t *testing.T) {
	bindings := map[string]Value{"a": Int(1)}

	_, err := run(t, "let a = 2\nlog(a)", bindings)
	assert.Nil(t, err)
	assert.Equal(t, Int(1), bindings["a"])
}
