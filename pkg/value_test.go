package tracelang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEquality(t *testing.T) {
	cases := []struct {
		v1     Value
		v2     Value
		expect bool
	}{
		{Int(1), Int(1), true},
		{Int(1), Int(2), false},
		{Int(1), Float(1.0), true},
		{Float(1.0), Int(1), true},
		{Float(1.5), Int(1), false},
		{String("1"), Int(1), false},
		{Bool(true), Int(1), false},
		{String("a"), String("a"), true},
		{Array{Int(1), Int(2)}, Array{Int(1), Int(2)}, true},
		{Array{Int(1)}, Array{Int(1), Int(2)}, false},
		{Array{Int(1)}, Array{Float(1.0)}, true},
		{
			Record{Variant: "Point", Fields: []Field{{"x", Int(1)}, {"y", Int(2)}}},
			Record{Variant: "Point", Fields: []Field{{"x", Int(1)}, {"y", Int(2)}}},
			true,
		},
		{
			Record{Variant: "Point", Fields: []Field{{"x", Int(1)}}},
			Record{Variant: "Vec", Fields: []Field{{"x", Int(1)}}},
			false,
		},
		{Unit{}, Unit{}, true},
	}

	for _, c := range cases {
		eq, err := operatorEqual(c.v1, c.v2)
		assert.Nil(t, err)
		assert.Equal(t, Bool(c.expect), eq, "%s == %s", c.v1, c.v2)

		ne, err := operatorNotEqual(c.v1, c.v2)
		assert.Nil(t, err)
		assert.Equal(t, Bool(!c.expect), ne, "%s != %s", c.v1, c.v2)
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		op     BinaryOp
		v1     Value
		v2     Value
		expect Value
		fail   bool
	}{
		{BinaryAddition, Int(2), Float(3.0), Float(5.0), false},
		{BinaryAddition, Float(3.0), Int(2), Float(5.0), false},
		{BinaryDivision, Int(7), Int(3), Int(2), false},
		{BinaryDivision, Int(-7), Int(3), Int(-2), false},
		{BinaryDivision, Int(7), Float(3.0), Float(7.0 / 3.0), false},
		{BinaryRemainder, Int(7), Int(3), Int(1), false},
		{BinaryRemainder, Int(-7), Int(3), Int(-1), false},
		{BinaryMultiplication, Int(4), Int(5), Int(20), false},
		{BinarySubtraction, Int(1), Int(3), Int(-2), false},
		{BinaryDivision, Int(1), Int(0), nil, true},
		{BinaryRemainder, Int(1), Int(0), nil, true},
		{BinaryAddition, String("a"), Int(1), nil, true},
		{BinaryMultiplication, Bool(true), Int(1), nil, true},
		{BinaryRemainder, String("a"), Int(1), nil, true},
	}

	for _, c := range cases {
		got, err := binaryOpFunctions[c.op](c.v1, c.v2)
		if c.fail {
			assert.NotNil(t, err)
			continue
		}

		assert.Nil(t, err)
		assert.Equal(t, c.expect, got, "%s %s %s", c.v1, c.op, c.v2)
	}
}

func TestArithmeticErrorMessages(t *testing.T) {
	cases := []struct {
		op      BinaryOp
		message string
	}{
		{BinaryAddition, "+ not defined for these values"},
		{BinarySubtraction, "- not defined for these values"},
		{BinaryMultiplication, "* not defined for these values"},
		{BinaryDivision, "/ not defined for these values"},
		{BinaryRemainder, "% not defined for these values"},
	}

	for _, c := range cases {
		_, err := binaryOpFunctions[c.op](String("a"), Int(1))
		if assert.NotNil(t, err) {
			assert.Equal(t, c.message, err.Message)
		}
	}
}

func TestOrdering(t *testing.T) {
	cases := []struct {
		op     BinaryOp
		v1     Value
		v2     Value
		expect bool
		fail   bool
	}{
		{BinaryLess, Int(1), Int(2), true, false},
		{BinaryLess, Int(2), Int(2), false, false},
		{BinaryLessEqual, Int(2), Int(2), true, false},
		{BinaryGreater, Float(2.5), Int(2), true, false},
		{BinaryGreaterEqual, Int(2), Float(2.0), true, false},
		{BinaryLess, Int(1), String("2"), false, true},
		{BinaryGreater, Bool(true), Bool(false), false, true},
	}

	for _, c := range cases {
		got, err := binaryOpFunctions[c.op](c.v1, c.v2)
		if c.fail {
			assert.NotNil(t, err)
			assert.Equal(t, "Comparison requires numeric operands", err.Message)
			continue
		}

		assert.Nil(t, err)
		assert.Equal(t, Bool(c.expect), got)
	}
}

func TestLogic(t *testing.T) {
	v, err := operatorAnd(Bool(true), Bool(false))
	assert.Nil(t, err)
	assert.Equal(t, Bool(false), v)

	v, err = operatorOr(Bool(true), Bool(false))
	assert.Nil(t, err)
	assert.Equal(t, Bool(true), v)

	v, err = operatorNot(Bool(false))
	assert.Nil(t, err)
	assert.Equal(t, Bool(true), v)

	_, err = operatorAnd(Int(1), Bool(true))
	assert.NotNil(t, err)
	assert.Equal(t, "Logic operator received non-boolean argument", err.Message)
}

func TestIndexing(t *testing.T) {
	arr := Array{Int(10), Int(20), Int(30)}

	v, err := indexValue(arr, Int(0))
	assert.Nil(t, err)
	assert.Equal(t, Int(10), v)

	v, err = indexValue(arr, Int(2))
	assert.Nil(t, err)
	assert.Equal(t, Int(30), v)

	_, err = indexValue(arr, Int(3))
	assert.NotNil(t, err)
	assert.Equal(t, "Index 3 out of range 0..3.", err.Message)

	_, err = indexValue(arr, Int(-1))
	assert.NotNil(t, err)

	_, err = indexValue(arr, Float(1.0))
	assert.NotNil(t, err)

	_, err = indexValue(Int(1), Int(0))
	assert.NotNil(t, err)
}

func TestFieldAccess(t *testing.T) {
	p := Record{Variant: "Point", Fields: []Field{{"x", Int(3)}, {"y", Int(4)}}}

	v, err := fieldByName(p, "y")
	assert.Nil(t, err)
	assert.Equal(t, Int(4), v)

	_, err = fieldByName(p, "z")
	assert.NotNil(t, err)

	v, err = fieldByPosition(p, 0)
	assert.Nil(t, err)
	assert.Equal(t, Int(3), v)

	_, err = fieldByPosition(p, 2)
	assert.NotNil(t, err)

	_, err = fieldByName(Int(1), "x")
	assert.NotNil(t, err)
	assert.Equal(t, "Accessing field of a non-record value", err.Message)
}

func TestRendering(t *testing.T) {
	cases := []struct {
		v      Value
		expect string
	}{
		{Int(3), "3"},
		{Int(-7), "-7"},
		{Float(5.0), "5.0"},
		{Float(2.5), "2.5"},
		{Bool(true), "true"},
		{String("hi"), `"hi"`},
		{Array{Int(1), Int(2), Int(3)}, "[1, 2, 3]"},
		{
			Record{Variant: "Point", Fields: []Field{{"x", Int(1)}, {"y", Int(2)}}},
			"Point{x: 1, y: 2}",
		},
		{
			Record{Variant: "Some", Fields: []Field{{"", Int(1)}}},
			"Some(1)",
		},
		{Unit{}, "()"},
	}

	for _, c := range cases {
		assert.Equal(t, c.expect, c.v.String())
	}
}
