package tracelang

import (
	"math"
	"strconv"
	"strings"
)

type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindArray
	KindRecord
	KindUnit
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindRecord:
		return "record"
	default:
		return "unit"
	}
}

// Value is the evaluator's universe of discourse. Composite debuggee values
// are owned snapshots translated by the host; nothing here points into live
// debuggee memory.
type Value interface {
	Kind() Kind
	String() string
}

type Int int64

func (v Int) Kind() Kind     { return KindInt }
func (v Int) String() string { return strconv.FormatInt(int64(v), 10) }

type Float float64

func (v Float) Kind() Kind     { return KindFloat }
func (v Float) String() string { return formatFloat(float64(v)) }

type Bool bool

func (v Bool) Kind() Kind     { return KindBool }
func (v Bool) String() string { return strconv.FormatBool(bool(v)) }

type String string

func (v String) Kind() Kind     { return KindString }
func (v String) String() string { return strconv.Quote(string(v)) }

type Array []Value

func (v Array) Kind() Kind { return KindArray }

func (v Array) String() string {
	parts := make([]string, 0, len(v))
	for _, elem := range v {
		parts = append(parts, elem.String())
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

// Field is one named (or, with an empty name, positional) component of a
// Record.
type Field struct {
	Name  string
	Value Value
}

// Record uniformly represents a composite debuggee value: a struct, an enum
// variant or a tuple. Fields resolve both by name and by position.
type Record struct {
	Variant string
	Fields  []Field
}

func (v Record) Kind() Kind { return KindRecord }

func (v Record) String() string {
	parts := make([]string, 0, len(v.Fields))
	named := false
	for _, f := range v.Fields {
		if f.Name != "" {
			named = true
			parts = append(parts, f.Name+": "+f.Value.String())
		} else {
			parts = append(parts, f.Value.String())
		}
	}

	if named {
		return v.Variant + "{" + strings.Join(parts, ", ") + "}"
	}

	return v.Variant + "(" + strings.Join(parts, ", ") + ")"
}

// Unit is the result of statements with no value.
type Unit struct{}

func (v Unit) Kind() Kind     { return KindUnit }
func (v Unit) String() string { return "()" }

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}

	return s
}

// ----------------------------------------------------------------------------
// Operator functions
//
// One function per operator, table-driven so both spellings of the worded
// operators share an implementation. These are pure; the evaluator attaches
// source locations to any error they return.
// ----------------------------------------------------------------------------

type unaryOpFunc func(v Value) (Value, *EvalError)
type binaryOpFunc func(v1, v2 Value) (Value, *EvalError)

var unaryOpFunctions = map[UnaryOp]unaryOpFunc{
	UnaryNot:      operatorNot,
	UnaryBang:     operatorNot,
	UnaryNegative: operatorNegation,
}

var binaryOpFunctions = map[BinaryOp]binaryOpFunc{
	BinaryMultiplication: operatorMult,
	BinaryDivision:       operatorDiv,
	BinaryRemainder:      operatorRem,
	BinaryAddition:       operatorPlus,
	BinarySubtraction:    operatorMinus,
	BinaryEqual:          operatorEqual,
	BinaryNotEqual:       operatorNotEqual,
	BinaryGreaterEqual:   operatorGreaterEqual,
	BinaryGreater:        operatorGreater,
	BinaryLessEqual:      operatorLessEqual,
	BinaryLess:           operatorLess,
	BinaryAnd:            operatorAnd,
	BinaryOr:             operatorOr,
}

func operatorNot(v Value) (Value, *EvalError) {
	b, ok := v.(Bool)
	if !ok {
		return nil, evalErrorf(nil, "Logic operator received non-boolean argument")
	}

	return !b, nil
}

func operatorNegation(v Value) (Value, *EvalError) {
	switch n := v.(type) {
	case Int:
		return -n, nil
	case Float:
		return -n, nil
	default:
		return nil, evalErrorf(nil, "Unary - not defined for this value")
	}
}

func operatorAnd(v1, v2 Value) (Value, *EvalError) {
	b1, ok1 := v1.(Bool)
	b2, ok2 := v2.(Bool)
	if !ok1 || !ok2 {
		return nil, evalErrorf(nil, "Logic operator received non-boolean argument")
	}

	return b1 && b2, nil
}

func operatorOr(v1, v2 Value) (Value, *EvalError) {
	b1, ok1 := v1.(Bool)
	b2, ok2 := v2.(Bool)
	if !ok1 || !ok2 {
		return nil, evalErrorf(nil, "Logic operator received non-boolean argument")
	}

	return b1 || b2, nil
}

// numericOperands views two values as numbers. When both are Int the result
// stays in the integer domain; if either is a Float both are promoted.
func numericOperands(v1, v2 Value) (i1, i2 int64, f1, f2 float64, isInt, ok bool) {
	switch a := v1.(type) {
	case Int:
		switch b := v2.(type) {
		case Int:
			return int64(a), int64(b), 0, 0, true, true
		case Float:
			return 0, 0, float64(a), float64(b), false, true
		}
	case Float:
		switch b := v2.(type) {
		case Int:
			return 0, 0, float64(a), float64(b), false, true
		case Float:
			return 0, 0, float64(a), float64(b), false, true
		}
	}

	return 0, 0, 0, 0, false, false
}

func operatorPlus(v1, v2 Value) (Value, *EvalError) {
	i1, i2, f1, f2, isInt, ok := numericOperands(v1, v2)
	if !ok {
		return nil, evalErrorf(nil, "+ not defined for these values")
	}

	if isInt {
		return Int(i1 + i2), nil
	}

	return Float(f1 + f2), nil
}

func operatorMinus(v1, v2 Value) (Value, *EvalError) {
	i1, i2, f1, f2, isInt, ok := numericOperands(v1, v2)
	if !ok {
		return nil, evalErrorf(nil, "- not defined for these values")
	}

	if isInt {
		return Int(i1 - i2), nil
	}

	return Float(f1 - f2), nil
}

func operatorMult(v1, v2 Value) (Value, *EvalError) {
	i1, i2, f1, f2, isInt, ok := numericOperands(v1, v2)
	if !ok {
		return nil, evalErrorf(nil, "* not defined for these values")
	}

	if isInt {
		return Int(i1 * i2), nil
	}

	return Float(f1 * f2), nil
}

// operatorDiv truncates toward zero for integer operands: 7 / 3 == 2,
// -7 / 3 == -2.
func operatorDiv(v1, v2 Value) (Value, *EvalError) {
	i1, i2, f1, f2, isInt, ok := numericOperands(v1, v2)
	if !ok {
		return nil, evalErrorf(nil, "/ not defined for these values")
	}

	if isInt {
		if i2 == 0 {
			return nil, evalErrorf(nil, "Division by zero")
		}

		return Int(i1 / i2), nil
	}

	return Float(f1 / f2), nil
}

// operatorRem follows truncating division: the result has the sign of the
// dividend.
func operatorRem(v1, v2 Value) (Value, *EvalError) {
	i1, i2, f1, f2, isInt, ok := numericOperands(v1, v2)
	if !ok {
		return nil, evalErrorf(nil, "%% not defined for these values")
	}

	if isInt {
		if i2 == 0 {
			return nil, evalErrorf(nil, "Division by zero")
		}

		return Int(i1 % i2), nil
	}

	return Float(math.Mod(f1, f2)), nil
}

// valuesEqual is the one place where kinds may legally cross: Int and Float
// compare by numeric value. All other kind mismatches are simply unequal,
// never an error.
func valuesEqual(v1, v2 Value) bool {
	if i1, i2, f1, f2, isInt, ok := numericOperands(v1, v2); ok {
		if isInt {
			return i1 == i2
		}

		return f1 == f2
	}

	if v1.Kind() != v2.Kind() {
		return false
	}

	switch a := v1.(type) {
	case Bool:
		return a == v2.(Bool)
	case String:
		return a == v2.(String)
	case Array:
		b := v2.(Array)
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !valuesEqual(a[i], b[i]) {
				return false
			}
		}

		return true
	case Record:
		b := v2.(Record)
		if a.Variant != b.Variant || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name {
				return false
			}
			if !valuesEqual(a.Fields[i].Value, b.Fields[i].Value) {
				return false
			}
		}

		return true
	case Unit:
		return true
	default:
		return false
	}
}

func operatorEqual(v1, v2 Value) (Value, *EvalError) {
	return Bool(valuesEqual(v1, v2)), nil
}

func operatorNotEqual(v1, v2 Value) (Value, *EvalError) {
	return Bool(!valuesEqual(v1, v2)), nil
}

func compareNumeric(op BinaryOp, v1, v2 Value) (Value, *EvalError) {
	i1, i2, f1, f2, isInt, ok := numericOperands(v1, v2)
	if !ok {
		return nil, evalErrorf(nil, "Comparison requires numeric operands")
	}

	var res bool
	if isInt {
		switch op {
		case BinaryLess:
			res = i1 < i2
		case BinaryLessEqual:
			res = i1 <= i2
		case BinaryGreater:
			res = i1 > i2
		case BinaryGreaterEqual:
			res = i1 >= i2
		}
	} else {
		switch op {
		case BinaryLess:
			res = f1 < f2
		case BinaryLessEqual:
			res = f1 <= f2
		case BinaryGreater:
			res = f1 > f2
		case BinaryGreaterEqual:
			res = f1 >= f2
		}
	}

	return Bool(res), nil
}

func operatorLess(v1, v2 Value) (Value, *EvalError) {
	return compareNumeric(BinaryLess, v1, v2)
}

func operatorLessEqual(v1, v2 Value) (Value, *EvalError) {
	return compareNumeric(BinaryLessEqual, v1, v2)
}

func operatorGreater(v1, v2 Value) (Value, *EvalError) {
	return compareNumeric(BinaryGreater, v1, v2)
}

func operatorGreaterEqual(v1, v2 Value) (Value, *EvalError) {
	return compareNumeric(BinaryGreaterEqual, v1, v2)
}

// indexValue resolves e[i]: e must be an Array, i an Int inside [0, len).
func indexValue(base, index Value) (Value, *EvalError) {
	arr, ok := base.(Array)
	if !ok {
		return nil, evalErrorf(nil, "Trying to index non-array value")
	}

	i, ok := index.(Int)
	if !ok {
		return nil, evalErrorf(nil, "Trying to index with non-integer value")
	}

	if i < 0 || int64(i) >= int64(len(arr)) {
		return nil, evalErrorf(nil, "Index %d out of range 0..%d.", int64(i), len(arr))
	}

	return arr[i], nil
}

// fieldByName resolves e.name against a Record.
func fieldByName(base Value, name string) (Value, *EvalError) {
	rec, ok := base.(Record)
	if !ok {
		return nil, evalErrorf(nil, "Accessing field of a non-record value")
	}

	for _, f := range rec.Fields {
		if f.Name == name {
			return f.Value, nil
		}
	}

	return nil, evalErrorf(nil, "No field %q for record %q", name, rec.Variant)
}

// fieldByPosition resolves e.N, treating the record as tuple-like.
func fieldByPosition(base Value, pos int64) (Value, *EvalError) {
	rec, ok := base.(Record)
	if !ok {
		return nil, evalErrorf(nil, "Accessing field of a non-record value")
	}

	if pos < 0 || pos >= int64(len(rec.Fields)) {
		return nil, evalErrorf(nil, "No field %d for record %q", pos, rec.Variant)
	}

	return rec.Fields[pos].Value, nil
}
