package tracelang

import (
	"strconv"
	"strings"
)

// Expr is any node of the parsed tracepoint program. Nodes are immutable
// once parsed; String returns the node's source form, which the evaluator
// uses as the label of logged values.
type Expr interface {
	String() string
	GetLocation() *Location
}

type BadExpr struct {
	Location *Location
	Error    string
}

func (e *BadExpr) String() string         { return "<bad expr: " + e.Error + ">" }
func (e *BadExpr) GetLocation() *Location { return e.Location }

// Block is an ordered sequence of statements: the top-level program, or the
// body of an `if`, `else` or `for`.
type Block struct {
	Statements []Expr
	Loc        *Location
}

func (e *Block) String() string {
	parts := make([]string, 0, len(e.Statements))
	for _, stmt := range e.Statements {
		parts = append(parts, stmt.String())
	}

	return strings.Join(parts, "\n")
}

func (e *Block) GetLocation() *Location { return e.Loc }

type IntLiteral struct {
	Value int64
	Loc   *Location
}

func (e *IntLiteral) String() string         { return strconv.FormatInt(e.Value, 10) }
func (e *IntLiteral) GetLocation() *Location { return e.Loc }

type FloatLiteral struct {
	Value float64
	Loc   *Location
}

func (e *FloatLiteral) String() string         { return formatFloat(e.Value) }
func (e *FloatLiteral) GetLocation() *Location { return e.Loc }

type BoolLiteral struct {
	Value bool
	Loc   *Location
}

func (e *BoolLiteral) String() string         { return strconv.FormatBool(e.Value) }
func (e *BoolLiteral) GetLocation() *Location { return e.Loc }

type StringLiteral struct {
	Value string
	Loc   *Location
}

func (e *StringLiteral) String() string         { return strconv.Quote(e.Value) }
func (e *StringLiteral) GetLocation() *Location { return e.Loc }

type Identifier struct {
	Name string
	Loc  *Location
}

func (e *Identifier) String() string         { return e.Name }
func (e *Identifier) GetLocation() *Location { return e.Loc }

// NamespacedName is a qualified debuggee symbol such as `counters::hits`.
type NamespacedName struct {
	Segments []string
	Loc      *Location
}

func (e *NamespacedName) String() string         { return strings.Join(e.Segments, "::") }
func (e *NamespacedName) GetLocation() *Location { return e.Loc }

// StringPart is one piece of an interpolated string: raw text when Embedded
// is nil, otherwise an embedded expression.
type StringPart struct {
	Raw      string
	Embedded Expr
}

type InterpolatedString struct {
	Parts []StringPart
	Loc   *Location
}

func (e *InterpolatedString) String() string {
	var str strings.Builder
	str.WriteByte('"')
	for _, part := range e.Parts {
		if part.Embedded != nil {
			str.WriteByte('{')
			str.WriteString(part.Embedded.String())
			str.WriteByte('}')
			continue
		}

		str.WriteString(part.Raw)
	}
	str.WriteByte('"')

	return str.String()
}

func (e *InterpolatedString) GetLocation() *Location { return e.Loc }

type UnaryOp string

const (
	UnaryNot      UnaryOp = "not"
	UnaryBang     UnaryOp = "!"
	UnaryNegative UnaryOp = "-"
)

type UnaryExpr struct {
	Operation UnaryOp
	Operand   Expr
	Loc       *Location
}

func (e *UnaryExpr) String() string {
	if e.Operation == UnaryNot {
		return "not " + e.Operand.String()
	}

	return string(e.Operation) + e.Operand.String()
}

func (e *UnaryExpr) GetLocation() *Location { return e.Loc }

type BinaryOp string

const (
	BinaryMultiplication BinaryOp = "*"
	BinaryDivision       BinaryOp = "/"
	BinaryRemainder      BinaryOp = "%"
	BinaryAddition       BinaryOp = "+"
	BinarySubtraction    BinaryOp = "-"
	BinaryEqual          BinaryOp = "=="
	BinaryNotEqual       BinaryOp = "!="
	BinaryGreaterEqual   BinaryOp = ">="
	BinaryGreater        BinaryOp = ">"
	BinaryLessEqual      BinaryOp = "<="
	BinaryLess           BinaryOp = "<"
	BinaryAnd            BinaryOp = "and"
	BinaryOr             BinaryOp = "or"
)

type BinaryExpr struct {
	Operation BinaryOp
	Op1       Expr
	Op2       Expr
	Loc       *Location
}

func (e *BinaryExpr) String() string {
	return e.Op1.String() + " " + string(e.Operation) + " " + e.Op2.String()
}

func (e *BinaryExpr) GetLocation() *Location { return e.Loc }

// RangeOp describes iteration direction and right-bound inclusivity.
type RangeOp string

const (
	RangeUpTo     RangeOp = "..<"
	RangeUpToEq   RangeOp = "..<="
	RangeDownTo   RangeOp = "..>"
	RangeDownToEq RangeOp = "..>="
)

type RangeExpr struct {
	Operation RangeOp
	From      Expr
	To        Expr
	Loc       *Location
}

func (e *RangeExpr) String() string {
	return e.From.String() + " " + string(e.Operation) + " " + e.To.String()
}

func (e *RangeExpr) GetLocation() *Location { return e.Loc }

type IndexExpr struct {
	Base  Expr
	Index Expr
	Loc   *Location
}

func (e *IndexExpr) String() string         { return e.Base.String() + "[" + e.Index.String() + "]" }
func (e *IndexExpr) GetLocation() *Location { return e.Loc }

// FieldExpr accesses a record field by name (`p.x`) or, when Positional is
// set, by tuple position (`p.0`).
type FieldExpr struct {
	Base       Expr
	Name       string
	Position   int64
	Positional bool
	Loc        *Location
}

func (e *FieldExpr) String() string {
	if e.Positional {
		return e.Base.String() + "." + strconv.FormatInt(e.Position, 10)
	}

	return e.Base.String() + "." + e.Name
}

func (e *FieldExpr) GetLocation() *Location { return e.Loc }

type FuncCall struct {
	Name string
	Args []Expr
	Loc  *Location
}

func (e *FuncCall) String() string {
	args := make([]string, 0, len(e.Args))
	for _, arg := range e.Args {
		args = append(args, arg.String())
	}

	return e.Name + "(" + strings.Join(args, ", ") + ")"
}

func (e *FuncCall) GetLocation() *Location { return e.Loc }

type LogExpr struct {
	Args []Expr
	Loc  *Location
}

func (e *LogExpr) String() string {
	args := make([]string, 0, len(e.Args))
	for _, arg := range e.Args {
		args = append(args, arg.String())
	}

	return "log(" + strings.Join(args, ", ") + ")"
}

func (e *LogExpr) GetLocation() *Location { return e.Loc }

// IfExpr chains `else if` through Else, which is nil, another *IfExpr, or a
// *Block for a final `else`.
type IfExpr struct {
	Condition Expr
	Then      *Block
	Else      Expr
	Loc       *Location
}

func (e *IfExpr) String() string {
	str := "if " + e.Condition.String() + " { " + e.Then.String() + " }"
	switch alt := e.Else.(type) {
	case nil:
	case *IfExpr:
		str += " else " + alt.String()
	case *Block:
		str += " else { " + alt.String() + " }"
	}

	return str
}

func (e *IfExpr) GetLocation() *Location { return e.Loc }

type ForExpr struct {
	Names    []string
	Iterable Expr
	Body     *Block
	Loc      *Location
}

func (e *ForExpr) String() string {
	return "for " + strings.Join(e.Names, ", ") + " in " + e.Iterable.String() +
		" { " + e.Body.String() + " }"
}

func (e *ForExpr) GetLocation() *Location { return e.Loc }

// PatternMatch is a `~pattern = expr` or `let pattern = expr` statement. Its
// bindings stay visible for the remainder of the enclosing block.
type PatternMatch struct {
	Introducer string // "~" or "let"
	Pattern    Pattern
	Value      Expr
	Loc        *Location
}

func (e *PatternMatch) String() string {
	lead := e.Introducer
	if lead == "let" {
		lead = "let "
	}

	return lead + e.Pattern.String() + " = " + e.Value.String()
}

func (e *PatternMatch) GetLocation() *Location { return e.Loc }

// Pattern appears only on the left of `~`/`let`.
type Pattern interface {
	String() string
	GetLocation() *Location
}

type WildcardPattern struct {
	Loc *Location
}

func (p *WildcardPattern) String() string         { return "_" }
func (p *WildcardPattern) GetLocation() *Location { return p.Loc }

type RestPattern struct {
	Loc *Location
}

func (p *RestPattern) String() string         { return ".." }
func (p *RestPattern) GetLocation() *Location { return p.Loc }

type BindingPattern struct {
	Name string
	Loc  *Location
}

func (p *BindingPattern) String() string         { return p.Name }
func (p *BindingPattern) GetLocation() *Location { return p.Loc }

// LiteralPattern wraps a literal expression used for exact-match.
type LiteralPattern struct {
	Literal Expr
	Loc     *Location
}

func (p *LiteralPattern) String() string         { return p.Literal.String() }
func (p *LiteralPattern) GetLocation() *Location { return p.Loc }

// ArgsPattern destructures a record positionally: `Some(x, _)`.
type ArgsPattern struct {
	Name string
	Args []Pattern
	Loc  *Location
}

func (p *ArgsPattern) String() string {
	args := make([]string, 0, len(p.Args))
	for _, arg := range p.Args {
		args = append(args, arg.String())
	}

	return p.Name + "(" + strings.Join(args, ", ") + ")"
}

func (p *ArgsPattern) GetLocation() *Location { return p.Loc }

// FieldPattern is one entry of a RecordPattern: `x: pat`, a bare `x`
// binding the field of the same name, or the rest-wildcard `..`.
type FieldPattern struct {
	Name    string
	Pattern Pattern // nil for bare-name fields
	Rest    bool
}

func (p FieldPattern) String() string {
	if p.Rest {
		return ".."
	}

	if p.Pattern == nil {
		return p.Name
	}

	return p.Name + ": " + p.Pattern.String()
}

// RecordPattern destructures a record by field name: `Point{x: a, y, ..}`.
type RecordPattern struct {
	Name   string
	Fields []FieldPattern
	Loc    *Location
}

func (p *RecordPattern) String() string {
	fields := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		fields = append(fields, f.String())
	}

	return p.Name + "{" + strings.Join(fields, ", ") + "}"
}

func (p *RecordPattern) GetLocation() *Location { return p.Loc }
