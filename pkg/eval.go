package tracelang

import (
	"strings"
)

// EvaluationContext is the stack of scopes an evaluation runs against. The
// base layer is the host's snapshot of captured variable bindings and is
// never written to; `for` bodies and block entry push child scopes on top.
type EvaluationContext struct {
	base   map[string]Value
	scopes []map[string]Value
}

func NewEvaluationContext(bindings map[string]Value) *EvaluationContext {
	return &EvaluationContext{base: bindings}
}

func (c *EvaluationContext) push() {
	c.scopes = append(c.scopes, map[string]Value{})
}

func (c *EvaluationContext) pop() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// bind writes into the innermost scope, shadowing any outer binding of the
// same name for the remainder of that scope's lifetime.
func (c *EvaluationContext) bind(name string, v Value) {
	c.scopes[len(c.scopes)-1][name] = v
}

func (c *EvaluationContext) lookup(name string) (Value, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v, true
		}
	}

	v, ok := c.base[name]

	return v, ok
}

// Evaluate runs a parsed tracepoint program against the captured bindings
// and returns the rendered log entries in execution order.
//
// A runtime error halts the whole program: entries produced by completed
// statements are kept, and one final entry is appended combining whatever
// the failing statement had already rendered with `Error=<message>`. The
// returned error carries the same message for the host.
func Evaluate(program *Block, bindings map[string]Value) ([]string, *EvalError) {
	e := &evaluator{ctx: NewEvaluationContext(bindings)}

	e.ctx.push()
	err := e.block(program)
	e.ctx.pop()

	if err != nil {
		e.pending = append(e.pending, "Error="+err.Message)
		e.flush()
	}

	return e.entries, err
}

type evaluator struct {
	ctx     *EvaluationContext
	entries []string

	// pending holds the fields rendered so far by the statement currently
	// executing, so a halt mid-statement can still report them.
	pending []string
}

func (e *evaluator) flush() {
	e.entries = append(e.entries, strings.Join(e.pending, " "))
	e.pending = nil
}

// block runs statements in order inside the current scope. The caller owns
// the push/pop so `let`/`~` bindings stay visible until the block ends.
func (e *evaluator) block(b *Block) *EvalError {
	for _, stmt := range b.Statements {
		if err := e.statement(stmt); err != nil {
			return err
		}
	}

	return nil
}

func (e *evaluator) statement(stmt Expr) *EvalError {
	switch s := stmt.(type) {
	case *LogExpr:
		return e.log(s)
	case *IfExpr:
		return e.ifStmt(s)
	case *ForExpr:
		return e.forStmt(s)
	case *PatternMatch:
		return e.patternMatch(s)
	default:
		// A bare expression statement is evaluated for its errors only.
		_, err := e.expr(stmt)

		return err
	}
}

// log renders each argument left to right. Arguments that name a place in
// the debuggee (identifiers, field and index accesses) keep that name as a
// `name=value` label; computed expressions and literals render bare.
func (e *evaluator) log(s *LogExpr) *EvalError {
	for _, arg := range s.Args {
		v, err := e.expr(arg)
		if err != nil {
			return err
		}

		switch arg.(type) {
		case *Identifier, *NamespacedName, *FieldExpr, *IndexExpr:
			e.pending = append(e.pending, arg.String()+"="+v.String())
		default:
			e.pending = append(e.pending, v.String())
		}
	}

	e.flush()

	return nil
}

func (e *evaluator) condition(cond Expr) (bool, *EvalError) {
	v, err := e.expr(cond)
	if err != nil {
		return false, err
	}

	b, ok := v.(Bool)
	if !ok {
		return false, evalErrorf(cond.GetLocation(), "Non-boolean value on conditional jump")
	}

	return bool(b), nil
}

func (e *evaluator) ifStmt(s *IfExpr) *EvalError {
	ok, err := e.condition(s.Condition)
	if err != nil {
		return err
	}

	if ok {
		return e.scopedBlock(s.Then)
	}

	switch alt := s.Else.(type) {
	case nil:
		return nil
	case *IfExpr:
		return e.ifStmt(alt)
	case *Block:
		return e.scopedBlock(alt)
	default:
		return evalErrorf(s.Loc, "Malformed else branch")
	}
}

func (e *evaluator) scopedBlock(b *Block) *EvalError {
	e.ctx.push()
	err := e.block(b)
	e.ctx.pop()

	return err
}

func (e *evaluator) forStmt(s *ForExpr) *EvalError {
	if rng, ok := s.Iterable.(*RangeExpr); ok {
		return e.forRange(s, rng)
	}

	v, err := e.expr(s.Iterable)
	if err != nil {
		return err
	}

	arr, ok := v.(Array)
	if !ok {
		return evalErrorf(s.Iterable.GetLocation(), "For loop expects a range or an array")
	}

	for _, elem := range arr {
		if err := e.iteration(s, elem); err != nil {
			return err
		}
	}

	return nil
}

// forRange iterates integers with step 1 in the direction the operator
// spells out: `..`/`..<`/`..<=` ascend, `..>`/`..>=` descend.
func (e *evaluator) forRange(s *ForExpr, rng *RangeExpr) *EvalError {
	from, err := e.rangeBound(rng.From)
	if err != nil {
		return err
	}

	to, err := e.rangeBound(rng.To)
	if err != nil {
		return err
	}

	switch rng.Operation {
	case RangeUpTo:
		for i := from; i < to; i++ {
			if err := e.iteration(s, Int(i)); err != nil {
				return err
			}
		}
	case RangeUpToEq:
		for i := from; i <= to; i++ {
			if err := e.iteration(s, Int(i)); err != nil {
				return err
			}
		}
	case RangeDownTo:
		for i := from; i > to; i-- {
			if err := e.iteration(s, Int(i)); err != nil {
				return err
			}
		}
	case RangeDownToEq:
		for i := from; i >= to; i-- {
			if err := e.iteration(s, Int(i)); err != nil {
				return err
			}
		}
	}

	return nil
}

func (e *evaluator) rangeBound(bound Expr) (int64, *EvalError) {
	v, err := e.expr(bound)
	if err != nil {
		return 0, err
	}

	n, ok := v.(Int)
	if !ok {
		return 0, evalErrorf(bound.GetLocation(), "Range bounds must be integers")
	}

	return int64(n), nil
}

// iteration runs one pass of a for body in a fresh scope. With several
// binding names the element is destructured component-wise; it must carry
// at least that many components.
func (e *evaluator) iteration(s *ForExpr, elem Value) *EvalError {
	e.ctx.push()
	defer e.ctx.pop()

	if len(s.Names) == 1 {
		e.ctx.bind(s.Names[0], elem)
	} else {
		components, err := destructure(elem, len(s.Names), s.Iterable.GetLocation())
		if err != nil {
			return err
		}

		for i, name := range s.Names {
			e.ctx.bind(name, components[i])
		}
	}

	return e.block(s.Body)
}

func destructure(v Value, n int, loc *Location) ([]Value, *EvalError) {
	switch c := v.(type) {
	case Array:
		if len(c) < n {
			return nil, evalErrorf(loc, "Cannot destructure %d values out of %d", n, len(c))
		}

		return c[:n], nil
	case Record:
		if len(c.Fields) < n {
			return nil, evalErrorf(loc, "Cannot destructure %d values out of %d", n, len(c.Fields))
		}

		out := make([]Value, n)
		for i := range out {
			out[i] = c.Fields[i].Value
		}

		return out, nil
	default:
		return nil, evalErrorf(loc, "Cannot destructure a non-composite value")
	}
}

func (e *evaluator) patternMatch(s *PatternMatch) *EvalError {
	v, err := e.expr(s.Value)
	if err != nil {
		return err
	}

	binds := map[string]Value{}
	if err := e.match(s.Pattern, v, binds); err != nil {
		return err
	}

	for name, bound := range binds {
		e.ctx.bind(name, bound)
	}

	return nil
}

// match tests a value against a pattern, collecting bindings. Bindings are
// committed by the caller only after the whole pattern matched.
func (e *evaluator) match(p Pattern, v Value, binds map[string]Value) *EvalError {
	switch pat := p.(type) {
	case *WildcardPattern, *RestPattern:
		return nil
	case *BindingPattern:
		binds[pat.Name] = v

		return nil
	case *LiteralPattern:
		lit, err := e.expr(pat.Literal)
		if err != nil {
			return err
		}
		if !valuesEqual(lit, v) {
			return evalErrorf(pat.Loc, "Pattern match failed")
		}

		return nil
	case *ArgsPattern:
		return e.matchArgs(pat, v, binds)
	case *RecordPattern:
		return e.matchRecord(pat, v, binds)
	default:
		return evalErrorf(p.GetLocation(), "Unsupported pattern")
	}
}

func (e *evaluator) matchArgs(pat *ArgsPattern, v Value, binds map[string]Value) *EvalError {
	rec, ok := v.(Record)
	if !ok || rec.Variant != pat.Name {
		return evalErrorf(pat.Loc, "Pattern match failed")
	}

	rest := len(pat.Args) > 0
	if rest {
		_, rest = pat.Args[len(pat.Args)-1].(*RestPattern)
	}

	args := pat.Args
	if rest {
		args = args[:len(args)-1]
		if len(args) > len(rec.Fields) {
			return evalErrorf(pat.Loc, "Pattern match failed")
		}
	} else if len(args) != len(rec.Fields) {
		return evalErrorf(pat.Loc, "Pattern match failed")
	}

	for i, sub := range args {
		if err := e.match(sub, rec.Fields[i].Value, binds); err != nil {
			return err
		}
	}

	return nil
}

func (e *evaluator) matchRecord(pat *RecordPattern, v Value, binds map[string]Value) *EvalError {
	rec, ok := v.(Record)
	if !ok || rec.Variant != pat.Name {
		return evalErrorf(pat.Loc, "Pattern match failed")
	}

	rest := false
	matched := 0
	for _, fp := range pat.Fields {
		if fp.Rest {
			rest = true
			continue
		}

		field, found := recordField(rec, fp.Name)
		if !found {
			return evalErrorf(pat.Loc, "Pattern match failed")
		}
		matched++

		if fp.Pattern == nil {
			binds[fp.Name] = field

			continue
		}
		if err := e.match(fp.Pattern, field, binds); err != nil {
			return err
		}
	}

	if !rest && matched != len(rec.Fields) {
		return evalErrorf(pat.Loc, "Pattern match failed")
	}

	return nil
}

func recordField(rec Record, name string) (Value, bool) {
	for _, f := range rec.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}

	return nil, false
}

// expr evaluates a value-producing expression. Operator errors come back
// without a position; the nearest node location is attached here.
func (e *evaluator) expr(expr Expr) (Value, *EvalError) {
	switch x := expr.(type) {
	case *IntLiteral:
		return Int(x.Value), nil
	case *FloatLiteral:
		return Float(x.Value), nil
	case *BoolLiteral:
		return Bool(x.Value), nil
	case *StringLiteral:
		return String(x.Value), nil
	case *InterpolatedString:
		return e.interpolate(x)
	case *Identifier:
		return e.variable(x.Name, x.Loc)
	case *NamespacedName:
		return e.variable(x.String(), x.Loc)
	case *UnaryExpr:
		return e.unary(x)
	case *BinaryExpr:
		return e.binary(x)
	case *RangeExpr:
		return nil, evalErrorf(x.Loc, "Range is only valid as a for loop iterable")
	case *IndexExpr:
		return e.index(x)
	case *FieldExpr:
		return e.field(x)
	case *FuncCall:
		return nil, evalErrorf(x.Loc, "Unknown function %q", x.Name)
	case *IfExpr:
		return Unit{}, e.ifStmt(x)
	case *ForExpr:
		return Unit{}, e.forStmt(x)
	case *LogExpr:
		return Unit{}, e.log(x)
	case *BadExpr:
		return nil, evalErrorf(x.Location, "Cannot evaluate malformed expression")
	default:
		return nil, evalErrorf(expr.GetLocation(), "Cannot evaluate this expression")
	}
}

func (e *evaluator) variable(name string, loc *Location) (Value, *EvalError) {
	v, ok := e.ctx.lookup(name)
	if !ok {
		return nil, evalErrorf(loc, "Variable %q not found", name)
	}

	return v, nil
}

// interpolate splices embedded expression values between the raw pieces.
// Embedded strings splice in raw, without quotes.
func (e *evaluator) interpolate(s *InterpolatedString) (Value, *EvalError) {
	var str strings.Builder
	for _, part := range s.Parts {
		if part.Embedded == nil {
			str.WriteString(part.Raw)
			continue
		}

		v, err := e.expr(part.Embedded)
		if err != nil {
			return nil, err
		}

		if raw, ok := v.(String); ok {
			str.WriteString(string(raw))
		} else {
			str.WriteString(v.String())
		}
	}

	return String(str.String()), nil
}

func (e *evaluator) unary(x *UnaryExpr) (Value, *EvalError) {
	operand, err := e.expr(x.Operand)
	if err != nil {
		return nil, err
	}

	fn, ok := unaryOpFunctions[x.Operation]
	if !ok {
		return nil, evalErrorf(x.Loc, "Unknown unary operator %q", string(x.Operation))
	}

	v, opErr := fn(operand)

	return v, locate(opErr, x.Loc)
}

func (e *evaluator) binary(x *BinaryExpr) (Value, *EvalError) {
	v1, err := e.expr(x.Op1)
	if err != nil {
		return nil, err
	}

	v2, err := e.expr(x.Op2)
	if err != nil {
		return nil, err
	}

	fn, ok := binaryOpFunctions[x.Operation]
	if !ok {
		return nil, evalErrorf(x.Loc, "Unknown operator %q", string(x.Operation))
	}

	v, opErr := fn(v1, v2)

	return v, locate(opErr, x.Loc)
}

func (e *evaluator) index(x *IndexExpr) (Value, *EvalError) {
	base, err := e.expr(x.Base)
	if err != nil {
		return nil, err
	}

	idx, err := e.expr(x.Index)
	if err != nil {
		return nil, err
	}

	v, opErr := indexValue(base, idx)

	return v, locate(opErr, x.Loc)
}

func (e *evaluator) field(x *FieldExpr) (Value, *EvalError) {
	base, err := e.expr(x.Base)
	if err != nil {
		return nil, err
	}

	if x.Positional {
		v, opErr := fieldByPosition(base, x.Position)

		return v, locate(opErr, x.Loc)
	}

	v, opErr := fieldByName(base, x.Name)

	return v, locate(opErr, x.Loc)
}

func locate(err *EvalError, loc *Location) *EvalError {
	if err != nil && err.Loc == nil {
		err.Loc = loc
	}

	return err
}
